package composer

import (
	"math"
	"slices"
	"strings"

	"organ/internal/units"
)

// DefaultFormulaName is given to new and cleared formulas.
const DefaultFormulaName = "Untitled Composition"

// State is the lifecycle position of a working formula.
type State string

const (
	StateEmpty   State = "empty"
	StateEditing State = "editing"
	StateSaved   State = "saved"
)

// FormulaEntry pairs an ingredient with an amount in the formula's active unit.
type FormulaEntry struct {
	Ingredient Ingredient `json:"ingredient"`
	Amount     float64    `json:"amount"`
}

// Formula is the working composition being edited. Entries keep insertion
// order and hold at most one entry per ingredient id.
type Formula struct {
	Name          string         `json:"name"`
	Mode          units.Unit     `json:"mode"`
	Entries       []FormulaEntry `json:"entries"`
	CompositionID string         `json:"compositionId,omitempty"`
	Version       int            `json:"version,omitempty"`
	Saved         bool           `json:"saved,omitempty"`
}

// NewFormula returns an empty formula measured in drops.
func NewFormula() *Formula {
	return &Formula{Name: DefaultFormulaName, Mode: units.Drops}
}

// State reports where the formula sits in its lifecycle.
func (f *Formula) State() State {
	switch {
	case f.Saved:
		return StateSaved
	case len(f.Entries) == 0:
		return StateEmpty
	default:
		return StateEditing
	}
}

// Identity returns the id of the composition this formula was saved as or
// loaded from. Empty means the next save creates a new record.
func (f *Formula) Identity() string {
	return f.CompositionID
}

// Len returns the number of entries.
func (f *Formula) Len() int {
	return len(f.Entries)
}

// Entry returns the entry for an ingredient id.
func (f *Formula) Entry(id string) (FormulaEntry, bool) {
	if i := f.index(id); i >= 0 {
		return f.Entries[i], true
	}
	return FormulaEntry{}, false
}

// Add puts one increment of ing into the formula. Re-adding an ingredient
// raises its amount instead of creating a second entry.
func (f *Formula) Add(ing Ingredient) {
	inc := units.Increment(f.mode())
	if i := f.index(ing.ID); i >= 0 {
		f.Entries[i].Amount = f.normalize(f.Entries[i].Amount + inc)
	} else {
		f.Entries = append(f.Entries, FormulaEntry{Ingredient: ing, Amount: inc})
	}
	f.touch()
}

// AddAmount appends ing with an explicit amount, or adds amount to an
// existing entry. Used when rebuilding formulas from stored or generated data.
func (f *Formula) AddAmount(ing Ingredient, amount float64) {
	if i := f.index(ing.ID); i >= 0 {
		f.Entries[i].Amount = f.normalize(f.Entries[i].Amount + amount)
	} else {
		f.Entries = append(f.Entries, FormulaEntry{Ingredient: ing, Amount: f.normalize(amount)})
	}
	f.touch()
}

// Remove deletes the entry for id. It reports whether an entry was removed.
func (f *Formula) Remove(id string) bool {
	i := f.index(id)
	if i < 0 {
		return false
	}
	f.Entries = slices.Delete(f.Entries, i, i+1)
	f.touch()
	return true
}

// Adjust moves the amount of id by steps increments, never below one increment.
func (f *Formula) Adjust(id string, steps int) error {
	i := f.index(id)
	if i < 0 {
		return ErrMissingReference
	}
	inc := units.Increment(f.mode())
	f.Entries[i].Amount = f.normalize(f.Entries[i].Amount + float64(steps)*inc)
	f.touch()
	return nil
}

// SetAmount replaces the amount of id, clamped to one increment.
func (f *Formula) SetAmount(id string, amount float64) error {
	i := f.index(id)
	if i < 0 {
		return ErrMissingReference
	}
	f.Entries[i].Amount = f.normalize(amount)
	f.touch()
	return nil
}

// Rename sets the display name. Blank names fall back to the default.
func (f *Formula) Rename(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultFormulaName
	}
	if name == f.Name {
		return
	}
	f.Name = name
	f.touch()
}

// SetMode switches the active unit. Stored amounts are reinterpreted in the
// new unit, not converted; amounts below the new increment are raised to it.
func (f *Formula) SetMode(mode units.Unit) {
	if !mode.Valid() || mode == f.mode() {
		return
	}
	f.Mode = mode
	for i := range f.Entries {
		f.Entries[i].Amount = f.normalize(f.Entries[i].Amount)
	}
	f.touch()
}

// Clear discards every entry and the saved identity.
func (f *Formula) Clear() {
	*f = *NewFormula()
}

// MarkSaved records the identity and version assigned by the store.
func (f *Formula) MarkSaved(id string, version int) {
	f.CompositionID = id
	f.Version = version
	f.Saved = true
}

// Clone returns a deep copy of f.
func (f *Formula) Clone() *Formula {
	out := *f
	out.Entries = slices.Clone(f.Entries)
	return &out
}

func (f *Formula) touch() {
	f.Saved = false
}

func (f *Formula) mode() units.Unit {
	return f.Mode.Canonical()
}

func (f *Formula) index(id string) int {
	return slices.IndexFunc(f.Entries, func(e FormulaEntry) bool {
		return e.Ingredient.ID == id
	})
}

// normalize clamps amount to the unit increment and trims float drift from
// repeated volume steps.
func (f *Formula) normalize(amount float64) float64 {
	inc := units.Increment(f.mode())
	if math.IsNaN(amount) || amount < inc {
		return inc
	}
	if f.mode() == units.Volume {
		return math.Round(amount*1e4) / 1e4
	}
	return amount
}
