package composer

import (
	"time"

	"organ/internal/units"
)

// CompositionIngredient is a stored formula line.
type CompositionIngredient struct {
	IngredientID   string   `json:"ingredientId"`
	IngredientName string   `json:"ingredientName"`
	Family         string   `json:"family,omitempty"`
	NoteType       NoteType `json:"noteType,omitempty"`
	Amount         float64  `json:"amount"`
	Percentage     float64  `json:"percentage"`
	Cost           float64  `json:"cost"`
}

// CompositionTotals is the stored subset of Totals.
type CompositionTotals struct {
	Drops         int     `json:"drops"`
	Volume        float64 `json:"volume"`
	Cost          float64 `json:"cost"`
	CostPerVolume float64 `json:"costPerVolume"`
}

// Composition is a saved snapshot of a formula and its metrics.
type Composition struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	Mode         units.Unit              `json:"mode"`
	Ingredients  []CompositionIngredient `json:"ingredients"`
	Totals       CompositionTotals       `json:"totals"`
	Balance      Balance                 `json:"balance"`
	HarmonyScore int                     `json:"harmonyScore"`
	Version      int                     `json:"version"`
	Created      time.Time               `json:"created"`
	Updated      *time.Time              `json:"updated,omitempty"`
}

// IsNew reports whether the record has no identity yet.
func (c Composition) IsNew() bool {
	return c.ID == ""
}

// Snapshot turns a scored formula into a record ready to persist. A formula
// without identity becomes version 1; otherwise previous supplies the version
// and creation time being superseded.
func Snapshot(f *Formula, scored ScoredComposition, previous *Composition, now time.Time) (Composition, error) {
	if f == nil || len(f.Entries) == 0 {
		return Composition{}, ErrEmptyFormula
	}

	c := Composition{
		ID:           f.CompositionID,
		Name:         f.Name,
		Mode:         scored.Mode,
		Ingredients:  make([]CompositionIngredient, 0, len(scored.Entries)),
		HarmonyScore: scored.Harmony.Score,
		Balance:      scored.Balance,
		Totals: CompositionTotals{
			Drops:         scored.Totals.Drops,
			Volume:        scored.Totals.Volume,
			Cost:          scored.Totals.Cost,
			CostPerVolume: scored.Totals.CostPerVolume,
		},
	}
	for _, e := range scored.Entries {
		c.Ingredients = append(c.Ingredients, CompositionIngredient{
			IngredientID:   e.IngredientID,
			IngredientName: e.IngredientName,
			Family:         e.Family,
			NoteType:       e.NoteType,
			Amount:         e.Amount,
			Percentage:     e.Percentage,
			Cost:           e.Cost,
		})
	}

	if c.ID == "" {
		c.Version = 1
		c.Created = now
		return c, nil
	}

	prevVersion, created := f.Version, now
	if previous != nil {
		prevVersion, created = previous.Version, previous.Created
	}
	if prevVersion < 1 {
		prevVersion = 1
	}
	c.Version = prevVersion + 1
	c.Created = created
	updated := now
	c.Updated = &updated
	return c, nil
}

// Duplicate copies c into a new lineage: no id, version 1, and a name that
// does not collide with existingNames.
func Duplicate(c Composition, existingNames []string, now time.Time) Composition {
	out := c
	out.ID = ""
	out.Name = NextCopyName(existingNames, c.Name)
	out.Version = 1
	out.Created = now
	out.Updated = nil
	out.Ingredients = append([]CompositionIngredient(nil), c.Ingredients...)
	return out
}

// Lookup resolves an ingredient id against the catalog.
type Lookup func(id string) (Ingredient, bool)

// Restore rebuilds a working formula from c. Lines whose ingredient no longer
// exists are dropped and their ids returned.
func Restore(c Composition, lookup Lookup) (*Formula, []string) {
	f := NewFormula()
	f.Rename(c.Name)
	f.Mode = c.Mode.Canonical()

	var skipped []string
	for _, line := range c.Ingredients {
		ing, ok := lookup(line.IngredientID)
		if !ok {
			skipped = append(skipped, line.IngredientID)
			continue
		}
		f.AddAmount(ing, line.Amount)
	}
	if c.ID != "" {
		f.MarkSaved(c.ID, c.Version)
	}
	return f, skipped
}
