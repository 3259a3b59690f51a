package composer

import (
	"organ/internal/units"
	"organ/internal/wheel"
)

// Settings carries the user preferences that affect computation.
type Settings struct {
	DropsPerVolumeUnit float64      `json:"dropsPerMl"`
	Currency           string       `json:"currency"`
	Compatibility      wheel.Policy `json:"-"`
}

// DefaultSettings returns the factory preferences.
func DefaultSettings() Settings {
	return Settings{
		DropsPerVolumeUnit: units.DefaultDropsPerVolumeUnit,
		Currency:           "USD",
		Compatibility:      wheel.Directed,
	}
}

// Converter returns the unit converter for the configured ratio.
func (s Settings) Converter() units.Converter {
	return units.Converter{DropsPerVolumeUnit: s.DropsPerVolumeUnit}
}

// ScoredEntry is a formula entry annotated with its share and cost.
type ScoredEntry struct {
	IngredientID   string   `json:"ingredientId"`
	IngredientName string   `json:"ingredientName"`
	Family         string   `json:"family"`
	NoteType       NoteType `json:"noteType"`
	Amount         float64  `json:"amount"`
	Percentage     float64  `json:"percentage"`
	Cost           float64  `json:"cost"`
}

// ScoredComposition is everything derived from a formula. It holds no
// references into the formula it was computed from.
type ScoredComposition struct {
	Name       string        `json:"name"`
	Mode       units.Unit    `json:"mode"`
	Entries    []ScoredEntry `json:"entries"`
	Totals     Totals        `json:"totals"`
	Balance    Balance       `json:"balance"`
	Assessment Assessment    `json:"assessment"`
	Harmony    Harmony       `json:"harmony"`
	CostRank   []CostShare   `json:"costBreakdown"`
}

// Score derives the full set of metrics for f. The only failure is an
// unusable conversion ratio; empty and single-entry formulas score neutrally.
func Score(f *Formula, g *wheel.Graph, settings Settings) (ScoredComposition, error) {
	if f == nil {
		f = NewFormula()
	}
	conv := settings.Converter()

	totals, err := ComputeTotals(f, conv)
	if err != nil {
		return ScoredComposition{}, err
	}
	rank, _, err := CostBreakdown(f, conv)
	if err != nil {
		return ScoredComposition{}, err
	}

	entries := make([]ScoredEntry, 0, len(f.Entries))
	for _, e := range f.Entries {
		cost, err := CostOf(e, f.mode(), conv)
		if err != nil {
			return ScoredComposition{}, err
		}
		entries = append(entries, ScoredEntry{
			IngredientID:   e.Ingredient.ID,
			IngredientName: e.Ingredient.Name,
			Family:         e.Ingredient.Family,
			NoteType:       e.Ingredient.EffectiveNoteType(),
			Amount:         e.Amount,
			Percentage:     percentage(e.Amount, totals.RawAmount),
			Cost:           cost,
		})
	}

	balance := ComputeBalance(f)
	return ScoredComposition{
		Name:       f.Name,
		Mode:       f.mode(),
		Entries:    entries,
		Totals:     totals,
		Balance:    balance,
		Assessment: Assess(balance),
		Harmony:    HarmonyScore(f, g, settings.Compatibility),
		CostRank:   rank,
	}, nil
}
