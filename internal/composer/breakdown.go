package composer

import (
	"slices"

	"organ/internal/units"
)

// CostShare is one slice of the cost breakdown.
type CostShare struct {
	IngredientID string  `json:"ingredientId"`
	Name         string  `json:"name"`
	Cost         float64 `json:"cost"`
	Percentage   float64 `json:"percentage"`
}

// CostBreakdown ranks entries by cost, most expensive first. Ties keep
// insertion order. When nothing costs anything every share is 0%.
func CostBreakdown(f *Formula, conv units.Converter) ([]CostShare, float64, error) {
	if err := conv.Validate(); err != nil {
		return nil, 0, err
	}
	if f == nil || len(f.Entries) == 0 {
		return []CostShare{}, 0, nil
	}

	shares := make([]CostShare, 0, len(f.Entries))
	var total float64
	for _, e := range f.Entries {
		cost, err := CostOf(e, f.mode(), conv)
		if err != nil {
			return nil, 0, err
		}
		total += cost
		shares = append(shares, CostShare{IngredientID: e.Ingredient.ID, Name: e.Ingredient.Name, Cost: cost})
	}

	slices.SortStableFunc(shares, func(a, b CostShare) int {
		switch {
		case a.Cost > b.Cost:
			return -1
		case a.Cost < b.Cost:
			return 1
		default:
			return 0
		}
	})
	for i := range shares {
		shares[i].Percentage = percentage(shares[i].Cost, total)
	}
	return shares, total, nil
}
