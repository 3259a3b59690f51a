package composer

import (
	"math"

	"organ/internal/units"
)

// Totals summarises the amount and cost of a formula.
type Totals struct {
	RawAmount     float64 `json:"rawAmount"`
	Drops         int     `json:"drops"`
	Volume        float64 `json:"volume"`
	Cost          float64 `json:"cost"`
	CostPerVolume float64 `json:"costPerVolume"`
}

// TotalAmount sums the entry amounts in the formula's active unit.
func TotalAmount(f *Formula) float64 {
	if f == nil {
		return 0
	}
	var total float64
	for _, e := range f.Entries {
		total += e.Amount
	}
	return total
}

// PercentageOf returns the share of entry in the formula total, or 0 when the
// formula holds nothing.
func PercentageOf(entry FormulaEntry, f *Formula) float64 {
	return percentage(entry.Amount, TotalAmount(f))
}

// CostOf prices an entry by converting its amount to volume. A missing unit
// price counts as free.
func CostOf(entry FormulaEntry, mode units.Unit, conv units.Converter) (float64, error) {
	volume, err := conv.ToVolume(entry.Amount, mode)
	if err != nil {
		return 0, err
	}
	return volume * entry.Ingredient.UnitPrice, nil
}

// ComputeTotals aggregates amount, volume and cost across the formula.
func ComputeTotals(f *Formula, conv units.Converter) (Totals, error) {
	if err := conv.Validate(); err != nil {
		return Totals{}, err
	}
	if f == nil {
		return Totals{}, nil
	}

	var t Totals
	for _, e := range f.Entries {
		cost, err := CostOf(e, f.mode(), conv)
		if err != nil {
			return Totals{}, err
		}
		t.RawAmount += e.Amount
		t.Cost += cost
	}

	var err error
	if t.Volume, err = conv.ToVolume(t.RawAmount, f.mode()); err != nil {
		return Totals{}, err
	}
	drops, err := conv.FromVolume(t.Volume, units.Drops)
	if err != nil {
		return Totals{}, err
	}
	t.Drops = int(math.Round(drops))
	if t.Volume > 0 {
		t.CostPerVolume = t.Cost / t.Volume
	}
	return t, nil
}

func percentage(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return part / total * 100
}
