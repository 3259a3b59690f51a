package composer

import "fmt"

// Balance is the share of the formula amount held by each tier.
type Balance struct {
	TopPercent    float64 `json:"topPercent"`
	MiddlePercent float64 `json:"middlePercent"`
	BasePercent   float64 `json:"basePercent"`
}

// Percent returns the share for a tier.
func (b Balance) Percent(n NoteType) float64 {
	switch n {
	case NoteTop:
		return b.TopPercent
	case NoteBase:
		return b.BasePercent
	default:
		return b.MiddlePercent
	}
}

// Range is an inclusive percentage interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// IdealRanges are the targets shown to the perfumer.
var IdealRanges = map[NoteType]Range{
	NoteTop:    {Min: 20, Max: 30},
	NoteMiddle: {Min: 40, Max: 50},
	NoteBase:   {Min: 20, Max: 30},
}

// WarningRanges are wider than the ideals; a tier outside them is flagged.
var WarningRanges = map[NoteType]Range{
	NoteTop:    {Min: 15, Max: 35},
	NoteMiddle: {Min: 35, Max: 55},
	NoteBase:   {Min: 15, Max: 35},
}

// BalanceStatus classifies an assessment.
type BalanceStatus string

const (
	BalanceEmpty     BalanceStatus = "empty"
	BalanceWarning   BalanceStatus = "warning"
	BalanceExcellent BalanceStatus = "excellent"
)

// Assessment is the qualitative verdict on a Balance.
type Assessment struct {
	Status  BalanceStatus `json:"status"`
	Tier    NoteType      `json:"tier,omitempty"`
	Message string        `json:"message"`
}

// ComputeBalance groups entry amounts by tier. Entries without a tier count
// as middle. An empty formula yields all zeroes.
func ComputeBalance(f *Formula) Balance {
	var top, middle, base float64
	if f != nil {
		for _, e := range f.Entries {
			switch e.Ingredient.EffectiveNoteType() {
			case NoteTop:
				top += e.Amount
			case NoteBase:
				base += e.Amount
			default:
				middle += e.Amount
			}
		}
	}
	total := top + middle + base
	return Balance{
		TopPercent:    percentage(top, total),
		MiddlePercent: percentage(middle, total),
		BasePercent:   percentage(base, total),
	}
}

// IsZero reports whether every tier is empty.
func (b Balance) IsZero() bool {
	return b.TopPercent == 0 && b.MiddlePercent == 0 && b.BasePercent == 0
}

// Assess evaluates the tiers in pyramid order and reports only the first one
// outside its warning range.
func Assess(b Balance) Assessment {
	if b.IsZero() {
		return Assessment{Status: BalanceEmpty, Message: idealHint()}
	}
	for _, tier := range NoteTypes {
		if WarningRanges[tier].Contains(b.Percent(tier)) {
			continue
		}
		ideal := IdealRanges[tier]
		return Assessment{
			Status:  BalanceWarning,
			Tier:    tier,
			Message: fmt.Sprintf("%s notes are outside ideal range (%g-%g%%)", tier.Label(), ideal.Min, ideal.Max),
		}
	}
	return Assessment{Status: BalanceExcellent, Message: "Excellent note balance!"}
}

func idealHint() string {
	top, middle, base := IdealRanges[NoteTop], IdealRanges[NoteMiddle], IdealRanges[NoteBase]
	return fmt.Sprintf("Ideal ratios: Top %g-%g%%, Middle %g-%g%%, Base %g-%g%%",
		top.Min, top.Max, middle.Min, middle.Max, base.Min, base.Max)
}
