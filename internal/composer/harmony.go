package composer

import (
	"math"

	"organ/internal/wheel"
)

// Band is the qualitative range a harmony score falls into.
type Band string

const (
	BandNone      Band = "none"
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandModerate  Band = "moderate"
	BandLow       Band = "low"
)

// Harmony is the pairwise compatibility result for a formula.
type Harmony struct {
	Score           int    `json:"score"`
	CompatiblePairs int    `json:"compatiblePairs"`
	TotalPairs      int    `json:"totalPairs"`
	Band            Band   `json:"band"`
	Message         string `json:"message"`
}

// HarmonyScore checks every unordered pair of entries against the wheel and
// returns the compatible share as an integer percentage. A single entry
// scores 100; an empty formula scores 0.
func HarmonyScore(f *Formula, g *wheel.Graph, policy wheel.Policy) Harmony {
	if f == nil || len(f.Entries) == 0 {
		return Harmony{Band: BandNone, Message: "Add ingredients to calculate harmony"}
	}

	h := Harmony{Score: 100}
	for i := 0; i < len(f.Entries); i++ {
		for j := i + 1; j < len(f.Entries); j++ {
			h.TotalPairs++
			if g.Compatible(f.Entries[i].Ingredient.Family, f.Entries[j].Ingredient.Family, policy) {
				h.CompatiblePairs++
			}
		}
	}
	if h.TotalPairs > 0 {
		h.Score = int(math.Round(float64(h.CompatiblePairs) / float64(h.TotalPairs) * 100))
	}
	h.Band, h.Message = HarmonyBand(h.Score)
	return h
}

// HarmonyBand maps a score to its band and display message. Each threshold is
// inclusive.
func HarmonyBand(score int) (Band, string) {
	switch {
	case score >= 90:
		return BandExcellent, "Excellent harmony! These notes work beautifully together."
	case score >= 75:
		return BandGood, "Good harmony. Well-balanced composition."
	case score >= 60:
		return BandModerate, "Moderate harmony. Consider adjusting some notes."
	default:
		return BandLow, "Low harmony. Some ingredients may clash."
	}
}
