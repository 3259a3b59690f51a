// Package lucky builds random but plausible compositions from the catalog.
package lucky

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"organ/internal/composer"
	"organ/internal/units"
	"organ/internal/wheel"
)

// MinIngredients is the smallest catalog the generator works with.
const MinIngredients = 3

var (
	// ErrNotEnoughIngredients is returned for catalogs below MinIngredients.
	ErrNotEnoughIngredients = errors.New("lucky: need at least 3 ingredients to generate a composition")
	// ErrNoCandidates is returned when no tier yields an ingredient.
	ErrNoCandidates = errors.New("lucky: could not generate composition with available ingredients")
)

// tierShare is the fraction of the total drops given to each tier.
var tierShare = map[composer.NoteType]float64{
	composer.NoteTop:    0.25,
	composer.NoteMiddle: 0.45,
	composer.NoteBase:   0.30,
}

// tierPicks is the base number of draws per tier and how many extra draws may be added.
var tierPicks = map[composer.NoteType][2]int{
	composer.NoteTop:    {1, 2},
	composer.NoteMiddle: {2, 2},
	composer.NoteBase:   {1, 2},
}

var adjectives = []string{
	"Mystic", "Eternal", "Velvet", "Silk", "Golden", "Silver",
	"Midnight", "Dawn", "Twilight", "Secret", "Hidden", "Wild",
	"Gentle", "Bold", "Soft", "Warm", "Cool", "Fresh",
}

var nouns = []string{
	"Dream", "Whisper", "Echo", "Shadow", "Light", "Memory",
	"Garden", "Forest", "Ocean", "Sky", "Breeze", "Mist",
	"Rose", "Lily", "Jasmine", "Amber", "Musk", "Bloom",
}

// Generator draws compositions from a caller supplied random source.
type Generator struct {
	rng *rand.Rand
}

// New returns a Generator. The same seed yields the same compositions.
func New(src rand.Source) *Generator {
	return &Generator{rng: rand.New(src)}
}

// NewSeeded is a convenience for a PCG source seeded with seed.
func NewSeeded(seed uint64) *Generator {
	return New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Generate picks a primary family and up to one compatible partner, draws
// ingredients per tier and distributes between 20 and 49 drops across them.
func (g *Generator) Generate(catalog []composer.Ingredient, graph *wheel.Graph) (*composer.Formula, error) {
	if len(catalog) < MinIngredients {
		return nil, ErrNotEnoughIngredients
	}
	families := graph.Families()
	if len(families) == 0 {
		return nil, fmt.Errorf("lucky: %w", wheel.ErrInvalidWheel)
	}

	primary := families[g.rng.IntN(len(families))]
	selected := g.selectFamilies(primary.ID, graph.CompatibleFamilies(primary.ID))

	var chosen []composer.Ingredient
	for _, tier := range composer.NoteTypes {
		pool := candidates(catalog, tier, selected)
		if len(pool) == 0 {
			continue
		}
		picks := tierPicks[tier]
		count := max(1, min(len(pool), picks[0]+g.rng.IntN(picks[1])))
		for range count {
			ing := pool[g.rng.IntN(len(pool))]
			if !slices.ContainsFunc(chosen, func(c composer.Ingredient) bool { return c.ID == ing.ID }) {
				chosen = append(chosen, ing)
			}
		}
	}
	if len(chosen) == 0 {
		return nil, ErrNoCandidates
	}

	totalDrops := 20 + g.rng.IntN(30)
	amounts := g.amounts(chosen, totalDrops)

	f := composer.NewFormula()
	f.SetMode(units.Drops)
	f.Rename(g.name(primary))
	for i, ing := range chosen {
		f.AddAmount(ing, amounts[i])
	}
	return f, nil
}

// Candidate is one scored generator result.
type Candidate struct {
	Formula *composer.Formula
	Scored  composer.ScoredComposition
}

// Best generates n candidates and keeps the one with the highest harmony.
// Ties go to the earlier candidate.
func (g *Generator) Best(n int, catalog []composer.Ingredient, graph *wheel.Graph, settings composer.Settings) (Candidate, error) {
	if n < 1 {
		n = 1
	}
	var best Candidate
	for i := range n {
		f, err := g.Generate(catalog, graph)
		if err != nil {
			return Candidate{}, err
		}
		scored, err := composer.Score(f, graph, settings)
		if err != nil {
			return Candidate{}, err
		}
		if i == 0 || scored.Harmony.Score > best.Scored.Harmony.Score {
			best = Candidate{Formula: f, Scored: scored}
		}
	}
	return best, nil
}

func (g *Generator) selectFamilies(primary string, compatible []string) []string {
	target := min(3, 1+g.rng.IntN(2))
	selected := []string{primary}
	for len(selected) < target && len(compatible) > 0 {
		i := g.rng.IntN(len(compatible))
		selected = append(selected, compatible[i])
		compatible = slices.Delete(compatible, i, i+1)
	}
	return selected
}

// candidates prefers tier ingredients from the selected families and falls
// back to the whole tier.
func candidates(catalog []composer.Ingredient, tier composer.NoteType, families []string) []composer.Ingredient {
	var inTier, preferred []composer.Ingredient
	for _, ing := range catalog {
		if ing.EffectiveNoteType() != tier {
			continue
		}
		inTier = append(inTier, ing)
		if slices.Contains(families, ing.Family) {
			preferred = append(preferred, ing)
		}
	}
	if len(preferred) > 0 {
		return preferred
	}
	return inTier
}

func (g *Generator) amounts(chosen []composer.Ingredient, totalDrops int) []float64 {
	counts := make(map[composer.NoteType]int, len(tierShare))
	for _, ing := range chosen {
		counts[ing.EffectiveNoteType()]++
	}

	out := make([]float64, len(chosen))
	for i, ing := range chosen {
		tier := ing.EffectiveNoteType()
		tierDrops := int(math.Round(float64(totalDrops) * tierShare[tier]))
		base := tierDrops / counts[tier]
		variation := g.rng.IntN(3) - 1
		out[i] = float64(max(1, base+variation))
	}
	return out
}

func (g *Generator) name(primary wheel.Family) string {
	adj := adjectives[g.rng.IntN(len(adjectives))]
	if g.rng.Float64() > 0.5 {
		name := primary.Name
		if name == "" {
			name = primary.ID
		}
		return adj + " " + name
	}
	return adj + " " + nouns[g.rng.IntN(len(nouns))]
}
