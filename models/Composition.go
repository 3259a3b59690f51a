package models

import (
	"slices"
	"time"

	"organ/internal/composer"
	"organ/internal/units"
)

// Composition is a saved formula snapshot. Version increases on every update.
type Composition struct {
	ID            string                  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name          string                  `gorm:"index;not null" json:"name"`
	Mode          string                  `gorm:"type:varchar(16);not null;default:drops" json:"mode"`
	TotalDrops    int                     `json:"total_drops"`
	TotalVolume   float64                 `json:"total_volume"`
	TotalCost     float64                 `json:"total_cost"`
	CostPerVolume float64                 `json:"cost_per_volume"`
	TopPercent    float64                 `json:"top_percent"`
	MiddlePercent float64                 `json:"middle_percent"`
	BasePercent   float64                 `json:"base_percent"`
	HarmonyScore  int                     `json:"harmony_score"`
	Version       int                     `gorm:"not null;default:1" json:"version"`
	Created       time.Time               `gorm:"index;not null" json:"created"`
	Updated       *time.Time              `json:"updated,omitempty"`
	Ingredients   []CompositionIngredient `gorm:"foreignKey:CompositionID;constraint:OnDelete:CASCADE" json:"ingredients"`
}

// Record converts the row into the engine's composition record.
func (c Composition) Record() composer.Composition {
	lines := slices.Clone(c.Ingredients)
	slices.SortStableFunc(lines, func(a, b CompositionIngredient) int {
		return a.Position - b.Position
	})

	out := composer.Composition{
		ID:   c.ID,
		Name: c.Name,
		Mode: units.Unit(c.Mode).Canonical(),
		Totals: composer.CompositionTotals{
			Drops:         c.TotalDrops,
			Volume:        c.TotalVolume,
			Cost:          c.TotalCost,
			CostPerVolume: c.CostPerVolume,
		},
		Balance: composer.Balance{
			TopPercent:    c.TopPercent,
			MiddlePercent: c.MiddlePercent,
			BasePercent:   c.BasePercent,
		},
		HarmonyScore: c.HarmonyScore,
		Version:      c.Version,
		Created:      c.Created,
		Updated:      c.Updated,
		Ingredients:  make([]composer.CompositionIngredient, 0, len(lines)),
	}
	for _, line := range lines {
		out.Ingredients = append(out.Ingredients, composer.CompositionIngredient{
			IngredientID:   line.IngredientID,
			IngredientName: line.IngredientName,
			Family:         line.Family,
			NoteType:       composer.NoteType(line.NoteType),
			Amount:         line.Amount,
			Percentage:     line.Percentage,
			Cost:           line.Cost,
		})
	}
	return out
}

// CompositionFromRecord converts an engine record into a storable row.
func CompositionFromRecord(r composer.Composition) Composition {
	c := Composition{
		ID:            r.ID,
		Name:          r.Name,
		Mode:          string(r.Mode.Canonical()),
		TotalDrops:    r.Totals.Drops,
		TotalVolume:   r.Totals.Volume,
		TotalCost:     r.Totals.Cost,
		CostPerVolume: r.Totals.CostPerVolume,
		TopPercent:    r.Balance.TopPercent,
		MiddlePercent: r.Balance.MiddlePercent,
		BasePercent:   r.Balance.BasePercent,
		HarmonyScore:  r.HarmonyScore,
		Version:       r.Version,
		Created:       r.Created,
		Updated:       r.Updated,
		Ingredients:   make([]CompositionIngredient, 0, len(r.Ingredients)),
	}
	for i, line := range r.Ingredients {
		c.Ingredients = append(c.Ingredients, CompositionIngredient{
			CompositionID:  r.ID,
			Position:       i,
			IngredientID:   line.IngredientID,
			IngredientName: line.IngredientName,
			Family:         line.Family,
			NoteType:       string(line.NoteType),
			Amount:         line.Amount,
			Percentage:     line.Percentage,
			Cost:           line.Cost,
		})
	}
	return c
}
