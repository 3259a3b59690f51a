package models

import (
	"time"

	"organ/internal/composer"
)

// Ingredient is a catalog entry in the perfumer's organ.
type Ingredient struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name       string    `gorm:"uniqueIndex;not null" json:"name"`
	Family     string    `gorm:"index;not null" json:"family"`
	NoteType   string    `gorm:"type:varchar(16)" json:"note_type"`
	PricePerMl float64   `json:"price_per_ml"`
	Intensity  int       `json:"intensity"`
	Notes      string    `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Snapshot returns the read-only view consumed by the scoring engine.
func (i Ingredient) Snapshot() composer.Ingredient {
	return composer.Ingredient{
		ID:        i.ID,
		Name:      i.Name,
		Family:    i.Family,
		NoteType:  composer.NoteType(i.NoteType),
		UnitPrice: i.PricePerMl,
		Intensity: i.Intensity,
		Notes:     i.Notes,
	}
}

// IngredientFromSnapshot converts an engine ingredient into a storable row.
func IngredientFromSnapshot(s composer.Ingredient) Ingredient {
	return Ingredient{
		ID:         s.ID,
		Name:       s.Name,
		Family:     s.Family,
		NoteType:   string(s.NoteType),
		PricePerMl: s.UnitPrice,
		Intensity:  s.Intensity,
		Notes:      s.Notes,
	}
}
