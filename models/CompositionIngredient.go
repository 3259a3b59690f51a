package models

import (
	"gorm.io/gorm"
)

type CompositionIngredient struct {
	gorm.Model
	CompositionID string `gorm:"index;not null;type:varchar(36)" json:"composition_id"` // Parent Composition
	Position      int    `gorm:"not null" json:"position"`

	// The ingredient is referenced loosely: the catalog entry may be deleted
	// after the composition was saved, so name and tier are copied here.
	IngredientID   string  `gorm:"index;type:varchar(36)" json:"ingredient_id"`
	IngredientName string  `json:"ingredient_name"`
	Family         string  `json:"family"`
	NoteType       string  `gorm:"type:varchar(16)" json:"note_type"`
	Amount         float64 `gorm:"not null" json:"amount"`
	Percentage     float64 `json:"percentage"`
	Cost           float64 `json:"cost"`
}
