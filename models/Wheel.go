package models

import (
	"bytes"
	"fmt"
	"time"

	"organ/internal/wheel"
)

// Wheel stores a fragrance wheel as its JSON document.
type Wheel struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Version   string    `json:"version"`
	Document  string    `gorm:"type:text;not null" json:"document"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Graph decodes the stored document.
func (w Wheel) Graph() (*wheel.Graph, error) {
	g, err := wheel.Decode(bytes.NewBufferString(w.Document), wheel.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("wheel %s: %w", w.ID, err)
	}
	return g, nil
}

// WheelFromGraph encodes g for storage.
func WheelFromGraph(g *wheel.Graph) (Wheel, error) {
	var buf bytes.Buffer
	if err := wheel.Encode(&buf, g); err != nil {
		return Wheel{}, err
	}
	doc := g.Document()
	return Wheel{ID: doc.ID, Name: doc.Name, Version: doc.Version, Document: buf.String()}, nil
}
