package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"organ/internal/composer"
	"organ/internal/units"
	"organ/internal/wheel"
)

// ingredientLine is one ingredient in a formula or catalog file. Amount is
// ignored in catalogs.
type ingredientLine struct {
	ID        string  `json:"id" toml:"id"`
	Name      string  `json:"name" toml:"name"`
	Family    string  `json:"family" toml:"family"`
	NoteType  string  `json:"noteType" toml:"note_type"`
	UnitPrice float64 `json:"unitPrice" toml:"unit_price"`
	Intensity int     `json:"intensity,omitempty" toml:"intensity,omitempty"`
	Amount    float64 `json:"amount,omitempty" toml:"amount,omitempty"`
}

func (l ingredientLine) ingredient() composer.Ingredient {
	id := strings.TrimSpace(l.ID)
	if id == "" {
		id = strings.ToLower(strings.TrimSpace(l.Name))
	}
	return composer.Ingredient{
		ID:        id,
		Name:      strings.TrimSpace(l.Name),
		Family:    strings.ToLower(strings.TrimSpace(l.Family)),
		NoteType:  composer.NoteType(strings.ToLower(strings.TrimSpace(l.NoteType))),
		UnitPrice: l.UnitPrice,
		Intensity: l.Intensity,
	}
}

type formulaFile struct {
	Name    string           `json:"name" toml:"name"`
	Mode    string           `json:"mode,omitempty" toml:"mode,omitempty"`
	Entries []ingredientLine `json:"entries" toml:"entries"`
}

type catalogFile struct {
	Ingredients []ingredientLine `json:"ingredients" toml:"ingredients"`
}

// decodeFile reads path as JSON or TOML, picked by extension.
func decodeFile(path string, dst any) error {
	format, err := wheel.FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if format == wheel.FormatTOML {
		err = toml.Unmarshal(data, dst)
	} else {
		err = json.Unmarshal(data, dst)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func readFormula(path string) (*composer.Formula, error) {
	var file formulaFile
	if err := decodeFile(path, &file); err != nil {
		return nil, err
	}
	f := composer.NewFormula()
	f.Rename(file.Name)
	if file.Mode != "" {
		mode, err := units.ParseUnit(file.Mode)
		if err != nil {
			return nil, err
		}
		f.Mode = mode
	}
	for i, line := range file.Entries {
		if line.Amount <= 0 {
			return nil, fmt.Errorf("entry %d (%s): amount must be positive", i+1, line.Name)
		}
		f.AddAmount(line.ingredient(), line.Amount)
	}
	return f, nil
}

func readCatalog(path string) ([]composer.Ingredient, error) {
	var file catalogFile
	if err := decodeFile(path, &file); err != nil {
		return nil, err
	}
	out := make([]composer.Ingredient, 0, len(file.Ingredients))
	for _, line := range file.Ingredients {
		out = append(out, line.ingredient())
	}
	return out, nil
}

// formulaDocument turns a generated formula back into the file layout so it
// can be saved and scored again.
func formulaDocument(f *composer.Formula) formulaFile {
	doc := formulaFile{Name: f.Name, Mode: string(f.Mode)}
	for _, e := range f.Entries {
		doc.Entries = append(doc.Entries, ingredientLine{
			ID:        e.Ingredient.ID,
			Name:      e.Ingredient.Name,
			Family:    e.Ingredient.Family,
			NoteType:  string(e.Ingredient.NoteType),
			UnitPrice: e.Ingredient.UnitPrice,
			Intensity: e.Ingredient.Intensity,
			Amount:    e.Amount,
		})
	}
	return doc
}
