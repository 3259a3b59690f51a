package recipe

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"organ/internal/composer"
	"organ/internal/wheel"
)

// BundleVersion is written into every backup.
const BundleVersion = 1

// ErrInvalidBundle reports a backup that cannot be imported.
var ErrInvalidBundle = errors.New("recipe: invalid backup")

// Setting is a stored preference.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// UnmarshalJSON accepts numeric and boolean values, which older backups
// store for settings such as dropsPerMl, and keeps their JSON text.
func (s *Setting) UnmarshalJSON(data []byte) error {
	var aux struct {
		Key   string          `json:"key"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.Key = aux.Key
	s.Value = ""
	raw := bytes.TrimSpace(aux.Value)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '"' {
		return json.Unmarshal(raw, &s.Value)
	}
	s.Value = string(raw)
	return nil
}

// Bundle is a full backup of the catalog, saved compositions, wheels and settings.
type Bundle struct {
	Version      int                    `json:"version"`
	ExportDate   time.Time              `json:"exportDate"`
	Ingredients  []composer.Ingredient  `json:"ingredients"`
	Compositions []composer.Composition `json:"compositions"`
	Wheels       []wheel.Document       `json:"wheels"`
	Settings     []Setting              `json:"settings"`
}

// ValidateBundle checks that a decoded backup is importable. A bundle with
// neither a version nor an export date must at least carry ingredients.
func ValidateBundle(b Bundle) error {
	if b.Version == 0 && b.ExportDate.IsZero() && len(b.Ingredients) == 0 {
		return fmt.Errorf("%w: missing version, export date and ingredients", ErrInvalidBundle)
	}
	for i, ing := range b.Ingredients {
		if ing.ID == "" || ing.Name == "" {
			return fmt.Errorf("%w: ingredient %d needs an id and a name", ErrInvalidBundle, i)
		}
	}
	for i, c := range b.Compositions {
		if c.ID == "" {
			return fmt.Errorf("%w: composition %d has no id", ErrInvalidBundle, i)
		}
	}
	for _, doc := range b.Wheels {
		if err := wheel.Validate(doc); err != nil {
			return fmt.Errorf("%w: wheel %q: %w", ErrInvalidBundle, doc.ID, err)
		}
	}
	for i, s := range b.Settings {
		if s.Key == "" {
			return fmt.Errorf("%w: setting %d has no key", ErrInvalidBundle, i)
		}
	}
	return nil
}

var csvHeader = []string{"Name", "Family", "Note Type", "Intensity", "Price per ML", "Notes"}

// WriteIngredientsCSV writes the catalog in the same column layout the
// importer reads.
func WriteIngredientsCSV(w io.Writer, ingredients []composer.Ingredient) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, ing := range ingredients {
		record := []string{
			ing.Name,
			ing.Family,
			string(ing.NoteType),
			optionalInt(ing.Intensity),
			optionalFloat(ing.UnitPrice),
			ing.Notes,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func optionalInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func optionalFloat(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
