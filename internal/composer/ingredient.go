package composer

import "strings"

// NoteType is the perceptual tier of an ingredient within the fragrance pyramid.
type NoteType string

const (
	NoteTop    NoteType = "top"
	NoteMiddle NoteType = "middle"
	NoteBase   NoteType = "base"
)

// NoteTypes lists the tiers in pyramid order.
var NoteTypes = []NoteType{NoteTop, NoteMiddle, NoteBase}

// ParseNoteType normalises user supplied tier names. "heart" is the
// traditional name for the middle tier. Unknown values report false.
func ParseNoteType(value string) (NoteType, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "top", "head":
		return NoteTop, true
	case "middle", "heart":
		return NoteMiddle, true
	case "base":
		return NoteBase, true
	default:
		return "", false
	}
}

// Label returns the heading used in recipes and reports.
func (n NoteType) Label() string {
	switch n {
	case NoteTop:
		return "Top"
	case NoteBase:
		return "Base"
	default:
		return "Middle"
	}
}

// Ingredient is a read-only snapshot of a catalog entry.
type Ingredient struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Family    string   `json:"family"`
	NoteType  NoteType `json:"noteType,omitempty"`
	UnitPrice float64  `json:"unitPrice,omitempty"`
	Intensity int      `json:"intensity,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

// EffectiveNoteType returns the ingredient tier, treating unset or unknown
// tiers as middle.
func (i Ingredient) EffectiveNoteType() NoteType {
	if n, ok := ParseNoteType(string(i.NoteType)); ok {
		return n
	}
	return NoteMiddle
}
