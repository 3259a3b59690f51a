package wheel

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// DefaultColor is returned for families the wheel does not know about.
const DefaultColor = "#cccccc"

// ErrInvalidWheel reports structurally broken wheel data.
var ErrInvalidWheel = errors.New("wheel: invalid wheel data")

// ErrUnknownWheel is returned when no wheel exists for an id.
var ErrUnknownWheel = errors.New("wheel: unknown wheel")

// Subfamily is a named subdivision of a Family.
type Subfamily struct {
	ID   string `json:"id" toml:"id"`
	Name string `json:"name" toml:"name"`
}

// Family is a node of the fragrance wheel.
type Family struct {
	ID          string      `json:"id" toml:"id"`
	Name        string      `json:"name" toml:"name"`
	Color       string      `json:"color" toml:"color"`
	Description string      `json:"description,omitempty" toml:"description,omitempty"`
	Subfamilies []Subfamily `json:"subfamilies,omitempty" toml:"subfamilies,omitempty"`
	Notes       []string    `json:"notes,omitempty" toml:"notes,omitempty"`
}

// Document is the serialised form of a wheel as stored in files and records.
type Document struct {
	ID                  string              `json:"id" toml:"id"`
	Name                string              `json:"name" toml:"name"`
	Version             string              `json:"version,omitempty" toml:"version,omitempty"`
	Families            []Family            `json:"families" toml:"families"`
	Compatibility       map[string][]string `json:"compatibility" toml:"compatibility"`
	NoteTypeSuggestions map[string][]string `json:"noteTypeSuggestions,omitempty" toml:"note_type_suggestions,omitempty"`
}

// Policy selects how the compatibility map is consulted for a pair of families.
type Policy int

const (
	// Directed only checks compatibility[a] for b.
	Directed Policy = iota
	// Symmetric accepts a pair when either direction is recorded.
	Symmetric
)

// ParsePolicy converts a configuration string into a Policy.
func ParsePolicy(value string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "directed":
		return Directed, nil
	case "symmetric":
		return Symmetric, nil
	default:
		return Directed, fmt.Errorf("wheel: unknown compatibility policy %q", value)
	}
}

func (p Policy) String() string {
	if p == Symmetric {
		return "symmetric"
	}
	return "directed"
}

// Graph is an immutable fragrance wheel. The zero value and a nil *Graph are
// valid and only consider same-family pairs compatible.
type Graph struct {
	doc    Document
	index  map[string]int
	compat map[string]map[string]struct{}
}

// New builds a Graph from doc. The document is deep-copied so later changes to
// doc do not leak into the graph.
func New(doc Document) (*Graph, error) {
	doc = cloneDocument(doc)
	if err := Validate(doc); err != nil {
		return nil, err
	}

	g := &Graph{
		doc:    doc,
		index:  make(map[string]int, len(doc.Families)),
		compat: make(map[string]map[string]struct{}, len(doc.Compatibility)),
	}
	for i, family := range doc.Families {
		g.index[family.ID] = i
	}
	for from, targets := range doc.Compatibility {
		set := make(map[string]struct{}, len(targets))
		for _, to := range targets {
			set[to] = struct{}{}
		}
		g.compat[from] = set
	}
	return g, nil
}

// Validate checks that the wheel has an id, that family ids are unique and
// that the compatibility map only references known families.
func Validate(doc Document) error {
	if strings.TrimSpace(doc.ID) == "" {
		return fmt.Errorf("%w: wheel without id", ErrInvalidWheel)
	}
	if len(doc.Families) == 0 {
		return fmt.Errorf("%w: no families", ErrInvalidWheel)
	}
	seen := make(map[string]struct{}, len(doc.Families))
	for _, family := range doc.Families {
		id := strings.TrimSpace(family.ID)
		if id == "" {
			return fmt.Errorf("%w: family without id", ErrInvalidWheel)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate family %q", ErrInvalidWheel, id)
		}
		seen[id] = struct{}{}
	}
	for from, targets := range doc.Compatibility {
		if _, ok := seen[from]; !ok {
			return fmt.Errorf("%w: compatibility for unknown family %q", ErrInvalidWheel, from)
		}
		for _, to := range targets {
			if _, ok := seen[to]; !ok {
				return fmt.Errorf("%w: %q lists unknown family %q", ErrInvalidWheel, from, to)
			}
		}
	}
	return nil
}

// ID returns the wheel identifier.
func (g *Graph) ID() string {
	if g == nil {
		return ""
	}
	return g.doc.ID
}

// Document returns a copy of the wheel in its serialised form.
func (g *Graph) Document() Document {
	if g == nil {
		return Document{}
	}
	return cloneDocument(g.doc)
}

// Families returns the wheel families in declaration order.
func (g *Graph) Families() []Family {
	if g == nil {
		return nil
	}
	return cloneDocument(Document{Families: g.doc.Families}).Families
}

// Family looks up a family by id.
func (g *Graph) Family(id string) (Family, bool) {
	if g == nil {
		return Family{}, false
	}
	i, ok := g.index[id]
	if !ok {
		return Family{}, false
	}
	return cloneDocument(Document{Families: g.doc.Families[i : i+1]}).Families[0], true
}

// FamilyName returns the display name for id, or id itself when unknown.
func (g *Graph) FamilyName(id string) string {
	if family, ok := g.Family(id); ok && family.Name != "" {
		return family.Name
	}
	return id
}

// Color returns the display color of a family.
func (g *Graph) Color(id string) string {
	if family, ok := g.Family(id); ok && family.Color != "" {
		return family.Color
	}
	return DefaultColor
}

// CompatibleFamilies returns the families recorded as blending with id.
func (g *Graph) CompatibleFamilies(id string) []string {
	if g == nil {
		return nil
	}
	return slices.Clone(g.doc.Compatibility[id])
}

// NoteTypeSuggestions returns the families suggested for a note tier.
func (g *Graph) NoteTypeSuggestions(tier string) []string {
	if g == nil {
		return nil
	}
	return slices.Clone(g.doc.NoteTypeSuggestions[tier])
}

// Compatible reports whether families a and b blend. Identical families are
// always compatible regardless of the map.
func (g *Graph) Compatible(a, b string, policy Policy) bool {
	if a == b {
		return true
	}
	if g == nil {
		return false
	}
	if _, ok := g.compat[a][b]; ok {
		return true
	}
	if policy == Symmetric {
		_, ok := g.compat[b][a]
		return ok
	}
	return false
}

func cloneDocument(doc Document) Document {
	out := doc
	if doc.Families != nil {
		out.Families = make([]Family, len(doc.Families))
		for i, family := range doc.Families {
			family.Subfamilies = slices.Clone(family.Subfamilies)
			family.Notes = slices.Clone(family.Notes)
			out.Families[i] = family
		}
	}
	out.Compatibility = cloneLists(doc.Compatibility)
	out.NoteTypeSuggestions = cloneLists(doc.NoteTypeSuggestions)
	return out
}

func cloneLists(in map[string][]string) map[string][]string {
	if in == nil {
		return nil
	}
	out := make(map[string][]string, len(in))
	for key, values := range in {
		out[key] = slices.Clone(values)
	}
	return out
}
