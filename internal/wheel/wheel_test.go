package wheel

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument() Document {
	return Document{
		ID:   "test",
		Name: "Test Wheel",
		Families: []Family{
			{ID: "citrus", Name: "Citrus", Color: "#ff0"},
			{ID: "woody", Name: "Woody", Color: "#840"},
			{ID: "spicy", Name: "Spicy"},
		},
		Compatibility: map[string][]string{
			"citrus": {"woody"},
			"spicy":  {"citrus"},
		},
	}
}

func TestDefaultWheel(t *testing.T) {
	t.Parallel()

	g, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "default", g.ID())
	assert.Len(t, g.Families(), 9)
	assert.Equal(t, "Floral", g.FamilyName("floral"))
	assert.Equal(t, []string{"fresh", "citrus", "green"}, g.NoteTypeSuggestions("top"))
	assert.Same(t, g, MustDefault())
}

func TestCompatible(t *testing.T) {
	t.Parallel()

	g, err := New(testDocument())
	require.NoError(t, err)

	tests := []struct {
		name   string
		a, b   string
		policy Policy
		want   bool
	}{
		{"same family", "woody", "woody", Directed, true},
		{"same unknown family", "aquatic", "aquatic", Directed, true},
		{"forward", "citrus", "woody", Directed, true},
		{"reverse not recorded", "woody", "citrus", Directed, false},
		{"reverse symmetric", "woody", "citrus", Symmetric, true},
		{"unrelated", "woody", "spicy", Symmetric, false},
		{"unknown family", "citrus", "aquatic", Symmetric, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, g.Compatible(tt.a, tt.b, tt.policy))
		})
	}
}

func TestNilGraphOnlyMatchesSameFamily(t *testing.T) {
	t.Parallel()

	var g *Graph
	assert.True(t, g.Compatible("citrus", "citrus", Directed))
	assert.False(t, g.Compatible("citrus", "woody", Symmetric))
	assert.Equal(t, DefaultColor, g.Color("citrus"))
	assert.Empty(t, g.CompatibleFamilies("citrus"))
}

func TestGraphIsIsolatedFromInput(t *testing.T) {
	t.Parallel()

	doc := testDocument()
	g, err := New(doc)
	require.NoError(t, err)

	doc.Compatibility["citrus"][0] = "spicy"
	doc.Families[0].Name = "Changed"

	assert.True(t, g.Compatible("citrus", "woody", Directed))
	assert.Equal(t, "Citrus", g.FamilyName("citrus"))

	listed := g.CompatibleFamilies("citrus")
	listed[0] = "spicy"
	assert.Equal(t, []string{"woody"}, g.CompatibleFamilies("citrus"))
}

func TestColorFallback(t *testing.T) {
	t.Parallel()

	g, err := New(testDocument())
	require.NoError(t, err)
	assert.Equal(t, "#ff0", g.Color("citrus"))
	assert.Equal(t, DefaultColor, g.Color("spicy"))
	assert.Equal(t, DefaultColor, g.Color("missing"))
	assert.Equal(t, "missing", g.FamilyName("missing"))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Document)
	}{
		{"no wheel id", func(d *Document) { d.ID = "" }},
		{"blank wheel id", func(d *Document) { d.ID = "  " }},
		{"no families", func(d *Document) { d.Families = nil }},
		{"blank id", func(d *Document) { d.Families[1].ID = " " }},
		{"duplicate id", func(d *Document) { d.Families[1].ID = "citrus" }},
		{"unknown source", func(d *Document) { d.Compatibility["floral"] = []string{"citrus"} }},
		{"unknown target", func(d *Document) { d.Compatibility["citrus"] = []string{"floral"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc := testDocument()
			tt.mutate(&doc)
			_, err := New(doc)
			assert.ErrorIs(t, err, ErrInvalidWheel)
		})
	}
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, Directed, p)

	p, err = ParsePolicy(" Symmetric ")
	require.NoError(t, err)
	assert.Equal(t, Symmetric, p)
	assert.Equal(t, "symmetric", p.String())

	_, err = ParsePolicy("both")
	assert.Error(t, err)
}

func TestDecodeTOML(t *testing.T) {
	t.Parallel()

	src := `
id = "mini"
name = "Mini"

[[families]]
id = "citrus"
name = "Citrus"
color = "#ff0"

[[families]]
id = "woody"
name = "Woody"

[compatibility]
citrus = ["woody"]
`
	g, err := Decode(strings.NewReader(src), FormatTOML)
	require.NoError(t, err)
	assert.Equal(t, "mini", g.ID())
	assert.True(t, g.Compatible("citrus", "woody", Directed))
}

func TestEncodeRoundTrip(t *testing.T) {
	t.Parallel()

	g, err := New(testDocument())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, g))

	back, err := Decode(&buf, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, g.Document(), back.Document())
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "wheel.json")
	require.NoError(t, os.WriteFile(path, defaultWheel, 0o600))

	g, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "default", g.ID())

	_, err = LoadFile(filepath.Join(dir, "wheel.yaml"))
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

func TestCacheLoadsOnce(t *testing.T) {
	t.Parallel()

	calls := 0
	cache := NewCache(4, time.Minute, func(ctx context.Context, id string) (*Graph, error) {
		calls++
		if id != "test" {
			return nil, ErrUnknownWheel
		}
		return New(testDocument())
	})

	first, err := cache.Get(context.Background(), "test")
	require.NoError(t, err)
	second, err := cache.Get(context.Background(), "test")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)

	cache.Invalidate("test")
	_, err = cache.Get(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	_, err = cache.Get(context.Background(), "other")
	assert.True(t, errors.Is(err, ErrUnknownWheel))
	assert.Equal(t, 1, cache.Len())
}

func TestCacheWithoutLoaderServesDefault(t *testing.T) {
	t.Parallel()

	cache := NewCache(0, 0, nil)
	g, err := cache.Get(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "default", g.ID())

	_, err = cache.Get(context.Background(), "custom")
	assert.ErrorIs(t, err, ErrUnknownWheel)
}
