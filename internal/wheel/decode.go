package wheel

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// Format identifies the serialisation of a wheel document.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

//go:embed data/default-wheel.json
var defaultWheel []byte

var (
	defaultOnce  sync.Once
	defaultGraph *Graph
	defaultErr   error
)

// Default returns the built-in fragrance wheel.
func Default() (*Graph, error) {
	defaultOnce.Do(func() {
		defaultGraph, defaultErr = Decode(bytes.NewReader(defaultWheel), FormatJSON)
	})
	return defaultGraph, defaultErr
}

// MustDefault is like Default but panics if the embedded wheel is broken.
func MustDefault() *Graph {
	g, err := Default()
	if err != nil {
		panic(err)
	}
	return g
}

// DecodeDocument reads a wheel document without validating it.
func DecodeDocument(r io.Reader, format Format) (Document, error) {
	var doc Document
	switch format {
	case FormatJSON, "":
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return Document{}, fmt.Errorf("%w: decode json: %w", ErrInvalidWheel, err)
		}
	case FormatTOML:
		if err := toml.NewDecoder(r).Decode(&doc); err != nil {
			return Document{}, fmt.Errorf("%w: decode toml: %w", ErrInvalidWheel, err)
		}
	default:
		return Document{}, fmt.Errorf("wheel: unsupported format %q", format)
	}
	return doc, nil
}

// Decode reads and validates a wheel.
func Decode(r io.Reader, format Format) (*Graph, error) {
	doc, err := DecodeDocument(r, format)
	if err != nil {
		return nil, err
	}
	return New(doc)
}

// Encode writes the graph as JSON, the format used for persisted wheels.
func Encode(w io.Writer, g *Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(g.Document())
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("wheel: cannot infer format of %q", path)
	}
}

// LoadFile decodes the wheel stored at path.
func LoadFile(path string) (*Graph, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wheel: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f, format)
}
