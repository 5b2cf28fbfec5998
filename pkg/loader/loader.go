package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/misinfo-cascade/pkg/graph"
	"github.com/dd0wney/misinfo-cascade/pkg/validation"
)

// ErrUnsupportedFormat is returned for file extensions with no importer.
var ErrUnsupportedFormat = errors.New("unsupported graph format")

// Format names a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Importer decodes and validates a node-link document.
type Importer interface {
	Import(r io.Reader) (*Document, error)
}

// JSONImporter reads node-link JSON as written by networkx.
type JSONImporter struct{}

// Import implements Importer.
func (JSONImporter) Import(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return checked(&doc)
}

// YAMLImporter reads the same layout as YAML.
type YAMLImporter struct{}

// Import implements Importer.
func (YAMLImporter) Import(r io.Reader) (*Document, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return checked(&doc)
}

func checked(doc *Document) (*Document, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Validate checks the document's records before any graph is built.
func (d *Document) Validate() error {
	if err := validation.Struct(d); err != nil {
		return fmt.Errorf("%w: %v", graph.ErrInvalidGraph, err)
	}
	if len(d.Nodes) > validation.MaxNodes {
		return fmt.Errorf("%w: %d nodes exceeds limit %d", graph.ErrInvalidGraph, len(d.Nodes), validation.MaxNodes)
	}
	if _, err := d.links(); err != nil {
		return fmt.Errorf("%w: %v", graph.ErrInvalidGraph, err)
	}
	return nil
}

// FormatFromPath picks a format by file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ImporterFor returns the importer for format.
func ImporterFor(format Format) (Importer, error) {
	switch format {
	case FormatJSON:
		return JSONImporter{}, nil
	case FormatYAML:
		return YAMLImporter{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Decode reads a document in the given format.
func Decode(r io.Reader, format Format) (*Document, error) {
	imp, err := ImporterFor(format)
	if err != nil {
		return nil, err
	}
	return imp.Import(r)
}

// Load reads and builds the graph stored at path.
func Load(path string, defaults graph.Defaults) (*graph.Graph, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open graph: %w", err)
	}
	defer f.Close()

	doc, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc.Build(defaults)
}

// Encode writes doc in the given format.
func Encode(w io.Writer, doc *Document, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
