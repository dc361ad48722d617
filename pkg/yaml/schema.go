package yaml

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaGenerator builds a JSON schema for a Go value, enriched with Go doc
// comments from the module's source.
type SchemaGenerator struct {
	value any
	base  string
	dir   string
}

// NewSchemaGenerator creates a [SchemaGenerator] for the given value. Doc
// comments are read from the module rooted at dir, importable as base.
func NewSchemaGenerator(value any, base, dir string) *SchemaGenerator {
	return &SchemaGenerator{
		value: value,
		base:  base,
		dir:   dir,
	}
}

// Generate reflects the value into an indented JSON schema document.
func (g *SchemaGenerator) Generate() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
	}

	err := r.AddGoComments(g.base, g.dir)
	if err != nil {
		return nil, fmt.Errorf("read go comments: %w", err)
	}

	js := r.Reflect(g.value)

	jsData, err := json.MarshalIndent(js, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return append(jsData, '\n'), nil
}
