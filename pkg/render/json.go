package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/expandergen/pca9575gen/pkg/codegen"
)

// JSON renders the instruction list as an indented JSON document.
type JSON struct{}

func (JSON) Name() string      { return "json" }
func (JSON) Extension() string { return ".json" }

// JSONDocument is the top-level object written by the JSON renderer.
type JSONDocument struct {
	Generator string           `json:"generator,omitempty"`
	Source    string           `json:"source,omitempty"`
	Program   *codegen.Program `json:"program"`
}

// Render implements Renderer.
func (JSON) Render(w io.Writer, prog *codegen.Program, meta Meta) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(JSONDocument{
		Generator: meta.Generator,
		Source:    meta.Source,
		Program:   prog,
	}); err != nil {
		return fmt.Errorf("json: %w", err)
	}
	return nil
}
