// Package render writes a codegen.Program as C++ setup code, a Go wiring
// file or JSON.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/expandergen/pca9575gen/pkg/codegen"
)

// ErrUnknownTarget is returned by ForTarget for unregistered target names.
var ErrUnknownTarget = errors.New("unknown render target")

// Meta describes where a program came from. It is written into file headers.
type Meta struct {
	// Source is the configuration file name.
	Source string
	// Generator is the generator version.
	Generator string
	// GoPackage is the package clause of Go output.
	GoPackage string
}

// Renderer writes a program in one target language.
type Renderer interface {
	// Name is the target name used on the command line.
	Name() string
	// Extension is the default output file extension, including the dot.
	Extension() string
	// Render writes the program to w.
	Render(w io.Writer, prog *codegen.Program, meta Meta) error
}

// Formatter is implemented by renderers whose raw output is post-processed
// before it is written out.
type Formatter interface {
	// Format formats code; name is used for diagnostics and import resolution.
	Format(name string, code []byte) ([]byte, error)
}

var renderers = map[string]Renderer{
	"cpp":  CPP{},
	"go":   Go{},
	"json": JSON{},
}

// Targets returns the registered target names, sorted.
func Targets() []string {
	names := make([]string, 0, len(renderers))
	for n := range renderers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ForTarget returns the renderer for a target name.
func ForTarget(name string) (Renderer, error) {
	r, ok := renderers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w %q (want one of %s)", ErrUnknownTarget, name, strings.Join(Targets(), ", "))
	}
	return r, nil
}

// Bytes renders prog into memory, formatted when r is a Formatter.
func Bytes(r Renderer, name string, prog *codegen.Program, meta Meta) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, prog, meta); err != nil {
		return nil, err
	}
	if f, ok := r.(Formatter); ok {
		return f.Format(name, buf.Bytes())
	}
	return buf.Bytes(), nil
}

// WriteFile renders prog to path. If formatting fails the raw output is
// written to path+".broken" for inspection.
func WriteFile(path string, r Renderer, prog *codegen.Program, meta Meta) error {
	var buf bytes.Buffer
	if err := r.Render(&buf, prog, meta); err != nil {
		return err
	}
	code := buf.Bytes()
	if f, ok := r.(Formatter); ok {
		formatted, err := f.Format(path, code)
		if err != nil {
			_ = os.WriteFile(path+".broken", code, 0o644)
			return err
		}
		code = formatted
	}
	if err := os.WriteFile(path, code, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// unsupported reports an instruction a renderer does not know how to write.
func unsupported(target string, in codegen.Instruction) error {
	return fmt.Errorf("%s: unsupported instruction %s", target, in)
}
