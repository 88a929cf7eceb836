package render

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/expandergen/pca9575gen/pkg/codegen"
)

// CPP renders setup code in the firmware framework's C++ style.
type CPP struct{}

func (CPP) Name() string      { return "cpp" }
func (CPP) Extension() string { return ".cpp" }

const cppTmpl = `// Generated by pca9575gen {{.Meta.Generator}}{{if .Meta.Source}} from {{.Meta.Source}}{{end}}. Do not edit.
#include "esphome.h"

using namespace esphome;
{{range .Externs}}
extern {{.}};
{{- end}}
{{range .Globals}}
{{.}};
{{- end}}

void pca9575gen_setup() {
{{- range .Statements}}
  {{.}}
{{- end}}
}
`

var cppTemplate = template.Must(template.New("cpp").Parse(cppTmpl))

type cppData struct {
	Meta       Meta
	Externs    []string
	Globals    []string
	Statements []string
}

// Render implements Renderer.
func (CPP) Render(w io.Writer, prog *codegen.Program, meta Meta) error {
	data := cppData{Meta: meta}
	for _, in := range prog.Instructions {
		switch in.Op {
		case codegen.OpGetVariable:
			data.Externs = append(data.Externs, fmt.Sprintf("%s *%s", cppType(in.Type), in.Var))
		case codegen.OpNew:
			data.Globals = append(data.Globals, fmt.Sprintf("%s *%s", cppType(in.Type), in.Var))
			data.Statements = append(data.Statements, fmt.Sprintf("%s = new %s();", in.Var, cppType(in.Type)))
		case codegen.OpCall:
			data.Statements = append(data.Statements,
				fmt.Sprintf("%s->%s(%s);", in.Var, in.Method, cppArgs(in.Args)))
		case codegen.OpRegisterComponent:
			data.Statements = append(data.Statements, fmt.Sprintf("App.register_component(%s);", in.Var))
		case codegen.OpRegisterI2CDevice:
			if len(in.Args) != 2 {
				return unsupported("cpp", in)
			}
			data.Statements = append(data.Statements,
				fmt.Sprintf("%s->set_i2c_bus(%s);", in.Var, cppArg(in.Args[0])),
				fmt.Sprintf("%s->set_i2c_address(%s);", in.Var, cppArg(in.Args[1])),
			)
		default:
			return unsupported("cpp", in)
		}
	}
	if err := cppTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("cpp: %w", err)
	}
	return nil
}

// cppType drops the framework namespace, which the generated file imports.
func cppType(qualified string) string {
	return strings.TrimPrefix(qualified, "esphome::")
}

func cppArgs(args []codegen.Arg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = cppArg(a)
	}
	return strings.Join(parts, ", ")
}

func cppArg(a codegen.Arg) string {
	switch a.Kind {
	case codegen.ArgFloat:
		return fmt.Sprintf("%sf", formatFloat(a.Float))
	case codegen.ArgFlags:
		if len(a.Flags) == 0 {
			return "gpio::Flags::FLAG_NONE"
		}
		parts := make([]string, len(a.Flags))
		for i, f := range a.Flags {
			parts[i] = "gpio::Flags::FLAG_" + strings.ToUpper(f)
		}
		return strings.Join(parts, " | ")
	default:
		return a.String()
	}
}

// formatFloat always keeps a decimal point.
func formatFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
