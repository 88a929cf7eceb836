package render

import (
	"fmt"
	"io"
	"path/filepath"
	"text/template"

	"golang.org/x/tools/imports"

	"github.com/expandergen/pca9575gen/pkg/codegen"
)

// DefaultGoPackage is the package clause used when Meta.GoPackage is empty.
const DefaultGoPackage = "wiring"

// Go renders a Go file with a Wire function that binds the configured
// expanders to periph.io I2C buses.
type Go struct{}

func (Go) Name() string      { return "go" }
func (Go) Extension() string { return ".go" }

const goTmpl = `// Code generated by pca9575gen. DO NOT EDIT.
{{- if .Meta.Source}}
// Source: {{.Meta.Source}}
{{- end}}

package {{.Package}}

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
)

// Mode is the direction of an expander pin.
type Mode uint8

const (
	ModeNone Mode = iota
	ModeInput
	ModeOutput
)

// Expander is a {{.Part}} attached to an I2C bus.
type Expander struct {
	ID            string
	Dev           *i2c.Dev
	PinCount      int
	SetupPriority float64
}

// Pin is one GPIO line of an expander.
type Pin struct {
	ID       string
	Expander *Expander
	Number   int
	Inverted bool
	Mode     Mode
}

// Wiring holds the configured objects. Components lists expanders in
// registration order.
type Wiring struct {
	Expanders  map[string]*Expander
	Pins       map[string]*Pin
	Components []*Expander
}

// Wire binds the configured expanders to the given buses, keyed by bus id.
func Wire(buses map[string]i2c.Bus) (*Wiring, error) {
	w := &Wiring{
		Expanders: make(map[string]*Expander),
		Pins:      make(map[string]*Pin),
	}
{{- range .Statements}}
	{{.}}
{{- end}}
	return w, nil
}
`

var goTemplate = template.Must(template.New("go").Parse(goTmpl))

type goData struct {
	Meta       Meta
	Package    string
	Part       string
	Statements []string
}

// Render implements Renderer. The output is not formatted; see Format.
func (Go) Render(w io.Writer, prog *codegen.Program, meta Meta) error {
	data := goData{Meta: meta, Package: meta.GoPackage, Part: prog.Part}
	if data.Package == "" {
		data.Package = DefaultGoPackage
	}

	for _, in := range prog.Instructions {
		stmts, err := goStatements(prog, in)
		if err != nil {
			return err
		}
		data.Statements = append(data.Statements, stmts...)
	}

	if err := goTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("go: %w", err)
	}
	return nil
}

func goStatements(prog *codegen.Program, in codegen.Instruction) ([]string, error) {
	v := goVar(in.Var)
	switch in.Op {
	case codegen.OpGetVariable:
		return []string{
			fmt.Sprintf("%s, ok := buses[%q]", v, in.Var),
			fmt.Sprintf("if !ok { return nil, fmt.Errorf(\"i2c bus %%q not provided\", %q) }", in.Var),
		}, nil

	case codegen.OpNew:
		switch in.Type {
		case prog.ComponentType:
			return []string{
				fmt.Sprintf("%s := &Expander{ID: %q}", v, in.Var),
				fmt.Sprintf("w.Expanders[%q] = %s", in.Var, v),
			}, nil
		case prog.PinType:
			return []string{
				fmt.Sprintf("%s := &Pin{ID: %q}", v, in.Var),
				fmt.Sprintf("w.Pins[%q] = %s", in.Var, v),
			}, nil
		}

	case codegen.OpCall:
		if len(in.Args) != 1 {
			break
		}
		a := in.Args[0]
		switch in.Method {
		case codegen.MethodSetPinCount:
			return []string{fmt.Sprintf("%s.PinCount = %d", v, a.Int)}, nil
		case codegen.MethodSetSetupPriority:
			return []string{fmt.Sprintf("%s.SetupPriority = %s", v, formatFloat(a.Float))}, nil
		case codegen.MethodSetParent:
			return []string{fmt.Sprintf("%s.Expander = %s", v, goVar(a.Ref))}, nil
		case codegen.MethodSetPin:
			return []string{fmt.Sprintf("%s.Number = %d", v, a.Int)}, nil
		case codegen.MethodSetInverted:
			return []string{fmt.Sprintf("%s.Inverted = %t", v, a.Bool)}, nil
		case codegen.MethodSetFlags:
			return []string{fmt.Sprintf("%s.Mode = %s", v, goMode(a))}, nil
		}

	case codegen.OpRegisterComponent:
		return []string{fmt.Sprintf("w.Components = append(w.Components, %s)", v)}, nil

	case codegen.OpRegisterI2CDevice:
		if len(in.Args) == 2 {
			return []string{
				fmt.Sprintf("%s.Dev = &i2c.Dev{Bus: %s, Addr: %s}", v, goVar(in.Args[0].Ref), in.Args[1]),
			}, nil
		}
	}
	return nil, unsupported("go", in)
}

// goVar maps a configuration id to a local variable name that cannot clash
// with the generated code's own identifiers or Go keywords.
func goVar(id string) string {
	return "v_" + id
}

func goMode(a codegen.Arg) string {
	switch {
	case a.HasFlag(codegen.FlagInput) && !a.HasFlag(codegen.FlagOutput):
		return "ModeInput"
	case a.HasFlag(codegen.FlagOutput) && !a.HasFlag(codegen.FlagInput):
		return "ModeOutput"
	default:
		return "ModeNone"
	}
}

// Format runs goimports over generated source.
func (Go) Format(name string, code []byte) ([]byte, error) {
	formatted, err := imports.Process(name, code, nil)
	if err != nil {
		return nil, fmt.Errorf("goimports %s: %w", filepath.Base(name), err)
	}
	return formatted, nil
}

var _ Formatter = Go{}
