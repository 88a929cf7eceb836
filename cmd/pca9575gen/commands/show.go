package commands

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/expandergen/pca9575gen/pkg/codegen"
	"github.com/expandergen/pca9575gen/pkg/config"
	"github.com/expandergen/pca9575gen/pkg/trace"
	"github.com/expandergen/pca9575gen/pkg/version"
)

// RunShow prints the resolved configuration: expanders with their defaults
// filled in and the pins bound to each.
func RunShow(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	asYAML := fs.Bool("yaml", false, "Print the normalized configuration as YAML")
	program := fs.Bool("program", false, "Print the emitted instructions")

	if err := parseFlags(fs, args, stderr, printShowUsage); err != nil {
		return exitCommandError
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: one configuration file required")
		printShowUsage(stderr)
		return exitCommandError
	}
	file := fs.Arg(0)

	b, err := runPipeline(file, nil, trace.NewRun(nil, file))
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", file, err)
		printIssues(stderr, b.Result, false)
		return exitCodeFor(b, err)
	}

	switch {
	case *asYAML:
		data, err := normalizedYAML(b.Resolved)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitCommandError
		}
		_, _ = stdout.Write(data)
	case *program:
		printProgram(stdout, b.Program)
	default:
		printResolved(stdout, b.Resolved)
	}
	return exitSuccess
}

func printResolved(w io.Writer, r *config.Resolved) {
	fmt.Fprintf(w, "Buses: %d  Expanders: %d  Pins: %d\n", len(r.Buses), len(r.Expanders), len(r.Pins))
	for _, e := range r.Expanders {
		fmt.Fprintln(w)
		printExpander(w, e)
		for _, p := range r.PinsOf(e) {
			printPin(w, p.Pin)
		}
	}
}

func printExpander(w io.Writer, e *config.Expander) {
	fmt.Fprintf(w, "%s  address %s on %s, %d pins", e.ID, e.Address, e.BusID, e.PinCount)
	var notes []string
	if !e.AddressSet {
		notes = append(notes, "default address")
	}
	if e.SetupPriority != nil {
		notes = append(notes, fmt.Sprintf("setup priority %g", *e.SetupPriority))
	}
	if len(notes) > 0 {
		fmt.Fprintf(w, " (%s)", strings.Join(notes, ", "))
	}
	fmt.Fprintln(w)
}

func printPin(w io.Writer, p config.Pin) {
	fmt.Fprintf(w, "  %-20s pin %-3d %-7s", p.ID, p.Number, p.Mode)
	if p.Inverted {
		fmt.Fprint(w, " inverted")
	}
	if p.AllowOtherUses {
		fmt.Fprint(w, " shared")
	}
	fmt.Fprintln(w)
}

func printProgram(w io.Writer, prog *codegen.Program) {
	for i, in := range prog.Instructions {
		fmt.Fprintf(w, "  %3d  %s\n", i, in)
	}
}

type yamlDoc struct {
	SchemaVersion string         `yaml:"schema_version"`
	I2C           []yamlBus      `yaml:"i2c,omitempty"`
	PCA9575       []yamlExpander `yaml:"pca9575"`
	Pins          []yamlPin      `yaml:"pins,omitempty"`
}

type yamlBus struct {
	ID        string `yaml:"id"`
	SDA       string `yaml:"sda,omitempty"`
	SCL       string `yaml:"scl,omitempty"`
	Frequency string `yaml:"frequency,omitempty"`
}

type yamlExpander struct {
	ID            string         `yaml:"id"`
	Address       config.Address `yaml:"address"`
	PinCount      int            `yaml:"pin_count"`
	BusID         string         `yaml:"i2c_id"`
	SetupPriority *float64       `yaml:"setup_priority,omitempty"`
}

type yamlPin struct {
	ID             string `yaml:"id"`
	Parent         string `yaml:"pca9575"`
	Number         int    `yaml:"number"`
	Mode           string `yaml:"mode"`
	Inverted       bool   `yaml:"inverted"`
	AllowOtherUses bool   `yaml:"allow_other_uses,omitempty"`
}

// normalizedYAML renders a resolved configuration with every default
// spelled out. The output parses back to the same configuration.
func normalizedYAML(r *config.Resolved) ([]byte, error) {
	doc := yamlDoc{SchemaVersion: version.Current}
	for _, b := range r.Buses {
		doc.I2C = append(doc.I2C, yamlBus{ID: b.ID, SDA: b.SDA, SCL: b.SCL, Frequency: b.Frequency})
	}
	for _, e := range r.Expanders {
		doc.PCA9575 = append(doc.PCA9575, yamlExpander{
			ID:            e.ID,
			Address:       e.Address,
			PinCount:      e.PinCount,
			BusID:         e.BusID,
			SetupPriority: e.SetupPriority,
		})
	}
	for _, p := range r.Pins {
		doc.Pins = append(doc.Pins, yamlPin{
			ID:             p.ID,
			Parent:         p.Parent.ID,
			Number:         p.Number,
			Mode:           strings.ToUpper(p.Mode.String()),
			Inverted:       p.Inverted,
			AllowOtherUses: p.AllowOtherUses,
		})
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	return data, nil
}

func printShowUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: pca9575gen show [options] <file>

Options:
  -yaml     Print the normalized configuration as YAML
  -program  Print the emitted instructions`)
}
