package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expandergen/pca9575gen/pkg/chip"
	"github.com/expandergen/pca9575gen/pkg/config"
	"github.com/expandergen/pca9575gen/pkg/schema"
)

// RegisterSchemaRules registers the local-pass rules.
func RegisterSchemaRules(registry *schema.RuleRegistry, part *chip.Part) {
	registry.Register(NewSCH001())
	registry.Register(NewSCH002())
	registry.Register(NewSCH003(part))
	registry.Register(NewSCH004(part))
	registry.Register(NewSCH005())
	registry.Register(NewSCH006())
	registry.Register(NewSCH007())
}

var identifierRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// maxI2CAddress is the largest 7-bit address.
const maxI2CAddress = 0x7F

// SCH001 checks that ids are present where required and are valid identifiers.
type SCH001 struct {
	*schema.BaseRule
}

func NewSCH001() *SCH001 {
	return &SCH001{
		BaseRule: schema.NewBaseRule("SCH-001", "Valid identifiers", schema.CategorySchema, schema.PassLocal, schema.SeverityError),
	}
}

func (r *SCH001) Check(doc *config.Document) []schema.Violation {
	var out []schema.Violation
	check := func(kind, id string, line int, required bool) {
		switch {
		case id == "" && required:
			out = append(out, r.Report("", line, schema.ErrMissingField, "%s requires an id", kind))
		case id != "" && !identifierRE.MatchString(id):
			v := r.Report(id, line, schema.ErrInvalidValue, "%q is not a valid identifier", id)
			v.Suggestion = "use letters, digits and underscores, not starting with a digit"
			out = append(out, v)
		}
	}
	for _, b := range doc.Buses {
		check("i2c bus", b.ID, b.Line, true)
	}
	for _, e := range doc.Expanders {
		check("pca9575", e.ID, e.Line, true)
	}
	for _, p := range doc.Pins {
		if !p.GeneratedID {
			check("pin", p.ID, p.Line, false)
		}
	}
	return out
}

// SCH002 checks that expander addresses fit in 7 bits.
type SCH002 struct {
	*schema.BaseRule
}

func NewSCH002() *SCH002 {
	return &SCH002{
		BaseRule: schema.NewBaseRule("SCH-002", "I2C address range", schema.CategorySchema, schema.PassLocal, schema.SeverityError),
	}
}

func (r *SCH002) Check(doc *config.Document) []schema.Violation {
	var out []schema.Violation
	for _, e := range doc.Expanders {
		if e.Address > maxI2CAddress {
			out = append(out, r.Report(e.ID, e.Line, schema.ErrInvalidValue,
				"address %s is not a 7-bit I2C address", e.Address))
		}
	}
	return out
}

// SCH003 checks pin_count against the part's accepted values.
type SCH003 struct {
	*schema.BaseRule
	part *chip.Part
}

func NewSCH003(part *chip.Part) *SCH003 {
	return &SCH003{
		BaseRule: schema.NewBaseRule("SCH-003", "Pin count", schema.CategorySchema, schema.PassLocal, schema.SeverityError),
		part:     part,
	}
}

func (r *SCH003) Check(doc *config.Document) []schema.Violation {
	var out []schema.Violation
	for _, e := range doc.Expanders {
		if !r.part.AllowsPinCount(e.PinCount) {
			out = append(out, r.Report(e.ID, e.Line, schema.ErrInvalidValue,
				"pin_count %d is not one of %s", e.PinCount, intList(r.part.PinCounts)))
		}
	}
	return out
}

// SCH004 checks that every pin has a number within the chip's range.
type SCH004 struct {
	*schema.BaseRule
	part *chip.Part
}

func NewSCH004(part *chip.Part) *SCH004 {
	return &SCH004{
		BaseRule: schema.NewMandatoryRule("SCH-004", "Pin number", schema.CategorySchema, schema.PassLocal),
		part:     part,
	}
}

func (r *SCH004) Check(doc *config.Document) []schema.Violation {
	var out []schema.Violation
	max := r.part.MaxPinIndex()
	for _, p := range doc.Pins {
		switch {
		case !p.NumberSet:
			out = append(out, r.Report(p.ID, p.Line, schema.ErrMissingField, "pin requires a number"))
		case p.Number < 0 || p.Number > max:
			out = append(out, r.Report(p.ID, p.Line, schema.ErrPinOutOfRange,
				"Pin number must be in range 0-%d, got %d", max, p.Number))
		}
	}
	return out
}

// SCH005 checks that a pin's mode is exactly one of input or output.
type SCH005 struct {
	*schema.BaseRule
}

func NewSCH005() *SCH005 {
	return &SCH005{
		BaseRule: schema.NewMandatoryRule("SCH-005", "Mode is input or output", schema.CategorySchema, schema.PassLocal),
	}
}

func (r *SCH005) Check(doc *config.Document) []schema.Violation {
	var out []schema.Violation
	for _, p := range doc.Pins {
		if p.Mode.Input == p.Mode.Output {
			v := r.Report(p.ID, p.Mode.Line, schema.ErrModeConflict, "Mode must be either input or output")
			if p.Mode.Input {
				v.Suggestion = "set only one of input or output"
			} else {
				v.Suggestion = "add mode: INPUT or mode: OUTPUT"
			}
			out = append(out, v)
		}
	}
	return out
}

// SCH006 checks that every pin names its expander.
type SCH006 struct {
	*schema.BaseRule
}

func NewSCH006() *SCH006 {
	return &SCH006{
		BaseRule: schema.NewBaseRule("SCH-006", "Pin declares its expander", schema.CategorySchema, schema.PassLocal, schema.SeverityError),
	}
}

func (r *SCH006) Check(doc *config.Document) []schema.Violation {
	var out []schema.Violation
	for _, p := range doc.Pins {
		if p.Parent == "" {
			v := r.Report(p.ID, p.Line, schema.ErrMissingField, "pin requires a pca9575 reference")
			v.Suggestion = "add pca9575: <expander id>"
			out = append(out, v)
		}
	}
	return out
}

// SCH007 rejects options the schema does not define, including mode flags
// the expander does not support.
type SCH007 struct {
	*schema.BaseRule
}

func NewSCH007() *SCH007 {
	return &SCH007{
		BaseRule: schema.NewBaseRule("SCH-007", "Unknown options", schema.CategorySchema, schema.PassLocal, schema.SeverityError),
	}
}

func (r *SCH007) Check(doc *config.Document) []schema.Violation {
	var out []schema.Violation
	report := func(subject string, keys []config.Key, what string) {
		for _, k := range keys {
			out = append(out, r.Report(subject, k.Line, schema.ErrUnknownOption, "[%s] is an invalid %s", k.Name, what))
		}
	}
	for _, b := range doc.Buses {
		report(b.ID, b.Unknown, "option")
	}
	for _, e := range doc.Expanders {
		report(e.ID, e.Unknown, "option")
	}
	for _, p := range doc.Pins {
		report(p.ID, p.Unknown, "option")
		report(p.ID, p.Mode.Unsupported, "pin mode for pca9575")
	}
	return out
}

func intList(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
