package rules

import (
	"github.com/expandergen/pca9575gen/pkg/config"
	"github.com/expandergen/pca9575gen/pkg/schema"
)

// RegisterReferenceRules registers the final-pass reference rules.
func RegisterReferenceRules(registry *schema.RuleRegistry) {
	registry.Register(NewREF001())
	registry.Register(NewREF002())
	registry.Register(NewREF003())
}

// REF001 checks that each pin's pca9575 reference names a declared expander.
type REF001 struct {
	*schema.BaseRule
}

func NewREF001() *REF001 {
	return &REF001{
		BaseRule: schema.NewBaseRule("REF-001", "Pin expander resolves", schema.CategoryReference, schema.PassFinal, schema.SeverityError),
	}
}

func (r *REF001) Check(doc *config.Document) []schema.Violation {
	var out []schema.Violation
	for _, p := range doc.Pins {
		if _, ok := doc.ExpanderByID(p.Parent); !ok {
			v := r.Report(p.ID, p.Line, schema.ErrUnresolvedReference,
				"Couldn't find ID '%s'. Please check you have defined an ID with that name in your configuration", p.Parent)
			out = append(out, v)
		}
	}
	return out
}

// REF002 checks each pin number against its own parent's pin_count.
// Pins whose parent does not resolve are REF-001's concern.
type REF002 struct {
	*schema.BaseRule
}

func NewREF002() *REF002 {
	return &REF002{
		BaseRule: schema.NewMandatoryRule("REF-002", "Pin number below parent pin_count", schema.CategoryReference, schema.PassFinal),
	}
}

func (r *REF002) Check(doc *config.Document) []schema.Violation {
	var out []schema.Violation
	for _, p := range doc.Pins {
		parent, ok := doc.ExpanderByID(p.Parent)
		if !ok {
			continue
		}
		if p.Number >= parent.PinCount {
			out = append(out, r.Report(p.ID, p.Line, schema.ErrPinOutOfRange,
				"Pin number must be in range 0-%d", parent.PinCount-1))
		}
	}
	return out
}

// REF003 checks that each expander sits on a declared bus.
type REF003 struct {
	*schema.BaseRule
}

func NewREF003() *REF003 {
	return &REF003{
		BaseRule: schema.NewBaseRule("REF-003", "Expander bus resolves", schema.CategoryReference, schema.PassFinal, schema.SeverityError),
	}
}

func (r *REF003) Check(doc *config.Document) []schema.Violation {
	var out []schema.Violation
	for _, e := range doc.Expanders {
		switch {
		case e.BusID == "":
			v := r.Report(e.ID, e.Line, schema.ErrMissingField,
				"i2c_id is required when more than one i2c bus is declared")
			v.Suggestion = "add i2c_id: <bus id>"
			out = append(out, v)
		case e.BusID == config.DefaultBusID && e.BusImplicit && len(doc.Buses) == 0:
			// Implicit default bus.
		default:
			if _, ok := doc.BusByID(e.BusID); !ok {
				out = append(out, r.Report(e.ID, e.Line, schema.ErrUnresolvedReference,
					"i2c bus %q is not declared", e.BusID))
			}
		}
	}
	return out
}
