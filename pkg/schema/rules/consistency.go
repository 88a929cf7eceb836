package rules

import (
	"fmt"

	"github.com/expandergen/pca9575gen/pkg/chip"
	"github.com/expandergen/pca9575gen/pkg/config"
	"github.com/expandergen/pca9575gen/pkg/schema"
)

// RegisterConsistencyRules registers the final-pass consistency rules.
func RegisterConsistencyRules(registry *schema.RuleRegistry, part *chip.Part) {
	registry.Register(NewCON001())
	registry.Register(NewCON002())
	registry.Register(NewCON003())
	registry.Register(NewCON004(part))
	registry.Register(NewCON005())
}

// CON001 rejects ids declared more than once.
type CON001 struct {
	*schema.BaseRule
}

func NewCON001() *CON001 {
	return &CON001{
		BaseRule: schema.NewBaseRule("CON-001", "Unique ids", schema.CategoryConsistency, schema.PassFinal, schema.SeverityError),
	}
}

func (r *CON001) Check(doc *config.Document) []schema.Violation {
	var out []schema.Violation
	first := make(map[string]int)
	for _, k := range doc.IDs() {
		if line, seen := first[k.Name]; seen {
			out = append(out, r.Report(k.Name, k.Line, schema.ErrDuplicateID,
				"ID %s redefined (first defined on line %d)", k.Name, line))
			continue
		}
		first[k.Name] = k.Line
	}
	return out
}

// CON002 rejects two expanders at the same address on the same bus.
type CON002 struct {
	*schema.BaseRule
}

func NewCON002() *CON002 {
	return &CON002{
		BaseRule: schema.NewBaseRule("CON-002", "Unique bus addresses", schema.CategoryConsistency, schema.PassFinal, schema.SeverityError),
	}
}

func (r *CON002) Check(doc *config.Document) []schema.Violation {
	var out []schema.Violation
	type slot struct {
		bus  string
		addr config.Address
	}
	owner := make(map[slot]string)
	for _, e := range doc.Expanders {
		s := slot{bus: e.BusID, addr: e.Address}
		if prev, taken := owner[s]; taken {
			v := r.Report(e.ID, e.Line, schema.ErrAddressConflict,
				"address %s on bus %s is already used by %s", e.Address, e.BusID, prev)
			v.Suggestion = "strap the expander to a different address"
			out = append(out, v)
			continue
		}
		owner[s] = e.ID
	}
	return out
}

// CON003 warns when two pins claim the same expander line without
// allow_other_uses.
type CON003 struct {
	*schema.BaseRule
}

func NewCON003() *CON003 {
	return &CON003{
		BaseRule: schema.NewBaseRule("CON-003", "Pin reuse", schema.CategoryConsistency, schema.PassFinal, schema.SeverityWarning),
	}
}

func (r *CON003) Check(doc *config.Document) []schema.Violation {
	var out []schema.Violation
	type line struct {
		parent string
		number int
	}
	users := make(map[line]config.Pin)
	for _, p := range doc.Pins {
		key := line{parent: p.Parent, number: p.Number}
		prev, used := users[key]
		if !used {
			users[key] = p
			continue
		}
		if p.AllowOtherUses && prev.AllowOtherUses {
			continue
		}
		v := r.Report(p.ID, p.Line, nil,
			"pin %d of %s is already used by %s", p.Number, p.Parent, prev.ID)
		v.Suggestion = "set allow_other_uses: true on every use if this is intended"
		out = append(out, v)
	}
	return out
}

// CON004 warns when an address lies outside the straps of the configured part.
type CON004 struct {
	*schema.BaseRule
	part *chip.Part
}

func NewCON004(part *chip.Part) *CON004 {
	return &CON004{
		BaseRule: schema.NewBaseRule("CON-004", "Address strap range", schema.CategoryConsistency, schema.PassFinal, schema.SeverityWarning),
		part:     part,
	}
}

func (r *CON004) Check(doc *config.Document) []schema.Violation {
	var out []schema.Violation
	for _, e := range doc.Expanders {
		variant, ok := r.part.VariantForAddress(uint16(e.Address))
		switch {
		case !ok:
			out = append(out, r.Report(e.ID, e.Line, nil,
				"address %s is outside the %s address straps%s", e.Address, r.part.Name, r.strapRanges()))
		case !variant.Supported:
			v := r.Report(e.ID, e.Line, nil,
				"address %s belongs to the %s, which this schema does not configure", e.Address, variant.Name)
			v.Suggestion = fmt.Sprintf("the %s defaults to %s", r.part.Name, config.Address(r.part.DefaultAddress))
			out = append(out, v)
		}
	}
	return out
}

func (r *CON004) strapRanges() string {
	for _, v := range r.part.Variants {
		if v.Supported {
			return fmt.Sprintf(" (%s-%s)", config.Address(v.AddressMin), config.Address(v.AddressMax))
		}
	}
	return ""
}

// CON005 warns about top-level keys the generator ignores.
type CON005 struct {
	*schema.BaseRule
}

func NewCON005() *CON005 {
	return &CON005{
		BaseRule: schema.NewBaseRule("CON-005", "Unhandled top-level keys", schema.CategoryConsistency, schema.PassFinal, schema.SeverityWarning),
	}
}

func (r *CON005) Check(doc *config.Document) []schema.Violation {
	var out []schema.Violation
	for _, k := range doc.UnknownKeys {
		out = append(out, r.Report(k.Name, k.Line, nil, "top-level key %q is not handled by pca9575gen and is ignored", k.Name))
	}
	return out
}
