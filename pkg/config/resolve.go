package config

import "fmt"

// Resolved is a document whose references have been linked: every pin points
// at its parent expander and every expander names a bus. It is produced only
// from documents that passed validation.
type Resolved struct {
	Buses     []Bus
	Expanders []*Expander
	Pins      []ResolvedPin
}

// ResolvedPin is a pin bound to its parent expander.
type ResolvedPin struct {
	Pin
	Parent *Expander
}

// Resolve links pins to expanders. The implicit default bus is materialised
// when an expander relies on it.
func Resolve(doc *Document) (*Resolved, error) {
	r := &Resolved{Buses: append([]Bus(nil), doc.Buses...)}

	byID := make(map[string]*Expander, len(doc.Expanders))
	for i := range doc.Expanders {
		e := doc.Expanders[i]
		if e.BusID == DefaultBusID && len(doc.Buses) == 0 && len(r.Buses) == 0 {
			r.Buses = append(r.Buses, Bus{ID: DefaultBusID})
		}
		if _, ok := byID[e.ID]; ok {
			return nil, fmt.Errorf("line %d: duplicate expander id %q", e.Line, e.ID)
		}
		byID[e.ID] = &e
		r.Expanders = append(r.Expanders, &e)
	}

	for _, p := range doc.Pins {
		parent, ok := byID[p.Parent]
		if !ok {
			return nil, fmt.Errorf("line %d: pin %q references unknown pca9575 %q", p.Line, p.ID, p.Parent)
		}
		r.Pins = append(r.Pins, ResolvedPin{Pin: p, Parent: parent})
	}

	return r, nil
}

// PinsOf returns the resolved pins bound to e, in declaration order.
func (r *Resolved) PinsOf(e *Expander) []ResolvedPin {
	var out []ResolvedPin
	for _, p := range r.Pins {
		if p.Parent == e {
			out = append(out, p)
		}
	}
	return out
}
