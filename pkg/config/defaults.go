package config

import (
	"fmt"

	"github.com/expandergen/pca9575gen/pkg/chip"
)

// ApplyDefaults fills in values the document left out:
//   - expander address defaults to the part's default (0x20)
//   - expander pin_count defaults to the part's default pin count
//   - expander i2c_id defaults to the only declared bus, or DefaultBusID
//   - pin ids default to "<expander>_pin_<number>"
//
// Values that were set explicitly are never touched.
func ApplyDefaults(doc *Document, part *chip.Part) {
	for i := range doc.Expanders {
		e := &doc.Expanders[i]
		if !e.AddressSet {
			e.Address = Address(part.DefaultAddress)
		}
		if !e.PinCountSet {
			e.PinCount = part.DefaultPinCount
		}
		if e.BusID == "" {
			e.BusImplicit = true
			switch len(doc.Buses) {
			case 0:
				e.BusID = DefaultBusID
			case 1:
				e.BusID = doc.Buses[0].ID
			default:
				// Ambiguous; left empty for the validator to report.
				e.BusID = ""
			}
		}
	}

	taken := make(map[string]bool)
	for _, k := range doc.IDs() {
		taken[k.Name] = true
	}
	for i := range doc.Pins {
		p := &doc.Pins[i]
		if p.ID != "" || p.Parent == "" || !p.NumberSet {
			continue
		}
		base := fmt.Sprintf("%s_pin_%d", p.Parent, p.Number)
		id := base
		for n := 2; taken[id]; n++ {
			id = fmt.Sprintf("%s_%d", base, n)
		}
		taken[id] = true
		p.ID = id
		p.GeneratedID = true
	}
}
