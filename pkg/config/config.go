// Package config parses the declarative YAML document that declares PCA9575
// expanders, the I2C buses they sit on, and the pins bound to them.
//
// Parsing applies defaults but performs no cross-record validation; that is
// the job of pkg/schema. Every record remembers the source line of its YAML
// mapping so diagnostics can point at it.
package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/expandergen/pca9575gen/pkg/chip"
	"github.com/expandergen/pca9575gen/pkg/version"
)

// Top-level keys of a configuration document.
const (
	KeySchemaVersion = "schema_version"
	KeyI2C           = "i2c"
	KeyPCA9575       = "pca9575"
	KeyPins          = "pins"
)

// DefaultBusID names the implicit bus used when no i2c block is declared.
const DefaultBusID = "bus_default"

// Document is a parsed configuration document with defaults applied.
type Document struct {
	SchemaVersion string
	Buses         []Bus
	Expanders     []Expander
	Pins          []Pin

	// UnknownKeys lists top-level keys this generator does not handle.
	UnknownKeys []Key
}

// Key is a mapping key with its source line.
type Key struct {
	Name string
	Line int
}

// Bus is an I2C bus declaration. Only its id is used for wiring.
type Bus struct {
	ID        string
	SDA       string
	SCL       string
	Frequency string
	Line      int
	Unknown   []Key
}

// Expander is a PCA9575 component declaration.
type Expander struct {
	ID            string
	Address       Address
	PinCount      int
	BusID         string
	SetupPriority *float64
	Line          int
	Unknown       []Key

	// AddressSet and PinCountSet record whether the value came from the
	// document rather than a default.
	AddressSet  bool
	PinCountSet bool
	// BusImplicit is set when BusID was filled in by defaulting.
	BusImplicit bool
}

// Pin is a GPIO pin declaration bound to an expander by name.
type Pin struct {
	ID             string
	Parent         string
	Number         int
	NumberSet      bool
	Mode           Mode
	Inverted       bool
	AllowOtherUses bool
	Line           int
	Unknown        []Key

	// GeneratedID is set when ID was derived from the parent and number.
	GeneratedID bool
}

// Parse parses a configuration document from YAML bytes and applies defaults.
func Parse(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	doc := &Document{}
	if root.Kind == 0 {
		// Empty input.
		return doc, nil
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("parsing config: unexpected YAML structure")
	}

	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: config document must be a mapping", top.Line)
	}

	for i := 0; i < len(top.Content)-1; i += 2 {
		keyNode := top.Content[i]
		valueNode := top.Content[i+1]

		var err error
		switch keyNode.Value {
		case KeySchemaVersion:
			err = valueNode.Decode(&doc.SchemaVersion)
		case KeyI2C:
			doc.Buses, err = decodeList[Bus](valueNode)
		case KeyPCA9575:
			doc.Expanders, err = decodeList[Expander](valueNode)
		case KeyPins:
			doc.Pins, err = decodeList[Pin](valueNode)
		default:
			doc.UnknownKeys = append(doc.UnknownKeys, Key{Name: keyNode.Value, Line: keyNode.Line})
		}
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", keyNode.Value, err)
		}
	}

	if err := version.CheckDocument(doc.SchemaVersion); err != nil {
		return nil, err
	}

	ApplyDefaults(doc, chip.Default())
	return doc, nil
}

// Load loads and parses a configuration document from a file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data)
}

// ExpanderByID returns the expander with the given id.
func (d *Document) ExpanderByID(id string) (*Expander, bool) {
	for i := range d.Expanders {
		if d.Expanders[i].ID == id {
			return &d.Expanders[i], true
		}
	}
	return nil, false
}

// BusByID returns the bus with the given id.
func (d *Document) BusByID(id string) (*Bus, bool) {
	for i := range d.Buses {
		if d.Buses[i].ID == id {
			return &d.Buses[i], true
		}
	}
	return nil, false
}

// PinsOf returns the pins bound to the named expander, in declaration order.
func (d *Document) PinsOf(expanderID string) []Pin {
	var out []Pin
	for _, p := range d.Pins {
		if p.Parent == expanderID {
			out = append(out, p)
		}
	}
	return out
}

// IDs returns every declared id with the line it was declared on, sorted by
// line. Records without an id are skipped.
func (d *Document) IDs() []Key {
	var ids []Key
	for _, b := range d.Buses {
		if b.ID != "" {
			ids = append(ids, Key{Name: b.ID, Line: b.Line})
		}
	}
	for _, e := range d.Expanders {
		if e.ID != "" {
			ids = append(ids, Key{Name: e.ID, Line: e.Line})
		}
	}
	for _, p := range d.Pins {
		if p.ID != "" {
			ids = append(ids, Key{Name: p.ID, Line: p.Line})
		}
	}
	sort.SliceStable(ids, func(i, j int) bool { return ids[i].Line < ids[j].Line })
	return ids
}
