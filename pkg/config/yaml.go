package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/i2c"
)

// Address is a 7-bit I2C device address. YAML accepts integers and strings
// in decimal or 0x-prefixed hex.
type Address uint16

// ParseAddress parses "0x20" or "32" style addresses.
func ParseAddress(s string) (Address, error) {
	var a i2c.Addr
	if err := a.Set(strings.TrimSpace(s)); err != nil {
		return 0, fmt.Errorf("invalid I2C address %q", s)
	}
	return Address(a), nil
}

// String formats the address as lower-case hex, e.g. "0x20".
func (a Address) String() string {
	addr := i2c.Addr(a)
	return addr.String()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Address) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: address must be a scalar", value.Line)
	}
	addr, err := ParseAddress(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*a = addr
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (a Address) MarshalYAML() (any, error) {
	return a.String(), nil
}

// Mode is the pin direction. Exactly one of Input and Output must be set for
// a pin to validate; the parser does not enforce that.
type Mode struct {
	Input  bool
	Output bool
	Line   int

	// Unsupported lists mode options the expander does not offer
	// (pullup, open_drain, ...).
	Unsupported []Key
}

// UnmarshalYAML accepts either a mapping of boolean flags or a shorthand
// string such as "INPUT" or "output".
func (m *Mode) UnmarshalYAML(value *yaml.Node) error {
	m.Line = value.Line

	switch value.Kind {
	case yaml.ScalarNode:
		switch strings.ToLower(strings.TrimSpace(value.Value)) {
		case "input":
			m.Input = true
		case "output":
			m.Output = true
		default:
			m.Unsupported = append(m.Unsupported, Key{Name: value.Value, Line: value.Line})
		}
		return nil

	case yaml.MappingNode:
		for i := 0; i < len(value.Content)-1; i += 2 {
			k, v := value.Content[i], value.Content[i+1]
			switch k.Value {
			case "input":
				if err := v.Decode(&m.Input); err != nil {
					return err
				}
			case "output":
				if err := v.Decode(&m.Output); err != nil {
					return err
				}
			default:
				var set bool
				if err := v.Decode(&set); err != nil {
					return err
				}
				if set {
					m.Unsupported = append(m.Unsupported, Key{Name: k.Value, Line: k.Line})
				}
			}
		}
		return nil

	default:
		return fmt.Errorf("line %d: mode must be a string or a mapping", value.Line)
	}
}

// String returns "input", "output", or a description of an invalid combination.
func (m Mode) String() string {
	switch {
	case m.Input && m.Output:
		return "input+output"
	case m.Input:
		return "input"
	case m.Output:
		return "output"
	default:
		return "none"
	}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *Bus) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		ID        string `yaml:"id"`
		SDA       string `yaml:"sda"`
		SCL       string `yaml:"scl"`
		Frequency string `yaml:"frequency"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*b = Bus{
		ID:        raw.ID,
		SDA:       raw.SDA,
		SCL:       raw.SCL,
		Frequency: raw.Frequency,
		Line:      value.Line,
		Unknown:   unknownKeys(value, "id", "sda", "scl", "frequency", "scan"),
	}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (e *Expander) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		ID            string   `yaml:"id"`
		Address       *Address `yaml:"address"`
		PinCount      *int     `yaml:"pin_count"`
		BusID         string   `yaml:"i2c_id"`
		SetupPriority *float64 `yaml:"setup_priority"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*e = Expander{
		ID:            raw.ID,
		BusID:         raw.BusID,
		SetupPriority: raw.SetupPriority,
		Line:          value.Line,
		Unknown:       unknownKeys(value, "id", "address", "pin_count", "i2c_id", "setup_priority"),
	}
	if raw.Address != nil {
		e.Address = *raw.Address
		e.AddressSet = true
	}
	if raw.PinCount != nil {
		e.PinCount = *raw.PinCount
		e.PinCountSet = true
	}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Pin) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		ID             string `yaml:"id"`
		Parent         string `yaml:"pca9575"`
		Number         *int   `yaml:"number"`
		Mode           Mode   `yaml:"mode"`
		Inverted       bool   `yaml:"inverted"`
		AllowOtherUses bool   `yaml:"allow_other_uses"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*p = Pin{
		ID:             raw.ID,
		Parent:         raw.Parent,
		Mode:           raw.Mode,
		Inverted:       raw.Inverted,
		AllowOtherUses: raw.AllowOtherUses,
		Line:           value.Line,
		Unknown:        unknownKeys(value, "id", "pca9575", "number", "mode", "inverted", "allow_other_uses"),
	}
	if raw.Number != nil {
		p.Number = *raw.Number
		p.NumberSet = true
	}
	if p.Mode.Line == 0 {
		p.Mode.Line = value.Line
	}
	return nil
}

// decodeList decodes either a sequence of records or a single mapping.
func decodeList[T any](node *yaml.Node) ([]T, error) {
	switch node.Kind {
	case yaml.SequenceNode:
		out := make([]T, 0, len(node.Content))
		for _, item := range node.Content {
			var v T
			if err := item.Decode(&v); err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		var v T
		if err := node.Decode(&v); err != nil {
			return nil, err
		}
		return []T{v}, nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("line %d: expected a list or a mapping", node.Line)
}

// unknownKeys returns the keys of a mapping node that are not in allowed.
func unknownKeys(node *yaml.Node, allowed ...string) []Key {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	var out []Key
	for i := 0; i < len(node.Content)-1; i += 2 {
		k := node.Content[i]
		known := false
		for _, a := range allowed {
			if k.Value == a {
				known = true
				break
			}
		}
		if !known {
			out = append(out, Key{Name: k.Value, Line: k.Line})
		}
	}
	return out
}
