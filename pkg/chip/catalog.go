// Package chip holds the embedded part catalog describing the expanders the
// generator knows how to configure: class names, address straps and the pin
// counts the schema accepts.
package chip

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed parts/*.yaml
var partsFS embed.FS

// DefaultPart is the part configured by the pca9575 schema.
const DefaultPart = "pca9575"

// Part describes one expander family.
type Part struct {
	Name            string    `yaml:"part"`
	Description     string    `yaml:"description"`
	Namespace       string    `yaml:"namespace"`
	ComponentClass  string    `yaml:"componentClass"`
	PinClass        string    `yaml:"pinClass"`
	DefaultAddress  uint16    `yaml:"defaultAddress"`
	DefaultPinCount int       `yaml:"defaultPinCount"`
	PinCounts       []int     `yaml:"pinCounts"`
	Modes           []string  `yaml:"modes"`
	Variants        []Variant `yaml:"variants"`
}

// Variant is an address-strap family of a part. Unsupported variants are
// listed so that diagnostics can name them.
type Variant struct {
	Name       string `yaml:"name"`
	AddressMin uint16 `yaml:"addressMin"`
	AddressMax uint16 `yaml:"addressMax"`
	Supported  bool   `yaml:"supported"`
}

var (
	cacheMu sync.RWMutex
	cache   = make(map[string]*Part)
)

// Load loads a part description by file name (e.g. "pca9575").
func Load(name string) (*Part, error) {
	name = strings.ToLower(name)

	cacheMu.RLock()
	if p, ok := cache[name]; ok {
		cacheMu.RUnlock()
		return p, nil
	}
	cacheMu.RUnlock()

	data, err := partsFS.ReadFile("parts/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("part %q not found: %w", name, err)
	}

	var p Part
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing part %q: %w", name, err)
	}
	if p.Name == "" {
		return nil, fmt.Errorf("part %q: missing part name", name)
	}

	cacheMu.Lock()
	cache[name] = &p
	cacheMu.Unlock()

	return &p, nil
}

// Default returns the PCA9575 part. The catalog is embedded, so a load
// failure is a build defect and panics.
func Default() *Part {
	p, err := Load(DefaultPart)
	if err != nil {
		panic(fmt.Sprintf("chip: embedded catalog: %v", err))
	}
	return p
}

// Available returns the names of all embedded parts.
func Available() ([]string, error) {
	entries, err := partsFS.ReadDir("parts")
	if err != nil {
		return nil, fmt.Errorf("reading parts directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") {
			names = append(names, strings.TrimSuffix(name, ".yaml"))
		}
	}
	sort.Strings(names)
	return names, nil
}

// AllowsPinCount reports whether n is one of the accepted pin counts.
func (p *Part) AllowsPinCount(n int) bool {
	for _, c := range p.PinCounts {
		if c == n {
			return true
		}
	}
	return false
}

// MaxPinIndex is the largest pin number any accepted pin count allows.
func (p *Part) MaxPinIndex() int {
	max := 0
	for _, c := range p.PinCounts {
		if c > max {
			max = c
		}
	}
	return max - 1
}

// VariantForAddress returns the variant whose address straps cover addr.
func (p *Part) VariantForAddress(addr uint16) (Variant, bool) {
	for _, v := range p.Variants {
		if addr >= v.AddressMin && addr <= v.AddressMax {
			return v, true
		}
	}
	return Variant{}, false
}

// QualifiedComponent returns the namespaced component class.
func (p *Part) QualifiedComponent() string {
	return p.Namespace + "::" + p.ComponentClass
}

// QualifiedPin returns the namespaced pin class.
func (p *Part) QualifiedPin() string {
	return p.Namespace + "::" + p.PinClass
}
