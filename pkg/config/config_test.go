package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullDoc = `
schema_version: "1.0"
i2c:
  - id: bus_a
    sda: GPIO21
    scl: GPIO22
pca9575:
  - id: exp1
    address: 0x21
    pin_count: 16
    i2c_id: bus_a
    setup_priority: 200.0
pins:
  - id: relay1
    pca9575: exp1
    number: 3
    mode:
      output: true
    inverted: true
  - pca9575: exp1
    number: 15
    mode: INPUT
`

func TestParse_FullDocument(t *testing.T) {
	doc, err := Parse([]byte(fullDoc))
	require.NoError(t, err)

	assert.Equal(t, "1.0", doc.SchemaVersion)
	require.Len(t, doc.Buses, 1)
	assert.Equal(t, "bus_a", doc.Buses[0].ID)
	assert.Equal(t, "GPIO21", doc.Buses[0].SDA)

	require.Len(t, doc.Expanders, 1)
	e := doc.Expanders[0]
	assert.Equal(t, "exp1", e.ID)
	assert.Equal(t, Address(0x21), e.Address)
	assert.True(t, e.AddressSet)
	assert.Equal(t, 16, e.PinCount)
	assert.Equal(t, "bus_a", e.BusID)
	require.NotNil(t, e.SetupPriority)
	assert.InDelta(t, 200.0, *e.SetupPriority, 0.001)
	assert.Equal(t, 8, e.Line)

	require.Len(t, doc.Pins, 2)
	p := doc.Pins[0]
	assert.Equal(t, "relay1", p.ID)
	assert.Equal(t, "exp1", p.Parent)
	assert.Equal(t, 3, p.Number)
	assert.True(t, p.NumberSet)
	assert.True(t, p.Mode.Output)
	assert.False(t, p.Mode.Input)
	assert.True(t, p.Inverted)

	p2 := doc.Pins[1]
	assert.True(t, p2.Mode.Input)
	assert.Equal(t, "exp1_pin_15", p2.ID)
	assert.True(t, p2.GeneratedID)
}

func TestParse_DefaultAddress(t *testing.T) {
	doc, err := Parse([]byte(`
pca9575:
  - id: exp1
`))
	require.NoError(t, err)
	require.Len(t, doc.Expanders, 1)
	assert.Equal(t, Address(0x20), doc.Expanders[0].Address)
	assert.False(t, doc.Expanders[0].AddressSet)
	assert.Equal(t, 16, doc.Expanders[0].PinCount)
	assert.Equal(t, DefaultBusID, doc.Expanders[0].BusID)
	assert.True(t, doc.Expanders[0].BusImplicit)
}

func TestParse_SingleMapping(t *testing.T) {
	doc, err := Parse([]byte(`
pca9575:
  id: exp1
  address: 36
`))
	require.NoError(t, err)
	require.Len(t, doc.Expanders, 1)
	assert.Equal(t, Address(0x24), doc.Expanders[0].Address)
}

func TestParse_AddressForms(t *testing.T) {
	tests := []struct {
		in   string
		want Address
	}{
		{"0x20", 0x20},
		{"0x2F", 0x2F},
		{"32", 0x20},
		{`"0x27"`, 0x27},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			doc, err := Parse([]byte("pca9575:\n  - id: e\n    address: " + tt.in + "\n"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, doc.Expanders[0].Address)
		})
	}
}

func TestParse_InvalidAddress(t *testing.T) {
	_, err := Parse([]byte("pca9575:\n  - id: e\n    address: bogus\n"))
	assert.Error(t, err)
}

func TestAddress_String(t *testing.T) {
	assert.Equal(t, "0x20", Address(0x20).String())
	assert.Equal(t, "0x2f", Address(0x2F).String())
}

func TestParse_ModeForms(t *testing.T) {
	tests := []struct {
		name        string
		mode        string
		input       bool
		output      bool
		unsupported int
	}{
		{"shorthand output", "OUTPUT", false, true, 0},
		{"shorthand input lower", "input", true, false, 0},
		{"map output", "{output: true}", false, true, 0},
		{"map both", "{input: true, output: true}", true, true, 0},
		{"map neither", "{input: false, output: false}", false, false, 0},
		{"pullup", "{input: true, pullup: true}", true, false, 1},
		{"pullup off", "{input: true, pullup: false}", true, false, 0},
		{"unknown shorthand", "OPEN_DRAIN", false, false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "pins:\n  - pca9575: e\n    number: 1\n    mode: " + tt.mode + "\n"
			doc, err := Parse([]byte(src))
			require.NoError(t, err)
			m := doc.Pins[0].Mode
			assert.Equal(t, tt.input, m.Input)
			assert.Equal(t, tt.output, m.Output)
			assert.Len(t, m.Unsupported, tt.unsupported)
		})
	}
}

func TestParse_MissingMode(t *testing.T) {
	doc, err := Parse([]byte("pins:\n  - pca9575: e\n    number: 1\n"))
	require.NoError(t, err)
	assert.Equal(t, "none", doc.Pins[0].Mode.String())
}

func TestParse_UnknownKeys(t *testing.T) {
	doc, err := Parse([]byte(`
esphome:
  name: test
pca9575:
  - id: exp1
    interrupt_pin: GPIO4
pins:
  - pca9575: exp1
    number: 2
    mode: OUTPUT
    drive: strong
`))
	require.NoError(t, err)
	require.Len(t, doc.UnknownKeys, 1)
	assert.Equal(t, "esphome", doc.UnknownKeys[0].Name)
	assert.Equal(t, 2, doc.UnknownKeys[0].Line)

	require.Len(t, doc.Expanders[0].Unknown, 1)
	assert.Equal(t, "interrupt_pin", doc.Expanders[0].Unknown[0].Name)
	require.Len(t, doc.Pins[0].Unknown, 1)
	assert.Equal(t, "drive", doc.Pins[0].Unknown[0].Name)
}

func TestParse_TypeError(t *testing.T) {
	_, err := Parse([]byte("pins:\n  - pca9575: e\n    number: three\n"))
	assert.Error(t, err)
}

func TestParse_IncompatibleSchemaVersion(t *testing.T) {
	_, err := Parse([]byte("schema_version: \"2.0\"\n"))
	assert.Error(t, err)
}

func TestParse_Empty(t *testing.T) {
	doc, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, doc.Expanders)
	assert.Empty(t, doc.Pins)
}

func TestParse_NotAMapping(t *testing.T) {
	_, err := Parse([]byte("- a\n- b\n"))
	assert.Error(t, err)
}

func TestApplyDefaults_SingleBus(t *testing.T) {
	doc, err := Parse([]byte(`
i2c:
  id: main
pca9575:
  - id: exp1
`))
	require.NoError(t, err)
	assert.Equal(t, "main", doc.Expanders[0].BusID)
	assert.True(t, doc.Expanders[0].BusImplicit)
}

func TestApplyDefaults_AmbiguousBus(t *testing.T) {
	doc, err := Parse([]byte(`
i2c:
  - id: a
  - id: b
pca9575:
  - id: exp1
`))
	require.NoError(t, err)
	assert.Empty(t, doc.Expanders[0].BusID)
}

func TestApplyDefaults_GeneratedIDsAreUnique(t *testing.T) {
	doc, err := Parse([]byte(`
pca9575:
  - id: exp1
pins:
  - id: exp1_pin_4
    pca9575: exp1
    number: 5
    mode: OUTPUT
  - pca9575: exp1
    number: 4
    mode: OUTPUT
  - pca9575: exp1
    number: 4
    mode: OUTPUT
`))
	require.NoError(t, err)
	assert.Equal(t, "exp1_pin_4_2", doc.Pins[1].ID)
	assert.Equal(t, "exp1_pin_4_3", doc.Pins[2].ID)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fullDoc), 0o644))

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, doc.Pins, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	doc, err := Parse([]byte(fullDoc))
	require.NoError(t, err)

	r, err := Resolve(doc)
	require.NoError(t, err)
	require.Len(t, r.Expanders, 1)
	require.Len(t, r.Pins, 2)
	assert.Same(t, r.Expanders[0], r.Pins[0].Parent)
	assert.Len(t, r.PinsOf(r.Expanders[0]), 2)
}

func TestResolve_ImplicitBus(t *testing.T) {
	doc, err := Parse([]byte("pca9575:\n  - id: exp1\n"))
	require.NoError(t, err)

	r, err := Resolve(doc)
	require.NoError(t, err)
	require.Len(t, r.Buses, 1)
	assert.Equal(t, DefaultBusID, r.Buses[0].ID)
}

func TestResolve_UnknownParent(t *testing.T) {
	doc, err := Parse([]byte("pins:\n  - pca9575: nope\n    number: 1\n    mode: OUTPUT\n"))
	require.NoError(t, err)

	_, err = Resolve(doc)
	assert.Error(t, err)
}

func TestDocument_Lookups(t *testing.T) {
	doc, err := Parse([]byte(fullDoc))
	require.NoError(t, err)

	_, ok := doc.ExpanderByID("exp1")
	assert.True(t, ok)
	_, ok = doc.ExpanderByID("exp2")
	assert.False(t, ok)
	_, ok = doc.BusByID("bus_a")
	assert.True(t, ok)
	assert.Len(t, doc.PinsOf("exp1"), 2)

	ids := doc.IDs()
	require.Len(t, ids, 4)
	assert.Equal(t, "bus_a", ids[0].Name)
}
