package rules

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expandergen/pca9575gen/pkg/chip"
	"github.com/expandergen/pca9575gen/pkg/config"
	"github.com/expandergen/pca9575gen/pkg/schema"
)

// REF-002 checks against the parent's own pin_count. With the current part
// only 16 passes SCH-003, so the smaller count is built by hand.
func TestREF002_UsesParentPinCount(t *testing.T) {
	doc := &config.Document{
		Expanders: []config.Expander{
			{ID: "small", PinCount: 8},
			{ID: "full", PinCount: 16},
		},
		Pins: []config.Pin{
			{ID: "a", Parent: "small", Number: 7, NumberSet: true},
			{ID: "b", Parent: "small", Number: 8, NumberSet: true, Line: 12},
			{ID: "c", Parent: "full", Number: 8, NumberSet: true},
			{ID: "d", Parent: "missing", Number: 40, NumberSet: true},
		},
	}

	vs := NewREF002().Check(doc)
	require.Len(t, vs, 1)
	assert.Equal(t, "b", vs[0].Subject)
	assert.Equal(t, 12, vs[0].Line)
	assert.Equal(t, "Pin number must be in range 0-7", vs[0].Message)
	assert.True(t, errors.Is(vs[0].Err, schema.ErrPinOutOfRange))
}

func TestREF003_ImplicitDefaultBus(t *testing.T) {
	doc := &config.Document{
		Expanders: []config.Expander{{ID: "e", BusID: config.DefaultBusID, BusImplicit: true}},
	}
	assert.Empty(t, NewREF003().Check(doc))

	doc.Expanders[0].BusImplicit = false
	assert.Len(t, NewREF003().Check(doc), 1)
}

func TestCON004_Ranges(t *testing.T) {
	rule := NewCON004(chip.Default())
	tests := []struct {
		addr config.Address
		want int
	}{
		{0x20, 0},
		{0x27, 0},
		{0x28, 1},
		{0x38, 1},
		{0x10, 1},
	}
	for _, tt := range tests {
		t.Run(tt.addr.String(), func(t *testing.T) {
			doc := &config.Document{Expanders: []config.Expander{{ID: "e", Address: tt.addr}}}
			assert.Len(t, rule.Check(doc), tt.want)
		})
	}
}

func TestCON004_OutsideStrapsMessage(t *testing.T) {
	doc := &config.Document{Expanders: []config.Expander{{ID: "e", Address: 0x28}}}
	vs := NewCON004(chip.Default()).Check(doc)
	require.Len(t, vs, 1)
	assert.Equal(t, "address 0x28 is outside the PCA9575 address straps (0x20-0x27)", vs[0].Message)
}
