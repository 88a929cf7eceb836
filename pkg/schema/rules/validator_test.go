package rules

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expandergen/pca9575gen/pkg/config"
	"github.com/expandergen/pca9575gen/pkg/schema"
	"github.com/expandergen/pca9575gen/pkg/trace"
)

func parse(t *testing.T, src string) *config.Document {
	t.Helper()
	doc, err := config.Parse([]byte(src))
	require.NoError(t, err)
	return doc
}

func codes(errs []schema.ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

const validDoc = `
i2c:
  - id: bus_a
pca9575:
  - id: exp1
    address: 0x21
pins:
  - id: relay
    pca9575: exp1
    number: 0
    mode: OUTPUT
  - id: button
    pca9575: exp1
    number: 15
    mode:
      input: true
    inverted: true
`

func TestValidate_ValidDocument(t *testing.T) {
	result := Validate(parse(t, validDoc))
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
	assert.False(t, result.FinalSkipped)
	assert.NoError(t, result.Err())
}

func TestValidate_ModeConflict(t *testing.T) {
	tests := []struct {
		name string
		mode string
	}{
		{"both", "{input: true, output: true}"},
		{"neither", "{input: false, output: false}"},
		{"missing", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "pca9575:\n  - id: exp1\npins:\n  - pca9575: exp1\n    number: 1\n"
			if tt.mode != "" {
				src += "    mode: " + tt.mode + "\n"
			}
			result := Validate(parse(t, src))
			assert.False(t, result.Valid)
			require.Len(t, result.Errors, 1)
			assert.Equal(t, "SCH-005", result.Errors[0].Code)
			assert.Equal(t, "Mode must be either input or output", result.Errors[0].Message)
			assert.True(t, errors.Is(result.Err(), schema.ErrModeConflict))
		})
	}
}

func TestValidate_PinNumberBoundary(t *testing.T) {
	ok := Validate(parse(t, "pca9575:\n  - id: exp1\n    pin_count: 16\npins:\n  - pca9575: exp1\n    number: 15\n    mode: INPUT\n"))
	assert.True(t, ok.Valid)

	bad := Validate(parse(t, "pca9575:\n  - id: exp1\n    pin_count: 16\npins:\n  - pca9575: exp1\n    number: 16\n    mode: INPUT\n"))
	assert.False(t, bad.Valid)
	assert.True(t, errors.Is(bad.Err(), schema.ErrPinOutOfRange))
	assert.Contains(t, bad.Errors[0].Message, "Pin number must be in range 0-15")
}

func TestValidate_NegativePinNumber(t *testing.T) {
	result := Validate(parse(t, "pca9575:\n  - id: exp1\npins:\n  - pca9575: exp1\n    number: -1\n    mode: INPUT\n"))
	assert.True(t, errors.Is(result.Err(), schema.ErrPinOutOfRange))
}

func TestValidate_MissingPinNumber(t *testing.T) {
	result := Validate(parse(t, "pca9575:\n  - id: exp1\npins:\n  - pca9575: exp1\n    mode: INPUT\n"))
	assert.Equal(t, []string{"SCH-004"}, codes(result.Errors))
	assert.True(t, errors.Is(result.Err(), schema.ErrMissingField))
}

func TestValidate_PinCountOtherThan16(t *testing.T) {
	result := Validate(parse(t, "pca9575:\n  - id: exp1\n    pin_count: 8\n"))
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "SCH-003", result.Errors[0].Code)
	assert.Equal(t, "pin_count 8 is not one of [16]", result.Errors[0].Message)
}

func TestValidate_DefaultAddress(t *testing.T) {
	doc := parse(t, "pca9575:\n  - id: exp1\n")
	result := Validate(doc)
	assert.True(t, result.Valid)
	assert.Equal(t, config.Address(0x20), doc.Expanders[0].Address)
}

func TestValidate_FinalPassSkippedOnLocalErrors(t *testing.T) {
	// The unknown parent would be a final-pass error, but the mode error
	// stops validation first.
	result := Validate(parse(t, "pins:\n  - pca9575: nope\n    number: 1\n    mode: {input: true, output: true}\n"))
	assert.True(t, result.FinalSkipped)
	assert.Equal(t, []string{"SCH-005"}, codes(result.Errors))
}

func TestValidate_UnresolvedParent(t *testing.T) {
	result := Validate(parse(t, "pca9575:\n  - id: exp1\npins:\n  - pca9575: exp2\n    number: 1\n    mode: OUTPUT\n"))
	assert.Equal(t, []string{"REF-001"}, codes(result.Errors))
	assert.True(t, errors.Is(result.Err(), schema.ErrUnresolvedReference))
	assert.Contains(t, result.Errors[0].Message, "Couldn't find ID 'exp2'")
}

func TestValidate_AmbiguousBus(t *testing.T) {
	result := Validate(parse(t, "i2c:\n  - id: a\n  - id: b\npca9575:\n  - id: exp1\n"))
	assert.Equal(t, []string{"REF-003"}, codes(result.Errors))
	assert.True(t, errors.Is(result.Err(), schema.ErrMissingField))
}

func TestValidate_UnknownBus(t *testing.T) {
	result := Validate(parse(t, "i2c:\n  - id: a\npca9575:\n  - id: exp1\n    i2c_id: b\n"))
	assert.Equal(t, []string{"REF-003"}, codes(result.Errors))
	assert.True(t, errors.Is(result.Err(), schema.ErrUnresolvedReference))
}

func TestValidate_DuplicateIDs(t *testing.T) {
	result := Validate(parse(t, `
pca9575:
  - id: exp1
  - id: exp1
    address: 0x22
`))
	assert.Equal(t, []string{"CON-001"}, codes(result.Errors))
	assert.True(t, errors.Is(result.Err(), schema.ErrDuplicateID))
	assert.Equal(t, 4, result.Errors[0].Line)
}

func TestValidate_AddressCollision(t *testing.T) {
	result := Validate(parse(t, `
pca9575:
  - id: exp1
  - id: exp2
    address: 0x20
`))
	assert.Equal(t, []string{"CON-002"}, codes(result.Errors))
	assert.True(t, errors.Is(result.Err(), schema.ErrAddressConflict))
}

func TestValidate_SameAddressDifferentBuses(t *testing.T) {
	result := Validate(parse(t, `
i2c:
  - id: a
  - id: b
pca9575:
  - id: exp1
    i2c_id: a
  - id: exp2
    i2c_id: b
`))
	assert.True(t, result.Valid)
}

func TestValidate_Warnings(t *testing.T) {
	result := Validate(parse(t, `
esphome:
  name: node
pca9575:
  - id: exp1
    address: 0x38
pins:
  - pca9575: exp1
    number: 2
    mode: OUTPUT
  - id: again
    pca9575: exp1
    number: 2
    mode: OUTPUT
`))
	assert.True(t, result.Valid)
	assert.ElementsMatch(t, []string{"CON-003", "CON-004", "CON-005"}, codes(result.Warnings))
	for _, w := range result.Warnings {
		if w.Code == "CON-004" {
			assert.Contains(t, w.Message, "PCA9575A")
		}
	}
}

func TestValidate_AllowOtherUses(t *testing.T) {
	result := Validate(parse(t, `
pca9575:
  - id: exp1
pins:
  - pca9575: exp1
    number: 2
    mode: INPUT
    allow_other_uses: true
  - id: again
    pca9575: exp1
    number: 2
    mode: INPUT
    allow_other_uses: true
`))
	assert.Empty(t, result.Warnings)
}

func TestValidate_UnknownOptions(t *testing.T) {
	result := Validate(parse(t, `
pca9575:
  - id: exp1
    interrupt_pin: GPIO4
pins:
  - pca9575: exp1
    number: 1
    mode:
      input: true
      pullup: true
`))
	assert.Equal(t, []string{"SCH-007", "SCH-007"}, codes(result.Errors))
	assert.Equal(t, "[interrupt_pin] is an invalid option", result.Errors[0].Message)
	assert.Equal(t, "[pullup] is an invalid pin mode for pca9575", result.Errors[1].Message)
	assert.True(t, errors.Is(result.Err(), schema.ErrUnknownOption))
}

func TestValidate_Identifiers(t *testing.T) {
	result := Validate(parse(t, "pca9575:\n  - address: 0x21\n  - id: 9bad\n    address: 0x22\n"))
	assert.Equal(t, []string{"SCH-001", "SCH-001"}, codes(result.Errors))
}

func TestValidate_MissingParent(t *testing.T) {
	result := Validate(parse(t, "pins:\n  - id: p\n    number: 1\n    mode: OUTPUT\n"))
	assert.Equal(t, []string{"SCH-006"}, codes(result.Errors))
}

func TestValidate_AddressOutOf7Bits(t *testing.T) {
	result := Validate(parse(t, "pca9575:\n  - id: exp1\n    address: 0x80\n"))
	assert.Equal(t, []string{"SCH-002"}, codes(result.Errors))
}

func TestValidateWithOptions(t *testing.T) {
	doc := parse(t, "foo: 1\npca9575:\n  - id: exp1\n    address: 0x30\n")

	all := NewValidator().Validate(doc)
	assert.Len(t, all.Warnings, 2)

	errorsOnly := NewValidator().ValidateWithOptions(doc, schema.ValidateOptions{MinSeverity: schema.SeverityError})
	assert.Empty(t, errorsOnly.Warnings)

	disabled := NewValidator().ValidateWithOptions(doc, schema.ValidateOptions{
		MinSeverity:   schema.SeverityWarning,
		DisabledRules: []string{"CON-005"},
	})
	assert.Equal(t, []string{"CON-004"}, codes(disabled.Warnings))

	schemaOnly := NewValidator().ValidateWithOptions(doc, schema.ValidateOptions{
		MinSeverity:       schema.SeverityWarning,
		EnabledCategories: []string{schema.CategorySchema},
	})
	assert.Empty(t, schemaOnly.Warnings)
}

func TestValidator_SeverityOverride(t *testing.T) {
	registry := NewDefaultRegistry()
	registry.SetSeverity("CON-005", schema.SeverityError)

	result := schema.NewValidator(registry).Validate(parse(t, "foo: 1\n"))
	assert.False(t, result.Valid)
	assert.Equal(t, []string{"CON-005"}, codes(result.Errors))
}

type captureLogger struct {
	mu     sync.Mutex
	events []trace.Event
}

func (c *captureLogger) Log(ev trace.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func TestValidator_TracesViolations(t *testing.T) {
	capture := &captureLogger{}
	v := NewValidator()
	v.Trace = trace.NewRun(capture, "test.yaml")

	v.Validate(parse(t, "pca9575:\n  - id: exp1\npins:\n  - id: p\n    pca9575: exp1\n    number: 1\n"))

	require.Len(t, capture.events, 1)
	ev := capture.events[0]
	assert.Equal(t, trace.KindViolation, ev.Kind)
	assert.Equal(t, "p", ev.Subject)
	assert.Equal(t, "test.yaml", ev.Source)
	require.NotNil(t, ev.Violation)
	assert.Equal(t, "SCH-005", ev.Violation.RuleID)
	assert.Equal(t, "error", ev.Violation.Severity)
}

func TestCheck(t *testing.T) {
	resolved, err := Check(parse(t, validDoc))
	require.NoError(t, err)
	require.Len(t, resolved.Expanders, 1)
	require.Len(t, resolved.Pins, 2)
	assert.Same(t, resolved.Expanders[0], resolved.Pins[1].Parent)

	_, err = Check(parse(t, "pins:\n  - pca9575: nope\n    number: 1\n    mode: INPUT\n"))
	assert.True(t, errors.Is(err, schema.ErrUnresolvedReference))
}

func TestValidator_ModeAndRangeCannotBeRelaxed(t *testing.T) {
	registry := NewDefaultRegistry()
	registry.SetSeverity("SCH-005", schema.SeverityWarning)
	registry.Disable("SCH-004")
	registry.Disable("REF-002")
	v := schema.NewValidator(registry)

	_, result, err := v.Check(parse(t, "pca9575:\n  - id: exp1\npins:\n  - pca9575: exp1\n    number: 3\n    mode: {input: true, output: true}\n"))
	assert.False(t, result.Valid)
	assert.True(t, errors.Is(err, schema.ErrModeConflict))

	opts := schema.ValidateOptions{
		MinSeverity:   schema.SeverityWarning,
		DisabledRules: []string{"SCH-004", "SCH-005", "REF-002"},
	}
	out := v.ValidateWithOptions(parse(t, "pca9575:\n  - id: exp1\npins:\n  - pca9575: exp1\n    number: 16\n    mode: INPUT\n"), opts)
	assert.False(t, out.Valid)
	assert.Equal(t, []string{"SCH-004"}, codes(out.Errors))
	assert.True(t, errors.Is(out.Err(), schema.ErrPinOutOfRange))
}
