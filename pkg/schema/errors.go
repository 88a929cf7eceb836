package schema

import "errors"

// Error classes carried by violations. ValidationError unwraps to these, so
// callers can test with errors.Is.
var (
	// ErrModeConflict: a pin's mode is not exactly one of input or output.
	ErrModeConflict = errors.New("mode must be either input or output")
	// ErrPinOutOfRange: a pin number is not below its parent's pin_count.
	ErrPinOutOfRange = errors.New("pin number out of range")
	// ErrInvalidValue: a value is outside its allowed set or range.
	ErrInvalidValue = errors.New("invalid value")
	// ErrMissingField: a required field is absent.
	ErrMissingField = errors.New("missing required field")
	// ErrUnknownOption: a record carries an option the schema does not define.
	ErrUnknownOption = errors.New("unknown option")
	// ErrUnresolvedReference: an id reference names no declared record.
	ErrUnresolvedReference = errors.New("unresolved reference")
	// ErrDuplicateID: two records share an id.
	ErrDuplicateID = errors.New("duplicate id")
	// ErrAddressConflict: two devices share an address on one bus.
	ErrAddressConflict = errors.New("address conflict")
)
