package trace

import "time"

// Event is one entry of a generation trace.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// RunID identifies the generation run (UUID).
	RunID string `cbor:"2,keyasint"`

	// Stage of the pipeline that produced the event.
	Stage Stage `cbor:"3,keyasint"`

	// Kind classifies the event.
	Kind Kind `cbor:"4,keyasint"`

	// Source is the configuration file being processed.
	Source string `cbor:"5,keyasint,omitempty"`

	// Subject is the id of the record the event concerns.
	Subject string `cbor:"6,keyasint,omitempty"`

	// Line is the source line of the subject, if known.
	Line int `cbor:"7,keyasint,omitempty"`

	// Message is a human-readable description.
	Message string `cbor:"8,keyasint,omitempty"`

	// Kind-specific payload (at most one is set).
	Violation   *ViolationEvent   `cbor:"9,keyasint,omitempty"`
	Instruction *InstructionEvent `cbor:"10,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"11,keyasint,omitempty"`
}

// Stage identifies a step of the generation pipeline.
type Stage uint8

const (
	// StageParse covers reading the YAML document and applying defaults.
	StageParse Stage = 0
	// StageValidate covers both validation passes.
	StageValidate Stage = 1
	// StageEmit covers construction of the instruction program.
	StageEmit Stage = 2
	// StageRender covers writing generated output.
	StageRender Stage = 3
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageParse:
		return "PARSE"
	case StageValidate:
		return "VALIDATE"
	case StageEmit:
		return "EMIT"
	case StageRender:
		return "RENDER"
	default:
		return "UNKNOWN"
	}
}

// Kind classifies a trace event.
type Kind uint8

const (
	// KindInfo is a progress note.
	KindInfo Kind = 0
	// KindViolation is a rule violation found by the validator.
	KindViolation Kind = 1
	// KindInstruction is an emitted construction instruction.
	KindInstruction Kind = 2
	// KindError is a failure that aborted a stage.
	KindError Kind = 3
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInfo:
		return "INFO"
	case KindViolation:
		return "VIOLATION"
	case KindInstruction:
		return "INSTRUCTION"
	case KindError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ViolationEvent describes a rule violation.
type ViolationEvent struct {
	RuleID     string `cbor:"1,keyasint"`
	Severity   string `cbor:"2,keyasint"`
	Suggestion string `cbor:"3,keyasint,omitempty"`
}

// InstructionEvent describes one emitted instruction.
type InstructionEvent struct {
	// Seq is the position of the instruction in the program.
	Seq int `cbor:"1,keyasint"`

	// Op is the instruction kind (new, call, register_component, ...).
	Op string `cbor:"2,keyasint"`

	// Target is the variable the instruction acts on.
	Target string `cbor:"3,keyasint"`

	// Detail is a rendering of method and arguments.
	Detail string `cbor:"4,keyasint,omitempty"`
}

// ErrorEventData describes a stage failure.
type ErrorEventData struct {
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}
