package trace

import (
	"time"

	"github.com/google/uuid"
)

// Run stamps events of one generation run with a shared run id and source.
// A nil *Run is valid and records nothing.
type Run struct {
	ID     string
	Source string
	logger Logger
	now    func() time.Time
}

// NewRun starts a run with a fresh UUID. A nil logger yields a run that
// discards events.
func NewRun(logger Logger, source string) *Run {
	if logger == nil {
		logger = NoopLogger{}
	}
	return &Run{
		ID:     uuid.New().String(),
		Source: source,
		logger: logger,
		now:    time.Now,
	}
}

func (r *Run) emit(ev Event) {
	if r == nil {
		return
	}
	ev.Timestamp = r.now()
	ev.RunID = r.ID
	ev.Source = r.Source
	r.logger.Log(ev)
}

// Info records a progress note.
func (r *Run) Info(stage Stage, subject, message string) {
	r.emit(Event{Stage: stage, Kind: KindInfo, Subject: subject, Message: message})
}

// Violation records a rule violation.
func (r *Run) Violation(subject string, line int, ruleID, severity, message, suggestion string) {
	r.emit(Event{
		Stage:   StageValidate,
		Kind:    KindViolation,
		Subject: subject,
		Line:    line,
		Message: message,
		Violation: &ViolationEvent{
			RuleID:     ruleID,
			Severity:   severity,
			Suggestion: suggestion,
		},
	})
}

// Instruction records an emitted instruction.
func (r *Run) Instruction(seq int, op, target, detail string) {
	r.emit(Event{
		Stage:   StageEmit,
		Kind:    KindInstruction,
		Subject: target,
		Instruction: &InstructionEvent{
			Seq:    seq,
			Op:     op,
			Target: target,
			Detail: detail,
		},
	})
}

// Error records a stage failure.
func (r *Run) Error(stage Stage, err error, context string) {
	if err == nil {
		return
	}
	r.emit(Event{
		Stage:   stage,
		Kind:    KindError,
		Message: err.Error(),
		Error: &ErrorEventData{
			Message: err.Error(),
			Context: context,
		},
	})
}
