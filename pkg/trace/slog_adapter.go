package trace

import (
	"context"
	"log/slog"
)

// SlogAdapter writes trace events to an slog.Logger.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event at Debug level; violations and errors are logged at
// Warn and Error respectively.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("run_id", event.RunID),
		slog.String("stage", event.Stage.String()),
		slog.String("kind", event.Kind.String()),
	}

	if event.Source != "" {
		attrs = append(attrs, slog.String("source", event.Source))
	}
	if event.Subject != "" {
		attrs = append(attrs, slog.String("subject", event.Subject))
	}
	if event.Line > 0 {
		attrs = append(attrs, slog.Int("line", event.Line))
	}

	level := slog.LevelDebug
	switch {
	case event.Violation != nil:
		attrs = append(attrs,
			slog.String("rule", event.Violation.RuleID),
			slog.String("severity", event.Violation.Severity),
		)
		if event.Violation.Suggestion != "" {
			attrs = append(attrs, slog.String("suggestion", event.Violation.Suggestion))
		}
		level = slog.LevelWarn
	case event.Instruction != nil:
		attrs = append(attrs,
			slog.Int("seq", event.Instruction.Seq),
			slog.String("op", event.Instruction.Op),
			slog.String("target", event.Instruction.Target),
		)
		if event.Instruction.Detail != "" {
			attrs = append(attrs, slog.String("detail", event.Instruction.Detail))
		}
	case event.Error != nil:
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
		attrs = append(attrs, slog.String("error_msg", event.Error.Message))
		level = slog.LevelError
	}

	msg := event.Message
	if msg == "" {
		msg = "trace"
	}
	a.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
