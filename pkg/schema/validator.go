package schema

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/expandergen/pca9575gen/pkg/config"
	"github.com/expandergen/pca9575gen/pkg/trace"
)

// ValidationError is a rejected-configuration diagnostic.
type ValidationError struct {
	Code    string
	Message string
	Subject string
	Line    int
	Err     error
}

func (e ValidationError) Error() string {
	msg := e.Message
	if e.Subject != "" {
		msg = fmt.Sprintf("%s: %s", e.Subject, msg)
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the error class of the diagnostic.
func (e ValidationError) Unwrap() error { return e.Err }

// ValidationResult contains the results of validating one document.
type ValidationResult struct {
	// Valid is true if no error-severity rule fired.
	Valid bool

	Errors   []ValidationError
	Warnings []ValidationError

	// FinalSkipped is set when the final pass did not run because the
	// local pass already rejected the document.
	FinalSkipped bool
}

func (r *ValidationResult) add(v Violation) ValidationError {
	return ValidationError{
		Code:    v.RuleID,
		Message: v.Message,
		Subject: v.Subject,
		Line:    v.Line,
		Err:     v.Err,
	}
}

// AddError adds a validation error and marks the result invalid.
func (r *ValidationResult) AddError(v Violation) {
	r.Errors = append(r.Errors, r.add(v))
	r.Valid = false
}

// AddWarning adds a non-fatal issue.
func (r *ValidationResult) AddWarning(v Violation) {
	r.Warnings = append(r.Warnings, r.add(v))
}

// Err returns all errors joined, or nil if the document is valid.
func (r *ValidationResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// ValidateOptions configures validation behaviour.
type ValidateOptions struct {
	// MinSeverity drops violations below this severity.
	MinSeverity Severity
	// DisabledRules is a list of rule IDs to skip. Mandatory rules run anyway.
	DisabledRules []string
	// EnabledCategories limits validation to rules in these categories.
	// If empty, all categories are included. Mandatory rules run anyway.
	EnabledCategories []string
}

// DefaultOptions reports errors and warnings from every rule.
func DefaultOptions() ValidateOptions {
	return ValidateOptions{MinSeverity: SeverityWarning}
}

// Validator runs a rule registry over configuration documents.
type Validator struct {
	Registry *RuleRegistry
	Logger   *slog.Logger
	Trace    *trace.Run
}

// NewValidator creates a validator running the rules in registry.
// A nil registry runs no rules.
func NewValidator(registry *RuleRegistry) *Validator {
	if registry == nil {
		registry = NewRuleRegistry()
	}
	return &Validator{
		Registry: registry,
		Logger:   slog.Default(),
	}
}

// Validate validates a document with DefaultOptions.
func (v *Validator) Validate(doc *config.Document) *ValidationResult {
	return v.ValidateWithOptions(doc, DefaultOptions())
}

// ValidateWithOptions validates a document. The final pass runs only when
// the local pass produced no errors: cross-record checks such as the pin
// range depend on the parent's own fields being valid.
func (v *Validator) ValidateWithOptions(doc *config.Document, opts ValidateOptions) *ValidationResult {
	result := &ValidationResult{Valid: true}
	allow := ruleFilter(opts)

	local := v.Registry.RunPass(doc, PassLocal, allow)
	v.collect(result, local, opts.MinSeverity)

	if HasErrors(local) {
		result.FinalSkipped = true
	} else {
		final := v.Registry.RunPass(doc, PassFinal, allow)
		v.collect(result, final, opts.MinSeverity)
	}

	if v.Logger != nil {
		v.Logger.Debug("validation finished",
			"expanders", len(doc.Expanders),
			"pins", len(doc.Pins),
			"errors", len(result.Errors),
			"warnings", len(result.Warnings),
			"final_skipped", result.FinalSkipped,
		)
	}
	return result
}

// Check validates a document and, if it is valid, resolves its references.
// The returned result is never nil.
func (v *Validator) Check(doc *config.Document) (*config.Resolved, *ValidationResult, error) {
	result := v.Validate(doc)
	if err := result.Err(); err != nil {
		return nil, result, err
	}
	resolved, err := config.Resolve(doc)
	if err != nil {
		v.Trace.Error(trace.StageValidate, err, "resolving references")
		return nil, result, err
	}
	return resolved, result, nil
}

func (v *Validator) collect(result *ValidationResult, violations []Violation, min Severity) {
	for _, vi := range violations {
		if vi.Severity > min {
			continue
		}
		v.Trace.Violation(vi.Subject, vi.Line, vi.RuleID, vi.Severity.String(), vi.Message, vi.Suggestion)
		switch vi.Severity {
		case SeverityError:
			result.AddError(vi)
		default:
			result.AddWarning(vi)
		}
	}
}

func ruleFilter(opts ValidateOptions) func(Rule) bool {
	if len(opts.DisabledRules) == 0 && len(opts.EnabledCategories) == 0 {
		return nil
	}
	disabled := make(map[string]bool, len(opts.DisabledRules))
	for _, id := range opts.DisabledRules {
		disabled[id] = true
	}
	categories := make(map[string]bool, len(opts.EnabledCategories))
	for _, c := range opts.EnabledCategories {
		categories[c] = true
	}
	return func(r Rule) bool {
		if IsMandatory(r) {
			return true
		}
		if disabled[r.ID()] {
			return false
		}
		if len(categories) > 0 && !categories[r.Category()] {
			return false
		}
		return true
	}
}
