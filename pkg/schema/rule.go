// Package schema validates PCA9575 configuration documents.
//
// Validation runs as a set of rules held in a RuleRegistry. Rules belong to
// one of two passes: the local pass checks each record on its own (types,
// ranges, mode exclusivity), the final pass runs only once the local pass is
// clean and checks records against each other (parent resolution, pin number
// against the parent's pin_count, duplicate ids, address collisions).
package schema

import (
	"fmt"
	"strings"

	"github.com/expandergen/pca9575gen/pkg/config"
)

// Severity represents the severity level of a validation issue.
type Severity int

const (
	// SeverityError rejects the configuration.
	SeverityError Severity = iota
	// SeverityWarning flags a likely mistake without rejecting.
	SeverityWarning
	// SeverityInfo is an informational note.
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Pass selects when a rule runs.
type Pass int

const (
	// PassLocal rules see one record at a time.
	PassLocal Pass = iota
	// PassFinal rules run after every record passed the local pass.
	PassFinal
)

func (p Pass) String() string {
	if p == PassFinal {
		return "final"
	}
	return "local"
}

// Rule categories.
const (
	CategorySchema      = "schema"
	CategoryReference   = "reference"
	CategoryConsistency = "consistency"
)

// Rule is a validation rule applied to a configuration document.
type Rule interface {
	// ID returns the unique identifier for this rule (e.g., "SCH-005").
	ID() string
	// Name returns a human-readable name for the rule.
	Name() string
	// Category returns the rule category.
	Category() string
	// Pass returns the validation pass the rule belongs to.
	Pass() Pass
	// DefaultSeverity returns the default severity level.
	DefaultSeverity() Severity
	// Check applies the rule and returns any violations.
	Check(doc *config.Document) []Violation
}

// Violation is a single rule violation.
type Violation struct {
	RuleID   string
	Severity Severity
	Message  string
	// Subject is the id of the offending record, if it has one.
	Subject string
	Line    int
	// Suggestion provides a suggested fix (if applicable).
	Suggestion string
	// Err is the sentinel error class of the violation, if any.
	Err error
}

// String returns a formatted representation of the violation.
func (v Violation) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s: %s", v.RuleID, v.Severity, v.Message)
	if v.Subject != "" {
		fmt.Fprintf(&sb, " (%s)", v.Subject)
	}
	if v.Line > 0 {
		fmt.Fprintf(&sb, " [line %d]", v.Line)
	}
	if v.Suggestion != "" {
		fmt.Fprintf(&sb, " -> %s", v.Suggestion)
	}
	return sb.String()
}

// HasErrors returns true if any violation has severity Error.
func HasErrors(violations []Violation) bool {
	for _, v := range violations {
		if v.Severity == SeverityError {
			return true
		}
	}
	return false
}

// FilterBySeverity returns violations at or above the given severity level.
func FilterBySeverity(violations []Violation, minSeverity Severity) []Violation {
	var filtered []Violation
	for _, v := range violations {
		if v.Severity <= minSeverity {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// BaseRule provides the metadata methods of Rule.
type BaseRule struct {
	id              string
	name            string
	category        string
	pass            Pass
	defaultSeverity Severity
	mandatory       bool
}

// NewBaseRule creates a new BaseRule with the given properties.
func NewBaseRule(id, name, category string, pass Pass, severity Severity) *BaseRule {
	return &BaseRule{
		id:              id,
		name:            name,
		category:        category,
		pass:            pass,
		defaultSeverity: severity,
	}
}

// NewMandatoryRule creates a BaseRule for a constraint that always rejects
// the configuration: the registry will neither disable it nor lower its
// severity, and validate options cannot skip it.
func NewMandatoryRule(id, name, category string, pass Pass) *BaseRule {
	r := NewBaseRule(id, name, category, pass, SeverityError)
	r.mandatory = true
	return r
}

func (r *BaseRule) ID() string                { return r.id }
func (r *BaseRule) Name() string              { return r.name }
func (r *BaseRule) Category() string          { return r.category }
func (r *BaseRule) Pass() Pass                { return r.pass }
func (r *BaseRule) DefaultSeverity() Severity { return r.defaultSeverity }
func (r *BaseRule) Mandatory() bool           { return r.mandatory }

// IsMandatory reports whether rule declares itself mandatory.
func IsMandatory(rule Rule) bool {
	m, ok := rule.(interface{ Mandatory() bool })
	return ok && m.Mandatory()
}

// Report builds a Violation stamped with the rule's id and default severity.
func (r *BaseRule) Report(subject string, line int, err error, format string, args ...any) Violation {
	return Violation{
		RuleID:   r.id,
		Severity: r.defaultSeverity,
		Message:  fmt.Sprintf(format, args...),
		Subject:  subject,
		Line:     line,
		Err:      err,
	}
}
