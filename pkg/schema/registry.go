package schema

import (
	"slices"
	"sync"

	"github.com/expandergen/pca9575gen/pkg/config"
)

type registration struct {
	rule     Rule
	enabled  bool
	severity Severity
}

// RuleRegistry holds the rules a Validator runs, with per-rule enablement and
// severity overrides. Rules keep their registration order, which is also the
// order violations are reported in. Safe for concurrent use.
type RuleRegistry struct {
	mu    sync.RWMutex
	regs  []*registration
	index map[string]int
}

// NewRuleRegistry returns an empty registry.
func NewRuleRegistry() *RuleRegistry {
	return &RuleRegistry{index: make(map[string]int)}
}

// Register adds rule, enabled at its default severity. A second rule with
// the same id replaces the first in place.
func (r *RuleRegistry) Register(rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg := &registration{rule: rule, enabled: true, severity: rule.DefaultSeverity()}
	if i, ok := r.index[rule.ID()]; ok {
		r.regs[i] = reg
		return
	}
	r.index[rule.ID()] = len(r.regs)
	r.regs = append(r.regs, reg)
}

// lookup returns the registration for id. Callers hold mu.
func (r *RuleRegistry) lookup(id string) *registration {
	if i, ok := r.index[id]; ok {
		return r.regs[i]
	}
	return nil
}

func (r *RuleRegistry) update(id string, fn func(*registration)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reg := r.lookup(id); reg != nil {
		fn(reg)
	}
}

// Enable turns a rule back on. Unknown ids are ignored.
func (r *RuleRegistry) Enable(id string) {
	r.update(id, func(reg *registration) { reg.enabled = true })
}

// Disable turns a rule off. Unknown ids and mandatory rules are ignored.
func (r *RuleRegistry) Disable(id string) {
	r.update(id, func(reg *registration) {
		if !IsMandatory(reg.rule) {
			reg.enabled = false
		}
	})
}

// SetSeverity overrides the severity a rule reports at. Mandatory rules
// always report as errors.
func (r *RuleRegistry) SetSeverity(id string, severity Severity) {
	r.update(id, func(reg *registration) {
		if !IsMandatory(reg.rule) {
			reg.severity = severity
		}
	})
}

// IsEnabled reports whether id is registered and enabled.
func (r *RuleRegistry) IsEnabled(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg := r.lookup(id)
	return reg != nil && reg.enabled
}

// Severity returns the effective severity for id. Unknown ids report as errors.
func (r *RuleRegistry) Severity(id string) Severity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if reg := r.lookup(id); reg != nil {
		return reg.severity
	}
	return SeverityError
}

// Lookup returns the rule registered under id.
func (r *RuleRegistry) Lookup(id string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if reg := r.lookup(id); reg != nil {
		return reg.rule, true
	}
	return nil, false
}

// Rules returns the registered rules matching keep, in registration order.
// A nil keep returns all of them.
func (r *RuleRegistry) Rules(keep func(rule Rule, enabled bool) bool) []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Rule
	for _, reg := range r.regs {
		if keep == nil || keep(reg.rule, reg.enabled) {
			out = append(out, reg.rule)
		}
	}
	return out
}

// EnabledRules returns the enabled rules of one pass.
func (r *RuleRegistry) EnabledRules(pass Pass) []Rule {
	return r.Rules(func(rule Rule, enabled bool) bool {
		return enabled && rule.Pass() == pass
	})
}

// RulesByCategory returns every rule in category, enabled or not.
func (r *RuleRegistry) RulesByCategory(category string) []Rule {
	return r.Rules(func(rule Rule, _ bool) bool { return rule.Category() == category })
}

// Categories returns the distinct rule categories, sorted.
func (r *RuleRegistry) Categories() []string {
	var out []string
	for _, rule := range r.Rules(nil) {
		if !slices.Contains(out, rule.Category()) {
			out = append(out, rule.Category())
		}
	}
	slices.Sort(out)
	return out
}

// RunPass checks doc against the enabled rules of pass, skipping rules allow
// rejects (nil allows all). Violations carry the effective severity.
func (r *RuleRegistry) RunPass(doc *config.Document, pass Pass, allow func(Rule) bool) []Violation {
	var violations []Violation
	for _, rule := range r.EnabledRules(pass) {
		if allow != nil && !allow(rule) {
			continue
		}
		for _, v := range rule.Check(doc) {
			v.Severity = r.Severity(v.RuleID)
			violations = append(violations, v)
		}
	}
	return violations
}

// Count returns the number of registered rules.
func (r *RuleRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.regs)
}

// EnabledCount returns the number of enabled rules.
func (r *RuleRegistry) EnabledCount() int {
	return len(r.Rules(func(_ Rule, enabled bool) bool { return enabled }))
}
