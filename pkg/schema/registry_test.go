package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expandergen/pca9575gen/pkg/config"
)

// stubRule reports one violation per expander.
type stubRule struct {
	*BaseRule
}

func (r stubRule) Check(doc *config.Document) []Violation {
	var out []Violation
	for _, e := range doc.Expanders {
		out = append(out, r.Report(e.ID, e.Line, ErrInvalidValue, "stub %s", e.ID))
	}
	return out
}

func newStub(id string, pass Pass, severity Severity) stubRule {
	return stubRule{NewBaseRule(id, "stub", CategorySchema, pass, severity)}
}

func newMandatoryStub(id string) stubRule {
	return stubRule{NewMandatoryRule(id, "mandatory stub", CategorySchema, PassLocal)}
}

func TestRegistry_EnableDisable(t *testing.T) {
	r := NewRuleRegistry()
	r.Register(newStub("T-001", PassLocal, SeverityWarning))

	r.Disable("T-001")
	assert.False(t, r.IsEnabled("T-001"))
	assert.Equal(t, 0, r.EnabledCount())

	r.Enable("T-001")
	assert.True(t, r.IsEnabled("T-001"))

	// Unknown ids are ignored.
	r.Disable("XXX-999")
	assert.False(t, r.IsEnabled("XXX-999"))
	_, ok := r.Lookup("XXX-999")
	assert.False(t, ok)
}

func TestRegistry_Severity(t *testing.T) {
	r := NewRuleRegistry()
	r.Register(newStub("T-001", PassFinal, SeverityWarning))
	assert.Equal(t, SeverityWarning, r.Severity("T-001"))

	r.SetSeverity("T-001", SeverityInfo)
	assert.Equal(t, SeverityInfo, r.Severity("T-001"))

	assert.Equal(t, SeverityError, r.Severity("XXX-999"))
}

func TestRegistry_MandatoryRuleCannotBeRelaxed(t *testing.T) {
	r := NewRuleRegistry()
	r.Register(newMandatoryStub("T-100"))

	r.Disable("T-100")
	assert.True(t, r.IsEnabled("T-100"))

	r.SetSeverity("T-100", SeverityWarning)
	assert.Equal(t, SeverityError, r.Severity("T-100"))

	doc := &config.Document{Expanders: []config.Expander{{ID: "exp1"}}}
	vs := r.RunPass(doc, PassLocal, nil)
	require.Len(t, vs, 1)
	assert.Equal(t, SeverityError, vs[0].Severity)
}

func TestValidator_OptionsCannotSkipMandatoryRules(t *testing.T) {
	r := NewRuleRegistry()
	r.Register(newMandatoryStub("T-100"))
	r.Register(newStub("T-200", PassLocal, SeverityError))
	doc := &config.Document{Expanders: []config.Expander{{ID: "exp1"}}}

	result := NewValidator(r).ValidateWithOptions(doc, ValidateOptions{
		MinSeverity:       SeverityWarning,
		DisabledRules:     []string{"T-100", "T-200"},
		EnabledCategories: []string{CategoryConsistency},
	})
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "T-100", result.Errors[0].Code)
}

func TestRegistry_ReRegisterKeepsOrder(t *testing.T) {
	r := NewRuleRegistry()
	r.Register(newStub("T-005", PassLocal, SeverityError))
	r.Register(newStub("T-006", PassLocal, SeverityError))
	r.Register(newStub("T-005", PassFinal, SeverityError))

	rules := r.Rules(nil)
	require.Len(t, rules, 2)
	assert.Equal(t, "T-005", rules[0].ID())
	assert.Equal(t, PassFinal, rules[0].Pass())
}

func TestRegistry_Categories(t *testing.T) {
	r := NewRuleRegistry()
	r.Register(newStub("T-001", PassLocal, SeverityError))
	r.Register(stubRule{NewBaseRule("T-002", "stub", CategoryReference, PassFinal, SeverityError)})

	assert.Equal(t, []string{CategoryReference, CategorySchema}, r.Categories())
	assert.Len(t, r.RulesByCategory(CategorySchema), 1)
	assert.Len(t, r.EnabledRules(PassFinal), 1)
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "error", SeverityError.String())
	assert.Equal(t, "warning", SeverityWarning.String())
	assert.Equal(t, "info", SeverityInfo.String())
	assert.Equal(t, "unknown(9)", Severity(9).String())
	assert.Equal(t, "final", PassFinal.String())
	assert.Equal(t, "local", PassLocal.String())
}
