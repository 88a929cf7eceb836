package rules

import (
	"github.com/expandergen/pca9575gen/pkg/chip"
	"github.com/expandergen/pca9575gen/pkg/schema"
)

// RegisterAllRules registers every built-in rule for part.
func RegisterAllRules(registry *schema.RuleRegistry, part *chip.Part) {
	RegisterSchemaRules(registry, part)
	RegisterReferenceRules(registry)
	RegisterConsistencyRules(registry, part)
}

// NewDefaultRegistry creates a registry with every PCA9575 rule registered.
func NewDefaultRegistry() *schema.RuleRegistry {
	registry := schema.NewRuleRegistry()
	RegisterAllRules(registry, chip.Default())
	return registry
}
