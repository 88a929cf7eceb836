package rules

import (
	"github.com/expandergen/pca9575gen/pkg/config"
	"github.com/expandergen/pca9575gen/pkg/schema"
)

// NewValidator returns a validator running every built-in rule.
func NewValidator() *schema.Validator {
	return schema.NewValidator(NewDefaultRegistry())
}

// Validate validates a document with every built-in rule.
func Validate(doc *config.Document) *schema.ValidationResult {
	return NewValidator().Validate(doc)
}

// Check validates a document with every built-in rule and resolves it.
func Check(doc *config.Document) (*config.Resolved, error) {
	resolved, _, err := NewValidator().Check(doc)
	return resolved, err
}
