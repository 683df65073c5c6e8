package domain

// RuleConfig defines a custom risk rule on top of the builtin rule set.
// The expression is a CEL predicate over transaction and history variables;
// when it evaluates to true, Points are added to the transaction's risk
// score and Reason is appended to the assessment.
type RuleConfig struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`

	// Expression is a CEL expression that must return bool.
	Expression string `json:"expression"`

	// Points added to the risk score when the expression is true.
	Points int `json:"points"`

	// Reason appended to the assessment when the rule triggers.
	Reason string `json:"reason"`

	// Whether rule is active.
	Enabled bool `json:"enabled"`
}
