// Package rules provides the risk scoring engine: a fixed, ordered set of
// builtin rules plus optional CEL-defined custom rules.
package rules

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/sentinelpay/sentinel/internal/domain"
	"github.com/sentinelpay/sentinel/internal/history"
)

// maxRiskScore caps the additive score; contributions are non-negative so
// no floor is needed.
const maxRiskScore = 100

// Engine evaluates a transaction against the builtin rule set and any
// loaded custom rules. Evaluation is pure: the same transaction and history
// always produce the same assessment.
type Engine struct {
	mu            sync.RWMutex
	env           *cel.Env
	builtins      []Rule
	compiledRules map[string]*CompiledRule
}

// CompiledRule holds a pre-compiled CEL program for a custom rule.
type CompiledRule struct {
	Config  *domain.RuleConfig
	Program cel.Program
}

// NewEngine creates a new risk engine with the builtin rules loaded.
func NewEngine() (*Engine, error) {
	// CEL environment exposing transaction fields and history aggregates.
	env, err := cel.NewEnv(
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("user_id", cel.StringType),
		cel.Variable("merchant", cel.StringType),
		cel.Variable("category", cel.StringType),
		cel.Variable("location", cel.StringType),
		cel.Variable("device_id", cel.StringType),
		cel.Variable("hour", cel.IntType),
		cel.Variable("velocity_count", cel.IntType),
		cel.Variable("history_count", cel.IntType),
		cel.Variable("distinct_locations", cel.IntType),
		cel.Variable("new_location", cel.BoolType),
		cel.Variable("avg_amount", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{
		env:           env,
		builtins:      BuiltinRules(),
		compiledRules: make(map[string]*CompiledRule),
	}, nil
}

// Evaluate scores a single transaction against the user's history. The
// history must contain the transaction itself; the two aggregate evaluators
// always satisfy this because they draw transactions from the history.
func (e *Engine) Evaluate(tx *domain.Transaction, idx *history.Index) *domain.RiskAssessment {
	assessment := &domain.RiskAssessment{
		TransactionID: tx.ID,
		Reasons:       []string{},
	}

	score := 0
	for _, rule := range e.builtins {
		if rule.Triggered(tx, idx) {
			score += rule.Points
			assessment.Reasons = append(assessment.Reasons, rule.Reason)
		}
	}

	e.mu.RLock()
	custom := e.orderedRules()
	e.mu.RUnlock()

	if len(custom) > 0 {
		activation := activationFor(tx, idx)
		for _, rule := range custom {
			out, _, err := rule.Program.Eval(activation)
			if err != nil {
				// A failing custom rule contributes nothing; builtin
				// scoring is never affected.
				continue
			}
			if triggered, ok := out.(types.Bool); ok && bool(triggered) {
				score += rule.Config.Points
				assessment.Reasons = append(assessment.Reasons, rule.Config.Reason)
			}
		}
	}

	if score > maxRiskScore {
		score = maxRiskScore
	}

	assessment.RiskScore = score
	assessment.RiskLevel = domain.RiskLevelFor(score)

	return assessment
}

// activationFor prepares the CEL activation variables for custom rules.
func activationFor(tx *domain.Transaction, idx *history.Index) map[string]any {
	return map[string]any{
		"amount":             tx.Amount,
		"user_id":            tx.UserID,
		"merchant":           tx.Merchant,
		"category":           tx.Category,
		"location":           tx.Location,
		"device_id":          tx.DeviceID,
		"hour":               int64(tx.Timestamp.Hour()),
		"velocity_count":     int64(idx.CountWithin(tx.Timestamp, velocityWindow)),
		"history_count":      int64(idx.Len()),
		"distinct_locations": int64(idx.DistinctLocations()),
		"new_location":       idx.IsNewLocation(tx),
		"avg_amount":         idx.AvgAmount(),
	}
}

// ValidateRule compiles and validates a rule without mutating loaded rules.
func (e *Engine) ValidateRule(cfg *domain.RuleConfig) error {
	if cfg == nil {
		return fmt.Errorf("rule config is required")
	}
	_, err := e.compileRule(cfg)
	return err
}

// LoadRule compiles and loads a custom rule into the engine.
func (e *Engine) LoadRule(cfg *domain.RuleConfig) error {
	compiled, err := e.compileRule(cfg)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.compiledRules[cfg.ID] = compiled
	e.mu.Unlock()

	return nil
}

// LoadRules compiles and loads multiple custom rules.
func (e *Engine) LoadRules(configs []*domain.RuleConfig) error {
	for _, cfg := range configs {
		if cfg.Enabled {
			if err := e.LoadRule(cfg); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReloadRules clears all existing custom rules and loads new ones.
// This enables hot-reloading of rules from the database.
func (e *Engine) ReloadRules(configs []*domain.RuleConfig) error {
	newRules := make(map[string]*CompiledRule)

	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}

		compiled, err := e.compileRule(cfg)
		if err != nil {
			return err
		}
		newRules[cfg.ID] = compiled
	}

	e.mu.Lock()
	e.compiledRules = newRules
	e.mu.Unlock()

	return nil
}

// RulesCount returns the number of loaded custom rules.
func (e *Engine) RulesCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.compiledRules)
}

// GetLoadedRules returns the currently loaded custom rule configurations.
func (e *Engine) GetLoadedRules() []*domain.RuleConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rules := make([]*domain.RuleConfig, 0, len(e.compiledRules))
	for _, compiled := range e.orderedRules() {
		rules = append(rules, compiled.Config)
	}
	return rules
}

// Close cleans up the engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compiledRules = make(map[string]*CompiledRule)
	return nil
}

// orderedRules returns custom rules sorted by id so that reasons keep a
// stable order across evaluations. Callers must hold e.mu.
func (e *Engine) orderedRules() []*CompiledRule {
	ordered := make([]*CompiledRule, 0, len(e.compiledRules))
	for _, rule := range e.compiledRules {
		ordered = append(ordered, rule)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Config.ID < ordered[j].Config.ID
	})
	return ordered
}

func (e *Engine) compileRule(cfg *domain.RuleConfig) (*CompiledRule, error) {
	if cfg.Points < 0 {
		return nil, fmt.Errorf("rule %s: points must be non-negative", cfg.ID)
	}

	ast, issues := e.env.Compile(cfg.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile rule %s: %w", cfg.ID, issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("rule %s: expression must return bool, got %s", cfg.ID, ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for rule %s: %w", cfg.ID, err)
	}

	return &CompiledRule{
		Config:  cfg,
		Program: program,
	}, nil
}
