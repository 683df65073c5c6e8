package scoring

import (
	"github.com/sentinelpay/sentinel/internal/domain"
	"github.com/sentinelpay/sentinel/internal/history"
	"github.com/sentinelpay/sentinel/internal/rules"
)

// Limit decision bands. The bands are mutually exclusive, so exactly one
// decision and reason is produced per evaluation.
const (
	limitRecentWindow = 5

	limitBlockRiskMin = 70
	limitBlockScale   = 0.3

	limitWarnRiskMin = 40
	limitWarnScale   = 0.6
)

// LimitEvaluator derives a spending-limit decision from the most recent
// slice of a user's history. Pure function of history and base limit.
type LimitEvaluator struct {
	engine *rules.Engine
}

// NewLimitEvaluator creates a limit evaluator backed by the risk engine.
func NewLimitEvaluator(engine *rules.Engine) *LimitEvaluator {
	return &LimitEvaluator{engine: engine}
}

// Evaluate computes the limit decision for a user. The adjusted limit is
// always less than or equal to the base limit.
func (e *LimitEvaluator) Evaluate(userID string, idx *history.Index, baseLimit float64) *domain.LimitDecision {
	decision := &domain.LimitDecision{
		UserID:        userID,
		BaseLimit:     baseLimit,
		AdjustedLimit: baseLimit,
	}

	if idx.Empty() {
		decision.Decision = domain.DecisionAllow
		decision.Reasons = []string{"No risky behavior detected"}
		return decision
	}

	recent := idx.Tail(limitRecentWindow)
	sum := 0
	for _, tx := range recent {
		sum += e.engine.Evaluate(tx, idx).RiskScore
	}
	avgRisk := float64(sum) / float64(len(recent))

	switch {
	case avgRisk >= limitBlockRiskMin:
		decision.AdjustedLimit = baseLimit * limitBlockScale
		decision.Decision = domain.DecisionBlock
		decision.Reasons = []string{"High average risk detected"}
	case avgRisk >= limitWarnRiskMin:
		decision.AdjustedLimit = baseLimit * limitWarnScale
		decision.Decision = domain.DecisionWarn
		decision.Reasons = []string{"Moderate risk detected"}
	default:
		decision.Decision = domain.DecisionAllow
		decision.Reasons = []string{"Low risk behavior"}
	}

	return decision
}
