// Package scoring aggregates per-transaction risk assessments into
// per-user credit profiles and spending-limit decisions.
package scoring

import (
	"time"

	"github.com/sentinelpay/sentinel/internal/domain"
	"github.com/sentinelpay/sentinel/internal/history"
	"github.com/sentinelpay/sentinel/internal/rules"
)

// Credit adjustment values. Each adjustment is applied independently and
// in order; the final score is clamped to the credit score bounds.
const (
	creditHistoryDepthMin   = 10
	creditHistoryDepthBonus = 50

	creditLowRiskMax   = 30
	creditLowRiskBonus = 100

	creditHighRiskMin     = 60
	creditHighRiskPenalty = 100

	creditAvgAmountMax      = 2000
	creditDisciplineBonus   = 50
	creditRecencyWindowDays = 7
	creditRecencyBonus      = 50
)

// CreditEvaluator derives a credit profile from a user's full history.
// It is a pure function of the history and the evaluation time.
type CreditEvaluator struct {
	engine *rules.Engine
}

// NewCreditEvaluator creates a credit evaluator backed by the risk engine.
func NewCreditEvaluator(engine *rules.Engine) *CreditEvaluator {
	return &CreditEvaluator{engine: engine}
}

// Evaluate computes the credit profile for a user. The empty-history case
// is terminal: the fixed neutral profile is returned and no adjustment
// rules apply.
func (e *CreditEvaluator) Evaluate(userID string, idx *history.Index) *domain.CreditProfile {
	return e.evaluateAt(userID, idx, time.Now().UTC())
}

// evaluateAt is Evaluate with an explicit evaluation time, for the recency
// adjustment.
func (e *CreditEvaluator) evaluateAt(userID string, idx *history.Index, now time.Time) *domain.CreditProfile {
	if idx.Empty() {
		return &domain.CreditProfile{
			UserID:      userID,
			CreditScore: domain.CreditScoreNeutral,
			Grade:       domain.GradeNeutral,
			Factors:     []string{"No transaction history available"},
		}
	}

	score := domain.CreditScoreNeutral
	factors := []string{}

	if idx.Len() >= creditHistoryDepthMin {
		score += creditHistoryDepthBonus
		factors = append(factors, "Consistent transaction history")
	}

	avgRisk := e.averageRisk(idx.Transactions(), idx)
	if avgRisk < creditLowRiskMax {
		score += creditLowRiskBonus
		factors = append(factors, "Low-risk behavior")
	} else if avgRisk > creditHighRiskMin {
		score -= creditHighRiskPenalty
		factors = append(factors, "High-risk transaction patterns")
	}

	if idx.AvgAmount() < creditAvgAmountMax {
		score += creditDisciplineBonus
		factors = append(factors, "Responsible spending behavior")
	}

	recencyWindow := creditRecencyWindowDays * 24 * time.Hour
	if !idx.Latest().Before(now.Add(-recencyWindow)) {
		score += creditRecencyBonus
		factors = append(factors, "Recent financial activity")
	}

	score = clampCreditScore(score)

	return &domain.CreditProfile{
		UserID:      userID,
		CreditScore: score,
		Grade:       domain.GradeFor(score),
		Factors:     factors,
	}
}

// averageRisk computes the mean risk score over the given transactions,
// each evaluated against the shared history index.
func (e *CreditEvaluator) averageRisk(txns []*domain.Transaction, idx *history.Index) float64 {
	if len(txns) == 0 {
		return 0
	}

	sum := 0
	for _, tx := range txns {
		sum += e.engine.Evaluate(tx, idx).RiskScore
	}
	return float64(sum) / float64(len(txns))
}

func clampCreditScore(score int) int {
	if score < domain.CreditScoreMin {
		return domain.CreditScoreMin
	}
	if score > domain.CreditScoreMax {
		return domain.CreditScoreMax
	}
	return score
}
