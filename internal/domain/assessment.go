package domain

// RiskAssessment is the scoring result for a single transaction.
// It is derived, never stored: every request recomputes it from the
// transaction history current at evaluation time.
type RiskAssessment struct {
	TransactionID string `json:"transaction_id"`

	// RiskScore is in [0, 100]. Rule contributions are additive and the
	// total is capped at 100.
	RiskScore int    `json:"risk_score"`
	RiskLevel string `json:"risk_level"`

	// Reasons lists triggered-rule descriptions in rule-evaluation order.
	Reasons []string `json:"reasons"`
}

// Risk levels, a deterministic function of the risk score.
const (
	RiskLevelLow    = "LOW"
	RiskLevelMedium = "MEDIUM"
	RiskLevelHigh   = "HIGH"
)

// Risk level thresholds.
const (
	RiskScoreHigh   = 70
	RiskScoreMedium = 40
)

// RiskLevelFor maps a risk score to its level.
func RiskLevelFor(score int) string {
	switch {
	case score >= RiskScoreHigh:
		return RiskLevelHigh
	case score >= RiskScoreMedium:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// CreditProfile is the aggregate credit scoring result for a user.
// Derived, never stored.
type CreditProfile struct {
	UserID string `json:"user_id"`

	// CreditScore is clamped to [300, 900].
	CreditScore int    `json:"credit_score"`
	Grade       string `json:"grade"`

	// Factors lists applied-adjustment descriptions in application order.
	Factors []string `json:"factors"`
}

// Credit grades. GradeNeutral is reserved for users with no history.
const (
	GradeExcellent = "EXCELLENT"
	GradeGood      = "GOOD"
	GradeFair      = "FAIR"
	GradePoor      = "POOR"
	GradeNeutral   = "NEUTRAL"
)

// Credit score bounds and grade thresholds.
const (
	CreditScoreMin     = 300
	CreditScoreMax     = 900
	CreditScoreNeutral = 600

	GradeExcellentMin = 750
	GradeGoodMin      = 650
	GradeFairMin      = 550
)

// GradeFor maps a clamped credit score to its grade. The neutral grade is
// never produced here; it applies only to the empty-history case.
func GradeFor(score int) string {
	switch {
	case score >= GradeExcellentMin:
		return GradeExcellent
	case score >= GradeGoodMin:
		return GradeGood
	case score >= GradeFairMin:
		return GradeFair
	default:
		return GradePoor
	}
}

// LimitDecision is the dynamic spending-limit result for a user.
// Derived, never stored. AdjustedLimit never exceeds BaseLimit.
type LimitDecision struct {
	UserID        string   `json:"user_id"`
	BaseLimit     float64  `json:"base_limit"`
	AdjustedLimit float64  `json:"adjusted_limit"`
	Decision      string   `json:"decision"`
	Reasons       []string `json:"reasons"`
}

// Limit decisions.
const (
	DecisionAllow = "ALLOW"
	DecisionWarn  = "WARN"
	DecisionBlock = "BLOCK"
)
