package scoring

import (
	"fmt"
	"testing"
	"time"

	"github.com/sentinelpay/sentinel/internal/domain"
	"github.com/sentinelpay/sentinel/internal/history"
	"github.com/sentinelpay/sentinel/internal/rules"
)

func makeTx(id, location string, amount float64, ts time.Time) *domain.Transaction {
	return &domain.Transaction{
		ID:        id,
		UserID:    "user-001",
		Amount:    amount,
		Merchant:  "TestMart",
		Category:  "test",
		Location:  location,
		DeviceID:  "device-001",
		Timestamp: ts,
		CreatedAt: ts,
	}
}

func newTestEngine(t *testing.T) *rules.Engine {
	t.Helper()
	engine, err := rules.NewEngine()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	return engine
}

func containsFactor(factors []string, want string) bool {
	for _, f := range factors {
		if f == want {
			return true
		}
	}
	return false
}

func TestCreditEmptyHistory(t *testing.T) {
	eval := NewCreditEvaluator(newTestEngine(t))

	got := eval.Evaluate("user-001", history.NewIndex(nil))

	if got.CreditScore != domain.CreditScoreNeutral {
		t.Errorf("expected neutral score %d, got %d", domain.CreditScoreNeutral, got.CreditScore)
	}
	if got.Grade != domain.GradeNeutral {
		t.Errorf("expected NEUTRAL grade, got %s", got.Grade)
	}
	if len(got.Factors) != 1 || got.Factors[0] != "No transaction history available" {
		t.Errorf("unexpected factors: %v", got.Factors)
	}
}

func TestCreditCleanHistory(t *testing.T) {
	eval := NewCreditEvaluator(newTestEngine(t))

	// Ten modest daytime transactions, one per day, same location. Every
	// positive adjustment applies: depth, low risk, discipline, recency.
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	txns := make([]*domain.Transaction, 0, 10)
	for i := 0; i < 10; i++ {
		txns = append(txns, makeTx(
			ids(i), "Amsterdam", 100, base.AddDate(0, 0, i),
		))
	}
	now := txns[len(txns)-1].Timestamp.Add(24 * time.Hour)

	got := eval.evaluateAt("user-001", history.NewIndex(txns), now)

	if got.CreditScore != 850 {
		t.Errorf("expected score 850, got %d", got.CreditScore)
	}
	if got.Grade != domain.GradeExcellent {
		t.Errorf("expected EXCELLENT, got %s", got.Grade)
	}
	for _, want := range []string{
		"Consistent transaction history",
		"Low-risk behavior",
		"Responsible spending behavior",
		"Recent financial activity",
	} {
		if !containsFactor(got.Factors, want) {
			t.Errorf("missing factor %q in %v", want, got.Factors)
		}
	}
}

func TestCreditHighRiskHistory(t *testing.T) {
	eval := NewCreditEvaluator(newTestEngine(t))

	// A burst of large night-time transactions from rotating locations. The
	// average risk exceeds the penalty threshold; no bonus applies since the
	// history is short, expensive, and stale.
	base := time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC)
	locations := []string{"Lisbon", "Macau", "Tbilisi", "Willemstad", "Panama City"}
	txns := make([]*domain.Transaction, 0, 5)
	for i := 0; i < 5; i++ {
		txns = append(txns, makeTx(
			ids(i), locations[i], 6000, base.Add(time.Duration(2*i)*time.Minute),
		))
	}
	now := base.AddDate(0, 0, 10)

	got := eval.evaluateAt("user-001", history.NewIndex(txns), now)

	if got.CreditScore != 500 {
		t.Errorf("expected score 500, got %d", got.CreditScore)
	}
	if got.Grade != domain.GradePoor {
		t.Errorf("expected POOR, got %s", got.Grade)
	}
	if len(got.Factors) != 1 || got.Factors[0] != "High-risk transaction patterns" {
		t.Errorf("unexpected factors: %v", got.Factors)
	}
}

func TestCreditMidRiskNoAdjustment(t *testing.T) {
	eval := NewCreditEvaluator(newTestEngine(t))

	// Two large daytime transactions: risk 30 each, exactly at the low-risk
	// threshold, so neither the bonus nor the penalty applies.
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	txns := []*domain.Transaction{
		makeTx("tx-1", "Amsterdam", 6000, base),
		makeTx("tx-2", "Amsterdam", 6000, base.AddDate(0, 0, 1)),
	}
	now := txns[1].Timestamp.Add(24 * time.Hour)

	got := eval.evaluateAt("user-001", history.NewIndex(txns), now)

	// Only the recency bonus applies.
	if got.CreditScore != 650 {
		t.Errorf("expected score 650, got %d", got.CreditScore)
	}
	if got.Grade != domain.GradeGood {
		t.Errorf("expected GOOD, got %s", got.Grade)
	}
}

func TestClampCreditScore(t *testing.T) {
	if got := clampCreditScore(1000); got != domain.CreditScoreMax {
		t.Errorf("expected clamp to %d, got %d", domain.CreditScoreMax, got)
	}
	if got := clampCreditScore(100); got != domain.CreditScoreMin {
		t.Errorf("expected clamp to %d, got %d", domain.CreditScoreMin, got)
	}
	if got := clampCreditScore(700); got != 700 {
		t.Errorf("expected 700 unchanged, got %d", got)
	}
}

func ids(i int) string {
	return fmt.Sprintf("tx-%03d", i)
}
