package rules

import (
	"time"

	"github.com/sentinelpay/sentinel/internal/domain"
	"github.com/sentinelpay/sentinel/internal/history"
)

// Rule is a single independent risk predicate. Rules are additive: each
// triggered rule contributes its points and reason, and no rule inspects
// another rule's outcome.
type Rule struct {
	Name   string
	Points int
	Reason string

	// Triggered evaluates the rule against the transaction and the user's
	// indexed history. The evaluated transaction is part of the history.
	Triggered func(tx *domain.Transaction, idx *history.Index) bool
}

// Builtin thresholds.
const (
	highAmountThreshold = 5000

	velocityWindow    = 10 * time.Minute
	velocityThreshold = 3

	// Hours 23 and 0-4 are treated as unusual.
	oddHourMorningEnd = 5
	oddHourNightStart = 23
)

// BuiltinRules returns the fixed rule set in evaluation order.
func BuiltinRules() []Rule {
	return []Rule{
		{
			Name:   "high-amount",
			Points: 30,
			Reason: "High transaction amount",
			Triggered: func(tx *domain.Transaction, idx *history.Index) bool {
				return tx.Amount > highAmountThreshold
			},
		},
		{
			Name:   "velocity",
			Points: 25,
			Reason: "High transaction frequency",
			Triggered: func(tx *domain.Transaction, idx *history.Index) bool {
				// The evaluated transaction counts toward its own window.
				return idx.CountWithin(tx.Timestamp, velocityWindow) > velocityThreshold
			},
		},
		{
			Name:   "new-location",
			Points: 20,
			Reason: "Transaction from new location",
			Triggered: func(tx *domain.Transaction, idx *history.Index) bool {
				return idx.IsNewLocation(tx)
			},
		},
		{
			Name:   "odd-hour",
			Points: 15,
			Reason: "Transaction at unusual hour",
			Triggered: func(tx *domain.Transaction, idx *history.Index) bool {
				hour := tx.Timestamp.Hour()
				return hour < oddHourMorningEnd || hour >= oddHourNightStart
			},
		},
	}
}
