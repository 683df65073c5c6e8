// Package history provides windowed and aggregate queries over a single
// user's transaction history.
package history

import (
	"context"
	"sort"
	"time"

	"github.com/sentinelpay/sentinel/internal/domain"
)

// Index is an immutable per-user view of transaction history, built once
// per evaluation so that repeated rule lookups avoid rescanning the full
// history for every transaction.
type Index struct {
	txns []*domain.Transaction

	// sortedTimes holds transaction timestamps in ascending order for
	// windowed counts via binary search.
	sortedTimes []time.Time

	// locCounts maps each location to the number of transactions using it.
	locCounts map[string]int

	amountSum float64
	latest    time.Time
}

// NewIndex builds an index over a user's history. The slice is retained and
// must not be mutated afterwards; the transactions themselves are never
// modified.
func NewIndex(txns []*domain.Transaction) *Index {
	idx := &Index{
		txns:        txns,
		sortedTimes: make([]time.Time, len(txns)),
		locCounts:   make(map[string]int, len(txns)),
	}

	for i, tx := range txns {
		idx.sortedTimes[i] = tx.Timestamp
		idx.locCounts[tx.Location]++
		idx.amountSum += tx.Amount
		if tx.Timestamp.After(idx.latest) {
			idx.latest = tx.Timestamp
		}
	}

	sort.Slice(idx.sortedTimes, func(i, j int) bool {
		return idx.sortedTimes[i].Before(idx.sortedTimes[j])
	})

	return idx
}

// Load fetches a user's history from the repository and indexes it.
func Load(ctx context.Context, repo domain.Repository, userID string) (*Index, error) {
	txns, err := repo.ListTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewIndex(txns), nil
}

// Len returns the number of transactions in the history.
func (idx *Index) Len() int {
	return len(idx.txns)
}

// Empty reports whether the history has no transactions.
func (idx *Index) Empty() bool {
	return len(idx.txns) == 0
}

// Transactions returns the underlying history in its original order.
func (idx *Index) Transactions() []*domain.Transaction {
	return idx.txns
}

// CountWithin counts transactions with timestamps in [end-window, end],
// both bounds inclusive.
func (idx *Index) CountWithin(end time.Time, window time.Duration) int {
	start := end.Add(-window)

	// First timestamp >= start.
	lo := sort.Search(len(idx.sortedTimes), func(i int) bool {
		return !idx.sortedTimes[i].Before(start)
	})
	// First timestamp > end.
	hi := sort.Search(len(idx.sortedTimes), func(i int) bool {
		return idx.sortedTimes[i].After(end)
	})

	return hi - lo
}

// LocationCount returns the number of history transactions at the given
// location.
func (idx *Index) LocationCount(location string) int {
	return idx.locCounts[location]
}

// DistinctLocations returns the number of distinct locations in the history.
func (idx *Index) DistinctLocations() int {
	return len(idx.locCounts)
}

// IsNewLocation reports whether the transaction's location is unseen among
// the rest of the user's history. The evaluated transaction is excluded
// from the comparison set, and a user's first-ever transaction is never
// considered a new location.
func (idx *Index) IsNewLocation(tx *domain.Transaction) bool {
	if len(idx.txns) <= 1 {
		return false
	}
	// tx itself is expected to be part of the history; any other
	// transaction at the same location means the location is known.
	return idx.locCounts[tx.Location] <= 1
}

// AvgAmount returns the mean transaction amount, or 0 for empty history.
func (idx *Index) AvgAmount() float64 {
	if len(idx.txns) == 0 {
		return 0
	}
	return idx.amountSum / float64(len(idx.txns))
}

// Latest returns the most recent transaction timestamp, or the zero time
// for empty history.
func (idx *Index) Latest() time.Time {
	return idx.latest
}

// Tail returns the chronological tail of the history: the most recent n
// transactions in ascending time order, or the whole history if shorter.
func (idx *Index) Tail(n int) []*domain.Transaction {
	if n <= 0 {
		return nil
	}

	ordered := make([]*domain.Transaction, len(idx.txns))
	copy(ordered, idx.txns)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	if len(ordered) > n {
		ordered = ordered[len(ordered)-n:]
	}
	return ordered
}
