package history

import (
	"testing"
	"time"

	"github.com/sentinelpay/sentinel/internal/domain"
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

func TestEmptyIndex(t *testing.T) {
	idx := NewIndex(nil)

	if !idx.Empty() {
		t.Error("expected empty index")
	}
	if idx.Len() != 0 {
		t.Errorf("expected length 0, got %d", idx.Len())
	}
	if idx.AvgAmount() != 0 {
		t.Errorf("expected avg amount 0, got %.2f", idx.AvgAmount())
	}
	if !idx.Latest().IsZero() {
		t.Errorf("expected zero latest time, got %v", idx.Latest())
	}
}

func TestCountWithin(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	idx := NewIndex([]*domain.Transaction{
		makeTx("tx-1", "Amsterdam", 50, base.Add(-15*time.Minute)),
		makeTx("tx-2", "Amsterdam", 50, base.Add(-10*time.Minute)),
		makeTx("tx-3", "Amsterdam", 50, base.Add(-5*time.Minute)),
		makeTx("tx-4", "Amsterdam", 50, base),
	})

	// Both window bounds are inclusive: tx-2 at exactly -10m counts.
	if got := idx.CountWithin(base, 10*time.Minute); got != 3 {
		t.Errorf("expected 3 transactions in window, got %d", got)
	}

	if got := idx.CountWithin(base, 20*time.Minute); got != 4 {
		t.Errorf("expected 4 transactions in wide window, got %d", got)
	}

	if got := idx.CountWithin(base.Add(-time.Hour), 10*time.Minute); got != 0 {
		t.Errorf("expected 0 transactions in old window, got %d", got)
	}
}

func TestIsNewLocation(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("FirstTransactionIsNeverNew", func(t *testing.T) {
		tx := makeTx("tx-1", "Lisbon", 50, base)
		idx := NewIndex([]*domain.Transaction{tx})

		if idx.IsNewLocation(tx) {
			t.Error("first transaction should not count as new location")
		}
	})

	t.Run("UnseenLocationIsNew", func(t *testing.T) {
		tx := makeTx("tx-3", "Lisbon", 50, base)
		idx := NewIndex([]*domain.Transaction{
			makeTx("tx-1", "Amsterdam", 50, base.Add(-2*time.Hour)),
			makeTx("tx-2", "Amsterdam", 50, base.Add(-time.Hour)),
			tx,
		})

		if !idx.IsNewLocation(tx) {
			t.Error("expected Lisbon to be a new location")
		}
	})

	t.Run("KnownLocationIsNotNew", func(t *testing.T) {
		tx := makeTx("tx-3", "Amsterdam", 50, base)
		idx := NewIndex([]*domain.Transaction{
			makeTx("tx-1", "Amsterdam", 50, base.Add(-2*time.Hour)),
			makeTx("tx-2", "Rotterdam", 50, base.Add(-time.Hour)),
			tx,
		})

		if idx.IsNewLocation(tx) {
			t.Error("Amsterdam is already in the history")
		}
	})
}

func TestAvgAmount(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	idx := NewIndex([]*domain.Transaction{
		makeTx("tx-1", "Amsterdam", 100, base),
		makeTx("tx-2", "Amsterdam", 200, base.Add(time.Minute)),
		makeTx("tx-3", "Amsterdam", 300, base.Add(2*time.Minute)),
	})

	if got := idx.AvgAmount(); got != 200 {
		t.Errorf("expected avg amount 200, got %.2f", got)
	}
}

func TestTail(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Insert out of chronological order; Tail must sort by timestamp.
	idx := NewIndex([]*domain.Transaction{
		makeTx("tx-3", "Amsterdam", 30, base.Add(2*time.Minute)),
		makeTx("tx-1", "Amsterdam", 10, base),
		makeTx("tx-4", "Amsterdam", 40, base.Add(3*time.Minute)),
		makeTx("tx-2", "Amsterdam", 20, base.Add(time.Minute)),
	})

	tail := idx.Tail(2)
	if len(tail) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(tail))
	}
	if tail[0].ID != "tx-3" || tail[1].ID != "tx-4" {
		t.Errorf("expected [tx-3 tx-4], got [%s %s]", tail[0].ID, tail[1].ID)
	}

	if got := idx.Tail(10); len(got) != 4 {
		t.Errorf("expected whole history for oversized tail, got %d", len(got))
	}
	if got := idx.Tail(0); got != nil {
		t.Errorf("expected nil for zero tail, got %v", got)
	}
}

func TestDistinctLocations(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	idx := NewIndex([]*domain.Transaction{
		makeTx("tx-1", "Amsterdam", 50, base),
		makeTx("tx-2", "Rotterdam", 50, base.Add(time.Minute)),
		makeTx("tx-3", "Amsterdam", 50, base.Add(2*time.Minute)),
	})

	if got := idx.DistinctLocations(); got != 2 {
		t.Errorf("expected 2 distinct locations, got %d", got)
	}
	if got := idx.LocationCount("Amsterdam"); got != 2 {
		t.Errorf("expected 2 Amsterdam transactions, got %d", got)
	}
}
