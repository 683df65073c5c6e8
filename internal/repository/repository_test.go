package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/sentinelpay/sentinel/internal/domain"
)

func newTestRepo(t *testing.T) domain.Repository {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "sentinel-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpPath) })

	repo, err := New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpPath,
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	return repo
}

func TestSQLiteRepository(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	t.Run("Ping", func(t *testing.T) {
		if err := repo.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})

	t.Run("SaveAndGetTransaction", func(t *testing.T) {
		ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		tx := &domain.Transaction{
			ID:        "tx-001",
			UserID:    "user-001",
			Amount:    1000.00,
			Merchant:  "GreenGrocer",
			Category:  "groceries",
			Location:  "Amsterdam",
			DeviceID:  "device-001",
			Timestamp: ts,
			CreatedAt: ts,
		}

		if err := repo.SaveTransaction(ctx, tx); err != nil {
			t.Fatalf("SaveTransaction failed: %v", err)
		}

		retrieved, err := repo.GetTransaction(ctx, tx.ID)
		if err != nil {
			t.Fatalf("GetTransaction failed: %v", err)
		}

		if retrieved.ID != tx.ID {
			t.Errorf("expected ID %s, got %s", tx.ID, retrieved.ID)
		}
		if retrieved.UserID != tx.UserID {
			t.Errorf("expected UserID %s, got %s", tx.UserID, retrieved.UserID)
		}
		if retrieved.Amount != tx.Amount {
			t.Errorf("expected Amount %.2f, got %.2f", tx.Amount, retrieved.Amount)
		}
		if retrieved.Location != tx.Location {
			t.Errorf("expected Location %s, got %s", tx.Location, retrieved.Location)
		}
		if !retrieved.Timestamp.Equal(tx.Timestamp) {
			t.Errorf("expected Timestamp %v, got %v", tx.Timestamp, retrieved.Timestamp)
		}
	})

	t.Run("GetTransactionNotFound", func(t *testing.T) {
		_, err := repo.GetTransaction(ctx, "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("SaveTransactionValidation", func(t *testing.T) {
		err := repo.SaveTransaction(ctx, &domain.Transaction{ID: "tx-x"})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for missing user id, got %v", err)
		}
	})
}

func TestListTransactionsByUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Insert out of chronological order.
	for i, offset := range []int{2, 0, 1} {
		tx := &domain.Transaction{
			ID:        fmt.Sprintf("tx-%03d", i),
			UserID:    "user-001",
			Amount:    100,
			Merchant:  "TestMart",
			Category:  "test",
			Location:  "Amsterdam",
			DeviceID:  "device-001",
			Timestamp: base.Add(time.Duration(offset) * time.Hour),
			CreatedAt: base,
		}
		if err := repo.SaveTransaction(ctx, tx); err != nil {
			t.Fatalf("SaveTransaction failed: %v", err)
		}
	}

	txns, err := repo.ListTransactionsByUser(ctx, "user-001")
	if err != nil {
		t.Fatalf("ListTransactionsByUser failed: %v", err)
	}

	if len(txns) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txns))
	}
	for i := 1; i < len(txns); i++ {
		if txns[i].Timestamp.Before(txns[i-1].Timestamp) {
			t.Errorf("transactions not in chronological order at index %d", i)
		}
	}

	t.Run("UnknownUserIsEmptyNotError", func(t *testing.T) {
		txns, err := repo.ListTransactionsByUser(ctx, "nobody")
		if err != nil {
			t.Fatalf("expected no error for unknown user, got %v", err)
		}
		if len(txns) != 0 {
			t.Errorf("expected empty history, got %d transactions", len(txns))
		}
	})
}

func TestRuleConfigs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rule := &domain.RuleConfig{
		ID:          "rule-001",
		Name:        "Large Amount",
		Description: "Flags very large transactions",
		Version:     "1.0.0",
		Expression:  "amount > 9000.0",
		Points:      10,
		Reason:      "Very large transaction",
		Enabled:     true,
	}

	t.Run("SaveAndGet", func(t *testing.T) {
		if err := repo.SaveRuleConfig(ctx, rule); err != nil {
			t.Fatalf("SaveRuleConfig failed: %v", err)
		}

		got, err := repo.GetRuleConfig(ctx, rule.ID)
		if err != nil {
			t.Fatalf("GetRuleConfig failed: %v", err)
		}
		if got.Expression != rule.Expression {
			t.Errorf("expected expression %q, got %q", rule.Expression, got.Expression)
		}
		if got.Points != rule.Points {
			t.Errorf("expected points %d, got %d", rule.Points, got.Points)
		}
		if !got.Enabled {
			t.Error("expected rule to be enabled")
		}
	})

	t.Run("UpsertSameVersion", func(t *testing.T) {
		rule.Points = 25
		if err := repo.SaveRuleConfig(ctx, rule); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}

		got, err := repo.GetRuleConfig(ctx, rule.ID)
		if err != nil {
			t.Fatalf("GetRuleConfig failed: %v", err)
		}
		if got.Points != 25 {
			t.Errorf("expected updated points 25, got %d", got.Points)
		}
	})

	t.Run("List", func(t *testing.T) {
		configs, err := repo.ListRuleConfigs(ctx)
		if err != nil {
			t.Fatalf("ListRuleConfigs failed: %v", err)
		}
		if len(configs) != 1 {
			t.Errorf("expected 1 rule, got %d", len(configs))
		}
	})

	t.Run("DisabledRuleNotListed", func(t *testing.T) {
		disabled := &domain.RuleConfig{
			ID:         "rule-002",
			Name:       "Disabled",
			Version:    "1.0.0",
			Expression: "amount > 0.0",
			Points:     5,
			Reason:     "disabled",
			Enabled:    false,
		}
		if err := repo.SaveRuleConfig(ctx, disabled); err != nil {
			t.Fatalf("SaveRuleConfig failed: %v", err)
		}

		configs, err := repo.ListRuleConfigs(ctx)
		if err != nil {
			t.Fatalf("ListRuleConfigs failed: %v", err)
		}
		if len(configs) != 1 {
			t.Errorf("expected disabled rule to be excluded, got %d rules", len(configs))
		}

		if _, err := repo.GetRuleConfig(ctx, "rule-002"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound for disabled rule, got %v", err)
		}
	})
}

func TestBaseLimits(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	t.Run("MissingEntryIsNotFound", func(t *testing.T) {
		_, err := repo.GetBaseLimit(ctx, "user-001")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("SetAndGet", func(t *testing.T) {
		if err := repo.SetBaseLimit(ctx, "user-001", 5000); err != nil {
			t.Fatalf("SetBaseLimit failed: %v", err)
		}

		limit, err := repo.GetBaseLimit(ctx, "user-001")
		if err != nil {
			t.Fatalf("GetBaseLimit failed: %v", err)
		}
		if limit != 5000 {
			t.Errorf("expected limit 5000, got %.2f", limit)
		}
	})

	t.Run("Upsert", func(t *testing.T) {
		if err := repo.SetBaseLimit(ctx, "user-001", 7500); err != nil {
			t.Fatalf("SetBaseLimit failed: %v", err)
		}

		limit, err := repo.GetBaseLimit(ctx, "user-001")
		if err != nil {
			t.Fatalf("GetBaseLimit failed: %v", err)
		}
		if limit != 7500 {
			t.Errorf("expected updated limit 7500, got %.2f", limit)
		}
	})

	t.Run("RejectNonPositive", func(t *testing.T) {
		if err := repo.SetBaseLimit(ctx, "user-001", 0); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}
