// Package domain defines the core interfaces and types for Sentinel.
package domain

import (
	"context"
	"time"
)

// Repository defines the interface for data persistence. It is the only
// shared mutable resource in the system: a read started after an append
// completes must observe that transaction, and reads never observe partial
// records. The evaluators themselves are pure functions over its contents.
type Repository interface {
	// Transaction operations
	SaveTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, txID string) (*Transaction, error)
	// ListTransactionsByUser returns the user's full history in
	// chronological order. Unknown users yield an empty slice, not an error.
	ListTransactionsByUser(ctx context.Context, userID string) ([]*Transaction, error)

	// Custom rule configuration operations
	SaveRuleConfig(ctx context.Context, rule *RuleConfig) error
	GetRuleConfig(ctx context.Context, ruleID string) (*RuleConfig, error)
	ListRuleConfigs(ctx context.Context) ([]*RuleConfig, error)

	// Base limit table. GetBaseLimit returns ErrNotFound for users without
	// an entry; callers fall back to the configured default.
	GetBaseLimit(ctx context.Context, userID string) (float64, error)
	SetBaseLimit(ctx context.Context, userID string, limit float64) error

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
