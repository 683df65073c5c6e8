package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sentinelpay/sentinel/internal/domain"
	"github.com/sentinelpay/sentinel/internal/history"
	"github.com/sentinelpay/sentinel/internal/repository"
	"github.com/sentinelpay/sentinel/internal/rules"
)

// Service wires the evaluators to the repository and cache. It loads a
// user's history once per request, builds the index, and hands it to the
// pure evaluators.
type Service struct {
	repo   domain.Repository
	cache  domain.Cache
	engine *rules.Engine
	credit *CreditEvaluator
	limit  *LimitEvaluator

	defaultBaseLimit float64
	cacheTTL         time.Duration
}

// NewService creates a scoring service.
func NewService(repo domain.Repository, cache domain.Cache, engine *rules.Engine, cfg domain.ScoringConfig) *Service {
	ttl := time.Duration(cfg.CacheTTL) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	baseLimit := cfg.DefaultBaseLimit
	if baseLimit <= 0 {
		baseLimit = 10000
	}

	return &Service{
		repo:             repo,
		cache:            cache,
		engine:           engine,
		credit:           NewCreditEvaluator(engine),
		limit:            NewLimitEvaluator(engine),
		defaultBaseLimit: baseLimit,
		cacheTTL:         ttl,
	}
}

// AssessTransaction scores a single stored transaction against the owning
// user's history. Returns repository.ErrNotFound when the transaction id
// is unknown.
func (s *Service) AssessTransaction(ctx context.Context, txID string) (*domain.RiskAssessment, error) {
	tx, err := s.repo.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}

	idx, err := history.Load(ctx, s.repo, tx.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", tx.UserID, err)
	}

	return s.engine.Evaluate(tx, idx), nil
}

// CreditScore computes the credit profile for a user. Results are cached
// under a (user, history-version) key so any newly ingested transaction
// changes the key.
func (s *Service) CreditScore(ctx context.Context, userID string) (*domain.CreditProfile, error) {
	idx, err := history.Load(ctx, s.repo, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", userID, err)
	}

	key := s.versionKey("credit", userID, idx)
	var cached domain.CreditProfile
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	profile := s.credit.Evaluate(userID, idx)
	s.cacheSet(ctx, key, profile)
	return profile, nil
}

// DynamicLimit computes the spending-limit decision for a user, using the
// user's base limit or the configured default when no entry exists.
func (s *Service) DynamicLimit(ctx context.Context, userID string) (*domain.LimitDecision, error) {
	baseLimit, err := s.repo.GetBaseLimit(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		baseLimit = s.defaultBaseLimit
	} else if err != nil {
		return nil, fmt.Errorf("failed to load base limit for %s: %w", userID, err)
	}

	idx, err := history.Load(ctx, s.repo, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", userID, err)
	}

	key := fmt.Sprintf("%s:%g", s.versionKey("limit", userID, idx), baseLimit)
	var cached domain.LimitDecision
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	decision := s.limit.Evaluate(userID, idx, baseLimit)
	s.cacheSet(ctx, key, decision)
	return decision, nil
}

// versionKey builds a cache key that changes whenever the user's history
// grows: history length plus last transaction id.
func (s *Service) versionKey(kind, userID string, idx *history.Index) string {
	lastID := ""
	if tail := idx.Tail(1); len(tail) == 1 {
		lastID = tail[0].ID
	}
	return fmt.Sprintf("%s:%s:%d:%s", kind, userID, idx.Len(), lastID)
}

func (s *Service) cacheGet(ctx context.Context, key string, out any) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil || data == nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		slog.Warn("discarding malformed cache entry", "key", key, "error", err)
		return false
	}
	return true
}

func (s *Service) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		slog.Warn("failed to cache scoring result", "key", key, "error", err)
	}
}
