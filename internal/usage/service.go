package usage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quillforge/quillforge/internal/config"
)

var (
	// ErrDailyLimitExceeded means the caller has generated the maximum
	// number of articles for the current UTC day.
	ErrDailyLimitExceeded = errors.New("daily article limit exceeded")

	// ErrBurstLimitExceeded means too many generations were started within
	// the last minute.
	ErrBurstLimitExceeded = errors.New("per-minute generation limit exceeded")
)

// Service enforces the daily article quota and records usage after
// successful generations.
type Service struct {
	repo    Repository
	limiter *BurstLimiter
	cfg     config.QuotaConfig
}

func NewService(repo Repository, limiter *BurstLimiter, cfg config.QuotaConfig) *Service {
	return &Service{
		repo:    repo,
		limiter: limiter,
		cfg:     cfg,
	}
}

// DailyLimit returns the configured articles-per-day ceiling.
func (s *Service) DailyLimit() int {
	return s.cfg.DailyArticleLimit
}

// CheckQuota verifies the user may start another generation right now.
// The check runs before any upstream call so a rejected request never
// spends provider credits. A missing usage row counts as zero usage.
func (s *Service) CheckQuota(ctx context.Context, userID uuid.UUID, now time.Time) error {
	// 1. Redis sliding-window burst limit (fast path)
	if s.limiter != nil {
		allowed, err := s.limiter.CheckAndIncrement(ctx, userID, s.cfg.BurstPerMinute)
		if err != nil {
			// Fail open on limiter errors
			slog.Warn("usage: burst limiter check failed, allowing request", "error", err)
		} else if !allowed {
			return ErrBurstLimitExceeded
		}
	}

	// 2. PostgreSQL daily limit
	day := Day(now)
	record, err := s.repo.GetForDay(ctx, userID, day)
	if err != nil {
		slog.Warn("usage: failed to read daily usage, allowing request", "error", err)
		return nil // Fail open
	}

	if record.ArticlesGenerated >= s.cfg.DailyArticleLimit {
		return ErrDailyLimitExceeded
	}

	return nil
}

// RecordGeneration increments the caller's daily counters after a successful
// generation: one article, plus the generated word count.
func (s *Service) RecordGeneration(ctx context.Context, userID uuid.UUID, now time.Time, words int) error {
	return s.repo.Increment(ctx, userID, Day(now), words)
}

// GetStatus returns today's usage and limits for dashboard display.
func (s *Service) GetStatus(ctx context.Context, userID uuid.UUID, now time.Time) (*Status, error) {
	day := Day(now)
	record, err := s.repo.GetForDay(ctx, userID, day)
	if err != nil {
		return nil, err
	}

	return &Status{
		Date:              day.Format("2006-01-02"),
		ArticlesGenerated: record.ArticlesGenerated,
		ArticlesLimit:     s.cfg.DailyArticleLimit,
		WordsGenerated:    record.WordsGenerated,
	}, nil
}
