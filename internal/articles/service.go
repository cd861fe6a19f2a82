package articles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quillforge/quillforge/internal/metrics"
)

var (
	// ErrGenerationFailed marks upstream provider failures. Terminal for
	// the request; nothing is persisted and no usage is counted.
	ErrGenerationFailed = errors.New("article generation failed")

	// ErrPersistenceFailed marks a failed article write after a successful
	// generation. The generated text is discarded.
	ErrPersistenceFailed = errors.New("failed to save article")
)

// Generator performs the upstream LLM call.
type Generator interface {
	Generate(ctx context.Context, providerName, prompt string, targetWords int) (string, error)

	// ProviderName resolves an identifier to the concrete provider name,
	// mapping the empty string to the configured default.
	ProviderName(name string) string
}

// QuotaKeeper gates generations and records usage after success.
type QuotaKeeper interface {
	CheckQuota(ctx context.Context, userID uuid.UUID, now time.Time) error
	RecordGeneration(ctx context.Context, userID uuid.UUID, now time.Time, words int) error
}

// Service runs the generation flow: quota gate, prompt compilation,
// provider dispatch, post-processing, persistence, usage accounting.
// The flow is strictly linear; every error path is terminal and an article
// is never left half-written.
type Service struct {
	repo      Repository
	generator Generator
	quota     QuotaKeeper
	now       func() time.Time
}

func NewService(repo Repository, generator Generator, quota QuotaKeeper) *Service {
	return &Service{
		repo:      repo,
		generator: generator,
		quota:     quota,
		now:       time.Now,
	}
}

func (s *Service) Generate(ctx context.Context, userID uuid.UUID, req *GenerateRequest) (*Article, error) {
	now := s.now()
	start := now
	provider := s.generator.ProviderName(req.APIProvider)

	// Quota gate runs before any upstream call so a rejected request never
	// spends provider credits.
	if err := s.quota.CheckQuota(ctx, userID, now); err != nil {
		metrics.GenerationsTotal.WithLabelValues(provider, "quota_exceeded").Inc()
		return nil, err
	}

	normalizeRequest(req)
	targetWords := req.Length.Words()
	prompt := CompilePrompt(req, targetWords)

	text, err := s.generator.Generate(ctx, req.APIProvider, prompt, targetWords)
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues(provider, "upstream_error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	wordCount := CountWords(text)
	score := SEOScore(text, req.Topic, targetWords, req.Keywords)

	article := &Article{
		UserID:    userID,
		Title:     req.Topic,
		Content:   text,
		Status:    StatusDraft,
		WordCount: wordCount,
		SEOScore:  score,
		Category:  DefaultCategory,
		Keywords:  req.Keywords,
		Tone:      req.Tone,
		Audience:  req.Audience,
		Citations: json.RawMessage("[]"),
	}

	if err := s.repo.Create(ctx, article); err != nil {
		slog.Error("saving generated article", "error", err, "user_id", userID)
		metrics.GenerationsTotal.WithLabelValues(provider, "persistence_error").Inc()
		return nil, ErrPersistenceFailed
	}

	// Usage accounting is best-effort relative to the article write: the
	// article is the primary artifact and has already been persisted.
	if err := s.quota.RecordGeneration(ctx, userID, now, wordCount); err != nil {
		slog.Warn("recording usage after generation", "error", err, "user_id", userID, "article_id", article.ID)
	}

	metrics.GenerationsTotal.WithLabelValues(provider, "success").Inc()
	metrics.GenerationDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	metrics.WordsGeneratedTotal.Add(float64(wordCount))

	slog.Info("article generated",
		"article_id", article.ID,
		"user_id", userID,
		"provider", provider,
		"word_count", wordCount,
		"seo_score", score,
	)

	return article, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Article, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, params ListParams) ([]*Article, int64, error) {
	offset := (params.Page - 1) * params.PageSize

	list, err := s.repo.ListByUser(ctx, userID, params.PageSize, offset)
	if err != nil {
		return nil, 0, err
	}

	count, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	return list, count, nil
}

// normalizeRequest fills the informational fields the prompt interpolates
// so an omitted audience or tone still reads naturally, and replaces nil
// keywords with an empty slice so the NOT NULL keywords column never
// receives SQL NULL.
func normalizeRequest(req *GenerateRequest) {
	if req.Audience == "" {
		req.Audience = "general"
	}
	if req.Tone == "" {
		req.Tone = "professional"
	}
	if req.Keywords == nil {
		req.Keywords = []string{}
	}
}
