package articles

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillforge/quillforge/internal/metrics"
	"github.com/quillforge/quillforge/internal/usage"
)

type fakeRepo struct {
	created   []*Article
	createErr error
}

func (f *fakeRepo) Create(_ context.Context, article *Article) error {
	if f.createErr != nil {
		return f.createErr
	}
	article.ID = uuid.New()
	article.CreatedAt = time.Now()
	f.created = append(f.created, article)
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*Article, error) {
	for _, a := range f.created {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]*Article, error) {
	var out []*Article
	for _, a := range f.created {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) CountByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for _, a := range f.created {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}

type fakeGenerator struct {
	text     string
	err      error
	called   int
	prompt   string
	provider string
}

func (f *fakeGenerator) Generate(_ context.Context, providerName, prompt string, _ int) (string, error) {
	f.called++
	f.provider = providerName
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeGenerator) ProviderName(name string) string {
	if name == "" {
		return "deepseek"
	}
	return name
}

type fakeQuota struct {
	checkErr   error
	recordErr  error
	recorded   int
	wordsAdded int
}

func (f *fakeQuota) CheckQuota(_ context.Context, _ uuid.UUID, _ time.Time) error {
	return f.checkErr
}

func (f *fakeQuota) RecordGeneration(_ context.Context, _ uuid.UUID, _ time.Time, words int) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.recorded++
	f.wordsAdded += words
	return nil
}

func generateRequest() *GenerateRequest {
	return &GenerateRequest{
		Topic:       "Cloud Cost Optimization",
		Audience:    "professionals",
		Tone:        "professional",
		Length:      TargetLength(1000),
		Keywords:    []string{"cloud", "finops"},
		APIProvider: "deepseek",
	}
}

func TestGenerate_Success(t *testing.T) {
	repo := &fakeRepo{}
	gen := &fakeGenerator{text: strings.Repeat("Cloud Cost Optimization matters. ", 300)}
	quota := &fakeQuota{}
	svc := NewService(repo, gen, quota)
	userID := uuid.New()

	article, err := svc.Generate(context.Background(), userID, generateRequest())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, article.ID)
	assert.Equal(t, userID, article.UserID)
	assert.Equal(t, "Cloud Cost Optimization", article.Title)
	assert.Equal(t, StatusDraft, article.Status)
	assert.Equal(t, DefaultCategory, article.Category)
	assert.Equal(t, 1200, article.WordCount)
	assert.GreaterOrEqual(t, article.SEOScore, 60)
	assert.LessOrEqual(t, article.SEOScore, 95)
	assert.Equal(t, []string{"cloud", "finops"}, article.Keywords)
	assert.JSONEq(t, "[]", string(article.Citations))

	// Usage counted once with the derived word count
	assert.Equal(t, 1, quota.recorded)
	assert.Equal(t, 1200, quota.wordsAdded)

	// Persisted exactly once
	require.Len(t, repo.created, 1)
}

func TestGenerate_RoundTripDerivedValues(t *testing.T) {
	repo := &fakeRepo{}
	gen := &fakeGenerator{text: strings.Repeat("word ", 1850)}
	svc := NewService(repo, gen, &fakeQuota{})

	article, err := svc.Generate(context.Background(), uuid.New(), generateRequest())
	require.NoError(t, err)
	assert.Equal(t, 1850, article.WordCount)

	// Values persisted are the values returned, unchanged
	stored, err := svc.GetByID(context.Background(), article.ID)
	require.NoError(t, err)
	assert.Equal(t, article.WordCount, stored.WordCount)
	assert.Equal(t, article.SEOScore, stored.SEOScore)
}

func TestGenerate_QuotaExceededBeforeUpstreamCall(t *testing.T) {
	repo := &fakeRepo{}
	gen := &fakeGenerator{text: "unused"}
	quota := &fakeQuota{checkErr: usage.ErrDailyLimitExceeded}
	svc := NewService(repo, gen, quota)

	_, err := svc.Generate(context.Background(), uuid.New(), generateRequest())
	assert.ErrorIs(t, err, usage.ErrDailyLimitExceeded)

	// Rejected before spending provider credits
	assert.Equal(t, 0, gen.called)
	assert.Empty(t, repo.created)
	assert.Equal(t, 0, quota.recorded)
}

func TestGenerate_UpstreamFailureIsIsolated(t *testing.T) {
	repo := &fakeRepo{}
	gen := &fakeGenerator{err: errors.New("upstream 500")}
	quota := &fakeQuota{}
	svc := NewService(repo, gen, quota)

	_, err := svc.Generate(context.Background(), uuid.New(), generateRequest())
	assert.ErrorIs(t, err, ErrGenerationFailed)

	// No partial article, no usage counted
	assert.Empty(t, repo.created)
	assert.Equal(t, 0, quota.recorded)
}

func TestGenerate_PersistenceFailureDropsText(t *testing.T) {
	repo := &fakeRepo{createErr: errors.New("insert failed")}
	gen := &fakeGenerator{text: "generated text"}
	quota := &fakeQuota{}
	svc := NewService(repo, gen, quota)

	_, err := svc.Generate(context.Background(), uuid.New(), generateRequest())
	assert.ErrorIs(t, err, ErrPersistenceFailed)

	// Usage must not be counted for an article that was never written
	assert.Equal(t, 0, quota.recorded)
}

func TestGenerate_UsageFailureDoesNotFailRequest(t *testing.T) {
	repo := &fakeRepo{}
	gen := &fakeGenerator{text: "short article body"}
	quota := &fakeQuota{recordErr: errors.New("usage table down")}
	svc := NewService(repo, gen, quota)

	article, err := svc.Generate(context.Background(), uuid.New(), generateRequest())
	require.NoError(t, err)
	assert.NotNil(t, article)
	require.Len(t, repo.created, 1)
}

func TestGenerate_NormalizesAudienceAndTone(t *testing.T) {
	gen := &fakeGenerator{text: "body"}
	svc := NewService(&fakeRepo{}, gen, &fakeQuota{})

	req := generateRequest()
	req.Audience = ""
	req.Tone = ""

	_, err := svc.Generate(context.Background(), uuid.New(), req)
	require.NoError(t, err)
	assert.Contains(t, gen.prompt, "general audience")
	assert.Contains(t, gen.prompt, "professional tone")
}

func TestGenerate_OmittedKeywordsPersistEmptyArray(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, &fakeGenerator{text: "body"}, &fakeQuota{})

	// A request without "keywords" decodes with a nil slice.
	var req GenerateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"topic":"Topic Only"}`), &req))
	require.Nil(t, req.Keywords)

	article, err := svc.Generate(context.Background(), uuid.New(), &req)
	require.NoError(t, err)

	// The keywords column is NOT NULL; a nil slice would be written as
	// SQL NULL, so the persisted article must carry an empty slice.
	require.Len(t, repo.created, 1)
	assert.NotNil(t, repo.created[0].Keywords)
	assert.Empty(t, repo.created[0].Keywords)
	assert.NotNil(t, article.Keywords)
}

func TestGenerate_MetricsLabelResolvesDefaultProvider(t *testing.T) {
	counter := metrics.GenerationsTotal.WithLabelValues("deepseek", "success")
	before := promtestutil.ToFloat64(counter)

	svc := NewService(&fakeRepo{}, &fakeGenerator{text: "body"}, &fakeQuota{})
	req := generateRequest()
	req.APIProvider = ""

	_, err := svc.Generate(context.Background(), uuid.New(), req)
	require.NoError(t, err)

	// An omitted provider is counted under the resolved default name.
	assert.Equal(t, before+1, promtestutil.ToFloat64(counter))
}

func TestGenerate_PassesProviderThrough(t *testing.T) {
	gen := &fakeGenerator{text: "body"}
	svc := NewService(&fakeRepo{}, gen, &fakeQuota{})

	req := generateRequest()
	req.APIProvider = "openrouter"

	_, err := svc.Generate(context.Background(), uuid.New(), req)
	require.NoError(t, err)
	assert.Equal(t, "openrouter", gen.provider)
}

func TestListByUser_Paginates(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, &fakeGenerator{text: "body"}, &fakeQuota{})
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := svc.Generate(context.Background(), userID, generateRequest())
		require.NoError(t, err)
	}

	list, total, err := svc.ListByUser(context.Background(), userID, DefaultListParams())
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Equal(t, int64(3), total)
}
