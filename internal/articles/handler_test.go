package articles

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillforge/quillforge/internal/auth"
	"github.com/quillforge/quillforge/internal/usage"
)

func authedRequest(t *testing.T, userID uuid.UUID, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/articles/generate", &buf)
	claims := &auth.AccessClaims{UserID: userID.String()}
	return req.WithContext(context.WithValue(req.Context(), auth.UserClaimsKey, claims))
}

func TestHandlerGenerate_Success(t *testing.T) {
	gen := &fakeGenerator{text: strings.Repeat("word ", 1850)}
	h := NewHandler(NewService(&fakeRepo{}, gen, &fakeQuota{}))
	rec := httptest.NewRecorder()

	h.Generate(rec, authedRequest(t, uuid.New(), map[string]any{
		"topic":    "Testing in Go",
		"length":   "medium",
		"keywords": []string{"testing"},
	}))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Article struct {
			ID        string `json:"id"`
			Title     string `json:"title"`
			Content   string `json:"content"`
			WordCount int    `json:"word_count"`
			SEOScore  int    `json:"seo_score"`
			Status    string `json:"status"`
			CreatedAt string `json:"created_at"`
		} `json:"article"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Article.ID)
	assert.Equal(t, "Testing in Go", resp.Article.Title)
	assert.Equal(t, 1850, resp.Article.WordCount)
	assert.Equal(t, "draft", resp.Article.Status)
	assert.NotEmpty(t, resp.Article.CreatedAt)
}

func TestHandlerGenerate_DailyLimitBody(t *testing.T) {
	quota := &fakeQuota{checkErr: usage.ErrDailyLimitExceeded}
	h := NewHandler(NewService(&fakeRepo{}, &fakeGenerator{text: "x"}, quota))
	rec := httptest.NewRecorder()

	h.Generate(rec, authedRequest(t, uuid.New(), map[string]any{"topic": "t"}))

	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Daily limit reached. You can generate up to 5 articles per day.", resp["error"])
}

func TestHandlerGenerate_BurstLimit(t *testing.T) {
	quota := &fakeQuota{checkErr: usage.ErrBurstLimitExceeded}
	h := NewHandler(NewService(&fakeRepo{}, &fakeGenerator{text: "x"}, quota))
	rec := httptest.NewRecorder()

	h.Generate(rec, authedRequest(t, uuid.New(), map[string]any{"topic": "t"}))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestHandlerGenerate_NoClaims(t *testing.T) {
	h := NewHandler(NewService(&fakeRepo{}, &fakeGenerator{text: "x"}, &fakeQuota{}))
	rec := httptest.NewRecorder()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/articles/generate",
		strings.NewReader(`{"topic":"t"}`))
	h.Generate(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerGenerate_MalformedBody(t *testing.T) {
	h := NewHandler(NewService(&fakeRepo{}, &fakeGenerator{text: "x"}, &fakeQuota{}))
	rec := httptest.NewRecorder()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/articles/generate",
		strings.NewReader(`{not json`))
	claims := &auth.AccessClaims{UserID: uuid.New().String()}
	req = req.WithContext(context.WithValue(req.Context(), auth.UserClaimsKey, claims))
	h.Generate(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerGenerate_MissingTopic(t *testing.T) {
	h := NewHandler(NewService(&fakeRepo{}, &fakeGenerator{text: "x"}, &fakeQuota{}))
	rec := httptest.NewRecorder()

	h.Generate(rec, authedRequest(t, uuid.New(), map[string]any{"length": "short"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerGenerate_InvalidProvider(t *testing.T) {
	h := NewHandler(NewService(&fakeRepo{}, &fakeGenerator{text: "x"}, &fakeQuota{}))
	rec := httptest.NewRecorder()

	h.Generate(rec, authedRequest(t, uuid.New(), map[string]any{
		"topic":       "t",
		"apiProvider": "acme-llm",
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerGenerate_UpstreamErrorIs500(t *testing.T) {
	gen := &fakeGenerator{err: assert.AnError}
	h := NewHandler(NewService(&fakeRepo{}, gen, &fakeQuota{}))
	rec := httptest.NewRecorder()

	h.Generate(rec, authedRequest(t, uuid.New(), map[string]any{"topic": "t"}))

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "generation failed")
}
