//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/quillforge/quillforge/internal/api"
	"github.com/quillforge/quillforge/internal/articles"
	"github.com/quillforge/quillforge/internal/auth"
	"github.com/quillforge/quillforge/internal/config"
	"github.com/quillforge/quillforge/internal/llm"
	"github.com/quillforge/quillforge/internal/usage"
)

type TestEnv struct {
	Pool       *pgxpool.Pool
	Redis      *redis.Client
	Server     *httptest.Server
	JWT        *auth.JWTManager
	UpstreamOK *atomic.Bool
}

var testEnv *TestEnv

// SetupTestEnv starts Postgres and Redis containers, applies migrations,
// and wires the full router against a stubbed LLM upstream. The stub can be
// flipped to failure mode per test via env.UpstreamOK. The environment is
// shared across the package; the testcontainers reaper tears the containers
// down when the test process exits, so no per-test cleanup is registered.
func SetupTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	if testEnv != nil {
		return testEnv
	}

	ctx := context.Background()

	// Start PostgreSQL container
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "quillforge_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}

	pgHost, _ := pgContainer.Host(ctx)
	pgPort, _ := pgContainer.MappedPort(ctx, "5432")

	// Start Redis container
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("starting redis container: %v", err)
	}

	redisHost, _ := redisContainer.Host(ctx)
	redisPort, _ := redisContainer.MappedPort(ctx, "6379")

	// Connect to PostgreSQL
	dsn := fmt.Sprintf("postgres://test:test@%s:%s/quillforge_test?sslmode=disable", pgHost, pgPort.Port())
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connecting to postgres: %v", err)
	}

	// Run migrations
	m, err := migrate.New(
		fmt.Sprintf("file://%s", migrationsPath()),
		dsn,
	)
	if err != nil {
		t.Fatalf("creating migrator: %v", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("running migrations: %v", err)
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", redisHost, redisPort.Port()),
	})

	// Stubbed LLM upstream: OpenAI-compatible chat completions
	upstreamOK := &atomic.Bool{}
	upstreamOK.Store(true)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !upstreamOK.Load() {
			http.Error(w, `{"error":{"message":"upstream unavailable"}}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{
					"role":    "assistant",
					"content": strings.Repeat("Generated article content about the requested topic. ", 200),
				}},
			},
		})
	}))

	jwtManager := auth.NewJWTManager("test-access-secret-32-chars-long!!", 15*time.Minute)

	quotaCfg := config.QuotaConfig{DailyArticleLimit: 5, BurstPerMinute: 100}
	usageRepo := usage.NewRepository(pool)
	usageSvc := usage.NewService(usageRepo, usage.NewBurstLimiter(redisClient), quotaCfg)
	usageHandler := usage.NewHandler(usageSvc)

	registry := llm.NewRegistry(config.ProvidersConfig{
		Default: "deepseek",
		DeepSeek: config.ProviderConfig{
			APIKey: "sk-test", BaseURL: upstream.URL, Model: "deepseek-chat",
		},
		OpenRouter: config.ProviderConfig{
			APIKey: "sk-or-test", BaseURL: upstream.URL, Model: "anthropic/claude-3.5-sonnet",
		},
	})
	dispatcher := llm.NewDispatcher(registry)

	articleRepo := articles.NewRepository(pool)
	articleSvc := articles.NewService(articleRepo, dispatcher, usageSvc)
	articleHandler := articles.NewHandler(articleSvc)

	router := api.NewRouter(pool, api.RouterConfig{
		CORSAllowedOrigins: []string{"*"},
	}, api.HandlerSet{
		GenerateArticle: articleHandler.Generate,
		ListArticles:    articleHandler.List,
		GetArticle:      articleHandler.Get,
		GetUsage:        usageHandler.Get,
		AuthMiddleware:  auth.Middleware(jwtManager),
	})

	server := httptest.NewServer(router)

	testEnv = &TestEnv{
		Pool:       pool,
		Redis:      redisClient,
		Server:     server,
		JWT:        jwtManager,
		UpstreamOK: upstreamOK,
	}
	return testEnv
}

func migrationsPath() string {
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "migrations")
}

// TokenFor mints a valid access token for the given user.
func TokenFor(t *testing.T, env *TestEnv, userID uuid.UUID) string {
	t.Helper()
	token, err := env.JWT.GenerateAccessToken(userID.String(), fmt.Sprintf("%s@test.com", userID))
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}
	return token
}

// DoRequest performs an HTTP request against the test server.
func DoRequest(t *testing.T, env *TestEnv, method, path string, body any, token string) *http.Response {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, env.Server.URL+path, reqBody)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := env.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("performing request: %v", err)
	}
	return resp
}

// ParseResponse decodes a JSON response body into a generic map.
func ParseResponse(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return result
}

// DailyUsageFor reads the daily_usage row directly from Postgres.
func DailyUsageFor(t *testing.T, env *TestEnv, userID uuid.UUID, day time.Time) (int, int) {
	t.Helper()

	var articlesGenerated, wordsGenerated int
	err := env.Pool.QueryRow(context.Background(),
		`SELECT articles_generated, words_generated FROM daily_usage WHERE user_id = $1 AND date = $2`,
		userID, day.UTC().Truncate(24*time.Hour),
	).Scan(&articlesGenerated, &wordsGenerated)
	if err != nil {
		t.Fatalf("reading daily usage: %v", err)
	}
	return articlesGenerated, wordsGenerated
}

// SeedDailyUsage inserts a usage row for the given day.
func SeedDailyUsage(t *testing.T, env *TestEnv, userID uuid.UUID, day time.Time, articlesGenerated, wordsGenerated int) {
	t.Helper()

	_, err := env.Pool.Exec(context.Background(),
		`INSERT INTO daily_usage (user_id, date, articles_generated, words_generated)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, date) DO UPDATE
		 SET articles_generated = EXCLUDED.articles_generated,
		     words_generated = EXCLUDED.words_generated`,
		userID, day.UTC().Truncate(24*time.Hour), articlesGenerated, wordsGenerated)
	if err != nil {
		t.Fatalf("seeding daily usage: %v", err)
	}
}
