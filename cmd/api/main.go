package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/quillforge/quillforge/internal/api"
	"github.com/quillforge/quillforge/internal/articles"
	"github.com/quillforge/quillforge/internal/auth"
	"github.com/quillforge/quillforge/internal/config"
	"github.com/quillforge/quillforge/internal/database"
	"github.com/quillforge/quillforge/internal/llm"
	iredis "github.com/quillforge/quillforge/internal/redis"
	"github.com/quillforge/quillforge/internal/server"
	"github.com/quillforge/quillforge/internal/usage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("validating config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// PostgreSQL
	pool, err := database.NewPostgresPool(ctx, cfg.DB)
	if err != nil {
		slog.Error("connecting to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.RunMigrations(cfg.DB.DSN(), cfg.DB.MigrationsPath); err != nil {
		slog.Error("running migrations", "error", err)
		os.Exit(1)
	}

	// Redis is an optional burst limiter; the service degrades gracefully
	// without it, so a Redis outage does not block startup.
	var burstLimiter *usage.BurstLimiter
	redisClient, err := iredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, burst limiting disabled", "error", err)
	} else {
		defer redisClient.Close()
		burstLimiter = usage.NewBurstLimiter(redisClient)
	}

	// Auth
	jwtManager := auth.NewJWTManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry)

	// Usage / quota
	usageRepo := usage.NewRepository(pool)
	usageSvc := usage.NewService(usageRepo, burstLimiter, cfg.Quota)
	usageHandler := usage.NewHandler(usageSvc)

	// LLM dispatch
	registry := llm.NewRegistry(cfg.Providers)
	dispatcher := llm.NewDispatcher(registry)

	// Articles
	articleRepo := articles.NewRepository(pool)
	articleSvc := articles.NewService(articleRepo, dispatcher, usageSvc)
	articleHandler := articles.NewHandler(articleSvc)

	// Router
	router := api.NewRouter(pool, api.RouterConfig{
		CORSAllowedOrigins: cfg.CORS.AllowedOrigins,
	}, api.HandlerSet{
		GenerateArticle: articleHandler.Generate,
		ListArticles:    articleHandler.List,
		GetArticle:      articleHandler.Get,

		GetUsage: usageHandler.Get,

		AuthMiddleware: auth.Middleware(jwtManager),
	})

	// Start server
	srv := server.New(cfg.Server, router)
	if err := srv.Start(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
