package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Validate checks Config for production-critical problems.
// It collects all errors into a single joined error.
func (c *Config) Validate() error {
	var errs []string

	// JWT secret
	if len(c.JWT.AccessSecret) < 32 {
		errs = append(errs, "JWT_ACCESS_SECRET must be at least 32 characters")
	}

	// DB password
	if c.DB.Password == "" {
		errs = append(errs, "DB_PASSWORD is required")
	}

	// Provider credentials: at least the default provider needs a key
	switch c.Providers.Default {
	case "deepseek":
		if c.Providers.DeepSeek.APIKey == "" {
			errs = append(errs, "DEEPSEEK_API_KEY is required when deepseek is the default provider")
		}
	case "openrouter":
		if c.Providers.OpenRouter.APIKey == "" {
			errs = append(errs, "OPENROUTER_API_KEY is required when openrouter is the default provider")
		}
	default:
		errs = append(errs, fmt.Sprintf("PROVIDERS_DEFAULT must be deepseek or openrouter, got %q", c.Providers.Default))
	}
	if c.Providers.DeepSeek.APIKey == "" {
		slog.Warn("DEEPSEEK_API_KEY is empty, deepseek requests will fail upstream auth")
	}
	if c.Providers.OpenRouter.APIKey == "" {
		slog.Warn("OPENROUTER_API_KEY is empty, openrouter requests will fail upstream auth")
	}

	// Port ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be 1-65535, got %d", c.Server.Port))
	}
	if c.DB.Port < 1 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Sprintf("DB_PORT must be 1-65535, got %d", c.DB.Port))
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Sprintf("REDIS_PORT must be 1-65535, got %d", c.Redis.Port))
	}

	// Quota sanity
	if c.Quota.DailyArticleLimit < 1 {
		errs = append(errs, fmt.Sprintf("QUOTA_DAILY_ARTICLE_LIMIT must be positive, got %d", c.Quota.DailyArticleLimit))
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
