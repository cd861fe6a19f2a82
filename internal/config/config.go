package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Providers ProvidersConfig
	Quota     QuotaConfig
	CORS      CORSConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxConns       int32
	MigrationsPath string
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type JWTConfig struct {
	AccessSecret string
	AccessExpiry time.Duration
}

// ProviderConfig describes one upstream LLM endpoint. The set of providers
// is closed; entries are looked up by the identifier the caller supplies.
type ProviderConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type ProvidersConfig struct {
	Default    string
	DeepSeek   ProviderConfig
	OpenRouter ProviderConfig
}

type QuotaConfig struct {
	DailyArticleLimit int
	BurstPerMinute    int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Load .env file if it exists (ignore error if missing)
	_ = k.Load(file.Provider(".env"), dotenv.Parser())

	// Load environment variables (override .env)
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", "."))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: k.String("server.host"),
			Port: k.Int("server.port"),
		},
		DB: DBConfig{
			Host:           k.String("db.host"),
			Port:           k.Int("db.port"),
			User:           k.String("db.user"),
			Password:       k.String("db.password"),
			Name:           k.String("db.name"),
			SSLMode:        k.String("db.sslmode"),
			MaxConns:       int32(k.Int("db.max.conns")),
			MigrationsPath: k.String("db.migrations.path"),
		},
		Redis: RedisConfig{
			Host:     k.String("redis.host"),
			Port:     k.Int("redis.port"),
			Password: k.String("redis.password"),
			DB:       k.Int("redis.db"),
		},
		JWT: JWTConfig{
			AccessSecret: k.String("jwt.access.secret"),
		},
		Providers: ProvidersConfig{
			Default: k.String("providers.default"),
			DeepSeek: ProviderConfig{
				APIKey:  k.String("deepseek.api.key"),
				BaseURL: k.String("deepseek.base.url"),
				Model:   k.String("deepseek.model"),
			},
			OpenRouter: ProviderConfig{
				APIKey:  k.String("openrouter.api.key"),
				BaseURL: k.String("openrouter.base.url"),
				Model:   k.String("openrouter.model"),
			},
		},
		Quota: QuotaConfig{
			DailyArticleLimit: k.Int("quota.daily.article.limit"),
			BurstPerMinute:    k.Int("quota.burst.per.minute"),
		},
		CORS: CORSConfig{
			AllowedOrigins: k.Strings("cors.allowed.origins"),
		},
		Log: LogConfig{
			Level:  k.String("log.level"),
			Format: k.String("log.format"),
		},
	}

	// Apply defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.DB.Host == "" {
		cfg.DB.Host = "localhost"
	}
	if cfg.DB.Port == 0 {
		cfg.DB.Port = 5432
	}
	if cfg.DB.User == "" {
		cfg.DB.User = "quillforge"
	}
	if cfg.DB.Name == "" {
		cfg.DB.Name = "quillforge"
	}
	if cfg.DB.SSLMode == "" {
		cfg.DB.SSLMode = "disable"
	}
	if cfg.DB.MaxConns == 0 {
		cfg.DB.MaxConns = 25
	}
	if cfg.DB.MigrationsPath == "" {
		cfg.DB.MigrationsPath = "migrations"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Providers.Default == "" {
		cfg.Providers.Default = "deepseek"
	}
	if cfg.Providers.DeepSeek.BaseURL == "" {
		cfg.Providers.DeepSeek.BaseURL = "https://api.deepseek.com"
	}
	if cfg.Providers.DeepSeek.Model == "" {
		cfg.Providers.DeepSeek.Model = "deepseek-chat"
	}
	if cfg.Providers.OpenRouter.BaseURL == "" {
		cfg.Providers.OpenRouter.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.Providers.OpenRouter.Model == "" {
		cfg.Providers.OpenRouter.Model = "anthropic/claude-3.5-sonnet"
	}
	if cfg.Quota.DailyArticleLimit == 0 {
		cfg.Quota.DailyArticleLimit = 5
	}
	if cfg.Quota.BurstPerMinute == 0 {
		cfg.Quota.BurstPerMinute = 3
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"*"}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	// Parse durations
	accessExpStr := k.String("jwt.access.expiry")
	if accessExpStr == "" {
		accessExpStr = "15m"
	}
	cfg.JWT.AccessExpiry, err = time.ParseDuration(accessExpStr)
	if err != nil {
		return nil, fmt.Errorf("parsing jwt access expiry: %w", err)
	}

	return cfg, nil
}
