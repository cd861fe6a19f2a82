package llm

import (
	"fmt"

	"github.com/quillforge/quillforge/internal/config"
)

// Provider is one entry in the closed set of upstream LLM endpoints.
// Adding a provider means adding a table entry here and in config, not a
// new branch in the dispatch path.
type Provider struct {
	Name    string
	BaseURL string
	Model   string
	APIKey  string
}

// Registry maps provider identifiers to their endpoint configuration.
type Registry struct {
	providers   map[string]Provider
	defaultName string
}

func NewRegistry(cfg config.ProvidersConfig) *Registry {
	return &Registry{
		defaultName: cfg.Default,
		providers: map[string]Provider{
			"deepseek": {
				Name:    "deepseek",
				BaseURL: cfg.DeepSeek.BaseURL,
				Model:   cfg.DeepSeek.Model,
				APIKey:  cfg.DeepSeek.APIKey,
			},
			"openrouter": {
				Name:    "openrouter",
				BaseURL: cfg.OpenRouter.BaseURL,
				Model:   cfg.OpenRouter.Model,
				APIKey:  cfg.OpenRouter.APIKey,
			},
		},
	}
}

// Resolve returns the provider for the given identifier. An empty name
// selects the configured default. Unknown identifiers fail before any
// network call is made.
func (r *Registry) Resolve(name string) (Provider, error) {
	if name == "" {
		name = r.defaultName
	}
	p, ok := r.providers[name]
	if !ok {
		return Provider{}, fmt.Errorf("unknown provider %q", name)
	}
	return p, nil
}
