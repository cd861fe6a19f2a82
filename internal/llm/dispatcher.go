package llm

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

const (
	systemPrompt = "You are a professional content writer who creates high-quality, engaging articles."
	temperature  = 0.7

	// Floor on max_tokens so short requests are never truncated mid-article.
	minMaxTokens = 2000
)

// Dispatcher performs the single upstream chat-completion call of a
// generation request. Both providers speak the OpenAI wire shape
// {model, messages, max_tokens, temperature}, so one client serves the
// whole table. Upstream calls bill tokens, so there are no retries.
type Dispatcher struct {
	registry *Registry
}

func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// ProviderName resolves an identifier to the concrete provider name, mapping
// the empty string to the configured default. Unknown identifiers pass
// through unchanged; Generate rejects them with a proper error.
func (d *Dispatcher) ProviderName(name string) string {
	p, err := d.registry.Resolve(name)
	if err != nil {
		return name
	}
	return p.Name
}

// MaxTokens computes the token budget for a target word count:
// 1.5 tokens per requested word, never below the floor.
func MaxTokens(targetWords int) int {
	budget := targetWords * 3 / 2
	if budget < minMaxTokens {
		return minMaxTokens
	}
	return budget
}

// Generate sends the compiled prompt to the named provider and returns the
// generated text. Any upstream failure, including an empty completion,
// fails the whole request.
func (d *Dispatcher) Generate(ctx context.Context, providerName, prompt string, targetWords int) (string, error) {
	provider, err := d.registry.Resolve(providerName)
	if err != nil {
		return "", err
	}

	cfg := openai.DefaultConfig(provider.APIKey)
	cfg.BaseURL = provider.BaseURL
	client := openai.NewClientWithConfig(cfg)

	slog.Info("dispatching generation", "provider", provider.Name, "model", provider.Model, "target_words", targetWords)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: provider.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   MaxTokens(targetWords),
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("calling %s: %w", provider.Name, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%s returned no generated text", provider.Name)
	}

	return resp.Choices[0].Message.Content, nil
}
