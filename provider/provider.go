package provider

import (
	"context"
	"errors"

	"github.com/mohammad-safakhou/ragchat/config"
	"github.com/mohammad-safakhou/ragchat/models"
	openai_provider "github.com/mohammad-safakhou/ragchat/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
	Gemini    Client = "gemini"
)

// Provider is the interface that all LLM implementations must satisfy.
// Failures propagate to the caller and are never retried here.
type Provider interface {
	Complete(ctx context.Context, system, prompt string, images []string) (models.Completion, error)
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
	ModerateText(ctx context.Context, text string) (float64, error)
}

// NewProvider creates a new LLM client based on the provided configuration
func NewProvider(client Client, cfg config.ProvidersConfig) (Provider, error) {
	switch client {
	case OpenAI:
		if cfg.OpenAI.APIKey == "" {
			return nil, errors.New("openai api key not configured (providers.openai.api_key)")
		}
		return openai_provider.NewClient(cfg.OpenAI), nil
	case Anthropic:
		return nil, errors.New("anthropic client not implemented yet")
	case Gemini:
		return nil, errors.New("gemini client not implemented yet")
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}

// NewProviderForSelection builds a provider for a "client:model"
// selection string, overriding the configured completion model when the
// selection names one.
func NewProviderForSelection(selection string, cfg config.ProvidersConfig) (Provider, error) {
	client, model := ParseSelection(selection)
	if client == "" {
		client = OpenAI
	}
	switch client {
	case OpenAI:
		if cfg.OpenAI.APIKey == "" {
			return nil, errors.New("openai api key not configured (providers.openai.api_key)")
		}
		return openai_provider.NewClient(cfg.OpenAI).WithCompletionModel(model), nil
	default:
		return NewProvider(client, cfg)
	}
}

// ParseSelection splits a "client:model" selection string as used in
// chat.available_llms. The model part may be empty.
func ParseSelection(s string) (Client, string) {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			return Client(s[:i]), s[i+1:]
		}
	}
	return Client(s), ""
}
