package model

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Provider names accepted in configuration.
const (
	ProviderOpenRouter = "openrouter"
	ProviderWatsonx    = "watsonx"
	ProviderBedrock    = "bedrock"
	ProviderGemini     = "gemini"
)

// KnownProviders lists the supported provider names.
func KnownProviders() []string {
	return []string{ProviderOpenRouter, ProviderWatsonx, ProviderBedrock, ProviderGemini}
}

// IsKnownProvider reports whether name is a supported provider.
func IsKnownProvider(name string) bool {
	for _, known := range KnownProviders() {
		if name == known {
			return true
		}
	}
	return false
}

// Registry builds providers from environment settings and reuses them by name.
type Registry struct {
	Getenv func(string) string
	Client HTTPDoer

	mu        sync.Mutex
	providers map[string]Provider
}

// NewRegistry returns a registry reading settings through getenv.
func NewRegistry(getenv func(string) string, client HTTPDoer) *Registry {
	return &Registry{Getenv: getenv, Client: client, providers: map[string]Provider{}}
}

// Provider returns the provider for name, creating it on first use.
func (r *Registry) Provider(ctx context.Context, name string) (Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.providers == nil {
		r.providers = map[string]Provider{}
	}
	if provider, ok := r.providers[name]; ok {
		return provider, nil
	}
	provider, err := FromEnv(ctx, name, r.Getenv, r.Client)
	if err != nil {
		return nil, err
	}
	r.providers[name] = provider
	return provider, nil
}

// FromEnv builds a provider using environment configuration.
func FromEnv(ctx context.Context, name string, getenv func(string) string, client HTTPDoer) (Provider, error) {
	env := func(key string) string {
		return strings.TrimSpace(getenv(key))
	}
	if name == "" {
		name = env("LLM_PROVIDER")
	}
	switch name {
	case "":
		return nil, fmt.Errorf("provider is required")
	case ProviderOpenRouter:
		apiKey := env("LLM_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("LLM_API_KEY is required")
		}
		return NewOpenRouterProvider(apiKey, env("OPENROUTER_BASE_URL"), client)
	case ProviderWatsonx:
		apiKey := env("WATSON_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("WATSON_API_KEY is required")
		}
		projectID := env("WATSON_PROJECT_ID")
		if projectID == "" {
			return nil, fmt.Errorf("WATSON_PROJECT_ID is required")
		}
		return NewWatsonxProvider(apiKey, projectID, env("WATSON_URL"), client)
	case ProviderBedrock:
		return NewBedrockProvider(ctx, BedrockSettings{
			Region:          env("AWS_REGION"),
			AccessKeyID:     env("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: env("AWS_SECRET_ACCESS_KEY"),
			SessionToken:    env("AWS_SESSION_TOKEN"),
		})
	case ProviderGemini:
		apiKey := env("GEMINI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required")
		}
		return NewGeminiProvider(ctx, apiKey)
	default:
		return nil, fmt.Errorf("unsupported provider %q", name)
	}
}
