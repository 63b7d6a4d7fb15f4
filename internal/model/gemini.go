package model

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// contentGenerator is the subset of the genai models service used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiProvider implements Provider with the Gemini API.
type GeminiProvider struct {
	models contentGenerator
}

// NewGeminiProvider creates a Gemini API client for apiKey.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiProvider{models: client.Models}, nil
}

// Invoke generates content for a single user turn.
func (p *GeminiProvider) Invoke(ctx context.Context, req Request) (string, error) {
	cfg, err := geminiConfig(req.Parameters)
	if err != nil {
		return "", err
	}
	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}
	resp, err := p.models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}

func geminiConfig(params map[string]any) (*genai.GenerateContentConfig, error) {
	cfg := &genai.GenerateContentConfig{}
	temperature, err := floatParam(params, "temperature")
	if err != nil {
		return nil, err
	}
	cfg.Temperature = temperature
	topP, err := floatParam(params, "top_p", "topP")
	if err != nil {
		return nil, err
	}
	cfg.TopP = topP
	topK, err := floatParam(params, "top_k", "topK")
	if err != nil {
		return nil, err
	}
	cfg.TopK = topK
	maxTokens, err := intParam(params, "max_output_tokens", "maxOutputTokens", "max_tokens", "max_new_tokens")
	if err != nil {
		return nil, err
	}
	if maxTokens != nil {
		cfg.MaxOutputTokens = *maxTokens
	}
	stop, err := stringsParam(params, "stop_sequences", "stopSequences", "stop")
	if err != nil {
		return nil, err
	}
	cfg.StopSequences = stop
	return cfg, nil
}
