package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultWatsonURL    = "https://us-south.ml.cloud.ibm.com"
	defaultWatsonIAMURL = "https://iam.cloud.ibm.com/identity/token"
	watsonAPIVersion    = "2023-05-29"
)

// WatsonxProvider implements Provider for the watsonx.ai text generation API.
// IAM access tokens are exchanged from the API key and reused until expiry.
type WatsonxProvider struct {
	APIKey    string
	ProjectID string
	BaseURL   string
	IAMURL    string
	Client    HTTPDoer
	Now       func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

type watsonTokenResponse struct {
	AccessToken string `json:"access_token"`
	Expiration  int64  `json:"expiration"`
	ExpiresIn   int64  `json:"expires_in"`
}

type watsonGenerationRequest struct {
	ModelID    string         `json:"model_id"`
	Input      string         `json:"input"`
	ProjectID  string         `json:"project_id"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

type watsonGenerationResponse struct {
	Results []struct {
		GeneratedText string `json:"generated_text"`
	} `json:"results"`
}

// NewWatsonxProvider constructs a watsonx provider with explicit settings.
func NewWatsonxProvider(apiKey, projectID, baseURL string, client HTTPDoer) (*WatsonxProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if strings.TrimSpace(projectID) == "" {
		return nil, fmt.Errorf("project id is required")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultWatsonURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &WatsonxProvider{
		APIKey:    apiKey,
		ProjectID: projectID,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		IAMURL:    defaultWatsonIAMURL,
		Client:    client,
		Now:       time.Now,
	}, nil
}

// Invoke generates text for a single prompt.
func (p *WatsonxProvider) Invoke(ctx context.Context, req Request) (string, error) {
	token, err := p.accessToken(ctx)
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(watsonGenerationRequest{
		ModelID:    req.Model,
		Input:      req.Prompt,
		ProjectID:  p.ProjectID,
		Parameters: req.Parameters,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	endpoint := p.BaseURL + "/ml/v1/text/generation?version=" + watsonAPIVersion
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	var out watsonGenerationResponse
	if err := p.doJSON(httpReq, &out); err != nil {
		return "", err
	}
	var text strings.Builder
	for _, result := range out.Results {
		text.WriteString(result.GeneratedText)
	}
	return text.String(), nil
}

func (p *WatsonxProvider) accessToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.Now()
	if p.token != "" && now.Before(p.expires) {
		return p.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "urn:ibm:params:oauth:grant-type:apikey")
	form.Set("apikey", p.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.IAMURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	var out watsonTokenResponse
	if err := p.doJSON(httpReq, &out); err != nil {
		return "", fmt.Errorf("iam token: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("iam token: empty access token")
	}
	lifetime := time.Duration(out.ExpiresIn) * time.Second
	if lifetime <= 0 && out.Expiration > 0 {
		lifetime = time.Unix(out.Expiration, 0).Sub(now)
	}
	// Tokens are refreshed one minute before they expire.
	p.token = out.AccessToken
	p.expires = now.Add(lifetime - time.Minute)
	return p.token, nil
}

func (p *WatsonxProvider) doJSON(req *http.Request, out any) error {
	resp, err := p.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("watsonx error: %s", strings.TrimSpace(string(data)))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
