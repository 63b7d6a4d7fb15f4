package model

import (
	"context"
	"errors"
	"net/http"
)

// ErrTimeout reports a model call that exceeded the configured timeout.
var ErrTimeout = errors.New("model invocation timed out")

// Request is one prompt sent to a model. Parameters are passed through as
// configured; each provider maps the keys it understands.
type Request struct {
	Model      string
	Parameters map[string]any
	Prompt     string
}

// Provider sends a prompt to a model backend and returns the generated text.
type Provider interface {
	Invoke(ctx context.Context, req Request) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, req Request) (string, error)

// Invoke calls f.
func (f ProviderFunc) Invoke(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// HTTPDoer abstracts HTTP clients used by providers.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}
