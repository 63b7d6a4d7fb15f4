package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"chainbench/internal/model"
)

// Reply scripts one answer of a StubProvider.
type Reply struct {
	Text    string
	Err     error
	Latency time.Duration
}

// StubProvider answers prompts from a script keyed by model id. Each call
// advances Clock by the reply latency so measured latencies are exact.
type StubProvider struct {
	Clock   *FakeClock
	Replies map[string][]Reply
	Default func(req model.Request) Reply

	mu    sync.Mutex
	calls []model.Request
}

// Invoke returns the next scripted reply for req.Model.
func (s *StubProvider) Invoke(ctx context.Context, req model.Request) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	var reply Reply
	queue := s.Replies[req.Model]
	switch {
	case len(queue) > 0:
		reply = queue[0]
		s.Replies[req.Model] = queue[1:]
	case s.Default != nil:
		reply = s.Default(req)
	default:
		s.mu.Unlock()
		return "", fmt.Errorf("stub provider: no reply scripted for %q", req.Model)
	}
	s.mu.Unlock()

	if s.Clock != nil && reply.Latency > 0 {
		s.Clock.Advance(reply.Latency)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return reply.Text, reply.Err
}

// Calls returns the requests received so far.
func (s *StubProvider) Calls() []model.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Request, len(s.calls))
	copy(out, s.calls)
	return out
}

// Prompts returns the prompt text of every received request.
func (s *StubProvider) Prompts() []string {
	calls := s.Calls()
	out := make([]string, len(calls))
	for i, call := range calls {
		out[i] = call.Prompt
	}
	return out
}
