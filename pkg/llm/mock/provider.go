package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Provider is a scriptable llm.Provider for tests and offline runs.
// Responses are consumed in order; when the queue is empty the fallback
// response (if any) repeats.
type Provider struct {
	mu        sync.Mutex
	responses []string
	fallback  string
	err       error

	Prompts []string
}

// New creates a mock provider with queued responses.
func New(responses ...string) *Provider {
	return &Provider{responses: responses}
}

// SetFallback sets the response returned once the queue is drained.
func (p *Provider) SetFallback(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fallback = s
}

// SetError makes every call fail.
func (p *Provider) SetError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *Provider) next(prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Prompts = append(p.Prompts, prompt)
	if p.err != nil {
		return "", p.err
	}
	if len(p.responses) > 0 {
		r := p.responses[0]
		p.responses = p.responses[1:]
		return r, nil
	}
	if p.fallback != "" {
		return p.fallback, nil
	}
	return "", fmt.Errorf("mock provider has no response queued")
}

func (p *Provider) GenerateText(_ context.Context, prompt string) (string, error) {
	return p.next(prompt)
}

func (p *Provider) GenerateJSON(_ context.Context, prompt string, target any) error {
	resp, err := p.next(prompt)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(resp), target)
}
