package adapter

import (
	"context"
	"fmt"
	"sync"

	"github.com/zen-systems/cascade/pkg/artifact"
)

// MockAdapter returns deterministic responses for local runs and tests.
type MockAdapter struct {
	mu              sync.Mutex
	responses       map[string]string
	script          []string
	defaultResponse string
	calls           int

	// Usage is attached to every response when set.
	Usage *Usage
	// Err, when set, is returned by every Generate call.
	Err error
}

// NewMockAdapter creates a mock adapter with a default response.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		responses:       make(map[string]string),
		defaultResponse: "mock response:",
	}
}

// NewMockAdapterWithResponses creates a mock adapter with predefined
// per-prompt responses.
func NewMockAdapterWithResponses(responses map[string]string, defaultResponse string) *MockAdapter {
	if defaultResponse == "" {
		defaultResponse = "mock response:"
	}
	return &MockAdapter{responses: responses, defaultResponse: defaultResponse}
}

// NewScriptedAdapter creates a mock adapter that returns the given responses
// in order, repeating the final one once the script runs out.
func NewScriptedAdapter(responses ...string) *MockAdapter {
	return &MockAdapter{
		responses:       make(map[string]string),
		script:          responses,
		defaultResponse: "mock response:",
	}
}

// Name returns the adapter identifier.
func (a *MockAdapter) Name() string {
	return "mock"
}

// Models returns the list of supported mock models.
func (a *MockAdapter) Models() []string {
	return []string{"mock-1"}
}

// Calls reports how many Generate calls the adapter has served.
func (a *MockAdapter) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// Generate returns a deterministic response for the prompt.
func (a *MockAdapter) Generate(_ context.Context, model string, prompt string) (*Response, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.Err != nil {
		return nil, a.Err
	}

	a.calls++
	if model == "" {
		model = "mock-1"
	}

	var content string
	switch {
	case len(a.script) > 0:
		idx := a.calls - 1
		if idx >= len(a.script) {
			idx = len(a.script) - 1
		}
		content = a.script[idx]
	default:
		if response, ok := a.responses[prompt]; ok {
			content = response
		} else {
			content = fmt.Sprintf("%s\n%s", a.defaultResponse, prompt)
		}
	}

	art := artifact.New(content, a.Name(), model, prompt)
	return &Response{Artifact: art, Usage: a.Usage}, nil
}
