package adapter

import (
	"context"
)

// Adapter is the gateway to one LLM provider. The core treats it as an
// opaque capability: prompt in, text plus token usage out, or an error.
type Adapter interface {
	// Generate sends a prompt to the model and returns the response.
	Generate(ctx context.Context, model string, prompt string) (*Response, error)

	// Name returns the adapter's identifier.
	Name() string

	// Models returns the list of supported models.
	Models() []string
}
