package adapter

import "github.com/zen-systems/cascade/pkg/artifact"

// Usage captures normalized token usage.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response wraps an adapter output and optional usage data.
type Response struct {
	Artifact *artifact.Artifact
	Usage    *Usage
}

// Tokens returns the total token count for the call, or zero when the
// provider reported no usage.
func (r *Response) Tokens() int {
	if r == nil || r.Usage == nil {
		return 0
	}
	if r.Usage.TotalTokens > 0 {
		return r.Usage.TotalTokens
	}
	return r.Usage.PromptTokens + r.Usage.CompletionTokens
}
