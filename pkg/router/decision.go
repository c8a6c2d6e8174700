package router

import (
	"time"

	"github.com/zen-systems/cascade/pkg/config"
)

// Outcome is the terminal status of one routing decision.
type Outcome string

const (
	// OutcomeSuccess: the call was made and charged.
	OutcomeSuccess Outcome = "success"
	// OutcomeHalted: the circuit breaker tripped; no call was made and
	// nothing was charged. Terminal for the query, never auto-resumed.
	OutcomeHalted Outcome = "halted"
	// OutcomeModelError: the provider call failed; nothing was charged.
	// Retry policy, if any, belongs to the caller.
	OutcomeModelError Outcome = "model_error"
)

// Decision captures one routing decision. Created once per routed query,
// immutable after creation, owned by the caller after emission.
type Decision struct {
	Query       string      `json:"query"`
	Tier        config.Tier `json:"tier"`
	Rule        string      `json:"rule,omitempty"`
	Adapter     string      `json:"adapter"`
	Model       string      `json:"model"`
	CostCharged float64     `json:"cost_charged"`
	Tokens      int         `json:"tokens,omitempty"`
	Outcome     Outcome     `json:"outcome"`
	OutputText  string      `json:"output_text,omitempty"`
	Err         string      `json:"error,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}
