package reflection

import (
	"github.com/google/uuid"

	"github.com/zen-systems/cascade/pkg/artifact"
	"github.com/zen-systems/cascade/pkg/compliance"
	"github.com/zen-systems/cascade/pkg/critic"
)

// Terminal is the first-class loop outcome. EXHAUSTED is not an error: it
// carries the best available text plus the full trace for human review,
// never silently presented as compliant.
type Terminal string

const (
	TerminalAccepted  Terminal = "accepted"
	TerminalExhausted Terminal = "exhausted"
)

// State names the loop's position, for logging and the iteration records.
type State string

const (
	StateGenerating   State = "generating"
	StateCritiquing   State = "critiquing"
	StateRegenerating State = "regenerating"
)

// Iteration is one generate+critique pass.
type Iteration struct {
	Attempt  int                `json:"attempt"`
	Artifact *artifact.Artifact `json:"artifact"`
	Verdict  *critic.Verdict    `json:"verdict"`
}

// Trace records one reflection session. Append-only while the loop runs,
// immutable once it terminates. Never longer than the iteration cap.
type Trace struct {
	ID         string                `json:"id"`
	Query      string                `json:"query"`
	Resolution compliance.Resolution `json:"resolution"`
	Iterations []Iteration           `json:"iterations"`
}

func newTrace(query string, resolution compliance.Resolution) *Trace {
	return &Trace{
		ID:         uuid.NewString(),
		Query:      query,
		Resolution: resolution,
	}
}

// Len returns the number of recorded iterations.
func (t *Trace) Len() int {
	return len(t.Iterations)
}

// Last returns the most recent iteration, or nil before the first pass.
func (t *Trace) Last() *Iteration {
	if len(t.Iterations) == 0 {
		return nil
	}
	return &t.Iterations[len(t.Iterations)-1]
}
