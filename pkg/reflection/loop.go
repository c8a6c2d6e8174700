// Package reflection runs the generate-critique-regenerate cycle: a
// bounded loop that rewrites model output until it satisfies the compliance
// rubric or the iteration cap is reached. Termination is a return value,
// never an exception path; the cap is what guarantees termination when the
// critic is judge-backed and convergence cannot be assumed.
package reflection

import (
	"context"
	"fmt"
	"strconv"

	"github.com/zen-systems/cascade/pkg/adapter"
	"github.com/zen-systems/cascade/pkg/artifact"
	"github.com/zen-systems/cascade/pkg/compliance"
	"github.com/zen-systems/cascade/pkg/critic"
	"github.com/zen-systems/cascade/pkg/logx"
)

// Result is the loop's outcome: the final text, the full trace, and the
// terminal state.
type Result struct {
	FinalText string
	Trace     *Trace
	Terminal  Terminal
}

// Loop drives reflective refinement against one generation target.
type Loop struct {
	generator adapter.Adapter
	model     string
	critic    *critic.Critic
}

// NewLoop creates a reflection loop using the given generation target and
// critic.
func NewLoop(generator adapter.Adapter, model string, c *critic.Critic) *Loop {
	return &Loop{generator: generator, model: model, critic: c}
}

// Reflect generates an answer and refines it until the rubric passes or
// maxIterations generate+critique passes have run. The trace never exceeds
// maxIterations entries. On a gateway or judge failure the partial result,
// trace included, is returned alongside the error.
func (l *Loop) Reflect(ctx context.Context, query string, directives []compliance.Directive, maxIterations int) (*Result, error) {
	if maxIterations < 1 {
		return nil, fmt.Errorf("max iterations must be at least 1, got %d", maxIterations)
	}

	resolution := compliance.Resolve(directives, l.critic.Rubric())
	for _, override := range resolution.Overrides {
		logx.Info().
			Str("directive", override.Directive.Key).
			Str("rubric_id", override.RubricID).
			Msg("user directive overridden by mandatory rubric item")
	}

	trace := newTrace(query, resolution)
	prompt := buildGenerationPrompt(query, resolution.Directives, "")

	var current *artifact.Artifact
	for attempt := 1; ; attempt++ {
		logx.Debug().Str("state", string(StateGenerating)).Int("attempt", attempt).Msg("reflection")
		resp, err := l.generator.Generate(ctx, l.model, prompt)
		if err != nil {
			return &Result{Trace: trace}, fmt.Errorf("generation attempt %d: %w", attempt, err)
		}
		if resp == nil || resp.Artifact == nil {
			return &Result{Trace: trace}, fmt.Errorf("generation attempt %d: empty response", attempt)
		}

		if current == nil {
			current = resp.Artifact
		} else {
			current = current.NewVersion(resp.Artifact.Content)
		}
		current = current.WithMetadata("iteration", strconv.Itoa(attempt))

		logx.Debug().Str("state", string(StateCritiquing)).Int("attempt", attempt).Msg("reflection")
		verdict, err := l.critic.Evaluate(ctx, query, current.Content)
		if err != nil {
			return &Result{Trace: trace}, fmt.Errorf("critique attempt %d: %w", attempt, err)
		}

		trace.Iterations = append(trace.Iterations, Iteration{
			Attempt:  attempt,
			Artifact: current,
			Verdict:  verdict,
		})

		if verdict.OverallPass {
			logx.Info().Int("attempts", attempt).Str("trace", trace.ID).Msg("reflection accepted")
			return &Result{FinalText: current.Content, Trace: trace, Terminal: TerminalAccepted}, nil
		}

		if attempt >= maxIterations {
			logx.Warn().Int("attempts", attempt).Str("trace", trace.ID).
				Strs("failed_items", verdict.FailedItems()).
				Msg("reflection exhausted; returning best effort output for review")
			return &Result{FinalText: current.Content, Trace: trace, Terminal: TerminalExhausted}, nil
		}

		logx.Debug().Str("state", string(StateRegenerating)).Int("attempt", attempt).
			Strs("failed_items", verdict.FailedItems()).Msg("reflection")
		prompt = buildGenerationPrompt(query, resolution.Directives, verdict.Feedback)
	}
}
