// Package critic evaluates generated text against a fixed compliance
// rubric. Heuristic items are pure functions; judge items call a model and
// carry that model's nondeterminism with them.
package critic

import (
	"context"
	"fmt"

	"github.com/zen-systems/cascade/pkg/adapter"
)

// Critic applies every rubric item to a text and produces a Verdict.
type Critic struct {
	rubric     Rubric
	judge      adapter.Adapter
	judgeModel string
}

// Option configures a Critic.
type Option func(*Critic)

// WithJudge sets the model target used for judge-backed rubric items.
func WithJudge(judge adapter.Adapter, model string) Option {
	return func(c *Critic) {
		c.judge = judge
		c.judgeModel = model
	}
}

// New creates a critic for the given rubric. A rubric containing judge
// items requires WithJudge.
func New(rubric Rubric, opts ...Option) (*Critic, error) {
	c := &Critic{rubric: rubric}
	for _, opt := range opts {
		opt(c)
	}
	if rubric.HasJudgeItems() && (c.judge == nil || c.judgeModel == "") {
		return nil, fmt.Errorf("rubric has judge items but no judge model is configured")
	}
	return c, nil
}

// Rubric returns the rubric the critic evaluates against.
func (c *Critic) Rubric() Rubric {
	return c.rubric
}

// Evaluate applies every rubric item to the text. Overall pass requires
// every item to pass. A judge call failure aborts the critique with an
// error; a failed judgment is a normal failing result, not an error.
func (c *Critic) Evaluate(ctx context.Context, query, text string) (*Verdict, error) {
	results := make(map[string]ItemResult, len(c.rubric))

	for _, item := range c.rubric {
		switch item.Kind {
		case KindHeuristic:
			if item.check(text) {
				results[item.ID] = ItemResult{Pass: true}
			} else {
				results[item.ID] = ItemResult{Pass: false, Reason: "check failed"}
			}
		case KindJudge:
			pass, reason, err := c.evaluateJudgeItem(ctx, item, query, text)
			if err != nil {
				return nil, fmt.Errorf("judge evaluation of %s: %w", item.ID, err)
			}
			results[item.ID] = ItemResult{Pass: pass, Reason: reason}
		}
	}

	overall := true
	for _, result := range results {
		if !result.Pass {
			overall = false
			break
		}
	}

	return &Verdict{
		Results:     results,
		OverallPass: overall,
		Feedback:    buildFeedback(c.rubric, results),
	}, nil
}

func (c *Critic) evaluateJudgeItem(ctx context.Context, item Item, query, text string) (bool, string, error) {
	prompt := buildJudgePrompt(item, query, text)
	resp, err := c.judge.Generate(ctx, c.judgeModel, prompt)
	if err != nil {
		return false, "", err
	}
	if resp == nil || resp.Artifact == nil {
		return false, "", fmt.Errorf("judge returned empty response")
	}
	return parseJudgeResponse(resp.Artifact.Content)
}
