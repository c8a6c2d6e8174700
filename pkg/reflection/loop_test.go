package reflection

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/cascade/pkg/adapter"
	"github.com/zen-systems/cascade/pkg/compliance"
	"github.com/zen-systems/cascade/pkg/config"
	"github.com/zen-systems/cascade/pkg/critic"
)

// headerRubric passes only when the text carries a markdown header.
func headerRubric(t *testing.T) *critic.Critic {
	t.Helper()
	rubric, err := critic.BuildRubric([]config.RubricItem{
		{
			ID:          "markdown_headers",
			Description: "Use clear H2 and H3 markdown headers",
			Mandatory:   true,
			Check:       "markdown_headers",
			Overrides:   []string{"format"},
		},
	})
	require.NoError(t, err)
	c, err := critic.New(rubric)
	require.NoError(t, err)
	return c
}

func TestReflectAcceptedFirstAttempt(t *testing.T) {
	generator := adapter.NewScriptedAdapter("## Answer\n\ncompliant from the start")
	loop := NewLoop(generator, "mock-1", headerRubric(t))

	result, err := loop.Reflect(context.Background(), "write docs", nil, 3)
	require.NoError(t, err)

	assert.Equal(t, TerminalAccepted, result.Terminal)
	assert.Equal(t, 1, result.Trace.Len(), "accepted on first pass means one entry")
	assert.True(t, result.Trace.Last().Verdict.OverallPass)
	assert.Contains(t, result.FinalText, "## Answer")
	assert.Equal(t, 1, generator.Calls())
}

func TestReflectRegeneratesUntilPass(t *testing.T) {
	generator := adapter.NewScriptedAdapter(
		"no headers here",
		"## Fixed\n\nheaders added after feedback",
	)
	loop := NewLoop(generator, "mock-1", headerRubric(t))

	result, err := loop.Reflect(context.Background(), "write docs", nil, 3)
	require.NoError(t, err)

	assert.Equal(t, TerminalAccepted, result.Terminal)
	require.Equal(t, 2, result.Trace.Len())
	assert.False(t, result.Trace.Iterations[0].Verdict.OverallPass)
	assert.True(t, result.Trace.Iterations[1].Verdict.OverallPass)
	assert.Equal(t, 2, result.Trace.Iterations[1].Artifact.Version, "retry is a new version of the same artifact")
	assert.Equal(t, result.Trace.Iterations[0].Artifact.ID, result.Trace.Iterations[1].Artifact.ID)
}

func TestReflectExhausted(t *testing.T) {
	generator := adapter.NewScriptedAdapter("never compliant")
	loop := NewLoop(generator, "mock-1", headerRubric(t))

	result, err := loop.Reflect(context.Background(), "write docs", nil, 2)
	require.NoError(t, err)

	assert.Equal(t, TerminalExhausted, result.Terminal)
	assert.Equal(t, 2, result.Trace.Len(), "trace is capped at max iterations")
	assert.Equal(t, "never compliant", result.FinalText, "best effort text is still returned")
	assert.False(t, result.Trace.Last().Verdict.OverallPass)
}

func TestReflectSingleIterationDegenerateCase(t *testing.T) {
	generator := adapter.NewScriptedAdapter("still not compliant")
	loop := NewLoop(generator, "mock-1", headerRubric(t))

	result, err := loop.Reflect(context.Background(), "write docs", nil, 1)
	require.NoError(t, err)

	assert.Equal(t, TerminalExhausted, result.Terminal)
	assert.Equal(t, 1, result.Trace.Len())
	assert.Equal(t, 1, generator.Calls(), "one generate+critique pass, no retry")
}

func TestReflectInvalidIterationCap(t *testing.T) {
	loop := NewLoop(adapter.NewMockAdapter(), "mock-1", headerRubric(t))

	_, err := loop.Reflect(context.Background(), "q", nil, 0)
	assert.Error(t, err)
}

func TestReflectResolvesDirectivesBeforeGenerating(t *testing.T) {
	generator := adapter.NewScriptedAdapter("## ok\n\ndone")
	loop := NewLoop(generator, "mock-1", headerRubric(t))

	directives := []compliance.Directive{
		{Key: "format", Value: "no headers, just the code"},
		{Key: "tone", Value: "casual"},
	}
	result, err := loop.Reflect(context.Background(), "write docs", directives, 3)
	require.NoError(t, err)

	resolution := result.Trace.Resolution
	require.Len(t, resolution.Overrides, 1)
	assert.Equal(t, "markdown_headers", resolution.Overrides[0].RubricID)
	assert.Equal(t, []compliance.Directive{{Key: "tone", Value: "casual"}}, resolution.Directives)
}

func TestReflectGenerationErrorReturnsPartialTrace(t *testing.T) {
	generator := adapter.NewMockAdapter()
	generator.Err = fmt.Errorf("gateway timeout")
	loop := NewLoop(generator, "mock-1", headerRubric(t))

	result, err := loop.Reflect(context.Background(), "q", nil, 3)
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Zero(t, result.Trace.Len())
	assert.Empty(t, result.Terminal)
}

func TestReflectFeedbackReachesRetryPrompt(t *testing.T) {
	recorder := &promptRecorder{inner: adapter.NewScriptedAdapter("plain", "## ok\n\ndone")}
	loop := NewLoop(recorder, "mock-1", headerRubric(t))

	_, err := loop.Reflect(context.Background(), "write docs", nil, 3)
	require.NoError(t, err)

	require.Len(t, recorder.prompts, 2)
	assert.NotContains(t, recorder.prompts[0], "PREVIOUS ATTEMPT FAILED")
	assert.Contains(t, recorder.prompts[1], "PREVIOUS ATTEMPT FAILED")
	assert.Contains(t, recorder.prompts[1], "markdown_headers")
}

type promptRecorder struct {
	inner   *adapter.MockAdapter
	prompts []string
}

func (p *promptRecorder) Generate(ctx context.Context, model, prompt string) (*adapter.Response, error) {
	p.prompts = append(p.prompts, prompt)
	return p.inner.Generate(ctx, model, prompt)
}

func (p *promptRecorder) Name() string { return "recorder" }

func (p *promptRecorder) Models() []string { return p.inner.Models() }
