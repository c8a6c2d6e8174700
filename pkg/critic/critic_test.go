package critic

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/cascade/pkg/adapter"
	"github.com/zen-systems/cascade/pkg/config"
)

func heuristicRubric(t *testing.T) Rubric {
	t.Helper()
	rubric, err := BuildRubric([]config.RubricItem{
		{
			ID:          "markdown_headers",
			Description: "Use clear H2 and H3 markdown headers",
			Mandatory:   true,
			Check:       "markdown_headers",
		},
		{
			ID:          "short_paragraphs",
			Description: "Keep paragraphs under 3 lines",
			Check:       "max_paragraph_lines",
			CheckArg:    "3",
		},
	})
	require.NoError(t, err)
	return rubric
}

func TestEvaluateHeuristicPass(t *testing.T) {
	c, err := New(heuristicRubric(t))
	require.NoError(t, err)

	verdict, err := c.Evaluate(context.Background(), "q", "## Title\n\nShort paragraph.")
	require.NoError(t, err)

	assert.True(t, verdict.OverallPass)
	assert.Empty(t, verdict.FailedItems())
	assert.Empty(t, verdict.Feedback)
}

func TestEvaluateHeuristicFail(t *testing.T) {
	c, err := New(heuristicRubric(t))
	require.NoError(t, err)

	verdict, err := c.Evaluate(context.Background(), "q", "plain text without headers")
	require.NoError(t, err)

	assert.False(t, verdict.OverallPass)
	assert.Equal(t, []string{"markdown_headers"}, verdict.FailedItems())
	assert.Contains(t, verdict.Feedback, "markdown_headers (mandatory)")
}

func TestEvaluateDeterministicForFixedInput(t *testing.T) {
	c, err := New(heuristicRubric(t))
	require.NoError(t, err)

	text := "## A\n\none\ntwo\nthree\nfour"
	first, err := c.Evaluate(context.Background(), "q", text)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := c.Evaluate(context.Background(), "q", text)
		require.NoError(t, err)
		assert.Equal(t, first.Results, again.Results)
	}
}

func TestEvaluateJudgeItem(t *testing.T) {
	rubric, err := BuildRubric([]config.RubricItem{
		{ID: "accuracy", Description: "Content is accurate", Judge: true},
	})
	require.NoError(t, err)

	tests := []struct {
		name     string
		response string
		pass     bool
		reason   string
	}{
		{"pass", "PASS", true, ""},
		{"pass fenced", "```\nPASS\n```", true, ""},
		{"fail with reason", "FAIL: the code sample is wrong", false, "the code sample is wrong"},
		{"fail bare", "FAIL", false, "criterion not satisfied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			judge := adapter.NewScriptedAdapter(tt.response)
			c, err := New(rubric, WithJudge(judge, "mock-1"))
			require.NoError(t, err)

			verdict, err := c.Evaluate(context.Background(), "q", "text")
			require.NoError(t, err)
			assert.Equal(t, tt.pass, verdict.OverallPass)
			assert.Equal(t, tt.reason, verdict.Results["accuracy"].Reason)
		})
	}
}

func TestEvaluateJudgeErrors(t *testing.T) {
	rubric, err := BuildRubric([]config.RubricItem{
		{ID: "accuracy", Description: "Content is accurate", Judge: true},
	})
	require.NoError(t, err)

	t.Run("unparseable verdict", func(t *testing.T) {
		judge := adapter.NewScriptedAdapter("maybe, it depends")
		c, err := New(rubric, WithJudge(judge, "mock-1"))
		require.NoError(t, err)

		_, err = c.Evaluate(context.Background(), "q", "text")
		assert.Error(t, err)
	})

	t.Run("judge call failure", func(t *testing.T) {
		judge := adapter.NewMockAdapter()
		judge.Err = fmt.Errorf("provider down")
		c, err := New(rubric, WithJudge(judge, "mock-1"))
		require.NoError(t, err)

		_, err = c.Evaluate(context.Background(), "q", "text")
		assert.ErrorContains(t, err, "provider down")
	})
}

func TestNewRequiresJudgeForJudgeItems(t *testing.T) {
	rubric, err := BuildRubric([]config.RubricItem{
		{ID: "accuracy", Description: "d", Judge: true},
	})
	require.NoError(t, err)

	_, err = New(rubric)
	assert.Error(t, err)
}

func TestBuildRubricUnknownCheck(t *testing.T) {
	_, err := BuildRubric([]config.RubricItem{
		{ID: "x", Description: "d", Check: "nope"},
	})
	assert.ErrorContains(t, err, "unknown check")
}

func TestChecks(t *testing.T) {
	tests := []struct {
		name  string
		check string
		arg   string
		text  string
		pass  bool
	}{
		{"headers present", "markdown_headers", "", "## Section\nbody", true},
		{"headers missing", "markdown_headers", "", "just code", false},
		{"contains hit", "contains", "fibonacci", "A Fibonacci function", true},
		{"contains miss", "contains", "fibonacci", "something else", false},
		{"not_contains", "not_contains", "TODO", "clean text", true},
		{"min_words ok", "min_words", "3", "one two three", true},
		{"min_words short", "min_words", "4", "one two three", false},
		{"paragraph within limit", "max_paragraph_lines", "2", "a\nb\n\nc", true},
		{"paragraph over limit", "max_paragraph_lines", "2", "a\nb\nc", false},
		{"code fence ignored", "max_paragraph_lines", "2", "```\nx\ny\nz\nw\n```", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check, err := buildCheck(tt.check, tt.arg)
			require.NoError(t, err)
			assert.Equal(t, tt.pass, check(tt.text))
		})
	}
}
