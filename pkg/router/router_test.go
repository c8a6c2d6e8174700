package router

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/cascade/pkg/adapter"
	"github.com/zen-systems/cascade/pkg/budget"
	"github.com/zen-systems/cascade/pkg/classify"
	"github.com/zen-systems/cascade/pkg/config"
)

func testCascadeConfig() *config.CascadeConfig {
	return &config.CascadeConfig{
		Budget: config.BudgetConfig{SessionLimitUSD: 1.00},
		Classifier: config.ClassifierConfig{
			LongQueryWords: 30,
			ComplexMarkers: []string{"explain", "compare"},
			SimpleMarkers:  []string{"what is", "define"},
		},
		Tiers: map[config.Tier]config.Profile{
			config.TierSimple:  {Adapter: "mock", Model: "mock-1", CostPerCall: 0.10},
			config.TierMedium:  {Adapter: "mock", Model: "mock-1", CostPerCall: 0.20},
			config.TierComplex: {Adapter: "mock", Model: "mock-1", CostPerCall: 0.70},
		},
	}
}

func newTestRouter(t *testing.T, mock *adapter.MockAdapter, limit float64) *Router {
	t.Helper()
	adapters := map[string]adapter.Adapter{"mock": mock}
	r, err := New(adapters, testCascadeConfig(), budget.NewTracker(limit))
	require.NoError(t, err)
	return r
}

func TestRouteSuccess(t *testing.T) {
	mock := adapter.NewMockAdapter()
	mock.Usage = &adapter.Usage{PromptTokens: 12, CompletionTokens: 30}
	r := newTestRouter(t, mock, 1.00)

	decision, err := r.Route(context.Background(), classify.Query{Text: "What is Python?"})
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, decision.Outcome)
	assert.Equal(t, config.TierSimple, decision.Tier)
	assert.Equal(t, "mock-1", decision.Model)
	assert.InDelta(t, 0.10, decision.CostCharged, 1e-9)
	assert.Equal(t, 42, decision.Tokens)
	assert.NotEmpty(t, decision.OutputText)
	assert.InDelta(t, 0.10, r.Tracker().Spent(), 1e-9)
}

func TestRouteBudgetScenario(t *testing.T) {
	// Three simple queries at $0.10, then a complex one at $0.70, land
	// exactly on a $1.00 limit; any further nonzero cost halts.
	mock := adapter.NewMockAdapter()
	r := newTestRouter(t, mock, 1.00)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		decision, err := r.Route(ctx, classify.Query{Text: "What is Go?"})
		require.NoError(t, err)
		require.Equal(t, OutcomeSuccess, decision.Outcome, "simple query %d", i)
	}
	assert.InDelta(t, 0.30, r.Tracker().Spent(), 1e-9)

	decision, err := r.Route(ctx, classify.Query{Text: "Compare routing strategies"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, decision.Outcome, "spend may land exactly on the limit")
	assert.InDelta(t, 1.00, r.Tracker().Spent(), 1e-9)

	halted, err := r.Route(ctx, classify.Query{Text: "What is Rust?"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeHalted, halted.Outcome)
	assert.Empty(t, halted.OutputText, "halted decisions carry no output")
	assert.Zero(t, halted.CostCharged)
	assert.InDelta(t, 1.00, r.Tracker().Spent(), 1e-9, "halted call must not charge")
	assert.Equal(t, 4, mock.Calls(), "no invocation past the breaker")
}

func TestRouteModelErrorNotCharged(t *testing.T) {
	mock := adapter.NewMockAdapter()
	mock.Err = fmt.Errorf("provider unavailable")
	r := newTestRouter(t, mock, 1.00)

	decision, err := r.Route(context.Background(), classify.Query{Text: "What is Go?"})
	require.NoError(t, err)

	assert.Equal(t, OutcomeModelError, decision.Outcome)
	assert.Empty(t, decision.OutputText)
	assert.Contains(t, decision.Err, "provider unavailable")
	assert.Zero(t, r.Tracker().Spent())
	assert.InDelta(t, 1.00, r.Tracker().Remaining(), 1e-9, "failed call releases its reservation")
}

func TestRouteTierSelection(t *testing.T) {
	mock := adapter.NewMockAdapter()
	r := newTestRouter(t, mock, 10.0)
	ctx := context.Background()

	tests := []struct {
		query string
		tier  config.Tier
	}{
		{"What is Python?", config.TierSimple},
		{"Translate this to German", config.TierMedium},
		{"Explain the cascade pattern", config.TierComplex},
	}
	for _, tt := range tests {
		decision, err := r.Route(ctx, classify.Query{Text: tt.query})
		require.NoError(t, err)
		assert.Equal(t, tt.tier, decision.Tier, "query %q", tt.query)
	}
}

func TestNewRejectsDanglingAdapter(t *testing.T) {
	cfg := testCascadeConfig()
	cfg.Tiers[config.TierComplex] = config.Profile{Adapter: "openai", Model: "gpt-5.2-pro", CostPerCall: 0.15}

	_, err := New(map[string]adapter.Adapter{"mock": adapter.NewMockAdapter()}, cfg, budget.NewTracker(1))
	var cfgErr *config.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestSelectorMissingTier(t *testing.T) {
	_, err := NewSelector(map[config.Tier]config.Profile{
		config.TierSimple: {Adapter: "mock", Model: "m", CostPerCall: 0.01},
	})
	var cfgErr *config.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}
