// Package router orchestrates one routing decision: classify the query,
// select the tier's model, enforce the budget, invoke the gateway. The
// budget check-then-charge runs as a reservation so concurrent sessions
// sharing one tracker cannot jointly overshoot the limit.
package router

import (
	"context"
	"fmt"
	"time"

	"github.com/zen-systems/cascade/pkg/adapter"
	"github.com/zen-systems/cascade/pkg/budget"
	"github.com/zen-systems/cascade/pkg/classify"
	"github.com/zen-systems/cascade/pkg/config"
	"github.com/zen-systems/cascade/pkg/logx"
)

// Router routes queries to the cheapest model tier that can satisfy them.
type Router struct {
	classifier *classify.Classifier
	selector   *Selector
	tracker    *budget.Tracker
	adapters   map[string]adapter.Adapter
}

// New creates a router. Every tier profile must reference a configured
// adapter; a dangling reference is a startup failure.
func New(adapters map[string]adapter.Adapter, cfg *config.CascadeConfig, tracker *budget.Tracker) (*Router, error) {
	selector, err := NewSelector(cfg.Tiers)
	if err != nil {
		return nil, err
	}
	for tier, profile := range cfg.Tiers {
		if _, ok := adapters[profile.Adapter]; !ok {
			return nil, &config.ConfigError{
				Field:  fmt.Sprintf("tiers.%s.adapter", tier),
				Reason: fmt.Sprintf("adapter %q is not configured", profile.Adapter),
			}
		}
	}
	return &Router{
		classifier: classify.New(cfg.Classifier),
		selector:   selector,
		tracker:    tracker,
		adapters:   adapters,
	}, nil
}

// Tracker returns the router's budget tracker.
func (r *Router) Tracker() *budget.Tracker {
	return r.tracker
}

// Selector returns the tier selector, for display surfaces.
func (r *Router) Selector() *Selector {
	return r.selector
}

// Route classifies the query, checks the budget and invokes the selected
// model. HALTED and MODEL_ERROR are reported in the decision, not as
// errors; the error return is reserved for configuration gaps that
// validation should have caught.
func (r *Router) Route(ctx context.Context, q classify.Query) (Decision, error) {
	result := r.classifier.Classify(q)

	profile, err := r.selector.Select(result.Tier)
	if err != nil {
		return Decision{}, err
	}

	decision := Decision{
		Query:     q.Text,
		Tier:      result.Tier,
		Rule:      result.Rule,
		Adapter:   profile.Adapter,
		Model:     profile.Model,
		Timestamp: time.Now().UTC(),
	}

	logx.Debug().
		Str("tier", string(result.Tier)).
		Str("rule", result.Rule).
		Str("model", profile.Model).
		Float64("cost", profile.CostPerCall).
		Msg("query classified")

	if !r.tracker.Reserve(profile.CostPerCall) {
		decision.Outcome = OutcomeHalted
		decision.Err = fmt.Sprintf("session budget %.2f exhausted (spent %.2f)",
			r.tracker.Limit(), r.tracker.Spent())
		logx.Warn().
			Float64("limit", r.tracker.Limit()).
			Float64("spent", r.tracker.Spent()).
			Msg("budget circuit breaker tripped")
		return decision, nil
	}

	gateway, ok := r.adapters[profile.Adapter]
	if !ok {
		// Unreachable after New's validation; released so the budget
		// stays consistent even if it is not.
		r.tracker.Release(profile.CostPerCall)
		return Decision{}, &config.ConfigError{
			Field:  fmt.Sprintf("tiers.%s.adapter", result.Tier),
			Reason: fmt.Sprintf("adapter %q is not configured", profile.Adapter),
		}
	}

	resp, err := gateway.Generate(ctx, profile.Model, q.Text)
	if err != nil {
		r.tracker.Release(profile.CostPerCall)
		decision.Outcome = OutcomeModelError
		decision.Err = err.Error()
		logx.Error().Err(err).
			Str("adapter", profile.Adapter).
			Str("model", profile.Model).
			Msg("model invocation failed")
		return decision, nil
	}

	r.tracker.Commit(profile.CostPerCall)
	decision.Outcome = OutcomeSuccess
	decision.CostCharged = profile.CostPerCall
	decision.Tokens = resp.Tokens()
	if resp.Artifact != nil {
		decision.OutputText = resp.Artifact.Content
	}

	logx.Info().
		Str("tier", string(result.Tier)).
		Str("model", profile.Model).
		Float64("cost", profile.CostPerCall).
		Float64("spent", r.tracker.Spent()).
		Msg("query routed")

	return decision, nil
}
