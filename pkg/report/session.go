// Package report accumulates routing decisions into the session financial
// report the dashboard renders: total spend, savings against a top-tier
// baseline, and the routing distribution.
package report

import (
	"math"
	"sync"

	"github.com/zen-systems/cascade/pkg/budget"
	"github.com/zen-systems/cascade/pkg/config"
	"github.com/zen-systems/cascade/pkg/router"
)

// Session tallies the decisions of one routing session. Safe for
// concurrent Record calls.
type Session struct {
	mu           sync.Mutex
	tracker      *budget.Tracker
	baselineRate float64
	queries      int
	halted       int
	errors       int
	totalCost    float64
	distribution map[config.Tier]int
}

// Report is the point-in-time financial summary of a session.
type Report struct {
	QueriesProcessed int                 `json:"queries_processed"`
	Halted           int                 `json:"halted"`
	Errors           int                 `json:"errors"`
	TotalCost        float64             `json:"total_cost"`
	BaselineCost     float64             `json:"baseline_cost"`
	Savings          float64             `json:"savings"`
	SavingsPercent   float64             `json:"savings_percent"`
	Distribution     map[config.Tier]int `json:"routing_distribution"`
	BudgetRemaining  float64             `json:"budget_remaining"`
}

// NewSession creates a session report feed. baselineRate is the per-call
// cost every query would have incurred without routing, conventionally the
// complex tier's rate.
func NewSession(tracker *budget.Tracker, baselineRate float64) *Session {
	return &Session{
		tracker:      tracker,
		baselineRate: baselineRate,
		distribution: make(map[config.Tier]int),
	}
}

// Record folds one routing decision into the session totals. Only
// successful calls count toward spend and the distribution; halted and
// failed calls are tallied separately.
func (s *Session) Record(d router.Decision) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch d.Outcome {
	case router.OutcomeSuccess:
		s.queries++
		s.totalCost += d.CostCharged
		s.distribution[d.Tier]++
	case router.OutcomeHalted:
		s.halted++
	case router.OutcomeModelError:
		s.errors++
	}
}

// Report returns the current session summary.
func (s *Session) Report() Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	baseline := float64(s.queries) * s.baselineRate
	savings := baseline - s.totalCost
	percent := 0.0
	if baseline > 0 {
		percent = round1((1 - s.totalCost/baseline) * 100)
	}

	distribution := make(map[config.Tier]int, len(s.distribution))
	for tier, count := range s.distribution {
		distribution[tier] = count
	}

	return Report{
		QueriesProcessed: s.queries,
		Halted:           s.halted,
		Errors:           s.errors,
		TotalCost:        round2(s.totalCost),
		BaselineCost:     round2(baseline),
		Savings:          round2(savings),
		SavingsPercent:   percent,
		Distribution:     distribution,
		BudgetRemaining:  round2(s.tracker.Remaining()),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
