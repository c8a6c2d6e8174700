// Package classify maps a query to a complexity tier using deterministic
// heuristics. No model call is ever made to decide routing; that would spend
// money on the decision whose whole point is saving it.
package classify

import (
	"strings"

	"github.com/zen-systems/cascade/pkg/config"
)

// Query is the immutable input to one routing decision.
type Query struct {
	Text string
	// DeclaredTier lets the caller pin the tier explicitly, e.g. a batch
	// job that already knows its workload shape. Empty means "classify".
	DeclaredTier config.Tier
}

// Result carries the chosen tier and the rule that produced it.
type Result struct {
	Tier    config.Tier
	Rule    string
	Matched []string
}

// Classifier evaluates the configured rules in a fixed order; the first
// matching rule wins. Pure function of the query, repeated calls with
// identical input yield identical tiers.
type Classifier struct {
	cfg config.ClassifierConfig
}

// New creates a classifier from configuration.
func New(cfg config.ClassifierConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify determines the complexity tier for a query. It never fails;
// queries that match no rule fall back to the medium tier.
func (c *Classifier) Classify(q Query) Result {
	if tier, ok := config.ParseTier(string(q.DeclaredTier)); ok {
		return Result{Tier: tier, Rule: "declared"}
	}

	text := strings.ToLower(q.Text)
	words := len(strings.Fields(text))

	if c.cfg.LongQueryWords > 0 && words > c.cfg.LongQueryWords {
		return Result{Tier: config.TierComplex, Rule: "long_query"}
	}

	if matched := matchMarkers(text, c.cfg.ComplexMarkers); len(matched) > 0 {
		return Result{Tier: config.TierComplex, Rule: "complex_markers", Matched: matched}
	}

	if matched := matchMarkers(text, c.cfg.SimpleMarkers); len(matched) > 0 {
		return Result{Tier: config.TierSimple, Rule: "simple_markers", Matched: matched}
	}

	return Result{Tier: config.TierMedium, Rule: "default"}
}

func matchMarkers(text string, markers []string) []string {
	var matched []string
	for _, marker := range markers {
		if containsTrigger(text, strings.ToLower(marker)) {
			matched = append(matched, marker)
		}
	}
	return matched
}

// containsTrigger checks if the text contains the trigger phrase with word
// boundaries on both sides, so "design" does not fire on "designated".
func containsTrigger(text, trigger string) bool {
	if trigger == "" {
		return false
	}
	idx := strings.Index(text, trigger)
	if idx == -1 {
		return false
	}

	if idx > 0 && isWordChar(text[idx-1]) {
		return false
	}

	endIdx := idx + len(trigger)
	if endIdx < len(text) && isWordChar(text[endIdx]) {
		return false
	}

	return true
}

func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}
