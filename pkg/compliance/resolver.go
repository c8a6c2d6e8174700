// Package compliance reconciles user-requested formatting directives with
// the enterprise rubric. A mandatory rubric item always beats a conflicting
// user directive; the loser is recorded so the decision is auditable.
package compliance

import (
	"fmt"

	"github.com/zen-systems/cascade/pkg/critic"
)

// Directive is one user-requested instruction, keyed so rubric items can
// declare conflicts against it (e.g. key "format", value "no headers").
type Directive struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Override records a discarded directive and the rubric item that forced it.
type Override struct {
	Directive Directive `json:"directive"`
	RubricID  string    `json:"rubric_id"`
	Reason    string    `json:"reason"`
}

// Resolution is the effective directive set plus the audit trail of what
// was overridden and why.
type Resolution struct {
	Directives []Directive `json:"directives"`
	Overrides  []Override  `json:"overrides,omitempty"`
}

// Resolve applies the override policy: any mandatory rubric item listing a
// directive's key among its overrides discards that directive. Remaining
// directives pass through unchanged, in input order. Pure function, no
// network.
func Resolve(directives []Directive, rubric critic.Rubric) Resolution {
	var resolution Resolution
	for _, directive := range directives {
		if item, ok := overridingItem(directive, rubric); ok {
			resolution.Overrides = append(resolution.Overrides, Override{
				Directive: directive,
				RubricID:  item.ID,
				Reason: fmt.Sprintf("directive %q conflicts with mandatory rubric item %s (%s)",
					directive.Key, item.ID, item.Description),
			})
			continue
		}
		resolution.Directives = append(resolution.Directives, directive)
	}
	return resolution
}

func overridingItem(directive Directive, rubric critic.Rubric) (critic.Item, bool) {
	for _, item := range rubric {
		if !item.Mandatory {
			continue
		}
		for _, key := range item.Overrides {
			if key == directive.Key {
				return item, true
			}
		}
	}
	return critic.Item{}, false
}
