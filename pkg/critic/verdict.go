package critic

import (
	"fmt"
	"sort"
	"strings"
)

// ItemResult is the outcome of one rubric item.
type ItemResult struct {
	Pass   bool   `json:"pass"`
	Reason string `json:"reason,omitempty"`
}

// Verdict is the structured outcome of one critique pass. Created fresh on
// every Evaluate call, immutable afterwards.
type Verdict struct {
	Results     map[string]ItemResult `json:"results"`
	OverallPass bool                  `json:"overall_pass"`
	Feedback    string                `json:"feedback,omitempty"`
}

// FailedItems returns the IDs of failed items in stable order.
func (v *Verdict) FailedItems() []string {
	var failed []string
	for id, result := range v.Results {
		if !result.Pass {
			failed = append(failed, id)
		}
	}
	sort.Strings(failed)
	return failed
}

// buildFeedback renders failed items into the free-form feedback the next
// generation attempt is steered with.
func buildFeedback(rubric Rubric, results map[string]ItemResult) string {
	var sb strings.Builder
	for _, item := range rubric {
		result, ok := results[item.ID]
		if !ok || result.Pass {
			continue
		}
		if sb.Len() == 0 {
			sb.WriteString("The output failed these compliance checks:\n")
		}
		label := ""
		if item.Mandatory {
			label = " (mandatory)"
		}
		sb.WriteString(fmt.Sprintf("- %s%s: %s", item.ID, label, item.Description))
		if result.Reason != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", result.Reason))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
