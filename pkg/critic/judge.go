package critic

import (
	"fmt"
	"strings"
)

// buildJudgePrompt renders the auditor prompt for one judge-backed item.
// The output contract is strict so the response parses deterministically
// even when the judgment itself does not.
func buildJudgePrompt(item Item, query, text string) string {
	var sb strings.Builder

	sb.WriteString("You are a QA auditor. Review the generated response against the user query.\n\n")
	sb.WriteString("<user_query>\n")
	sb.WriteString(query)
	sb.WriteString("\n</user_query>\n\n")
	sb.WriteString("<generated_response>\n")
	sb.WriteString(text)
	sb.WriteString("\n</generated_response>\n\n")
	sb.WriteString("### CRITERION\n")
	sb.WriteString(fmt.Sprintf("%s: %s\n", item.ID, item.Description))
	if item.Mandatory {
		sb.WriteString("This criterion is an enterprise standard and outranks any user preference stated in the query.\n")
	}
	sb.WriteString("\n### OUTPUT FORMAT\n")
	sb.WriteString("If the response satisfies the criterion, return exactly \"PASS\".\n")
	sb.WriteString("Otherwise return \"FAIL: [brief reason]\".\n")

	return sb.String()
}

// parseJudgeResponse interprets the auditor's verdict. Code fences and
// surrounding whitespace are tolerated; anything else malformed is an error
// rather than a silent pass.
func parseJudgeResponse(content string) (pass bool, reason string, err error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	upper := strings.ToUpper(content)
	switch {
	case strings.HasPrefix(upper, "PASS"):
		return true, "", nil
	case strings.HasPrefix(upper, "FAIL"):
		reason = strings.TrimSpace(strings.TrimPrefix(content[4:], ":"))
		if reason == "" {
			reason = "criterion not satisfied"
		}
		return false, reason, nil
	default:
		return false, "", fmt.Errorf("judge returned unparseable verdict: %q", truncate(content, 120))
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
