package reflection

import (
	"fmt"
	"strings"

	"github.com/zen-systems/cascade/pkg/compliance"
)

// buildGenerationPrompt renders the generation prompt: role preamble, the
// effective (post-resolution) directives, and the query in tags. A non-empty
// feedback block steers a regeneration attempt toward the failed checks.
func buildGenerationPrompt(query string, directives []compliance.Directive, feedback string) string {
	var sb strings.Builder

	sb.WriteString("### ROLE\n")
	sb.WriteString("You are a senior technical writer for enterprise software documentation.\n\n")
	sb.WriteString("### TASK\n")
	sb.WriteString("Answer the user query provided in <user_query> tags.\n\n")

	if feedback != "" {
		sb.WriteString("### PREVIOUS ATTEMPT FAILED\n")
		sb.WriteString(feedback)
		sb.WriteString("Fix these issues specifically. Do not repeat the previous output unchanged.\n\n")
	}

	if len(directives) > 0 {
		sb.WriteString("### USER DIRECTIVES\n")
		for _, d := range directives {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", d.Key, d.Value))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("### STANDARDS\n")
	sb.WriteString("1. Use clear H2 and H3 markdown headers.\n")
	sb.WriteString("2. Keep paragraphs short.\n")
	sb.WriteString("3. Be concise and factual.\n\n")

	sb.WriteString("### INPUT DATA\n")
	sb.WriteString("<user_query>\n")
	sb.WriteString(query)
	sb.WriteString("\n</user_query>\n")

	return sb.String()
}
