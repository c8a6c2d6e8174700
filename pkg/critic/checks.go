package critic

import (
	"fmt"
	"strconv"
	"strings"
)

// CheckFunc is a deterministic text predicate: true means the item passes.
type CheckFunc func(text string) bool

// buildCheck resolves a named heuristic check from the registry.
func buildCheck(name, arg string) (CheckFunc, error) {
	switch name {
	case "markdown_headers":
		return checkMarkdownHeaders, nil
	case "contains":
		if arg == "" {
			return nil, fmt.Errorf("check contains requires check_arg")
		}
		needle := strings.ToLower(arg)
		return func(text string) bool {
			return strings.Contains(strings.ToLower(text), needle)
		}, nil
	case "not_contains":
		if arg == "" {
			return nil, fmt.Errorf("check not_contains requires check_arg")
		}
		needle := strings.ToLower(arg)
		return func(text string) bool {
			return !strings.Contains(strings.ToLower(text), needle)
		}, nil
	case "min_words":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("check min_words requires a positive integer check_arg")
		}
		return func(text string) bool {
			return len(strings.Fields(text)) >= n
		}, nil
	case "max_paragraph_lines":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("check max_paragraph_lines requires a positive integer check_arg")
		}
		return func(text string) bool {
			return checkMaxParagraphLines(text, n)
		}, nil
	case "":
		return nil, fmt.Errorf("check name is required")
	default:
		return nil, fmt.Errorf("unknown check %q", name)
	}
}

// checkMarkdownHeaders passes when the text carries at least one markdown
// header line.
func checkMarkdownHeaders(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			return true
		}
	}
	return false
}

// checkMaxParagraphLines passes when no paragraph exceeds limit lines.
// Paragraphs are blocks separated by blank lines; code fences are skipped
// since long listings are not prose.
func checkMaxParagraphLines(text string, limit int) bool {
	inFence := false
	lines := 0
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			lines = 0
			continue
		}
		if inFence {
			continue
		}
		if trimmed == "" {
			lines = 0
			continue
		}
		lines++
		if lines > limit {
			return false
		}
	}
	return true
}
