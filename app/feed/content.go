package feed

import (
	"regexp"
	"strings"
)

const (
	DefaultSummaryLength = 280

	ellipsis = "…"
)

var (
	tagRe        = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// SelectContent returns the richest content available for an entry: the
// non-empty content parts joined by a space, else the summary.
func SelectContent(entry Entry) string {
	parts := make([]string, 0, len(entry.Content))
	for _, part := range entry.Content {
		if part != "" {
			parts = append(parts, part)
		}
	}

	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	return entry.Summary
}

// Summarize reduces HTML to plain text of at most maxLen characters. A
// truncated result ends with an ellipsis and is exactly maxLen long.
func Summarize(content string, maxLen int) string {
	text := tagRe.ReplaceAllString(content, " ")
	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))

	if maxLen <= 0 {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}

	return string(runes[:maxLen-1]) + ellipsis
}
