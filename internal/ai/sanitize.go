package ai

import (
	"regexp"
	"strings"
)

var (
	bulletMarkerRe = regexp.MustCompile(`(?m)^(\s*)[*•‣·]\s+`)
	boldMarkerRe   = regexp.MustCompile(`\*\*|__`)
	blankRunRe     = regexp.MustCompile(`\n{3,}`)
)

// Sanitize normalizes raw model output before storage: markdown emphasis
// markers are stripped, bullet markers are normalized to "-", and runs of
// blank lines are collapsed. The result is trimmed plain text.
func Sanitize(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")

	text = bulletMarkerRe.ReplaceAllString(text, "${1}- ")
	text = boldMarkerRe.ReplaceAllString(text, "")
	text = stripEmphasisAsterisks(text)
	text = blankRunRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

// stripEmphasisAsterisks removes remaining single asterisks. Underscores are
// left alone: they show up inside identifiers like next_steps far more often
// than as emphasis.
func stripEmphasisAsterisks(text string) string {
	return strings.ReplaceAll(text, "*", "")
}
