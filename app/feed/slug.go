package feed

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	slugWhitespaceRe = regexp.MustCompile(`\s+`)
	slugInvalidRe    = regexp.MustCompile(`[^a-z0-9\-]+`)
	slugHyphensRe    = regexp.MustCompile(`-{2,}`)
)

const fallbackSlug = "post"

// Slugify turns arbitrary text into a lowercase, hyphen-delimited token
// made of [a-z0-9-] only, or "post" when nothing is left.
func Slugify(text string) string {
	text = strings.TrimSpace(cases.Lower(language.Und).String(text))
	text = slugWhitespaceRe.ReplaceAllString(text, "-")
	text = slugInvalidRe.ReplaceAllString(text, "-")
	text = strings.Trim(slugHyphensRe.ReplaceAllString(text, "-"), "-")

	if text == "" {
		return fallbackSlug
	}
	return text
}

// Filename builds "YYYY-MM-DD-{slug}.html" from the UTC date of t.
func Filename(t time.Time, title string) string {
	return FilenameWithSlug(t, Slugify(title))
}

func FilenameWithSlug(t time.Time, slug string) string {
	return t.UTC().Format("2006-01-02") + "-" + slug + ".html"
}
