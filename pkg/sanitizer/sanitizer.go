package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	reTrimUnderscores = regexp.MustCompile(`_+`)
	reInvalidIDChars  = regexp.MustCompile(`[^A-Za-z0-9._:-]+`)
)

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func collapseUnderscores(s string) string {
	s = reTrimUnderscores.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// SanitizeNotes drops control characters and collapses whitespace runs in
// free-text booking notes.
func SanitizeNotes(input string) string {
	p := Pipeline{
		stripControl,
		TrimAndNormalize,
	}
	return p.Apply(input)
}

// SanitizeID trims an identifier taken from a path or body. Characters that
// can never appear in an ID become underscores so lookups miss cleanly.
func SanitizeID(input string) string {
	p := Pipeline{
		strings.TrimSpace,
		func(s string) string { return reInvalidIDChars.ReplaceAllString(s, "_") },
		collapseUnderscores,
	}
	return p.Apply(input)
}
