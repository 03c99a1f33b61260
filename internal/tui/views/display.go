package views

import (
	"strings"
	"time"
	"unicode"
)

// cleanText drops codepoints tcell renders badly: skin tone modifiers, zero
// width joiners and variation selectors. Emoji sequences collapse to their base
// glyph, e.g. a thumbs-up with a skin tone becomes a plain thumbs-up.
func cleanText(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 0x1F3FB && r <= 0x1F3FF,
			r == 0x200D,
			r >= 0xFE00 && r <= 0xFE0F,
			r >= 0xE0100 && r <= 0xE01EF:
			return -1
		}
		return r
	}, s)
}

// preview flattens s to one line of at most n runes.
func preview(s string, n int) string {
	s = strings.Join(strings.FieldsFunc(cleanText(s), func(r rune) bool {
		return r == '\n' || r == '\r' || r == '\t'
	}), " ")
	s = strings.TrimFunc(s, unicode.IsSpace)
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

// formatWhen renders t as a clock time for today and a date otherwise.
func formatWhen(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(now.Location())
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	if t.Year() == now.Year() {
		return t.Format("Jan 02")
	}
	return t.Format("2006-01-02")
}
