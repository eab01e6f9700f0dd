package certificate

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const ellipsis = "…"

// wrap breaks text into lines no wider than width. Words wider than a line
// are split between runes. At most maxLines lines are returned; when text is
// cut, the last line ends with an ellipsis.
func wrap(width float64, maxLines int, measure func(string) float64, text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 || maxLines <= 0 {
		return nil
	}

	var lines []string
	cur := ""
	for _, w := range words {
		candidate := w
		if cur != "" {
			candidate = cur + " " + w
		}
		if measure(candidate) <= width {
			cur = candidate
			continue
		}
		if cur != "" {
			lines = append(lines, cur)
			cur = ""
		}
		for measure(w) > width {
			head, tail := splitToWidth(width, measure, w)
			lines = append(lines, head)
			w = tail
		}
		cur = w
	}
	if cur != "" {
		lines = append(lines, cur)
	}

	if len(lines) > maxLines {
		lines = lines[:maxLines]
		lines[maxLines-1] = fitWithEllipsis(width, measure, lines[maxLines-1])
	}
	return lines
}

// splitToWidth returns the longest rune prefix of s that fits width, and the
// rest. The prefix always holds at least one rune.
func splitToWidth(width float64, measure func(string) float64, s string) (string, string) {
	runes := []rune(s)
	n := 1
	for n < len(runes) && measure(string(runes[:n+1])) <= width {
		n++
	}
	return string(runes[:n]), string(runes[n:])
}

// fitWithEllipsis trims s until s plus an ellipsis fits width.
func fitWithEllipsis(width float64, measure func(string) float64, s string) string {
	runes := []rune(strings.TrimSpace(s))
	for len(runes) > 0 && measure(string(runes)+ellipsis) > width {
		runes = runes[:len(runes)-1]
	}
	return strings.TrimSpace(string(runes)) + ellipsis
}

// truncateRunes caps s at budget runes, marking the cut with an ellipsis.
func truncateRunes(s string, budget int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= budget {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:budget])) + ellipsis
}

var finnishMonths = [...]string{
	"tammikuuta", "helmikuuta", "maaliskuuta", "huhtikuuta",
	"toukokuuta", "kesäkuuta", "heinäkuuta", "elokuuta",
	"syyskuuta", "lokakuuta", "marraskuuta", "joulukuuta",
}

// FinnishDate formats t as "18. lokakuuta 2026".
func FinnishDate(t time.Time) string {
	return fmt.Sprintf("%d. %s %d", t.Day(), finnishMonths[t.Month()-1], t.Year())
}

const (
	fileNamePrefix = "joulun-osaaja-"
	fileNameExt    = ".png"
	defaultSlug    = "osallistuja"
)

// Slug lower-cases name and joins its words with "-". Path separators are
// replaced so the result is always a single file name component.
func Slug(name string) string {
	lower := cases.Lower(language.Finnish).String(name)
	lower = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return ' '
		}
		return r
	}, lower)
	slug := strings.Join(strings.Fields(lower), "-")
	slug = strings.Trim(slug, ".-")
	if slug == "" {
		return defaultSlug
	}
	return slug
}

// FileName is the certificate artifact name for a recipient.
func FileName(name string) string {
	return fileNamePrefix + Slug(name) + fileNameExt
}
