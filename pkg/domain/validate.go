package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Input limits for the identity and wish steps.
const (
	MinNameLen = 2
	MaxWishLen = 160
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidName reports whether name has at least MinNameLen runes once trimmed.
func ValidName(name string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(name)) >= MinNameLen
}

// ValidEmail accepts the empty string or a local-part@domain.tld address.
func ValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	return email == "" || emailPattern.MatchString(email)
}

// NormalizeWish trims the wish and caps it at MaxWishLen runes.
func NormalizeWish(wish string) string {
	wish = strings.TrimSpace(wish)
	if utf8.RuneCountInString(wish) <= MaxWishLen {
		return wish
	}
	return strings.TrimSpace(string([]rune(wish)[:MaxWishLen]))
}
