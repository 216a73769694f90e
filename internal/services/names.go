package services

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const avatarBaseURL = "https://api.dicebear.com/9.x/initials/svg?seed="

// TitleCase lowercases s and upper-cases the first letter of every
// space-separated word. Hyphens and apostrophes do not start a new word.
func TitleCase(s string) string {
	// cases.Caser keeps state and is not safe for concurrent use.
	upper := cases.Upper(language.Und)
	words := strings.Split(cases.Lower(language.Und).String(s), " ")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if size == 0 {
			continue
		}
		words[i] = upper.String(string(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// DefaultAvatarURL returns the initials avatar seeded with "<first> <last>".
func DefaultAvatarURL(firstName, lastName string) string {
	return avatarBaseURL + seedEscape(firstName) + "%20" + seedEscape(lastName)
}

func seedEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
