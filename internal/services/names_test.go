package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitleCase(t *testing.T) {
	tests := map[string]string{
		"john":       "John",
		"DOE":        "Doe",
		"mcDONALD":   "Mcdonald",
		"anne marie": "Anne Marie",
		"mary-jane":  "Mary-jane",
		"o'NEIL":     "O'neil",
		"ÉMILE":      "Émile",
		"van  der":   "Van  Der",
		"":           "",
	}
	for in, want := range tests {
		assert.Equal(t, want, TitleCase(in), "input %q", in)
	}
}

func TestDefaultAvatarURL(t *testing.T) {
	assert.Equal(t,
		"https://api.dicebear.com/9.x/initials/svg?seed=john%20doe",
		DefaultAvatarURL("john", "doe"))

	assert.Equal(t,
		"https://api.dicebear.com/9.x/initials/svg?seed=anne%20marie%20o%26neil",
		DefaultAvatarURL("anne marie", "o&neil"))
}
