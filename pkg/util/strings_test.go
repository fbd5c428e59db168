package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUCWords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "Two words", input: "hello world", want: "Hello World"},
		{name: "Empty", input: "", want: ""},
		{name: "Upper case input", input: "HELLO WORLD", want: "Hello World"},
		{name: "Punctuation splits words", input: "o'neil-smith", want: "O'Neil-Smith"},
		{name: "Digits stay inside word", input: "3m tape", want: "3m Tape"},
		{name: "Underscore is a word rune", input: "snake_case", want: "Snake_case"},
		{name: "Multiple spaces", input: "  fuboru   indonesia ", want: "  Fuboru   Indonesia "},
		{name: "Non ascii letters", input: "élan vital", want: "Élan Vital"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UCWords(tt.input))
		})
	}
}

func TestUCWords_PreservesLength(t *testing.T) {
	inputs := []string{
		"hello world",
		"",
		"İstanbul ǅemal",
		"ẞtraße",
		"\xff\xfeinvalid utf8",
		"ΣΊΣΥΦΟΣ",
		"mixed 123 ÄÖÜ text",
	}

	for _, in := range inputs {
		assert.Len(t, UCWords(in), len(in), "input %q", in)
	}
}

func TestIsSlug(t *testing.T) {
	assert.True(t, IsSlug("door-handle"))
	assert.True(t, IsSlug("a1"))
	assert.False(t, IsSlug(""))
	assert.False(t, IsSlug("Door-Handle"))
	assert.False(t, IsSlug("door--handle"))
	assert.False(t, IsSlug("-door"))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "door-handle-set", Slugify("Door Handle  Set"))
	assert.Equal(t, "lever-3", Slugify("  Lever #3! "))
	assert.Equal(t, "", Slugify("!!!"))
}
