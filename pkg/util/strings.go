package util

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// UCWords lower-cases s and upper-cases the first letter of every word.
// A rune is only case-mapped when the mapping keeps its UTF-8 width, so the
// result always has the same byte length as s.
func UCWords(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inWord := false
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteByte(s[i])
			i++
			inWord = false
			continue
		}

		out := sameWidth(r, unicode.ToLower(r))
		if !inWord {
			out = sameWidth(out, unicode.ToUpper(out))
		}
		b.WriteRune(out)

		inWord = isWordRune(r)
		i += size
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func sameWidth(orig, mapped rune) rune {
	if utf8.RuneLen(mapped) != utf8.RuneLen(orig) {
		return orig
	}
	return mapped
}

// IsSlug reports whether s is a lower-case, hyphen separated slug.
func IsSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// Slugify derives a slug from a display name.
func Slugify(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingDash = false
			continue
		}
		pendingDash = true
	}
	return b.String()
}
