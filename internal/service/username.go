package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// usernameBase derives a path-safe username from a display name, falling back
// to the local part of the email.
func usernameBase(displayName, email string) string {
	if base := slugify(displayName); base != "" {
		return base
	}
	local, _, _ := strings.Cut(email, "@")
	if base := slugify(local); base != "" {
		return base
	}
	return "cook"
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func slugify(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	lastSep := true
	for _, r := range strings.ToLower(folded) {
		switch {
		case r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			lastSep = false
		case r == '.' || r == '-' || r == '_' || unicode.IsSpace(r):
			if !lastSep {
				b.WriteRune('_')
				lastSep = true
			}
		}
	}

	slug := strings.TrimRight(b.String(), "_")
	if len(slug) > 40 {
		slug = strings.TrimRight(slug[:40], "_")
	}
	return slug
}
