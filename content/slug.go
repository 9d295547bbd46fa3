package content

import (
	"fmt"
	"strings"
	"unicode"
)

// Slugify lowercases title, keeps ASCII letters and digits, turns runs of
// whitespace and hyphens into a single hyphen and drops everything else.
// The result never starts or ends with a hyphen, and Slugify(Slugify(s)) ==
// Slugify(s).
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	separate := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if separate && b.Len() > 0 {
				b.WriteByte('-')
			}
			separate = false
			b.WriteRune(r)
		case r == '-', unicode.IsSpace(r):
			separate = true
		}
	}
	return b.String()
}

// maxSlugSuffix bounds how many numbered variants are tried on a collision.
const maxSlugSuffix = 5

func slugCandidate(base string, attempt int) string {
	if attempt == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, attempt)
}
