// Package slug turns arbitrary text into URL path segments.
//
// Three strategies exist. On produces lowercase ASCII slugs with accents
// folded away, so "École" and "ecole" collide. Safe only strips characters
// that are invalid in file names or Markdown links, keeping the text byte
// for byte otherwise. Off leaves the text untouched.
package slug

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type Strategy string

const (
	On   Strategy = "on"
	Safe Strategy = "safe"
	Off  Strategy = "off"
)

func (s Strategy) Valid() bool {
	switch s {
	case On, Safe, Off:
		return true
	}
	return false
}

// UnmarshalText accepts the strategy names case-insensitively; an empty value means On.
func (s *Strategy) UnmarshalText(b []byte) error {
	v := Strategy(strings.ToLower(strings.TrimSpace(string(b))))
	if v == "" {
		v = On
	}
	if !v.Valid() {
		return fmt.Errorf("unknown slugify strategy %q (want on, safe or off)", string(b))
	}
	*s = v
	return nil
}

// Paths slugifies s according to strategy.
func Paths(s string, strategy Strategy) string {
	switch strategy {
	case Safe:
		return QuasiSlugify(s)
	case Off:
		return s
	default:
		return Slugify(s)
	}
}

// Slugify returns a lowercase slug made of letters, digits and single dashes.
// Latin accents are removed before the slug is built.
func Slugify(s string) string {
	s = strings.TrimSpace(fold(s))
	if s == "" {
		return ""
	}
	out := make([]rune, 0, len(s))
	lastDash := false

	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]

		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			out = append(out, unicode.ToLower(r))
			lastDash = false
		default:
			if !lastDash && len(out) > 0 {
				out = append(out, '-')
				lastDash = true
			}
		}
	}
	for len(out) > 0 && out[len(out)-1] == '-' {
		out = out[:len(out)-1]
	}
	return string(out)
}

const forbidden = "<>:/|?*#()[] \n\"\\\r\t"

// QuasiSlugify strips characters forbidden in NTFS file names, whitespace and
// the brackets Markdown links cannot hold. Trailing dots and spaces go first.
func QuasiSlugify(s string) string {
	s = strings.TrimRight(s, " .")
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(forbidden, r) {
			return -1
		}
		return r
	}, s)
}

func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
