package redact

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Marker is the literal that replaces every redacted value, whatever the
// original value's type or depth.
const Marker = "REDACTED"

// Sanitizer normalizes raw JSON object keys into canonical form using an
// ordered list of pattern rules. The rule list is a priority list: rules are
// tried in order and the first match wins.
type Sanitizer struct {
	rules []*regexp.Regexp
}

// NewSanitizer compiles the ordered key pattern rules. Each pattern is
// matched case-insensitively and anchored to the start of the raw key.
func NewSanitizer(patterns []string) (*Sanitizer, error) {
	rules := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(`(?i)\A(?:` + p + `)`)
		if err != nil {
			return nil, fmt.Errorf("compile key pattern %q: %w", p, err)
		}
		rules = append(rules, re)
	}
	return &Sanitizer{rules: rules}, nil
}

// MustSanitizer is NewSanitizer for statically known pattern lists.
func MustSanitizer(patterns []string) *Sanitizer {
	s, err := NewSanitizer(patterns)
	if err != nil {
		panic(err)
	}
	return s
}

// Sanitize returns the canonical form of a raw object key. If a pattern rule
// matches, the result is the text before the first colon, title-cased. If a
// matched key has no colon the whole key is title-cased. Without a match the
// key is returned unchanged except that at most one trailing colon is
// stripped. Pure function of the raw key; any string is valid input.
func (s *Sanitizer) Sanitize(raw string) string {
	for _, re := range s.rules {
		if re.MatchString(raw) {
			head, _, _ := strings.Cut(raw, ":")
			return titleCase(head)
		}
	}
	return strings.TrimSuffix(raw, ":")
}

// titleCase upper-cases the first letter of each alphabetic run and
// lower-cases the rest, leaving non-letters untouched.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inWord := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if inWord {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			inWord = true
		} else {
			b.WriteRune(r)
			inWord = false
		}
	}
	return b.String()
}

// allDigits reports whether s is non-empty and consists solely of decimal
// digits. Some exports encode arrays as objects keyed by index; such keys
// are not meaningful field names.
func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
