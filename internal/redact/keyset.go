package redact

import "sort"

// KeySet is a set of canonical key strings. Membership is case-sensitive
// exact match.
type KeySet map[string]struct{}

// NewKeySet builds a set from the given keys.
func NewKeySet(keys ...string) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Add inserts a key.
func (s KeySet) Add(key string) {
	s[key] = struct{}{}
}

// Has reports membership.
func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// AddAll inserts every key from other.
func (s KeySet) AddAll(other KeySet) {
	for k := range other {
		s[k] = struct{}{}
	}
}

// Sorted returns the keys in lexical order, for stable presentation.
func (s KeySet) Sorted() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
