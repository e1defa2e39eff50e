package digest

import (
	"bytes"
	"slices"
)

// Set represents a collection of unique hashes.
type Set map[Hash]struct{}

// NewSet constructs a set holding the specified hashes.
func NewSet(hashes ...Hash) Set {
	s := make(Set, len(hashes))
	for _, h := range hashes {
		s[h] = struct{}{}
	}
	return s
}

// Add inserts the hash into the set.
func (s Set) Add(h Hash) {
	s[h] = struct{}{}
}

// Contains reports whether the hash is in the set.
func (s Set) Contains(h Hash) bool {
	_, exists := s[h]
	return exists
}

// Union adds every hash in other to the set.
func (s Set) Union(other Set) {
	for h := range other {
		s[h] = struct{}{}
	}
}

// Remove deletes every hash in other from the set.
func (s Set) Remove(other Set) {
	for h := range other {
		delete(s, h)
	}
}

// Copy returns an independent copy of the set.
func (s Set) Copy() Set {
	cpy := make(Set, len(s))
	for h := range s {
		cpy[h] = struct{}{}
	}
	return cpy
}

// Equal reports whether both sets hold the same hashes.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}

	for h := range s {
		if _, exists := other[h]; !exists {
			return false
		}
	}

	return true
}

// Sorted returns the hashes in ascending byte order.
func (s Set) Sorted() []Hash {
	hashes := make([]Hash, 0, len(s))
	for h := range s {
		hashes = append(hashes, h)
	}

	slices.SortFunc(hashes, func(a, b Hash) int {
		return bytes.Compare(a[:], b[:])
	})

	return hashes
}
