// Package keyset implements ordered sets of byte-string primary keys
// and the set algebra the query engine is built on.
//
// The backing container is chosen at build time, exactly one compiled
// in: a B-tree by default, a hash map with -tags keyset_hash, or a
// sorted slice with -tags keyset_vec. Semantics are identical across
// backends; only the performance profile changes.
package keyset

import (
	"encoding/binary"
)

// Readable is the read-only side of a key set: anything that can answer
// membership queries. Both KeySet and Archived satisfy it, so archived
// index entries can sit on the right-hand side of an intersection
// without being deserialized.
type Readable interface {
	Len() int
	IsEmpty() bool
	Contains(key []byte) bool
}

// KeySet is a mutable, ordered set of byte-string keys.
type KeySet struct {
	b backend
}

// New returns an empty key set.
func New() *KeySet {
	return &KeySet{b: newBackend()}
}

// FromKeys builds a set from the given keys. Duplicates collapse.
func FromKeys(keys ...[]byte) *KeySet {
	s := New()
	for _, k := range keys {
		s.Insert(k)
	}
	return s
}

// Insert adds a key, copying it so the set never aliases caller memory.
// Reports whether the key was absent.
func (s *KeySet) Insert(key []byte) bool {
	owned := make([]byte, len(key))
	copy(owned, key)
	return s.b.insert(owned)
}

// Remove deletes a key, reporting whether it was present.
func (s *KeySet) Remove(key []byte) bool {
	return s.b.remove(key)
}

// Contains reports membership.
func (s *KeySet) Contains(key []byte) bool {
	return s.b.contains(key)
}

// Len returns the number of keys.
func (s *KeySet) Len() int { return s.b.size() }

// IsEmpty reports whether the set has no keys.
func (s *KeySet) IsEmpty() bool { return s.b.size() == 0 }

// Keys returns every key in ascending byte order. The returned slices
// alias set-owned memory and must not be mutated.
func (s *KeySet) Keys() [][]byte {
	out := make([][]byte, 0, s.Len())
	s.b.ascend(func(k []byte) bool {
		out = append(out, k)
		return true
	})
	return out
}

// Extend inserts every key.
func (s *KeySet) Extend(keys [][]byte) {
	for _, k := range keys {
		s.Insert(k)
	}
}

// Clone returns an independent copy.
func (s *KeySet) Clone() *KeySet {
	return &KeySet{b: s.b.clone()}
}

// Intersection returns the keys present in both s and other. Iteration
// runs over s, so other only needs membership lookups.
func (s *KeySet) Intersection(other Readable) *KeySet {
	out := New()
	if other.IsEmpty() {
		return out
	}
	s.b.ascend(func(k []byte) bool {
		if other.Contains(k) {
			out.b.insert(k)
		}
		return true
	})
	return out
}

// Difference returns the keys present in s but not in other.
func (s *KeySet) Difference(other Readable) *KeySet {
	out := New()
	s.b.ascend(func(k []byte) bool {
		if !other.Contains(k) {
			out.b.insert(k)
		}
		return true
	})
	return out
}

// Union returns the keys present in either set.
func (s *KeySet) Union(other *KeySet) *KeySet {
	var big, small *KeySet
	if s.Len() >= other.Len() {
		big, small = s, other
	} else {
		big, small = other, s
	}
	out := big.Clone()
	small.b.ascend(func(k []byte) bool {
		out.b.insert(k)
		return true
	})
	return out
}

// SymmetricDifference returns the keys present in exactly one of the
// two sets.
func (s *KeySet) SymmetricDifference(other *KeySet) *KeySet {
	out := New()
	s.b.ascend(func(k []byte) bool {
		if !other.Contains(k) {
			out.b.insert(k)
		}
		return true
	})
	other.b.ascend(func(k []byte) bool {
		if !s.Contains(k) {
			out.b.insert(k)
		}
		return true
	})
	return out
}

// IsSubset reports whether every key of s is in other, stopping at the
// first miss.
func (s *KeySet) IsSubset(other Readable) bool {
	if s.Len() > other.Len() {
		return false
	}
	subset := true
	s.b.ascend(func(k []byte) bool {
		if !other.Contains(k) {
			subset = false
			return false
		}
		return true
	})
	return subset
}

// IsSuperset reports whether every key of other is in s.
func (s *KeySet) IsSuperset(other *KeySet) bool {
	return other.IsSubset(s)
}

// Intersects reports whether the sets share at least one key, stopping
// at the first hit.
func (s *KeySet) Intersects(other Readable) bool {
	if other.IsEmpty() {
		return false
	}
	found := false
	s.b.ascend(func(k []byte) bool {
		if other.Contains(k) {
			found = true
			return false
		}
		return true
	})
	return found
}

// ToBytes serializes the set to its canonical binary form:
//
//	[count u32 LE] then per key, ascending: [len u32 LE][key bytes]
//
// The canonical form is what index entries store and what Archived
// parses without copying.
func (s *KeySet) ToBytes() []byte {
	size := 4
	s.b.ascend(func(k []byte) bool {
		size += 4 + len(k)
		return true
	})

	out := make([]byte, 4, size)
	binary.LittleEndian.PutUint32(out, uint32(s.Len()))

	var word [4]byte
	s.b.ascend(func(k []byte) bool {
		binary.LittleEndian.PutUint32(word[:], uint32(len(k)))
		out = append(out, word[:]...)
		out = append(out, k...)
		return true
	})
	return out
}

// FromBytes deserializes a canonical form into a mutable set.
func FromBytes(data []byte) (*KeySet, error) {
	a, err := ParseArchived(data)
	if err != nil {
		return nil, err
	}
	return a.Upgrade(), nil
}
