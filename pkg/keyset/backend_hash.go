//go:build keyset_hash

package keyset

import "sort"

// Hash backend: constant-time membership, at the cost of sorting when
// ascending order is needed.

type hashBackend struct {
	m map[string][]byte
}

func newBackend() backend {
	return &hashBackend{m: make(map[string][]byte)}
}

func (b *hashBackend) insert(key []byte) bool {
	s := string(key)
	if _, ok := b.m[s]; ok {
		return false
	}
	b.m[s] = key
	return true
}

func (b *hashBackend) remove(key []byte) bool {
	s := string(key)
	if _, ok := b.m[s]; !ok {
		return false
	}
	delete(b.m, s)
	return true
}

func (b *hashBackend) contains(key []byte) bool {
	_, ok := b.m[string(key)]
	return ok
}

func (b *hashBackend) size() int {
	return len(b.m)
}

func (b *hashBackend) ascend(fn func(key []byte) bool) {
	sorted := make([]string, 0, len(b.m))
	for s := range b.m {
		sorted = append(sorted, s)
	}
	sort.Strings(sorted)
	for _, s := range sorted {
		if !fn(b.m[s]) {
			return
		}
	}
}

func (b *hashBackend) clone() backend {
	m := make(map[string][]byte, len(b.m))
	for s, k := range b.m {
		m[s] = k
	}
	return &hashBackend{m: m}
}
