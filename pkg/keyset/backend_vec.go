//go:build keyset_vec

package keyset

import (
	"bytes"
	"sort"
)

// Vec backend: a sorted slice. Smallest footprint and fastest
// iteration, with O(n) inserts. Suited to sets built once and read
// many times.

type vecBackend struct {
	keys [][]byte
}

func newBackend() backend {
	return &vecBackend{}
}

// search returns the insertion point for key and whether it is present.
func (b *vecBackend) search(key []byte) (int, bool) {
	i := sort.Search(len(b.keys), func(i int) bool {
		return bytes.Compare(b.keys[i], key) >= 0
	})
	return i, i < len(b.keys) && bytes.Equal(b.keys[i], key)
}

func (b *vecBackend) insert(key []byte) bool {
	i, present := b.search(key)
	if present {
		return false
	}
	b.keys = append(b.keys, nil)
	copy(b.keys[i+1:], b.keys[i:])
	b.keys[i] = key
	return true
}

func (b *vecBackend) remove(key []byte) bool {
	i, present := b.search(key)
	if !present {
		return false
	}
	b.keys = append(b.keys[:i], b.keys[i+1:]...)
	return true
}

func (b *vecBackend) contains(key []byte) bool {
	_, present := b.search(key)
	return present
}

func (b *vecBackend) size() int {
	return len(b.keys)
}

func (b *vecBackend) ascend(fn func(key []byte) bool) {
	for _, k := range b.keys {
		if !fn(k) {
			return
		}
	}
}

func (b *vecBackend) clone() backend {
	keys := make([][]byte, len(b.keys))
	copy(keys, b.keys)
	return &vecBackend{keys: keys}
}
