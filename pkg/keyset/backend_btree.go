//go:build !keyset_hash && !keyset_vec

package keyset

import (
	"bytes"

	"github.com/google/btree"
)

// Default backend: a B-tree keeps keys sorted, so ascending iteration
// and serialization need no extra sort pass. Clone is copy-on-write.

const btreeDegree = 16

type btreeBackend struct {
	tree *btree.BTreeG[[]byte]
}

func newBackend() backend {
	return &btreeBackend{
		tree: btree.NewG(btreeDegree, func(a, b []byte) bool {
			return bytes.Compare(a, b) < 0
		}),
	}
}

func (b *btreeBackend) insert(key []byte) bool {
	_, present := b.tree.ReplaceOrInsert(key)
	return !present
}

func (b *btreeBackend) remove(key []byte) bool {
	_, present := b.tree.Delete(key)
	return present
}

func (b *btreeBackend) contains(key []byte) bool {
	return b.tree.Has(key)
}

func (b *btreeBackend) size() int {
	return b.tree.Len()
}

func (b *btreeBackend) ascend(fn func(key []byte) bool) {
	b.tree.Ascend(func(key []byte) bool {
		return fn(key)
	})
}

func (b *btreeBackend) clone() backend {
	return &btreeBackend{tree: b.tree.Clone()}
}
