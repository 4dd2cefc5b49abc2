package keyset

import (
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keys(ss ...string) [][]byte {
	out := make([][]byte, len(ss))
	for i, s := range ss {
		out[i] = []byte(s)
	}
	return out
}

func set(ss ...string) *KeySet {
	return FromKeys(keys(ss...)...)
}

func TestInsertRemoveContains(t *testing.T) {
	s := New()

	assert.True(t, s.IsEmpty())
	assert.True(t, s.Insert([]byte("a")))
	assert.False(t, s.Insert([]byte("a")))
	assert.True(t, s.Insert([]byte("b")))

	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains([]byte("a")))
	assert.False(t, s.Contains([]byte("c")))

	assert.True(t, s.Remove([]byte("a")))
	assert.False(t, s.Remove([]byte("a")))
	assert.Equal(t, 1, s.Len())
}

func TestInsertCopiesKey(t *testing.T) {
	s := New()
	key := []byte("mutate me")
	s.Insert(key)
	key[0] = 'X'

	assert.True(t, s.Contains([]byte("mutate me")))
	assert.False(t, s.Contains(key))
}

func TestKeysAscending(t *testing.T) {
	s := set("pear", "apple", "fig", "banana")
	assert.Equal(t, keys("apple", "banana", "fig", "pear"), s.Keys())
}

func TestSetAlgebra(t *testing.T) {
	a := set("1", "2", "3")
	b := set("2", "3", "4")

	assert.Equal(t, keys("2", "3"), a.Intersection(b).Keys())
	assert.Equal(t, keys("1"), a.Difference(b).Keys())
	assert.Equal(t, keys("1", "2", "3", "4"), a.Union(b).Keys())
	assert.Equal(t, keys("1", "4"), a.SymmetricDifference(b).Keys())

	// Operands are untouched.
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, 3, b.Len())
}

func TestAlgebraLaws(t *testing.T) {
	a := set("w", "x", "y")
	b := set("x", "y", "z")
	empty := New()

	// Identity and annihilation with the empty set.
	assert.Equal(t, a.Keys(), a.Union(empty).Keys())
	assert.True(t, a.Intersection(empty).IsEmpty())
	assert.Equal(t, a.Keys(), a.Difference(empty).Keys())
	assert.Equal(t, a.Keys(), a.SymmetricDifference(empty).Keys())

	// Commutativity.
	assert.Equal(t, a.Union(b).Keys(), b.Union(a).Keys())
	assert.Equal(t, a.Intersection(b).Keys(), b.Intersection(a).Keys())
	assert.Equal(t, a.SymmetricDifference(b).Keys(), b.SymmetricDifference(a).Keys())

	// A △ B = (A ∪ B) − (A ∩ B).
	assert.Equal(t,
		a.Union(b).Difference(a.Intersection(b)).Keys(),
		a.SymmetricDifference(b).Keys())

	// A △ A = ∅.
	assert.True(t, a.SymmetricDifference(a.Clone()).IsEmpty())
}

func TestChainedAlgebra(t *testing.T) {
	a := set("1", "2", "3")
	b := set("3", "4")
	c := set("2")

	got := a.Intersection(b).Union(c).Difference(b)
	assert.Equal(t, keys("2"), got.Keys())
}

func TestSubsetSupersetIntersects(t *testing.T) {
	a := set("1", "2")
	b := set("1", "2", "3")
	c := set("4")

	assert.True(t, a.IsSubset(b))
	assert.False(t, b.IsSubset(a))
	assert.True(t, b.IsSuperset(a))
	assert.True(t, a.IsSubset(a.Clone()))

	assert.True(t, a.Intersects(b))
	assert.False(t, a.Intersects(c))
	assert.False(t, a.Intersects(New()))
}

func TestCloneIsIndependent(t *testing.T) {
	a := set("1", "2")
	b := a.Clone()
	b.Insert([]byte("3"))
	b.Remove([]byte("1"))

	assert.Equal(t, keys("1", "2"), a.Keys())
	assert.Equal(t, keys("2", "3"), b.Keys())
}

func TestCanonicalBytesRoundTrip(t *testing.T) {
	s := set("banana", "apple", "cherry")

	data := s.ToBytes()
	restored, err := FromBytes(data)
	require.NoError(t, err)

	assert.Equal(t, s.Keys(), restored.Keys())
}

func TestCanonicalBytesLayout(t *testing.T) {
	s := set("b", "a")
	data := s.ToBytes()

	// [count=2][len=1]["a"][len=1]["b"], all u32 little-endian.
	require.Len(t, data, 4+5+5)
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(data[4:]))
	assert.Equal(t, byte('a'), data[8])
	assert.Equal(t, byte('b'), data[13])
}

func TestEmptySetBytes(t *testing.T) {
	data := New().ToBytes()
	require.Len(t, data, 4)

	restored, err := FromBytes(data)
	require.NoError(t, err)
	assert.True(t, restored.IsEmpty())
}

func TestArchivedZeroCopyView(t *testing.T) {
	s := set("alpha", "beta", "gamma")
	data := s.ToBytes()

	a, err := ParseArchived(data)
	require.NoError(t, err)

	assert.Equal(t, 3, a.Len())
	assert.True(t, a.Contains([]byte("beta")))
	assert.False(t, a.Contains([]byte("delta")))
	assert.Equal(t, []byte("alpha"), a.Key(0))

	// Archived is a valid intersection right-hand side.
	assert.Equal(t, keys("beta"), set("beta", "delta").Intersection(a).Keys())

	up := a.Upgrade()
	assert.Equal(t, s.Keys(), up.Keys())
}

func TestParseArchivedRejectsMalformed(t *testing.T) {
	cases := map[string][]byte{
		"too short":       {1, 0},
		"oversized count": {0x00, 0xCA, 0x9A, 0x3B}, // one billion keys in 4 bytes
		"truncated len":   {1, 0, 0, 0, 5, 0},
		"truncated key":   {1, 0, 0, 0, 5, 0, 0, 0, 'a', 'b'},
		"trailing bytes":  append(set("a").ToBytes(), 0xff),
		"unsorted": func() []byte {
			data := []byte{2, 0, 0, 0}
			for _, k := range []string{"b", "a"} {
				data = append(data, 1, 0, 0, 0)
				data = append(data, k...)
			}
			return data
		}(),
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseArchived(data)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestLargeSetRoundTrip(t *testing.T) {
	s := New()
	for i := 0; i < 1000; i++ {
		s.Insert([]byte(fmt.Sprintf("key-%06d", i)))
	}

	restored, err := FromBytes(s.ToBytes())
	require.NoError(t, err)
	assert.Equal(t, 1000, restored.Len())
	assert.True(t, restored.Contains([]byte("key-000500")))
}
