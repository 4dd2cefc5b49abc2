package buffer_test

import (
	"testing"

	"github.com/i5heu/ouroboros-seal/pkg/buffer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBorrowedRejectsMutation(t *testing.T) {
	b := buffer.Borrowed([]byte{1, 2, 3})

	_, err := b.Mutable()
	assert.ErrorIs(t, err, buffer.ErrBorrowed)

	owned := b.ToOwned()
	data, err := owned.Mutable()
	require.NoError(t, err)
	data[0] = 9

	// the original borrowed bytes must be untouched
	assert.Equal(t, []byte{1, 2, 3}, b.Bytes())
	assert.Equal(t, []byte{9, 2, 3}, owned.Bytes())
}

func TestTruncateBorrowedSubSlices(t *testing.T) {
	backing := []byte{0, 1, 2, 3, 4, 5}
	b := buffer.Borrowed(backing)
	b.Truncate(4)

	assert.Equal(t, []byte{0, 1, 2, 3}, b.Bytes())
	assert.True(t, b.IsBorrowed())

	// truncating past the end is a no-op
	b.Truncate(100)
	assert.Equal(t, 4, b.Len())
}

func TestAppendPromotesToOwned(t *testing.T) {
	b := buffer.Borrowed([]byte{1, 2})
	out := b.Append(3, 4)

	assert.True(t, out.IsOwned())
	assert.Equal(t, []byte{1, 2, 3, 4}, out.Bytes())
	assert.Equal(t, []byte{1, 2}, b.Bytes())
}

func TestRecoveredFlagSurvivesReplace(t *testing.T) {
	b := buffer.Recovered([]byte{1, 2, 3})
	out := b.Replace([]byte{4, 5})

	assert.True(t, out.IsRecovered())
	assert.Equal(t, []byte{4, 5}, out.Bytes())
}

func TestTailReaderReadsInReverse(t *testing.T) {
	// payload "ab", then 0x01020304 LE, then 0xBEEF LE at the tail
	data := []byte{'a', 'b', 0x04, 0x03, 0x02, 0x01, 0xEF, 0xBE}
	r := buffer.NewTailReader(data)

	word, err := r.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), word)

	n, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), n)

	assert.Equal(t, []byte("ab"), r.Rest())

	_, err = r.ReadUint32()
	assert.ErrorIs(t, err, buffer.ErrEndOfBuffer)
}
