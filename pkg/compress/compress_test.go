package compress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends() []Compressor {
	return []Compressor{NewZstd(), NewLzma(), NewLZ4()}
}

func TestRoundTripAllBackends(t *testing.T) {
	payload := bytes.Repeat([]byte("compressible payload "), 64)

	for _, c := range backends() {
		t.Run(c.Name(), func(t *testing.T) {
			compressed, err := c.Compress(payload, nil)
			require.NoError(t, err)
			require.NotEmpty(t, compressed)
			assert.Less(t, len(compressed), len(payload))

			restored, err := c.Decompress(compressed, nil)
			require.NoError(t, err)
			assert.Equal(t, payload, restored)
		})
	}
}

func TestRoundTripEmptyInput(t *testing.T) {
	for _, c := range backends() {
		t.Run(c.Name(), func(t *testing.T) {
			compressed, err := c.Compress([]byte{}, nil)
			require.NoError(t, err)

			restored, err := c.Decompress(compressed, nil)
			require.NoError(t, err)
			assert.Empty(t, restored)
		})
	}
}

func TestZstdDictionary(t *testing.T) {
	dict := bytes.Repeat([]byte("shared sample vocabulary for short records "), 8)
	payload := []byte("shared sample vocabulary for short records entry 42")

	z := NewZstd()
	compressed, err := z.Compress(payload, dict)
	require.NoError(t, err)

	restored, err := z.Decompress(compressed, dict)
	require.NoError(t, err)
	assert.Equal(t, payload, restored)

	// The shared history pays off: the same payload without the
	// dictionary compresses worse.
	plain, err := z.Compress(payload, nil)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(plain))
}

func TestDictionaryRejectedByLzmaAndLZ4(t *testing.T) {
	dict := []byte("dictionary")

	for _, c := range []Compressor{NewLzma(), NewLZ4()} {
		t.Run(c.Name(), func(t *testing.T) {
			_, err := c.Compress([]byte("data"), dict)
			assert.ErrorIs(t, err, ErrDictionaryUnsupported)

			_, err = c.Decompress([]byte("data"), dict)
			assert.ErrorIs(t, err, ErrDictionaryUnsupported)
		})
	}
}

func TestDecompressGarbageFails(t *testing.T) {
	garbage := []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01, 0x02, 0x03}

	for _, c := range backends() {
		t.Run(c.Name(), func(t *testing.T) {
			_, err := c.Decompress(garbage, nil)
			assert.Error(t, err)
		})
	}
}

func TestMethodName(t *testing.T) {
	assert.Equal(t, "zstd", MethodName(MethodZstd))
	assert.Equal(t, "lzma", MethodName(MethodLzma))
	assert.Equal(t, "lz4", MethodName(MethodLZ4))
	assert.Equal(t, "compressor(9)", MethodName(9))
}
