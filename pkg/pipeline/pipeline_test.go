package pipeline

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i5heu/ouroboros-seal/pkg/buffer"
	"github.com/i5heu/ouroboros-seal/pkg/codec"
	"github.com/i5heu/ouroboros-seal/pkg/compress"
	"github.com/i5heu/ouroboros-seal/pkg/correct"
	"github.com/i5heu/ouroboros-seal/pkg/encrypt"
	"github.com/i5heu/ouroboros-seal/pkg/keyring"
	"github.com/i5heu/ouroboros-seal/pkg/layer"
)

type testRecord struct {
	Name  string
	Count int
	Tags  []string
}

func newCBOR(t *testing.T) *codec.CBOR {
	t.Helper()
	c, err := codec.NewCBOR()
	require.NoError(t, err)
	return c
}

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := New(Config{
		Serializer: newCBOR(t),
		Compressor: compress.NewZstd(),
		Encryptor:  encrypt.NewXChaCha20(),
		Corrector:  correct.New(nil),
		Key:        keyring.FromPassphrase("pipeline test key", nil),
	})
	require.NoError(t, err)
	return p
}

func TestNewRequiresAllBackends(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrMissingBackend)

	_, err = New(Config{
		Serializer: newCBOR(t),
		Compressor: compress.NewZstd(),
		Encryptor:  encrypt.NewXChaCha20(),
	})
	assert.ErrorIs(t, err, ErrMissingBackend)
}

func TestFullRoundTrip(t *testing.T) {
	p := newTestPipeline(t)
	in := testRecord{Name: "sensor-7", Count: 42, Tags: []string{"a", "b"}}

	encoded, err := p.Encode(in, DefaultProfile())
	require.NoError(t, err)

	var out testRecord
	outcome, err := p.Decode(buffer.Borrowed(encoded.Bytes()), DefaultProfile(), &out)
	require.NoError(t, err)

	assert.True(t, outcome.Decoded)
	assert.False(t, outcome.Partial)
	assert.False(t, outcome.Recovered)
	assert.Equal(t, in, out)
}

func TestRawBytesRoundTrip(t *testing.T) {
	p := newTestPipeline(t)
	prof := DefaultProfile()
	prof.Serialize = layer.None

	payload := bytes.Repeat([]byte("raw payload "), 16)
	encoded, err := p.Encode(payload, prof)
	require.NoError(t, err)

	var out []byte
	outcome, err := p.Decode(buffer.Borrowed(encoded.Bytes()), prof, &out)
	require.NoError(t, err)

	assert.False(t, outcome.Decoded)
	assert.Equal(t, payload, out)
	assert.Equal(t, payload, outcome.Raw.Bytes())
}

func TestEncodeRawAcceptsByteSliceShapes(t *testing.T) {
	p := newTestPipeline(t)
	prof := DefaultProfile()
	prof.Serialize = layer.None

	type blob []byte
	payload := []byte("payload behind a pointer or named type")

	for name, value := range map[string]any{
		"pointer":    &payload,
		"named type": blob(payload),
	} {
		t.Run(name, func(t *testing.T) {
			encoded, err := p.Encode(value, prof)
			require.NoError(t, err)

			var out []byte
			_, err = p.Decode(buffer.Borrowed(encoded.Bytes()), prof, &out)
			require.NoError(t, err)
			assert.Equal(t, payload, out)
		})
	}
}

func TestEncodeRawRequiresBytes(t *testing.T) {
	p := newTestPipeline(t)
	prof := DefaultProfile()
	prof.Serialize = layer.None

	_, err := p.Encode(testRecord{Name: "not bytes"}, prof)
	assert.ErrorIs(t, err, ErrBytesExpected)
}

func TestStagesCanBeDisabled(t *testing.T) {
	p := newTestPipeline(t)
	prof := Profile{Serialize: layer.Both} // no compress, encrypt, protect
	in := testRecord{Name: "minimal"}

	encoded, err := p.Encode(in, prof)
	require.NoError(t, err)

	var out testRecord
	outcome, err := p.Decode(buffer.Borrowed(encoded.Bytes()), prof, &out)
	require.NoError(t, err)
	assert.True(t, outcome.Decoded)
	assert.Equal(t, in, out)
}

func TestCompressorMismatch(t *testing.T) {
	writer := newTestPipeline(t)
	encoded, err := writer.Encode(testRecord{Name: "written with zstd"}, DefaultProfile())
	require.NoError(t, err)

	reader, err := New(Config{
		Serializer: newCBOR(t),
		Compressor: compress.NewLZ4(),
		Encryptor:  encrypt.NewXChaCha20(),
		Corrector:  correct.New(nil),
		Key:        keyring.FromPassphrase("pipeline test key", nil),
	})
	require.NoError(t, err)

	var out testRecord
	_, err = reader.Decode(buffer.Borrowed(encoded.Bytes()), DefaultProfile(), &out)

	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, layer.Compression, mismatch.Stage)
	assert.Equal(t, compress.MethodZstd, mismatch.Stored)
	assert.Equal(t, compress.MethodLZ4, mismatch.Configured)
	assert.Contains(t, mismatch.Error(), "zstd")
	assert.Contains(t, mismatch.Error(), "lz4")
}

func TestWriteOnlyStageStopsReversal(t *testing.T) {
	p := newTestPipeline(t)
	prof := Profile{Serialize: layer.Both, Compress: layer.OnWrite}

	encoded, err := p.Encode(testRecord{Name: "stays compressed"}, prof)
	require.NoError(t, err)

	var out testRecord
	outcome, err := p.Decode(buffer.Borrowed(encoded.Bytes()), prof, &out)
	require.NoError(t, err)

	assert.True(t, outcome.Partial)
	assert.False(t, outcome.Decoded)
	assert.Zero(t, out)
	// The partial bytes are the record exactly as stored, compression
	// layer and its descriptor intact.
	assert.Equal(t, encoded.Bytes(), outcome.Raw.Bytes())
}

func TestCorruptionRecoveredEndToEnd(t *testing.T) {
	p := newTestPipeline(t)
	in := testRecord{Name: "survives bit rot", Count: 7, Tags: []string{"x", "y", "z"}}

	encoded, err := p.Encode(in, DefaultProfile())
	require.NoError(t, err)

	stored := append([]byte(nil), encoded.Bytes()...)
	stored[0] ^= 0xff

	var out testRecord
	outcome, err := p.Decode(buffer.Borrowed(stored), DefaultProfile(), &out)
	require.NoError(t, err)

	assert.True(t, outcome.Recovered)
	assert.Equal(t, in, out)
}

func TestDictionaryRoundTrip(t *testing.T) {
	p := newTestPipeline(t)
	prof := DefaultProfile()
	prof.Dictionary = bytes.Repeat([]byte("sensor reading dictionary "), 8)

	in := testRecord{Name: "sensor reading", Count: 1}
	encoded, err := p.Encode(in, prof)
	require.NoError(t, err)

	var out testRecord
	_, err = p.Decode(buffer.Borrowed(encoded.Bytes()), prof, &out)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeGarbageFails(t *testing.T) {
	p := newTestPipeline(t)

	var out testRecord
	_, err := p.Decode(buffer.Borrowed([]byte{0xff, 0xff}), DefaultProfile(), &out)
	assert.Error(t, err)
}
