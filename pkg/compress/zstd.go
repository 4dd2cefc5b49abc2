package compress

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Zstd compresses with Zstandard. This is the default backend and the
// only one with dictionary support. Dictionaries are raw content used
// as shared history, not trained dictionaries with a magic header.
type Zstd struct{}

func NewZstd() Zstd { return Zstd{} }

func (Zstd) Method() uint8 { return MethodZstd }
func (Zstd) Name() string  { return "zstd" }

func (Zstd) Compress(src []byte, dict []byte) ([]byte, error) {
	opts := []zstd.EOption{zstd.WithEncoderConcurrency(1)}
	if dict != nil {
		opts = append(opts, zstd.WithEncoderDictRaw(0, dict))
	}
	enc, err := zstd.NewWriter(nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %w", err)
	}
	defer enc.Close()

	return enc.EncodeAll(src, nil), nil
}

func (Zstd) Decompress(src []byte, dict []byte) ([]byte, error) {
	opts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
	if dict != nil {
		opts = append(opts, zstd.WithDecoderDictRaw(0, dict))
	}
	dec, err := zstd.NewReader(nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer dec.Close()

	out, err := dec.DecodeAll(src, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress zstd data: %w", err)
	}
	return out, nil
}
