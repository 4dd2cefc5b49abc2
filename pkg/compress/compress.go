// Package compress provides the compression stage of the storage
// pipeline. Exactly one compressor backend is configured per store; the
// descriptor stack records which one wrote each record.
package compress

import (
	"errors"
	"fmt"
)

// Method identifiers, stored in the layer descriptor's 5-bit
// implementation field. On-disk values, do not renumber.
const (
	MethodZstd uint8 = 0
	MethodLzma uint8 = 1
	MethodLZ4  uint8 = 2
)

// ErrDictionaryUnsupported is returned by backends that cannot honor a
// compression dictionary when one is supplied. Silently ignoring the
// dictionary would make decompression depend on configuration the data
// does not record.
var ErrDictionaryUnsupported = errors.New("compress: backend does not support dictionaries")

// Compressor shrinks byte payloads and restores them. The optional
// dictionary is a side input: it is not stored with the data, and the
// same dictionary must be supplied on both sides.
type Compressor interface {
	Method() uint8
	Name() string
	Compress(src []byte, dict []byte) ([]byte, error)
	Decompress(src []byte, dict []byte) ([]byte, error)
}

// MethodName resolves a compressor method id for error messages about
// data written by a differently configured store.
func MethodName(method uint8) string {
	switch method {
	case MethodZstd:
		return "zstd"
	case MethodLzma:
		return "lzma"
	case MethodLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("compressor(%d)", method)
	}
}
