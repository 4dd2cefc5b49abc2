package compress

import (
	"bytes"

	"github.com/pierrec/lz4/v4"
)

// LZ4 favors throughput over ratio. No dictionary support.
type LZ4 struct{}

func NewLZ4() LZ4 { return LZ4{} }

func (LZ4) Method() uint8 { return MethodLZ4 }
func (LZ4) Name() string  { return "lz4" }

func (LZ4) Compress(src []byte, dict []byte) ([]byte, error) {
	if dict != nil {
		return nil, ErrDictionaryUnsupported
	}

	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (LZ4) Decompress(src []byte, dict []byte) ([]byte, error) {
	if dict != nil {
		return nil, ErrDictionaryUnsupported
	}

	r := lz4.NewReader(bytes.NewReader(src))

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
