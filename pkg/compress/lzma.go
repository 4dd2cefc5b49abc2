package compress

import (
	"bytes"

	"github.com/ulikunitz/xz/lzma"
)

// Lzma trades speed for ratio. No dictionary support.
type Lzma struct{}

func NewLzma() Lzma { return Lzma{} }

func (Lzma) Method() uint8 { return MethodLzma }
func (Lzma) Name() string  { return "lzma" }

func (Lzma) Compress(src []byte, dict []byte) ([]byte, error) {
	if dict != nil {
		return nil, ErrDictionaryUnsupported
	}

	var buf bytes.Buffer
	w, err := lzma.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err = w.Write(src); err != nil {
		return nil, err
	}
	if err = w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (Lzma) Decompress(src []byte, dict []byte) ([]byte, error) {
	if dict != nil {
		return nil, ErrDictionaryUnsupported
	}

	r, err := lzma.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err = buf.ReadFrom(r); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
