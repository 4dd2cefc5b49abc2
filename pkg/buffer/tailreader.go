package buffer

import (
	"encoding/binary"
	"fmt"
)

// ErrEndOfBuffer is wrapped by tail reads that run past the start of the
// data. It always indicates corruption, never a condition to retry.
var ErrEndOfBuffer = fmt.Errorf("buffer: not enough trailing bytes")

// TailReader reads right-to-left from a byte slice. Layer parameters and
// descriptors are appended at the tail of a record, so they must be
// parsed from the end, in reverse of the order they were written.
type TailReader struct {
	data []byte
	pos  int
}

// NewTailReader positions a reader at the end of data, ready to read
// backwards.
func NewTailReader(data []byte) *TailReader {
	return &TailReader{data: data, pos: len(data)}
}

// ReadBytes consumes n bytes from the tail and returns them. The
// returned slice aliases the underlying data.
func (r *TailReader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.pos < n {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrEndOfBuffer, n, r.pos)
	}
	r.pos -= n
	return r.data[r.pos : r.pos+n], nil
}

// ReadUint32 consumes a little-endian uint32 from the tail.
func (r *TailReader) ReadUint32() (uint32, error) {
	raw, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(raw), nil
}

// ReadUint16 consumes a little-endian uint16 from the tail.
func (r *TailReader) ReadUint16() (uint16, error) {
	raw, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(raw), nil
}

// ReadUint32Slice consumes n little-endian uint32 values stored as one
// contiguous block at the tail. The block is read as a unit, so the
// values come back in the order they were written.
func (r *TailReader) ReadUint32Slice(n int) ([]uint32, error) {
	raw, err := r.ReadBytes(n * 4)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}
	return out, nil
}

// Rest returns the bytes that have not been consumed, trimming off the
// parsed tail.
func (r *TailReader) Rest() []byte { return r.data[:r.pos] }

// Remaining returns how many unread bytes are left.
func (r *TailReader) Remaining() int { return r.pos }
