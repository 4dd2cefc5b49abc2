package layer

import (
	"encoding/binary"
	"fmt"

	"github.com/i5heu/ouroboros-seal/pkg/buffer"
)

// Descriptor packs one applied layer into a 16-bit word.
//
// Format is 000000DDIIIIILLL:
//
//	LLL    bits 0-2  layer kind (8 kinds max)
//	IIIII  bits 3-7  implementation method (32 per kind max)
//	DD     bits 8-9  direction the layer was configured with
//	000000 bits 10-15 reserved, must be zero
//
// Descriptors are stored little-endian. A nonzero reserved field means
// the word was never a descriptor: the record is corrupt.
type Descriptor uint16

const (
	kindMask        = 0b0000_0000_0000_0111
	methodShift     = 3
	methodMask      = 0b0000_0000_1111_1000
	directionShift  = 8
	directionMask   = 0b0000_0011_0000_0000
	reservedMask    = 0b1111_1100_0000_0000
	descriptorBytes = 2
)

// ErrReservedBits reports a descriptor word with reserved bits set.
type ErrReservedBits struct {
	Word uint16
}

func (e *ErrReservedBits) Error() string {
	return fmt.Sprintf("layer: descriptor %#06x uses reserved bits, record is corrupt", e.Word)
}

// New packs a descriptor from its fields. The method id must fit the
// 5-bit implementation field.
func New(kind Kind, method uint8, dir Direction) (Descriptor, error) {
	if method > 31 {
		return 0, fmt.Errorf("layer: method id %d exceeds 5-bit field", method)
	}
	word := uint16(kind)&kindMask |
		uint16(method)<<methodShift&methodMask |
		uint16(dir)<<directionShift&directionMask
	return Descriptor(word), nil
}

// Parse validates a raw 16-bit word as a descriptor.
func Parse(word uint16) (Descriptor, error) {
	if word&reservedMask != 0 {
		return 0, &ErrReservedBits{Word: word}
	}
	if _, err := KindFrom(uint8(word & kindMask)); err != nil {
		return 0, err
	}
	return Descriptor(word), nil
}

// Kind returns the layer kind recorded in the descriptor.
func (d Descriptor) Kind() Kind { return Kind(uint16(d) & kindMask) }

// Method returns the implementation id recorded in the descriptor.
func (d Descriptor) Method() uint8 { return uint8((uint16(d) & methodMask) >> methodShift) }

// Direction returns the direction the layer was configured with at
// write time.
func (d Descriptor) Direction() Direction {
	return Direction((uint16(d) & directionMask) >> directionShift)
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s/%d (%s)", d.Kind(), d.Method(), d.Direction())
}

// Push appends the descriptor to the tail of the buffer, promoting
// borrowed data to owned.
func Push(buf *buffer.Buffer, d Descriptor) *buffer.Buffer {
	var raw [descriptorBytes]byte
	binary.LittleEndian.PutUint16(raw[:], uint16(d))
	return buf.Append(raw[:]...)
}

// Pop reads and validates the trailing descriptor word and shrinks the
// buffer by two bytes. This is the only way layers discover what was
// done to the data; a short buffer or reserved-bit violation is
// corruption, not a retryable condition.
func Pop(buf *buffer.Buffer) (Descriptor, error) {
	if buf.Len() < descriptorBytes {
		return 0, fmt.Errorf("layer: %w reading descriptor", buffer.ErrEndOfBuffer)
	}
	data := buf.Bytes()
	word := binary.LittleEndian.Uint16(data[len(data)-descriptorBytes:])
	d, err := Parse(word)
	if err != nil {
		return 0, err
	}
	buf.Truncate(buf.Len() - descriptorBytes)
	return d, nil
}
