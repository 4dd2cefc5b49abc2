// Package layer defines the packed descriptor words that record which
// processing layers were applied to a stored value, in which order, and
// with which implementation.
//
// Each write-side stage appends one 16-bit descriptor to the tail of the
// record. The resulting stack is the authoritative, on-disk record of
// what was done to the data: the read path pops descriptors in reverse
// and uses them to drive layer-by-layer reversal and to diagnose
// mismatches ("attempting to decompress data that was encrypted").
package layer

import "fmt"

// Kind identifies the type of a processing layer.
//
// Write order: Serialization → Compression → Encryption → Correction.
// Read order is the reverse.
type Kind uint8

const (
	Raw           Kind = 0
	Serialization Kind = 1
	Compression   Kind = 2
	Encryption    Kind = 3
	Correction    Kind = 4
)

// KindFrom validates a raw layer-kind value.
func KindFrom(v uint8) (Kind, error) {
	if v > uint8(Correction) {
		return 0, fmt.Errorf("layer: unrecognized layer kind %d", v)
	}
	return Kind(v), nil
}

func (k Kind) String() string {
	switch k {
	case Raw:
		return "raw"
	case Serialization:
		return "serialization"
	case Compression:
		return "compression"
	case Encryption:
		return "encryption"
	case Correction:
		return "correction"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Direction specifies when a layer is applied for a given value type.
//
// This is decided per type at configuration time, not stored per record
// except through the descriptor's direction field, which exists for
// diagnostics. OnWrite without the read bit means "apply on write, hand
// the data back still transformed on read", useful for values that are
// stored compressed and served compressed.
type Direction uint8

const (
	None    Direction = 0
	OnRead  Direction = 1
	OnWrite Direction = 2
	Both    Direction = 3
)

// AppliesOnWrite reports whether the layer runs on the write path.
func (d Direction) AppliesOnWrite() bool { return d == OnWrite || d == Both }

// AppliesOnRead reports whether the layer is reversed on the read path.
func (d Direction) AppliesOnRead() bool { return d == OnRead || d == Both }

func (d Direction) String() string {
	switch d {
	case None:
		return "none"
	case OnRead:
		return "on-read"
	case OnWrite:
		return "on-write"
	case Both:
		return "both"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}
