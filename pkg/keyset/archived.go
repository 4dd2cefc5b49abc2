package keyset

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

// ErrMalformed is wrapped by parse failures on canonical key set bytes.
var ErrMalformed = errors.New("keyset: malformed canonical bytes")

// Archived is a read-only view over a key set in canonical binary form.
// It indexes key positions but never copies key bytes, so membership
// checks run directly against store-owned memory. The underlying data
// must stay alive and unmodified for the lifetime of the view.
type Archived struct {
	data    []byte
	offsets []int
}

// ParseArchived validates canonical bytes and builds the position
// index. The whole input must be consumed; trailing bytes mean
// corruption.
func ParseArchived(data []byte) (*Archived, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: %d bytes, need at least 4", ErrMalformed, len(data))
	}
	count := int(binary.LittleEndian.Uint32(data))

	// Each key costs at least its 4-byte length prefix, so a count the
	// remaining bytes cannot hold is corruption. Checked before the
	// offsets allocation so a corrupt header cannot demand gigabytes.
	if count > (len(data)-4)/4 {
		return nil, fmt.Errorf("%w: count %d exceeds what %d bytes can hold", ErrMalformed, count, len(data))
	}

	offsets := make([]int, 0, count)
	pos := 4
	var prev []byte
	for i := 0; i < count; i++ {
		if pos+4 > len(data) {
			return nil, fmt.Errorf("%w: truncated length prefix at key %d", ErrMalformed, i)
		}
		keyLen := int(binary.LittleEndian.Uint32(data[pos:]))
		if pos+4+keyLen > len(data) {
			return nil, fmt.Errorf("%w: truncated key %d", ErrMalformed, i)
		}
		key := data[pos+4 : pos+4+keyLen]
		if prev != nil && bytes.Compare(prev, key) >= 0 {
			return nil, fmt.Errorf("%w: keys not in strictly ascending order at key %d", ErrMalformed, i)
		}
		offsets = append(offsets, pos)
		prev = key
		pos += 4 + keyLen
	}
	if pos != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(data)-pos)
	}

	return &Archived{data: data, offsets: offsets}, nil
}

// Len returns the number of keys.
func (a *Archived) Len() int { return len(a.offsets) }

// IsEmpty reports whether the view has no keys.
func (a *Archived) IsEmpty() bool { return len(a.offsets) == 0 }

// Key returns the i-th key in ascending order, aliasing the underlying
// data.
func (a *Archived) Key(i int) []byte {
	off := a.offsets[i]
	keyLen := int(binary.LittleEndian.Uint32(a.data[off:]))
	return a.data[off+4 : off+4+keyLen]
}

// Contains reports membership by binary search over the sorted keys.
func (a *Archived) Contains(key []byte) bool {
	i := sort.Search(len(a.offsets), func(i int) bool {
		return bytes.Compare(a.Key(i), key) >= 0
	})
	return i < len(a.offsets) && bytes.Equal(a.Key(i), key)
}

// Upgrade copies the view into a mutable KeySet.
func (a *Archived) Upgrade() *KeySet {
	s := New()
	for i := range a.offsets {
		s.Insert(a.Key(i))
	}
	return s
}
