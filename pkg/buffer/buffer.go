// Package buffer provides the clone-on-write byte container that every
// processing layer reads from and writes to.
//
// A Buffer either borrows bytes owned by someone else (the host
// application, or a value slice handed out by the key-value store) or
// owns its bytes outright. Layers that can work without reallocating
// (truncation, tail parsing, the error-correction fast path) operate on
// the borrowed form; anything that must mutate promotes to owned first.
package buffer

import "errors"

// ErrBorrowed is returned when a mutation is attempted on borrowed bytes
// without an explicit copy-on-write promotion.
var ErrBorrowed = errors.New("buffer: data is borrowed, promote with ToOwned before mutating")

// Buffer is a byte container that is either borrowed or owned, carrying
// processing metadata alongside the data.
type Buffer struct {
	data      []byte
	owned     bool
	recovered bool
}

// Borrowed wraps bytes owned elsewhere. The Buffer will never mutate
// them; operations that need mutation must promote via ToOwned.
func Borrowed(data []byte) *Buffer {
	return &Buffer{data: data}
}

// Owned wraps bytes that the Buffer may mutate and grow in place.
func Owned(data []byte) *Buffer {
	return &Buffer{data: data, owned: true}
}

// Recovered wraps owned bytes that were rebuilt by error correction. The
// flag survives the remaining read stages so the caller can decide to
// re-persist the corrected record.
func Recovered(data []byte) *Buffer {
	return &Buffer{data: data, owned: true, recovered: true}
}

// Bytes returns the current data. The slice must not be mutated unless
// the buffer is owned.
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the number of bytes in the buffer.
func (b *Buffer) Len() int { return len(b.data) }

// IsEmpty reports whether the buffer holds no bytes.
func (b *Buffer) IsEmpty() bool { return len(b.data) == 0 }

// IsOwned reports whether the buffer owns its bytes.
func (b *Buffer) IsOwned() bool { return b.owned }

// IsBorrowed reports whether the buffer borrows its bytes.
func (b *Buffer) IsBorrowed() bool { return !b.owned }

// IsRecovered reports whether the bytes were rebuilt by error
// correction on the read path.
func (b *Buffer) IsRecovered() bool { return b.recovered }

// MarkRecovered records that the current bytes are the product of an
// error-correction reconstruction.
func (b *Buffer) MarkRecovered() { b.recovered = true }

// Mutable returns the underlying slice for in-place modification. It
// fails on borrowed data; callers must promote with ToOwned first.
func (b *Buffer) Mutable() ([]byte, error) {
	if !b.owned {
		return nil, ErrBorrowed
	}
	return b.data, nil
}

// ToOwned promotes borrowed bytes into an owned copy. Owned buffers are
// returned unchanged.
func (b *Buffer) ToOwned() *Buffer {
	if b.owned {
		return b
	}
	data := make([]byte, len(b.data))
	copy(data, b.data)
	return &Buffer{data: data, owned: true, recovered: b.recovered}
}

// Truncate shortens the buffer to n bytes. Borrowed data is sub-sliced
// without allocating; owned data is truncated in place. Truncating past
// the current length is a no-op.
func (b *Buffer) Truncate(n int) {
	if n < len(b.data) {
		b.data = b.data[:n]
	}
}

// Append extends the buffer with extra bytes, promoting borrowed data to
// owned first. The returned buffer is always owned.
func (b *Buffer) Append(extra ...byte) *Buffer {
	out := b.ToOwned()
	out.data = append(out.data, extra...)
	return out
}

// Replace swaps the buffer's contents for freshly produced bytes,
// preserving the recovered flag. Used by layers that transform into a
// new allocation (compression, encryption).
func (b *Buffer) Replace(data []byte) *Buffer {
	return &Buffer{data: data, owned: true, recovered: b.recovered}
}
