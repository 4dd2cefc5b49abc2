// Package interfaces defines the boundary between the processing
// layers and the underlying key-value store.
package interfaces

// Store is a transactional key-value store partitioned into named
// tables. Implementations provide snapshot-isolated reads and
// serialized writes.
type Store interface {
	// View runs fn inside a read-only transaction.
	View(fn func(ReadTx) error) error

	// Update runs fn inside a read-write transaction, committing on
	// nil return and discarding on error.
	Update(fn func(WriteTx) error) error

	Close() error
}

// ReadTx reads from a consistent snapshot.
type ReadTx interface {
	// Get returns the value for key in table. The second return is
	// false when the key does not exist.
	Get(table string, key []byte) ([]byte, bool, error)

	// Range visits every key of table in ascending byte order until fn
	// returns false or an error.
	Range(table string, fn func(key, value []byte) (bool, error)) error
}

// WriteTx extends a read transaction with mutations.
type WriteTx interface {
	ReadTx

	Insert(table string, key, value []byte) error
	Remove(table string, key []byte) error
}
