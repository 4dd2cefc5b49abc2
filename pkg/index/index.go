// Package index maintains secondary indexes over stored records. Each
// index entry maps one secondary key to the canonical key set of
// primary keys carrying it; the query engine resolves lookups against
// those sets.
package index

import (
	"fmt"

	"github.com/i5heu/ouroboros-seal/pkg/interfaces"
	"github.com/i5heu/ouroboros-seal/pkg/keyset"
)

// Kind distinguishes indexes that admit one primary key per secondary
// key from those that admit many.
type Kind uint8

const (
	// Unique indexes reject a second primary key for the same
	// secondary key.
	Unique Kind = 0

	// NonUnique indexes collect every primary key sharing a secondary
	// key.
	NonUnique Kind = 1
)

func (k Kind) String() string {
	switch k {
	case Unique:
		return "unique"
	case NonUnique:
		return "non-unique"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Record is what the index layer needs to know about a stored value.
type Record interface {
	// TableName names the record's table. Must not contain a zero
	// byte.
	TableName() string

	// PrimaryKey identifies the record within its table.
	PrimaryKey() ([]byte, error)

	// Indexes lists the secondary index entries the record currently
	// carries.
	Indexes() ([]Entry, error)
}

// Entry is one secondary index membership of a record.
type Entry struct {
	// IndexName names the index within the record's table. Must not
	// contain a zero byte.
	IndexName string

	Kind Kind

	// SecondaryKey is the indexed value, already in byte form.
	SecondaryKey []byte
}

// UniqueCollisionError reports an insert that would give a unique index
// entry a second primary key. Existing data is never overwritten.
type UniqueCollisionError struct {
	Table        string
	Index        string
	SecondaryKey []byte
	Existing     []byte
	Inserting    []byte
}

func (e *UniqueCollisionError) Error() string {
	return fmt.Sprintf("index: unique index %s.%s already maps %q to primary key %q, cannot add %q",
		e.Table, e.Index, e.SecondaryKey, e.Existing, e.Inserting)
}

// RecordTable names the store table holding the primary records of a
// logical table.
func RecordTable(table string) string {
	return "records." + table
}

// EntryTable names the store table holding the index entries of a
// record table.
func EntryTable(table string) string {
	return "index." + table
}

// entryKey addresses one index entry inside the entry table. The zero
// separator keeps indexes apart as long as index names stay zero-free.
func entryKey(indexName string, secondaryKey []byte) []byte {
	key := make([]byte, 0, len(indexName)+1+len(secondaryKey))
	key = append(key, indexName...)
	key = append(key, 0)
	return append(key, secondaryKey...)
}

// Load resolves one index entry to its archived key set. The bool is
// false when no record carries the secondary key.
func Load(tx interfaces.ReadTx, table, indexName string, secondaryKey []byte) (*keyset.Archived, bool, error) {
	raw, found, err := tx.Get(EntryTable(table), entryKey(indexName, secondaryKey))
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	archived, err := keyset.ParseArchived(raw)
	if err != nil {
		return nil, false, fmt.Errorf("index %s.%s entry for %q: %w", table, indexName, secondaryKey, err)
	}
	return archived, true, nil
}
