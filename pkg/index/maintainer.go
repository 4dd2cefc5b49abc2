package index

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/i5heu/ouroboros-seal/pkg/interfaces"
	"github.com/i5heu/ouroboros-seal/pkg/keyset"
)

// Maintainer keeps index entries in step with record writes. It runs
// inside the same write transaction as the primary record, so a failed
// index update rolls the record back with it.
type Maintainer struct {
	log *slog.Logger
}

func NewMaintainer(log *slog.Logger) *Maintainer {
	if log == nil {
		log = slog.Default()
	}
	return &Maintainer{log: log}
}

// Add registers rec's primary key under each of its index entries.
// Unique entries that already map to a different primary key fail with
// UniqueCollisionError before anything is written.
func (m *Maintainer) Add(tx interfaces.WriteTx, rec Record) error {
	pk, err := rec.PrimaryKey()
	if err != nil {
		return fmt.Errorf("failed to resolve primary key: %w", err)
	}
	entries, err := rec.Indexes()
	if err != nil {
		return fmt.Errorf("failed to resolve index entries: %w", err)
	}

	table := rec.TableName()
	for _, e := range entries {
		raw, found, err := tx.Get(EntryTable(table), entryKey(e.IndexName, e.SecondaryKey))
		if err != nil {
			return err
		}

		set := keyset.New()
		if found {
			archived, err := keyset.ParseArchived(raw)
			if err != nil {
				return fmt.Errorf("index %s.%s entry for %q: %w", table, e.IndexName, e.SecondaryKey, err)
			}
			if e.Kind == Unique && !archivedHoldsOnly(archived, pk) {
				return &UniqueCollisionError{
					Table:        table,
					Index:        e.IndexName,
					SecondaryKey: e.SecondaryKey,
					Existing:     archived.Key(0),
					Inserting:    pk,
				}
			}
			set = archived.Upgrade()
		}

		if !set.Insert(pk) {
			continue // already indexed
		}
		if err := tx.Insert(EntryTable(table), entryKey(e.IndexName, e.SecondaryKey), set.ToBytes()); err != nil {
			return err
		}
		m.log.Debug("index entry updated",
			"table", table, "index", e.IndexName, "keys", set.Len())
	}
	return nil
}

// Remove drops rec's primary key from each of its index entries. An
// entry whose last key is removed is deleted outright, so lookups see
// a missing entry rather than an empty set.
func (m *Maintainer) Remove(tx interfaces.WriteTx, rec Record) error {
	pk, err := rec.PrimaryKey()
	if err != nil {
		return fmt.Errorf("failed to resolve primary key: %w", err)
	}
	entries, err := rec.Indexes()
	if err != nil {
		return fmt.Errorf("failed to resolve index entries: %w", err)
	}

	table := rec.TableName()
	for _, e := range entries {
		raw, found, err := tx.Get(EntryTable(table), entryKey(e.IndexName, e.SecondaryKey))
		if err != nil {
			return err
		}
		if !found {
			continue
		}

		set, err := keyset.FromBytes(raw)
		if err != nil {
			return fmt.Errorf("index %s.%s entry for %q: %w", table, e.IndexName, e.SecondaryKey, err)
		}
		if !set.Remove(pk) {
			continue
		}

		if set.IsEmpty() {
			if err := tx.Remove(EntryTable(table), entryKey(e.IndexName, e.SecondaryKey)); err != nil {
				return err
			}
			m.log.Debug("index entry deleted", "table", table, "index", e.IndexName)
			continue
		}
		if err := tx.Insert(EntryTable(table), entryKey(e.IndexName, e.SecondaryKey), set.ToBytes()); err != nil {
			return err
		}
	}
	return nil
}

// archivedHoldsOnly reports whether the archived set is exactly {pk},
// which makes a unique re-insert of the same record a no-op instead of
// a collision.
func archivedHoldsOnly(a *keyset.Archived, pk []byte) bool {
	return a.Len() == 1 && bytes.Equal(a.Key(0), pk)
}
