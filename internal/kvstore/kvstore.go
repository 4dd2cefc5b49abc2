// Package kvstore implements the store boundary on badger. Tables are
// mapped onto the flat badger keyspace by prefixing every key with the
// table name and a zero separator.
package kvstore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/i5heu/ouroboros-seal/pkg/interfaces"
)

// ErrLowDiskSpace is returned by Open when the volume holding the store
// has less free space than configured. Opening anyway risks a wedged
// badger value log.
var ErrLowDiskSpace = errors.New("kvstore: not enough free disk space")

// Config for opening a store.
type Config struct {
	// Path is the directory badger stores its files in. Created if
	// missing.
	Path string

	// MinimumFreeGB refuses to open when the volume has less free
	// space, in gigabytes. Zero disables the check.
	MinimumFreeGB int

	Logger *slog.Logger
}

// Store is the badger-backed implementation of interfaces.Store.
type Store struct {
	db  *badger.DB
	log *slog.Logger
}

var _ interfaces.Store = (*Store)(nil)

// Open creates or opens a store at cfg.Path.
func Open(cfg Config) (*Store, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	if err := os.MkdirAll(cfg.Path, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	if cfg.MinimumFreeGB > 0 {
		if err := checkFreeSpace(cfg.Path, cfg.MinimumFreeGB, log); err != nil {
			return nil, err
		}
	}

	opts := badger.DefaultOptions(cfg.Path)
	opts.Logger = nil
	opts.ValueLogFileSize = 1024 * 1024 * 100
	opts.SyncWrites = false

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %s: %w", cfg.Path, err)
	}

	log.Info("opened key-value store", "path", cfg.Path)
	return &Store{db: db, log: log}, nil
}

func (s *Store) View(fn func(interfaces.ReadTx) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		return fn(&tx{txn: txn})
	})
}

func (s *Store) Update(fn func(interfaces.WriteTx) error) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return fn(&tx{txn: txn})
	})
}

func (s *Store) Close() error {
	s.log.Info("closing key-value store")
	return s.db.Close()
}

// tableKey joins a table name and key into the flat badger keyspace.
// The zero separator keeps tables from shadowing each other as long as
// table names contain no zero byte.
func tableKey(table string, key []byte) []byte {
	full := make([]byte, 0, len(table)+1+len(key))
	full = append(full, table...)
	full = append(full, 0)
	return append(full, key...)
}

type tx struct {
	txn *badger.Txn
}

func (t *tx) Get(table string, key []byte) ([]byte, bool, error) {
	item, err := t.txn.Get(tableKey(table, key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s key: %w", table, err)
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to copy %s value: %w", table, err)
	}
	return value, true, nil
}

func (t *tx) Range(table string, fn func(key, value []byte) (bool, error)) error {
	prefix := tableKey(table, nil)

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := t.txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		key := item.KeyCopy(nil)[len(prefix):]
		value, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("failed to copy %s value: %w", table, err)
		}
		cont, err := fn(key, value)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

func (t *tx) Insert(table string, key, value []byte) error {
	return t.txn.Set(tableKey(table, key), value)
}

func (t *tx) Remove(table string, key []byte) error {
	return t.txn.Delete(tableKey(table, key))
}
