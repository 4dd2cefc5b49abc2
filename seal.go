// Package seal is an embedded key-value store whose values pass
// through a layered processing pipeline: records are serialized,
// compressed, encrypted, and protected with Reed-Solomon parity on
// write, with each layer recording a descriptor at the record tail.
// Secondary indexes over the stored records feed a composable query
// engine.
package seal

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/i5heu/ouroboros-seal/internal/kvstore"
	"github.com/i5heu/ouroboros-seal/pkg/buffer"
	"github.com/i5heu/ouroboros-seal/pkg/codec"
	"github.com/i5heu/ouroboros-seal/pkg/compress"
	"github.com/i5heu/ouroboros-seal/pkg/correct"
	"github.com/i5heu/ouroboros-seal/pkg/encrypt"
	"github.com/i5heu/ouroboros-seal/pkg/index"
	"github.com/i5heu/ouroboros-seal/pkg/interfaces"
	"github.com/i5heu/ouroboros-seal/pkg/keyring"
	"github.com/i5heu/ouroboros-seal/pkg/keyset"
	"github.com/i5heu/ouroboros-seal/pkg/logging"
	"github.com/i5heu/ouroboros-seal/pkg/pipeline"
	"github.com/i5heu/ouroboros-seal/pkg/query"
)

// Record is what a stored value must provide: a table, a primary key,
// and its secondary index entries.
type Record = index.Record

// Store is the assembled database: badger underneath, the processing
// pipeline on every value, index maintenance on every write.
type Store struct {
	cfg        Config
	kv         interfaces.Store
	pipe       *pipeline.Pipeline
	maintainer *index.Maintainer

	mu       sync.RWMutex
	profiles map[string]pipeline.Profile
}

// Open creates or opens a store at cfg.Path.
func Open(cfg Config) (*Store, error) {
	log := cfg.Logger
	if log == nil {
		log = logging.Logger
	}

	var key keyring.Key
	switch {
	case cfg.KeyHex != "":
		var err error
		key, err = keyring.FromHex(cfg.KeyHex)
		if err != nil {
			return nil, err
		}
	case cfg.Passphrase != "":
		key = keyring.FromPassphrase(cfg.Passphrase, []byte(cfg.Salt))
	default:
		return nil, ErrNoKeyMaterial
	}

	kv, err := kvstore.Open(kvstore.Config{
		Path:          cfg.Path,
		MinimumFreeGB: cfg.MinimumFreeGB,
		Logger:        log,
	})
	if err != nil {
		return nil, err
	}

	serializer, err := codec.NewCBOR()
	if err != nil {
		kv.Close()
		return nil, err
	}

	pipe, err := pipeline.New(pipeline.Config{
		Serializer: serializer,
		Compressor: compress.NewZstd(),
		Encryptor:  encrypt.NewXChaCha20(),
		Corrector:  correct.New(log),
		Key:        key,
		Logger:     log,
	})
	if err != nil {
		kv.Close()
		return nil, err
	}

	return &Store{
		cfg:        cfg,
		kv:         kv,
		pipe:       pipe,
		maintainer: index.NewMaintainer(log),
		profiles:   make(map[string]pipeline.Profile),
	}, nil
}

func (s *Store) Close() error {
	return s.kv.Close()
}

// RegisterType sets the pipeline profile for a table. Tables without a
// registered profile run every stage in both directions. Changing a
// profile does not rewrite existing records; their descriptors still
// say how to read them.
func (s *Store) RegisterType(table string, prof pipeline.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[table] = prof
}

func (s *Store) profile(table string) pipeline.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if prof, ok := s.profiles[table]; ok {
		return prof
	}
	return pipeline.DefaultProfile()
}

// Put encodes rec through the pipeline and writes it with its index
// entries in one transaction. A unique index collision rolls everything
// back.
func (s *Store) Put(rec Record) error {
	pk, err := rec.PrimaryKey()
	if err != nil {
		return fmt.Errorf("failed to resolve primary key: %w", err)
	}

	encoded, err := s.pipe.Encode(rec, s.profile(rec.TableName()))
	if err != nil {
		return fmt.Errorf("failed to encode record for %s: %w", rec.TableName(), err)
	}

	return s.kv.Update(func(tx interfaces.WriteTx) error {
		if err := s.maintainer.Add(tx, rec); err != nil {
			return err
		}
		return tx.Insert(index.RecordTable(rec.TableName()), pk, encoded.Bytes())
	})
}

// Get reads and decodes the record stored under pk into out. The bool
// is false when no record exists. When error correction had to rebuild
// the record and the config allows it, the corrected bytes are written
// back so parity headroom is restored.
func (s *Store) Get(table string, pk []byte, out any) (bool, error) {
	prof := s.profile(table)

	var found, recovered bool
	err := s.kv.View(func(tx interfaces.ReadTx) error {
		raw, ok, err := tx.Get(index.RecordTable(table), pk)
		if err != nil || !ok {
			return err
		}
		found = true

		outcome, err := s.pipe.Decode(buffer.Borrowed(raw), prof, out)
		if err != nil {
			return fmt.Errorf("failed to decode record %s/%q: %w", table, pk, err)
		}
		recovered = outcome.Recovered
		return nil
	})
	if err != nil || !found {
		return found, err
	}

	if recovered && s.cfg.RewriteRecovered {
		if err := s.rewrite(table, pk, out, prof); err != nil {
			// The read itself succeeded; a failed rewrite only means
			// the record stays on reduced parity headroom.
			s.logger().Warn("failed to re-persist recovered record",
				"table", table, "error", err)
		}
	}
	return true, nil
}

// rewrite re-encodes a corrected value and replaces the damaged stored
// record.
func (s *Store) rewrite(table string, pk []byte, value any, prof pipeline.Profile) error {
	encoded, err := s.pipe.Encode(value, prof)
	if err != nil {
		return err
	}
	err = s.kv.Update(func(tx interfaces.WriteTx) error {
		return tx.Insert(index.RecordTable(table), pk, encoded.Bytes())
	})
	if err != nil {
		return err
	}
	s.logger().Info("re-persisted recovered record", "table", table)
	return nil
}

// Delete removes rec and its index entries in one transaction. Missing
// records and entries are no-ops.
func (s *Store) Delete(rec Record) error {
	pk, err := rec.PrimaryKey()
	if err != nil {
		return fmt.Errorf("failed to resolve primary key: %w", err)
	}

	return s.kv.Update(func(tx interfaces.WriteTx) error {
		if err := s.maintainer.Remove(tx, rec); err != nil {
			return err
		}
		return tx.Remove(index.RecordTable(rec.TableName()), pk)
	})
}

// Find evaluates a query tree and returns the matching primary keys.
// The whole tree sees one snapshot.
func (s *Store) Find(q query.Query) (*keyset.KeySet, error) {
	var result *keyset.KeySet
	err := s.kv.View(func(tx interfaces.ReadTx) error {
		var err error
		result, err = query.NewEvaluator(tx, s.cfg.ExclusionPolicy, s.logger()).Evaluate(q)
		return err
	})
	return result, err
}

// FindRecords evaluates q and visits every matching record in primary
// key order. The callback receives the primary key and a decode
// function to materialize the record into a value of the caller's
// choosing; records it does not care about are never decoded.
func (s *Store) FindRecords(q query.Query, fn func(pk []byte, decode func(out any) error) error) error {
	prof := s.profile(q.Table())

	return s.kv.View(func(tx interfaces.ReadTx) error {
		result, err := query.NewEvaluator(tx, s.cfg.ExclusionPolicy, s.logger()).Evaluate(q)
		if err != nil {
			return err
		}

		for _, pk := range result.Keys() {
			raw, found, err := tx.Get(index.RecordTable(q.Table()), pk)
			if err != nil {
				return err
			}
			if !found {
				// Index entry outlived its record; skip rather than
				// fail the whole scan.
				s.logger().Warn("index references missing record", "table", q.Table())
				continue
			}
			err = fn(pk, func(out any) error {
				_, err := s.pipe.Decode(buffer.Borrowed(raw), prof, out)
				return err
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) logger() *slog.Logger {
	if s.cfg.Logger != nil {
		return s.cfg.Logger
	}
	return logging.Logger
}
