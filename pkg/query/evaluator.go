package query

import (
	"fmt"
	"log/slog"

	"github.com/i5heu/ouroboros-seal/pkg/index"
	"github.com/i5heu/ouroboros-seal/pkg/interfaces"
	"github.com/i5heu/ouroboros-seal/pkg/keyset"
)

// Evaluator walks query trees inside one read transaction, so every
// node sees the same snapshot.
type Evaluator struct {
	tx     interfaces.ReadTx
	policy ExclusionPolicy
	log    *slog.Logger
}

func NewEvaluator(tx interfaces.ReadTx, policy ExclusionPolicy, log *slog.Logger) *Evaluator {
	if log == nil {
		log = slog.Default()
	}
	return &Evaluator{tx: tx, policy: policy, log: log}
}

// Evaluate resolves q to the set of matching primary keys.
func (e *Evaluator) Evaluate(q Query) (*keyset.KeySet, error) {
	switch q := q.(type) {
	case Lookup:
		archived, found, err := e.load(q)
		if err != nil {
			return nil, err
		}
		if !found {
			return keyset.New(), nil
		}
		return archived.Upgrade(), nil

	case MultiLookup:
		out := keyset.New()
		for _, sk := range q.SecondaryKeys {
			archived, found, err := e.load(Lookup{TableName: q.TableName, Index: q.Index, Kind: q.Kind, SecondaryKey: sk})
			if err != nil {
				return nil, err
			}
			if !found {
				continue
			}
			for i := 0; i < archived.Len(); i++ {
				out.Insert(archived.Key(i))
			}
		}
		return out, nil

	case And:
		base, err := e.Evaluate(q.Base)
		if err != nil {
			return nil, err
		}
		if base.IsEmpty() {
			return base, nil
		}
		archived, found, err := e.load(q.Filter)
		if err != nil {
			return nil, err
		}
		if !found {
			// A missing filter entry constrains nothing.
			return base, nil
		}
		// The filter stays archived: membership tests run against the
		// stored bytes directly.
		return base.Intersection(archived), nil

	case Or:
		base, err := e.Evaluate(q.Base)
		if err != nil {
			return nil, err
		}
		archived, found, err := e.load(q.Other)
		if err != nil {
			return nil, err
		}
		if !found {
			return base, nil
		}
		return base.Union(archived.Upgrade()), nil

	case Xor:
		base, err := e.Evaluate(q.Base)
		if err != nil {
			return nil, err
		}
		archived, found, err := e.load(q.Other)
		if err != nil {
			return nil, err
		}
		if !found {
			return base, nil
		}
		return base.SymmetricDifference(archived.Upgrade()), nil

	case Without:
		base, err := e.Evaluate(q.Base)
		if err != nil {
			return nil, err
		}
		archived, found, err := e.load(q.Exclude)
		if err != nil {
			return nil, err
		}
		if !found {
			return base, nil
		}
		return base.Difference(archived), nil

	case Not:
		archived, found, err := e.load(q.Exclude)
		if err != nil {
			return nil, err
		}
		if !found || archived.IsEmpty() {
			return e.applyPolicy(q.Exclude.TableName)
		}
		return e.scanPrimary(q.Exclude.TableName, archived)

	case NotIn:
		excluded := keyset.New()
		anyFound := false
		for _, sk := range q.Exclude.SecondaryKeys {
			archived, found, err := e.load(Lookup{
				TableName:    q.Exclude.TableName,
				Index:        q.Exclude.Index,
				Kind:         q.Exclude.Kind,
				SecondaryKey: sk,
			})
			if err != nil {
				return nil, err
			}
			if !found {
				continue
			}
			anyFound = true
			for i := 0; i < archived.Len(); i++ {
				excluded.Insert(archived.Key(i))
			}
		}
		if !anyFound || excluded.IsEmpty() {
			return e.applyPolicy(q.Exclude.TableName)
		}
		return e.scanPrimary(q.Exclude.TableName, excluded)

	case Group:
		return e.Evaluate(q.Inner)

	case Custom:
		out := keyset.New()
		err := e.tx.Range(index.RecordTable(q.TableName), func(key, value []byte) (bool, error) {
			match, err := q.Predicate(key, value)
			if err != nil {
				return false, err
			}
			if match {
				out.Insert(key)
			}
			return true, nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s for custom predicate: %w", q.TableName, err)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("query: unknown node type %T", q)
	}
}

func (e *Evaluator) load(l Lookup) (*keyset.Archived, bool, error) {
	return index.Load(e.tx, l.TableName, l.Index, l.SecondaryKey)
}

// applyPolicy resolves a negation with nothing to exclude.
func (e *Evaluator) applyPolicy(table string) (*keyset.KeySet, error) {
	switch e.policy {
	case PolicyReturnAll:
		return e.scanPrimary(table, nil)
	case PolicyReturnError:
		return nil, fmt.Errorf("%w: table %s", ErrMissingExclusion, table)
	default:
		e.log.Debug("negation with missing exclusion entry, returning empty set", "table", table)
		return keyset.New(), nil
	}
}

// scanPrimary walks the primary table and collects every key not in
// exclude. A nil exclude collects everything.
func (e *Evaluator) scanPrimary(table string, exclude keyset.Readable) (*keyset.KeySet, error) {
	out := keyset.New()
	err := e.tx.Range(index.RecordTable(table), func(key, _ []byte) (bool, error) {
		if exclude == nil || !exclude.Contains(key) {
			out.Insert(key)
		}
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", table, err)
	}
	return out, nil
}
