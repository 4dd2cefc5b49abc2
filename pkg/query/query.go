// Package query evaluates recursive query trees over secondary
// indexes, producing key sets of matching primary keys. Trees compose
// index lookups with set algebra; only the operations that need the
// whole table (negation, custom predicates) touch primary records.
package query

import (
	"errors"
	"fmt"

	"github.com/i5heu/ouroboros-seal/pkg/index"
)

// ErrMissingExclusion is returned under PolicyReturnError when a
// negation references an index entry that does not exist.
var ErrMissingExclusion = errors.New("query: exclusion index entry missing or empty")

// ExclusionPolicy decides what a negation yields when its exclusion
// entry is missing or empty. Logically nothing is excluded, which makes
// the result the whole table; whether that is intended depends on the
// application, so the choice is explicit configuration.
type ExclusionPolicy uint8

const (
	// PolicyReturnEmpty yields no keys. The safe default: a mistyped
	// secondary key returns nothing instead of everything.
	PolicyReturnEmpty ExclusionPolicy = 0

	// PolicyReturnAll yields every primary key in the table, the
	// strict set-logic reading.
	PolicyReturnAll ExclusionPolicy = 1

	// PolicyReturnError surfaces the condition to the caller.
	PolicyReturnError ExclusionPolicy = 2
)

func (p ExclusionPolicy) String() string {
	switch p {
	case PolicyReturnEmpty:
		return "return-empty"
	case PolicyReturnAll:
		return "return-all"
	case PolicyReturnError:
		return "return-error"
	default:
		return fmt.Sprintf("policy(%d)", uint8(p))
	}
}

// Query is a node of a query tree. Implementations are the node types
// in this package; the interface is sealed.
type Query interface {
	// Table names the primary table the node's result keys belong to.
	Table() string

	isQuery()
}

// Lookup resolves one index entry: every primary key carrying the
// secondary key. A missing entry is an empty result.
type Lookup struct {
	TableName    string
	Index        string
	Kind         index.Kind
	SecondaryKey []byte
}

// MultiLookup is the union of lookups over several secondary keys of
// the same index.
type MultiLookup struct {
	TableName     string
	Index         string
	Kind          index.Kind
	SecondaryKeys [][]byte
}

// And narrows Base to the keys that also carry Filter's secondary key.
// The filter set is consulted in archived form, never deserialized. A
// missing filter entry leaves Base unchanged.
type And struct {
	Base   Query
	Filter Lookup
}

// Or widens Base with the keys carrying Other's secondary key. A
// missing entry leaves Base unchanged.
type Or struct {
	Base  Query
	Other Lookup
}

// Xor keeps the keys in exactly one of Base and Other, the symmetric
// difference. A missing entry leaves Base unchanged.
type Xor struct {
	Base  Query
	Other Lookup
}

// Without removes the keys carrying Exclude's secondary key from Base.
// The excluded set is consulted in archived form. A missing entry
// leaves Base unchanged.
type Without struct {
	Base    Query
	Exclude Lookup
}

// Not yields every primary key in the table except those carrying
// Exclude's secondary key. Requires a full primary scan. A missing
// entry falls to the evaluator's ExclusionPolicy.
type Not struct {
	Exclude Lookup
}

// NotIn yields every primary key in the table except those carrying any
// of the secondary keys. An empty combined exclusion falls to the
// evaluator's ExclusionPolicy.
type NotIn struct {
	Exclude MultiLookup
}

// Group wraps a subtree, making composition precedence explicit.
type Group struct {
	Inner Query
}

// Custom yields the primary keys whose raw stored record satisfies the
// predicate. Always a full primary scan; the value passed is the
// record's stored bytes, before any pipeline decoding.
type Custom struct {
	TableName string
	Predicate func(key, value []byte) (bool, error)
}

func (q Lookup) Table() string      { return q.TableName }
func (q MultiLookup) Table() string { return q.TableName }
func (q And) Table() string         { return q.Base.Table() }
func (q Or) Table() string          { return q.Base.Table() }
func (q Xor) Table() string         { return q.Base.Table() }
func (q Without) Table() string     { return q.Base.Table() }
func (q Not) Table() string         { return q.Exclude.TableName }
func (q NotIn) Table() string       { return q.Exclude.TableName }
func (q Group) Table() string       { return q.Inner.Table() }
func (q Custom) Table() string      { return q.TableName }

func (Lookup) isQuery()      {}
func (MultiLookup) isQuery() {}
func (And) isQuery()         {}
func (Or) isQuery()          {}
func (Xor) isQuery()         {}
func (Without) isQuery()     {}
func (Not) isQuery()         {}
func (NotIn) isQuery()       {}
func (Group) isQuery()       {}
func (Custom) isQuery()      {}
