// Package correct provides the Reed-Solomon error-correction stage of
// the storage pipeline. Data is split into power-of-two shards, parity
// shards are appended, and a trailer of per-shard CRC-32 checksums plus
// shard layout is written after the parity block. On read, intact data
// is returned without copying; corrupted shards are rebuilt from parity.
package correct

import "fmt"

// MethodReedSolomon is the only correction method, stored in the layer
// descriptor's 5-bit implementation field.
const MethodReedSolomon uint8 = 0

// Size thresholds for protection. Payloads outside this range pass
// through both Protect and Recover untouched.
const (
	// MinDataLen is the smallest payload worth sharding.
	MinDataLen = 3

	// MaxDataLen caps protected payloads at 1 GiB, safe for GF(2⁸)
	// shard counts. The read-side skip sits maxTrailerLen below it,
	// so an oversized payload Protect passed through untouched is
	// never misread as a protected record.
	MaxDataLen = 1 << 30
)

// maxShards is the GF(2⁸) field order, the hard ceiling on total
// shards.
const maxShards = 256

// maxTrailerLen is the largest trailer Protect can append: dataLen,
// shard counts, shard size, and one checksum per shard, four bytes
// each.
const maxTrailerLen = 4 * (4 + maxShards)

// minShards is the smallest useful split of a payload.
const minShards = 2

// Level selects how many parity shards protect a record, as a function
// of its data shard count.
type Level struct {
	kind  levelKind
	exact int
}

type levelKind uint8

const (
	levelBasic levelKind = iota
	levelStandard
	levelMaximum
	levelExact
)

var (
	// Basic adds a single parity shard regardless of data size.
	Basic = Level{kind: levelBasic}

	// Standard adds one parity shard per four data shards.
	Standard = Level{kind: levelStandard}

	// Maximum adds one parity shard per two data shards.
	Maximum = Level{kind: levelMaximum}
)

// Exact pins the parity shard count to n, ignoring the data size.
func Exact(n int) Level {
	return Level{kind: levelExact, exact: n}
}

func (l Level) String() string {
	switch l.kind {
	case levelStandard:
		return "standard"
	case levelMaximum:
		return "maximum"
	case levelExact:
		return fmt.Sprintf("exact(%d)", l.exact)
	default:
		return "basic"
	}
}

// parityShards returns the parity count for a given number of data
// shards. The scaling levels never drop below one parity shard.
func (l Level) parityShards(dataShards int) int {
	switch l.kind {
	case levelStandard:
		return max(dataShards>>2, 1)
	case levelMaximum:
		return max(dataShards>>1, 1)
	case levelExact:
		return l.exact
	default:
		return 1
	}
}
