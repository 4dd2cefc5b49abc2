package correct

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"log/slog"

	"github.com/i5heu/ouroboros-seal/pkg/buffer"
)

var (
	// ErrInvalidParameters wraps every shard-layout validation failure
	// when parsing or building a protection trailer.
	ErrInvalidParameters = errors.New("correct: invalid shard parameters")

	// ErrTrailerTruncated is returned when a protected record is too
	// short to contain the trailer it claims.
	ErrTrailerTruncated = errors.New("correct: protection trailer truncated")
)

// Parameters is the shard layout appended after the parity block, read
// back on recovery to rebuild the shard structure.
//
// Trailer layout, appended in this order and parsed from the tail in
// reverse:
//
//	[checksums u32 × N][dataLen u32][dataShards u32][totalShards u32][shardSize u32]
//
// All values little-endian.
type Parameters struct {
	// ShardSize is the fixed size of every shard in bytes. Data is
	// zero-padded up to a shard boundary.
	ShardSize int

	// TotalShards counts data plus parity shards.
	TotalShards int

	// DataShards counts only the shards holding application data.
	DataShards int

	// DataLen is the unpadded payload length, used to strip padding
	// after recovery.
	DataLen int

	// Checksums holds one CRC-32 (IEEE) per shard, data then parity,
	// in shard order.
	Checksums []uint32
}

// NewParameters validates a shard layout. Every reject here is a layout
// that either cannot be encoded or could not be decoded back.
func NewParameters(shardSize, totalShards, dataShards, dataLen int, checksums []uint32) (Parameters, error) {
	switch {
	case shardSize <= 0:
		return Parameters{}, fmt.Errorf("%w: shard size %d", ErrInvalidParameters, shardSize)
	case totalShards < minShards:
		return Parameters{}, fmt.Errorf("%w: %d total shards, need at least %d", ErrInvalidParameters, totalShards, minShards)
	case dataShards == totalShards:
		return Parameters{}, fmt.Errorf("%w: %d data shards fill all %d shards, no parity", ErrInvalidParameters, dataShards, totalShards)
	case dataShards <= 0 || dataShards > totalShards:
		return Parameters{}, fmt.Errorf("%w: %d data shards outside [1, %d]", ErrInvalidParameters, dataShards, totalShards)
	case uint64(dataLen) > uint64(shardSize)*uint64(dataShards):
		return Parameters{}, fmt.Errorf("%w: data length %d exceeds capacity %d (%d shards × %d bytes)",
			ErrInvalidParameters, dataLen, shardSize*dataShards, dataShards, shardSize)
	case len(checksums) != totalShards:
		return Parameters{}, fmt.Errorf("%w: %d checksums for %d shards", ErrInvalidParameters, len(checksums), totalShards)
	}

	return Parameters{
		ShardSize:   shardSize,
		TotalShards: totalShards,
		DataShards:  dataShards,
		DataLen:     dataLen,
		Checksums:   checksums,
	}, nil
}

// ParseParameters reads a trailer from the tail of a protected record.
// Fields come off in reverse of the order AppendTo wrote them.
func ParseParameters(r *buffer.TailReader) (Parameters, error) {
	shardSize, err := r.ReadUint32()
	if err != nil {
		return Parameters{}, fmt.Errorf("%w: shard size: %w", ErrTrailerTruncated, err)
	}
	totalShards, err := r.ReadUint32()
	if err != nil {
		return Parameters{}, fmt.Errorf("%w: total shards: %w", ErrTrailerTruncated, err)
	}
	dataShards, err := r.ReadUint32()
	if err != nil {
		return Parameters{}, fmt.Errorf("%w: data shards: %w", ErrTrailerTruncated, err)
	}
	dataLen, err := r.ReadUint32()
	if err != nil {
		return Parameters{}, fmt.Errorf("%w: data length: %w", ErrTrailerTruncated, err)
	}
	checksums, err := r.ReadUint32Slice(int(totalShards))
	if err != nil {
		return Parameters{}, fmt.Errorf("%w: checksums: %w", ErrTrailerTruncated, err)
	}

	return NewParameters(int(shardSize), int(totalShards), int(dataShards), int(dataLen), checksums)
}

// AppendTo serializes the trailer onto data. The checksums go first so
// the fixed-width fields stay reachable from the tail before the shard
// count is known.
func (p Parameters) AppendTo(data []byte) []byte {
	var word [4]byte
	for _, sum := range p.Checksums {
		binary.LittleEndian.PutUint32(word[:], sum)
		data = append(data, word[:]...)
	}
	for _, v := range []int{p.DataLen, p.DataShards, p.TotalShards, p.ShardSize} {
		binary.LittleEndian.PutUint32(word[:], uint32(v))
		data = append(data, word[:]...)
	}
	return data
}

// TrailerLen is the serialized trailer size in bytes.
func (p Parameters) TrailerLen() int {
	return 4 * (4 + p.TotalShards)
}

// VerifyShards checks every shard in the data+parity block against its
// stored checksum and reports per-shard validity.
func (p Parameters) VerifyShards(block []byte) []bool {
	ok := make([]bool, p.TotalShards)
	for i := range ok {
		shard := block[i*p.ShardSize : (i+1)*p.ShardSize]
		ok[i] = crc32.ChecksumIEEE(shard) == p.Checksums[i]
	}
	return ok
}

// checkShards returns the indices of shards failing their checksum.
func (p Parameters) checkShards(block []byte, log *slog.Logger) []int {
	var corrupted []int
	for i, ok := range p.VerifyShards(block) {
		if !ok {
			log.Error("shard failed CRC-32 check",
				"shard", i,
				"expected", fmt.Sprintf("%#08x", p.Checksums[i]))
			corrupted = append(corrupted, i)
		}
	}
	return corrupted
}

// prepareShards splits the data+parity block into per-shard slices,
// nulling out the corrupted ones so the decoder treats them as lost.
func (p Parameters) prepareShards(block []byte, corrupted []int) [][]byte {
	bad := make(map[int]struct{}, len(corrupted))
	for _, i := range corrupted {
		bad[i] = struct{}{}
	}

	shards := make([][]byte, p.TotalShards)
	for i := range shards {
		if _, lost := bad[i]; lost {
			continue
		}
		// Copied, not aliased: reconstruction writes into shards and
		// the block may be borrowed store memory.
		shard := make([]byte, p.ShardSize)
		copy(shard, block[i*p.ShardSize:(i+1)*p.ShardSize])
		shards[i] = shard
	}
	return shards
}

// flattenDataShards joins the reconstructed data shards back into a
// flat payload, dropping the padding after DataLen.
func (p Parameters) flattenDataShards(shards [][]byte) ([]byte, error) {
	out := make([]byte, 0, p.DataShards*p.ShardSize)
	for i := 0; i < p.DataShards; i++ {
		if shards[i] == nil {
			return nil, fmt.Errorf("correct: data shard %d still missing after reconstruction", i)
		}
		out = append(out, shards[i]...)
	}
	return out[:p.DataLen], nil
}
