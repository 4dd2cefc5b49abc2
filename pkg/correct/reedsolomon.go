package correct

import (
	"errors"
	"fmt"
	"hash/crc32"
	"log/slog"
	"math/bits"

	"github.com/klauspost/reedsolomon"

	"github.com/i5heu/ouroboros-seal/pkg/buffer"
)

// ErrUnrecoverable is returned when more shards are corrupted than the
// parity can rebuild. The record is lost.
var ErrUnrecoverable = errors.New("correct: data corrupted beyond recovery")

// Corrector protects byte payloads with Reed-Solomon parity and
// recovers them on read.
type Corrector struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Corrector {
	if log == nil {
		log = slog.Default()
	}
	return &Corrector{log: log}
}

func (c *Corrector) Method() uint8 { return MethodReedSolomon }
func (c *Corrector) Name() string  { return "reed-solomon" }

// Protectable reports whether a payload of the given length falls
// inside the write-side protection thresholds. Payloads outside pass
// through Protect unchanged.
func Protectable(dataLen int) bool {
	return dataLen >= MinDataLen && dataLen <= MaxDataLen
}

// recoverable reports whether a stored record is worth parsing a
// trailer out of. The ceiling sits below MaxDataLen by the largest
// trailer, so every record Protect skipped for size also skips here
// instead of being misread as protected.
func recoverable(recordLen int) bool {
	return recordLen >= MinDataLen && recordLen <= MaxDataLen-maxTrailerLen
}

// Protect shards the payload, appends parity shards sized by level, and
// writes the layout trailer. Out-of-threshold payloads are returned
// untouched.
//
// Layout of a protected record:
//
//	[data, zero-padded][parity shards][parameters trailer]
func (c *Corrector) Protect(buf *buffer.Buffer, level Level) (*buffer.Buffer, error) {
	dataLen := buf.Len()
	if !Protectable(dataLen) {
		c.log.Debug("data will not be protected, size outside thresholds", "len", dataLen)
		return buf, nil
	}

	shardSize := shardSizeFor(dataLen)
	dataShards := ceilDiv(dataLen, shardSize)
	parityShards := level.parityShards(dataShards)
	totalShards := dataShards + parityShards

	enc, err := reedsolomon.New(dataShards, parityShards)
	if err != nil {
		return nil, fmt.Errorf("failed to create Reed-Solomon encoder: %w", err)
	}

	// One allocation holds the padded data, the parity block, and the
	// trailer that AppendTo will add.
	blockLen := totalShards * shardSize
	block := make([]byte, blockLen, blockLen+4*(4+totalShards))
	copy(block, buf.Bytes())

	shards := make([][]byte, totalShards)
	for i := range shards {
		shards[i] = block[i*shardSize : (i+1)*shardSize]
	}
	if err := enc.Encode(shards); err != nil {
		return nil, fmt.Errorf("failed to encode parity shards: %w", err)
	}

	checksums := make([]uint32, totalShards)
	for i, shard := range shards {
		checksums[i] = crc32.ChecksumIEEE(shard)
	}

	params, err := NewParameters(shardSize, totalShards, dataShards, dataLen, checksums)
	if err != nil {
		return nil, err
	}

	c.log.Debug("protected payload",
		"len", dataLen,
		"shard_size", shardSize,
		"data_shards", dataShards,
		"parity_shards", parityShards,
		"level", level.String())

	return buf.Replace(params.AppendTo(block)), nil
}

// Recover verifies a protected record and strips the protection.
//
// All shards intact: the payload is returned as a sub-slice of the
// input, no copy made. Corrupted shards: they are rebuilt from parity
// and the result is marked recovered so the caller can re-persist it.
// More corruption than parity covers is a hard error.
func (c *Corrector) Recover(buf *buffer.Buffer) (*buffer.Buffer, error) {
	if !recoverable(buf.Len()) {
		c.log.Debug("skipping error correction, size outside thresholds", "len", buf.Len())
		return buf, nil
	}

	r := buffer.NewTailReader(buf.Bytes())
	params, err := ParseParameters(r)
	if err != nil {
		return nil, err
	}

	block := r.Rest()
	if len(block) != params.TotalShards*params.ShardSize {
		return nil, fmt.Errorf("%w: shard block is %d bytes, layout needs %d",
			ErrInvalidParameters, len(block), params.TotalShards*params.ShardSize)
	}

	corrupted := params.checkShards(block, c.log)
	if len(corrupted) == 0 {
		// Fast path, everything intact. The payload is the head of the
		// buffer we already hold.
		buf.Truncate(params.DataLen)
		return buf, nil
	}

	c.log.Info("attempting to recover corrupted data",
		"corrupted_shards", len(corrupted),
		"parity_shards", params.TotalShards-params.DataShards)

	enc, err := reedsolomon.New(params.DataShards, params.TotalShards-params.DataShards)
	if err != nil {
		return nil, fmt.Errorf("failed to create Reed-Solomon decoder: %w", err)
	}

	shards := params.prepareShards(block, corrupted)
	if err := enc.Reconstruct(shards); err != nil {
		return nil, fmt.Errorf("%w: %d of %d shards corrupted: %v",
			ErrUnrecoverable, len(corrupted), params.TotalShards, err)
	}

	data, err := params.flattenDataShards(shards)
	if err != nil {
		return nil, err
	}
	return buffer.Recovered(data), nil
}

// recommendedShardSize targets 4 to 8 data shards by picking a power of
// two near dataLen/4, clamped to [16, 65536] bytes.
func recommendedShardSize(dataLen int) int {
	if dataLen == 0 {
		return 16
	}
	log2 := bits.Len(uint(dataLen)) - 1
	shardLog2 := max(log2-2, 4)
	return min(1<<shardLog2, 65_536)
}

// shardSizeFor adjusts the recommended size so the shard count lands in
// [minShards, maxShards]. maxShards is the GF(2⁸) field order.
func shardSizeFor(dataLen int) int {
	shardSize := recommendedShardSize(dataLen)

	// Too many shards: grow to the next power of two that keeps the
	// count at or under the field limit.
	minSizeForMax := ceilDiv(dataLen, maxShards)
	if shardSize < minSizeForMax {
		shardSize = nextPow2(minSizeForMax)
	}

	// Too few shards: shrink to the power of two that still yields at
	// least minShards.
	maxSizeForMin := dataLen / minShards
	if shardSize > maxSizeForMin {
		shardSize = prevPow2(maxSizeForMin)
	}

	return shardSize
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

func nextPow2(n int) int {
	if n&(n-1) == 0 {
		return n
	}
	return 1 << bits.Len(uint(n))
}

func prevPow2(n int) int {
	if n&(n-1) == 0 {
		return n
	}
	return 1 << (bits.Len(uint(n)) - 1)
}
