package benchmark

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/axiomhq/hyperloglog"
	"github.com/spaolacci/murmur3"
)

// HashKey maps an integer key to the 64-bit hash fed into a sketch,
// mirroring the hash-then-aggregate pipeline the harness benchmarks.
func HashKey(id int64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(id))
	return murmur3.Sum64(buf[:])
}

// NewSketch returns an empty dense sketch at the given precision.
// Dense from the start so the serialized size is a function of
// precision alone, not of how many keys were inserted.
func NewSketch(precision int) (*hyperloglog.Sketch, error) {
	if precision < 4 || precision > 18 {
		return nil, fmt.Errorf("precision must be in [4,18], got %d", precision)
	}
	return hyperloglog.NewSketch(uint8(precision), false)
}

// BuildSketch builds a fresh sketch over hashed keys.
func BuildSketch(precision int, keys []int64) (*hyperloglog.Sketch, error) {
	sk, err := NewSketch(precision)
	if err != nil {
		return nil, err
	}
	for _, k := range keys {
		sk.InsertHash(HashKey(k))
	}
	return sk, nil
}

// SketchSize returns the serialized byte size of a sketch, the storage
// cost a pipeline would pay to persist it.
func SketchSize(sk *hyperloglog.Sketch) (int, error) {
	data, err := sk.MarshalBinary()
	if err != nil {
		return 0, fmt.Errorf("failed to serialize sketch: %w", err)
	}
	return len(data), nil
}

// UnionEstimate combines serialized daily sketches into one estimate
// without touching the raw data. Returns the estimate and the total
// serialized size of the inputs.
func UnionEstimate(precision int, blobs [][]byte) (uint64, int, error) {
	merged, err := NewSketch(precision)
	if err != nil {
		return 0, 0, err
	}

	totalBytes := 0
	for _, blob := range blobs {
		other := hyperloglog.New()
		if err := other.UnmarshalBinary(blob); err != nil {
			return 0, 0, fmt.Errorf("failed to decode daily sketch: %w", err)
		}
		if err := merged.Merge(other); err != nil {
			return 0, 0, fmt.Errorf("failed to union sketches: %w", err)
		}
		totalBytes += len(blob)
	}
	return merged.Estimate(), totalBytes, nil
}

// StandardError is the theoretical relative standard error of a sketch
// at the given precision: 1.04 / sqrt(2^p).
func StandardError(precision int) float64 {
	m := math.Pow(2, float64(precision))
	return 1.04 / math.Sqrt(m)
}
