package benchmark

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: unioning per-day sketches over any partition of a key set
// estimates the same cardinality as a direct sketch over the whole
// set, within the sketch's error bound.
func TestProperty_UnionMatchesDirectSketch(t *testing.T) {
	const precision = 12
	bound := 5 * StandardError(precision) * 100

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 25
	properties := gopter.NewProperties(parameters)

	properties.Property("partitioned union agrees with direct sketch", prop.ForAll(
		func(seed int64, days int, distinct int64) bool {
			r := NewRand(seed)
			keys, err := UniformKeys(r, int(distinct)*5, distinct)
			if err != nil {
				return false
			}
			exact := distinctCount(keys)

			buckets := partitionByDay(keys, days)
			blobs := make([][]byte, 0, days)
			for _, bucket := range buckets {
				sk, err := BuildSketch(precision, bucket)
				if err != nil {
					return false
				}
				blob, err := sk.MarshalBinary()
				if err != nil {
					return false
				}
				blobs = append(blobs, blob)
			}

			estimate, _, err := UnionEstimate(precision, blobs)
			if err != nil {
				return false
			}

			relErr, err := RelativeErrorPct(int64(estimate), exact)
			if err != nil {
				return false
			}
			return relErr < bound
		},
		gen.Int64Range(1, 1<<30),
		gen.IntRange(1, 14),
		gen.Int64Range(500, 5000),
	))

	properties.TestingRun(t)
}
