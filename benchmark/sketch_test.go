package benchmark

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSketchRejectsBadPrecision(t *testing.T) {
	_, err := NewSketch(3)
	assert.Error(t, err)

	_, err = NewSketch(19)
	assert.Error(t, err)

	_, err = NewSketch(14)
	assert.NoError(t, err)
}

func TestHashKeyIsDeterministic(t *testing.T) {
	assert.Equal(t, HashKey(42), HashKey(42))
	assert.NotEqual(t, HashKey(42), HashKey(43))
}

func TestEstimateWithinFivePercentAtPrecision14(t *testing.T) {
	// the report's end-to-end scenario: 10,000 rows over 1,000 keys
	r := NewRand(14)
	keys, err := UniformKeys(r, 10000, 1000)
	require.NoError(t, err)
	exact := distinctCount(keys)

	sk, err := BuildSketch(14, keys)
	require.NoError(t, err)
	estimate := int64(sk.Estimate())

	relErr, err := RelativeErrorPct(estimate, exact)
	require.NoError(t, err)
	assert.Less(t, relErr, 5.0,
		"estimate %d vs exact %d", estimate, exact)
}

func TestEstimateWithinErrorBoundAcrossPrecisions(t *testing.T) {
	for _, p := range []int{10, 12, 14} {
		for _, distinct := range []int64{1000, 10000} {
			t.Run(fmt.Sprintf("p%d_d%d", p, distinct), func(t *testing.T) {
				r := NewRand(int64(p)*1000 + distinct)
				keys, err := UniformKeys(r, int(distinct)*10, distinct)
				require.NoError(t, err)
				exact := distinctCount(keys)

				sk, err := BuildSketch(p, keys)
				require.NoError(t, err)

				relErr, err := RelativeErrorPct(int64(sk.Estimate()), exact)
				require.NoError(t, err)

				// generous multiple of the theoretical standard error
				bound := 5 * StandardError(p) * 100
				assert.GreaterOrEqual(t, relErr, 0.0)
				assert.Less(t, relErr, bound)
			})
		}
	}
}

func TestStorageSizeIndependentOfRowCount(t *testing.T) {
	r := NewRand(7)

	small, err := BuildSketch(12, mustKeys(t, r, 1000, 100))
	require.NoError(t, err)
	large, err := BuildSketch(12, mustKeys(t, r, 100000, 10000))
	require.NoError(t, err)

	smallSize, err := SketchSize(small)
	require.NoError(t, err)
	largeSize, err := SketchSize(large)
	require.NoError(t, err)

	// dense representation: size is a function of precision only
	assert.Equal(t, smallSize, largeSize)
}

func TestStorageSizeNonDecreasingInPrecision(t *testing.T) {
	r := NewRand(8)
	keys := mustKeys(t, r, 10000, 1000)

	prev := 0
	for _, p := range []int{10, 12, 14} {
		sk, err := BuildSketch(p, keys)
		require.NoError(t, err)
		size, err := SketchSize(sk)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, size, prev, "precision %d", p)
		prev = size
	}
}

func TestStandardError(t *testing.T) {
	assert.InDelta(t, 1.04/math.Sqrt(16384), StandardError(14), 1e-12)
	assert.Greater(t, StandardError(10), StandardError(14))
}

func mustKeys(t *testing.T, r *rand.Rand, n int, distinct int64) []int64 {
	t.Helper()
	keys, err := UniformKeys(r, n, distinct)
	require.NoError(t, err)
	return keys
}
