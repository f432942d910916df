package benchmark

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelativeErrorPct(t *testing.T) {
	got, err := RelativeErrorPct(1050, 1000)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, got, 1e-9)

	got, err = RelativeErrorPct(950, 1000)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, got, 1e-9)

	got, err = RelativeErrorPct(1000, 1000)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestRelativeErrorPctZeroExact(t *testing.T) {
	// both zero is defined as zero error
	got, err := RelativeErrorPct(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	// a nonzero estimate against a zero exact count is undefined
	_, err = RelativeErrorPct(5, 0)
	assert.Error(t, err)
}

func TestRunRepetitionsDiscardsWarmup(t *testing.T) {
	calls := 0
	durations, err := RunRepetitions(5, func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, durations, 5)
	// one warm-up plus five timed repetitions
	assert.Equal(t, 6, calls)
}

func TestRunRepetitionsPropagatesFirstError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	_, err := RunRepetitions(5, func() error {
		calls++
		if calls == 3 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestRunRepetitionsRejectsNonPositive(t *testing.T) {
	_, err := RunRepetitions(0, func() error { return nil })
	assert.Error(t, err)
}

func TestDurationMS(t *testing.T) {
	assert.Equal(t, 1500.0, DurationMS(1500*time.Millisecond))
	assert.Equal(t, 0.5, DurationMS(500*time.Microsecond))
}
