package benchmark

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourusername/hll-cardinality-bench/config"
	"github.com/yourusername/hll-cardinality-bench/db/schemas/runs"
)

// Timed runs f once and returns its wall-clock duration. Setup belongs
// outside f; only the measured operation goes inside.
func Timed(f func() error) (time.Duration, error) {
	t0 := time.Now()
	err := f()
	return time.Since(t0), err
}

// RunRepetitions executes f once as a discarded warm-up, then reps
// timed repetitions. Returns one duration per timed repetition; the
// first error aborts the sequence.
func RunRepetitions(reps int, f func() error) ([]time.Duration, error) {
	if reps <= 0 {
		return nil, fmt.Errorf("repetitions must be positive, got %d", reps)
	}

	// warm-up, not recorded
	if err := f(); err != nil {
		return nil, err
	}

	durations := make([]time.Duration, 0, reps)
	for i := 0; i < reps; i++ {
		d, err := Timed(f)
		if err != nil {
			return nil, err
		}
		durations = append(durations, d)
	}
	return durations, nil
}

// RelativeErrorPct computes |estimate - exact| / exact * 100. At zero
// exact count the quotient is undefined; we define it as 0 when the
// estimate is also zero and reject everything else.
func RelativeErrorPct(estimate, exact int64) (float64, error) {
	if exact == 0 {
		if estimate == 0 {
			return 0, nil
		}
		return 0, fmt.Errorf("relative error undefined: estimate %d with zero exact count", estimate)
	}
	diff := estimate - exact
	if diff < 0 {
		diff = -diff
	}
	return float64(diff) / float64(exact) * 100, nil
}

// DurationMS converts a duration to fractional milliseconds, the unit
// all result tables use.
func DurationMS(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// NewRun records the immutable parameter snapshot for this invocation
// and returns the run ID stamped on every measurement row.
func NewRun(db *gorm.DB, cfg config.BenchConfig) (uuid.UUID, error) {
	params, err := json.Marshal(cfg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal run parameters: %w", err)
	}

	run := runs.BenchmarkRun{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
		Params:    params,
	}
	if err := db.Create(&run).Error; err != nil {
		return uuid.Nil, fmt.Errorf("failed to record benchmark run: %w", err)
	}
	return run.RunID, nil
}
