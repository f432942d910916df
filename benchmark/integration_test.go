package benchmark

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yourusername/hll-cardinality-bench/config"
	"github.com/yourusername/hll-cardinality-bench/db/schemas/experiment1"
	"github.com/yourusername/hll-cardinality-bench/db/schemas/experiment2"
	"github.com/yourusername/hll-cardinality-bench/db/schemas/runs"
)

// requireDB connects to the benchmark database, or skips when none is
// configured. The tables are truncated by the generators, so point
// DB_NAME at a scratch database.
func requireDB(t *testing.T) *gorm.DB {
	t.Helper()
	if os.Getenv("DB_HOST") == "" {
		t.Skip("DB_HOST not set; skipping database integration test")
	}

	db := config.ConnectDB()
	err := db.AutoMigrate(
		&runs.BenchmarkRun{},
		&experiment1.TestKey{},
		&experiment1.ExactResult{},
		&experiment1.HLLResult{},
		&experiment2.UserEvent{},
		&experiment2.DailySketch{},
		&experiment2.UnionResult{},
		&experiment2.ExactWindowResult{},
	)
	require.NoError(t, err)
	return db
}

func TestExperiment1EndToEnd(t *testing.T) {
	db := requireDB(t)

	cfg := config.BenchConfig{
		DatasetSizes:        []int{10000},
		CardinalityFraction: 0.1,
		Precisions:          []int{14},
		Repetitions:         2,
		Seed:                14,
	}

	runID, err := NewRun(db, cfg)
	require.NoError(t, err)

	require.NoError(t, RunExperiment1(db, runID, cfg))

	var exact []experiment1.ExactResult
	require.NoError(t, db.Where("run_id = ?", runID).Find(&exact).Error)
	require.Len(t, exact, 2)
	assert.LessOrEqual(t, exact[0].DistinctCount, int64(1000))
	assert.Greater(t, exact[0].DistinctCount, int64(900))

	var hll []experiment1.HLLResult
	require.NoError(t, db.Where("run_id = ?", runID).Find(&hll).Error)
	require.Len(t, hll, 2)
	for _, row := range hll {
		assert.Equal(t, exact[0].DistinctCount, row.ExactCount)
		assert.Less(t, row.RelativeError, 5.0)
		assert.Greater(t, row.StorageBytes, 0)
	}

	outputDir := t.TempDir()
	require.NoError(t, ExportExperiment1(db, runID, outputDir))
	assert.FileExists(t, outputDir+"/experiment_1/exact.csv")
	assert.FileExists(t, outputDir+"/experiment_1/hll.csv")
}

func TestExperiment2EndToEnd(t *testing.T) {
	db := requireDB(t)

	cfg := config.BenchConfig{
		Precisions:   []int{14},
		Repetitions:  2,
		WindowDays:   []int{1, 7},
		EventDays:    7,
		EventsPerDay: 5000,
		Seed:         7,
	}

	runID, err := NewRun(db, cfg)
	require.NoError(t, err)

	require.NoError(t, RunExperiment2(db, runID, cfg))

	var union []experiment2.UnionResult
	require.NoError(t, db.Where("run_id = ?", runID).Find(&union).Error)
	require.Len(t, union, 4) // two windows, two repetitions

	var exact []experiment2.ExactWindowResult
	require.NoError(t, db.Where("run_id = ?", runID).Find(&exact).Error)
	require.Len(t, exact, 4)

	// union of 7 daily sketches must agree with the exact distinct
	// count over those 7 days within the single-sketch error bound
	bound := 5 * StandardError(14) * 100
	for _, u := range union {
		for _, e := range exact {
			if e.NumDays != u.NumDays {
				continue
			}
			relErr, err := RelativeErrorPct(u.EstimatedCount, e.ExactCount)
			require.NoError(t, err)
			assert.Less(t, relErr, bound)
		}
	}

	outputDir := t.TempDir()
	require.NoError(t, ExportExperiment2(db, runID, outputDir))
	assert.FileExists(t, outputDir+"/experiment_2/union.csv")
	assert.FileExists(t, outputDir+"/experiment_2/exact.csv")
}
