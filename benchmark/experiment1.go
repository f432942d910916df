package benchmark

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yourusername/hll-cardinality-bench/config"
	"github.com/yourusername/hll-cardinality-bench/db/schemas/experiment1"
)

// ExactDistinct runs COUNT(DISTINCT) over the materialized dataset.
func ExactDistinct(db *gorm.DB) (int64, error) {
	var count int64
	if err := db.Raw("SELECT COUNT(DISTINCT user_id) FROM test_keys").Scan(&count).Error; err != nil {
		return 0, fmt.Errorf("exact distinct count failed: %w", err)
	}
	return count, nil
}

// sketchDataset streams the dataset's keys through a fresh sketch and
// returns the estimate and serialized size.
func sketchDataset(db *gorm.DB, precision int) (int64, int, error) {
	sk, err := NewSketch(precision)
	if err != nil {
		return 0, 0, err
	}

	rows, err := db.Raw("SELECT user_id FROM test_keys").Rows()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to stream test keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return 0, 0, fmt.Errorf("failed to scan key: %w", err)
		}
		sk.InsertHash(HashKey(id))
	}
	if err := rows.Err(); err != nil {
		return 0, 0, err
	}

	size, err := SketchSize(sk)
	if err != nil {
		return 0, 0, err
	}
	return int64(sk.Estimate()), size, nil
}

// RunExactBenchmark times the exact aggregator with a discarded
// warm-up followed by the configured repetitions, one result row each.
func RunExactBenchmark(db *gorm.DB, runID uuid.UUID, size, reps int) ([]experiment1.ExactResult, error) {
	var count int64
	durations, err := RunRepetitions(reps, func() error {
		c, err := ExactDistinct(db)
		count = c
		return err
	})
	if err != nil {
		return nil, err
	}

	results := make([]experiment1.ExactResult, 0, len(durations))
	for i, d := range durations {
		results = append(results, experiment1.ExactResult{
			RunID:         runID,
			DatasetSize:   size,
			Repetition:    i + 1,
			DistinctCount: count,
			DurationMS:    DurationMS(d),
		})
	}
	return results, nil
}

// RunHLLBenchmark times the approximate aggregator at each precision,
// same warm-up-then-repetitions policy, comparing every estimate
// against the exact reference from the same dataset snapshot.
func RunHLLBenchmark(db *gorm.DB, runID uuid.UUID, size int, precisions []int, reps int, exact int64) ([]experiment1.HLLResult, error) {
	var results []experiment1.HLLResult
	for _, p := range precisions {
		// warm-up, not recorded
		if _, _, err := sketchDataset(db, p); err != nil {
			return nil, err
		}

		for i := 0; i < reps; i++ {
			var estimate int64
			var storage int
			d, err := Timed(func() error {
				var err error
				estimate, storage, err = sketchDataset(db, p)
				return err
			})
			if err != nil {
				return nil, err
			}

			relErr, err := RelativeErrorPct(estimate, exact)
			if err != nil {
				return nil, err
			}

			results = append(results, experiment1.HLLResult{
				RunID:          runID,
				DatasetSize:    size,
				Precision:      p,
				Repetition:     i + 1,
				EstimatedCount: estimate,
				ExactCount:     exact,
				RelativeError:  relErr,
				DurationMS:     DurationMS(d),
				StorageBytes:   storage,
			})
		}
	}
	return results, nil
}

// RunExperiment1 generates each dataset size in turn and runs the
// exact and approximate aggregators over it. Generation is a one-time
// step per size, preceding all measured aggregations over that size.
func RunExperiment1(db *gorm.DB, runID uuid.UUID, cfg config.BenchConfig) error {
	r := NewRand(cfg.Seed)

	for _, size := range cfg.DatasetSizes {
		distinct := int64(float64(size) * cfg.CardinalityFraction)
		log := logrus.WithFields(logrus.Fields{
			"dataset_size": size,
			"distinct":     distinct,
		})

		log.Info("generating uniform dataset")
		if err := GenerateUniformDataset(db, r, size, distinct); err != nil {
			return err
		}

		log.Info("running exact aggregator")
		exactResults, err := RunExactBenchmark(db, runID, size, cfg.Repetitions)
		if err != nil {
			return err
		}
		if err := Record(db, &exactResults); err != nil {
			return err
		}
		exact := exactResults[0].DistinctCount

		log.WithField("exact_count", exact).Info("running approximate aggregator")
		hllResults, err := RunHLLBenchmark(db, runID, size, cfg.Precisions, cfg.Repetitions, exact)
		if err != nil {
			return err
		}
		if err := Record(db, &hllResults); err != nil {
			return err
		}
	}
	return nil
}
