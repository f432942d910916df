package benchmark

import (
	"fmt"
	"time"

	"github.com/axiomhq/hyperloglog"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yourusername/hll-cardinality-bench/config"
	"github.com/yourusername/hll-cardinality-bench/db/schemas/experiment2"
)

// EventDates lists the distinct calendar dates present in user_events,
// oldest first.
func EventDates(db *gorm.DB) ([]time.Time, error) {
	var dates []time.Time
	err := db.Raw("SELECT DISTINCT event_date FROM user_events ORDER BY event_date").Scan(&dates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list event dates: %w", err)
	}
	return dates, nil
}

// PrecomputeDailySketches builds one sketch per (date, precision) pair
// over that date's keys, recording the day's exact distinct count and
// serialized size alongside. This pass runs once; the query phase only
// reads the summaries it produces.
func PrecomputeDailySketches(db *gorm.DB, precisions []int) error {
	dates, err := EventDates(db)
	if err != nil {
		return err
	}

	for _, day := range dates {
		// one scan per day feeds every precision plus the exact count
		perPrecision := make(map[int]*hyperloglog.Sketch, len(precisions))
		for _, p := range precisions {
			sk, err := NewSketch(p)
			if err != nil {
				return err
			}
			perPrecision[p] = sk
		}
		seen := make(map[int64]struct{})

		rows, err := db.Raw("SELECT user_id FROM user_events WHERE event_date = ?", day).Rows()
		if err != nil {
			return fmt.Errorf("failed to stream events for %s: %w", day.Format("2006-01-02"), err)
		}
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan event: %w", err)
			}
			seen[id] = struct{}{}
			h := HashKey(id)
			for _, sk := range perPrecision {
				sk.InsertHash(h)
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		daily := make([]experiment2.DailySketch, 0, len(precisions))
		for _, p := range precisions {
			blob, err := perPrecision[p].MarshalBinary()
			if err != nil {
				return fmt.Errorf("failed to serialize sketch for %s p=%d: %w", day.Format("2006-01-02"), p, err)
			}
			daily = append(daily, experiment2.DailySketch{
				EventDate:    datatypes.Date(day),
				Precision:    p,
				Sketch:       blob,
				ExactCount:   int64(len(seen)),
				StorageBytes: len(blob),
			})
		}
		if err := Record(db, &daily); err != nil {
			return err
		}
	}
	return nil
}

// unionWindow fetches the daily sketches for the trailing window and
// unions them into one estimate. The fetch is part of the measured
// operation: a pipeline answering a window query pays for it too.
func unionWindow(db *gorm.DB, precision int, cutoff time.Time) (int64, int, error) {
	var daily []experiment2.DailySketch
	err := db.Where("precision = ? AND event_date >= ?", precision, cutoff).
		Order("event_date").Find(&daily).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load daily sketches: %w", err)
	}
	if len(daily) == 0 {
		return 0, 0, fmt.Errorf("no daily sketches at precision %d on or after %s", precision, cutoff.Format("2006-01-02"))
	}

	blobs := make([][]byte, len(daily))
	for i, d := range daily {
		blobs[i] = d.Sketch
	}
	estimate, totalBytes, err := UnionEstimate(precision, blobs)
	if err != nil {
		return 0, 0, err
	}
	return int64(estimate), totalBytes, nil
}

// exactWindow re-scans raw events for the trailing window and counts
// distinct users directly.
func exactWindow(db *gorm.DB, cutoff time.Time) (int64, error) {
	var count int64
	err := db.Raw("SELECT COUNT(DISTINCT user_id) FROM user_events WHERE event_date >= ?", cutoff).
		Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("exact window count failed: %w", err)
	}
	return count, nil
}

// RunUnionBenchmark times union-of-daily-sketches over each trailing
// window at each precision, warm-up then repetitions.
func RunUnionBenchmark(db *gorm.DB, runID uuid.UUID, dates []time.Time, windows, precisions []int, reps int) ([]experiment2.UnionResult, error) {
	var results []experiment2.UnionResult
	for _, w := range windows {
		if w > len(dates) {
			logrus.WithFields(logrus.Fields{"window_days": w, "available": len(dates)}).
				Warn("skipping window longer than dataset")
			continue
		}
		cutoff := dates[len(dates)-w]

		for _, p := range precisions {
			// warm-up, not recorded
			if _, _, err := unionWindow(db, p, cutoff); err != nil {
				return nil, err
			}

			for i := 0; i < reps; i++ {
				var estimate int64
				var totalBytes int
				d, err := Timed(func() error {
					var err error
					estimate, totalBytes, err = unionWindow(db, p, cutoff)
					return err
				})
				if err != nil {
					return nil, err
				}

				results = append(results, experiment2.UnionResult{
					RunID:                runID,
					Precision:            p,
					NumDays:              w,
					Repetition:           i + 1,
					EstimatedCount:       estimate,
					QueryTimeMS:          DurationMS(d),
					TotalSketchSizeBytes: totalBytes,
				})
			}
		}
	}
	return results, nil
}

// RunExactWindowBenchmark is the parallel ground-truth path: timed
// exact re-aggregation over the same trailing windows.
func RunExactWindowBenchmark(db *gorm.DB, runID uuid.UUID, dates []time.Time, windows []int, reps int) ([]experiment2.ExactWindowResult, error) {
	var results []experiment2.ExactWindowResult
	for _, w := range windows {
		if w > len(dates) {
			continue
		}
		cutoff := dates[len(dates)-w]

		// warm-up, not recorded
		if _, err := exactWindow(db, cutoff); err != nil {
			return nil, err
		}

		for i := 0; i < reps; i++ {
			var count int64
			d, err := Timed(func() error {
				var err error
				count, err = exactWindow(db, cutoff)
				return err
			})
			if err != nil {
				return nil, err
			}

			results = append(results, experiment2.ExactWindowResult{
				RunID:       runID,
				NumDays:     w,
				Repetition:  i + 1,
				ExactCount:  count,
				QueryTimeMS: DurationMS(d),
			})
		}
	}
	return results, nil
}

// RunExperiment2 generates the skewed event dataset, pre-computes the
// daily sketches, then benchmarks window unions against exact
// re-aggregation.
func RunExperiment2(db *gorm.DB, runID uuid.UUID, cfg config.BenchConfig) error {
	r := NewRand(cfg.Seed)
	split := DefaultTierSplit()

	logrus.WithFields(logrus.Fields{
		"days":           cfg.EventDays,
		"events_per_day": cfg.EventsPerDay,
		"total_pool":     split.TotalPool(),
	}).Info("generating event dataset")
	if err := GenerateEventDataset(db, r, cfg.EventDays, cfg.EventsPerDay, split, time.Now().UTC()); err != nil {
		return err
	}

	logrus.Info("pre-computing daily sketches")
	if err := PrecomputeDailySketches(db, cfg.Precisions); err != nil {
		return err
	}

	dates, err := EventDates(db)
	if err != nil {
		return err
	}

	logrus.Info("running union benchmark")
	unionResults, err := RunUnionBenchmark(db, runID, dates, cfg.WindowDays, cfg.Precisions, cfg.Repetitions)
	if err != nil {
		return err
	}
	if len(unionResults) > 0 {
		if err := Record(db, &unionResults); err != nil {
			return err
		}
	}

	logrus.Info("running exact re-aggregation benchmark")
	exactResults, err := RunExactWindowBenchmark(db, runID, dates, cfg.WindowDays, cfg.Repetitions)
	if err != nil {
		return err
	}
	if len(exactResults) == 0 {
		return nil
	}
	return Record(db, &exactResults)
}
