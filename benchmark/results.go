package benchmark

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourusername/hll-cardinality-bench/db/schemas/experiment1"
	"github.com/yourusername/hll-cardinality-bench/db/schemas/experiment2"
)

// Record appends measurement rows to their result table. Rows is a
// pointer to a slice of result models.
func Record(db *gorm.DB, rows interface{}) error {
	if err := db.Create(rows).Error; err != nil {
		return fmt.Errorf("failed to record results: %w", err)
	}
	return nil
}

func writeCSVFile(path string, header []string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	if err := writer.Write(header); err != nil {
		return err
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ExportExperiment1 writes the run's exact and approximate result
// tables to tables/experiment_1/{exact,hll}.csv.
func ExportExperiment1(db *gorm.DB, runID uuid.UUID, outputDir string) error {
	dir := filepath.Join(outputDir, "experiment_1")

	var exact []experiment1.ExactResult
	if err := db.Where("run_id = ?", runID).
		Order("dataset_size, repetition").Find(&exact).Error; err != nil {
		return fmt.Errorf("failed to read exact_results: %w", err)
	}
	exactRecords := make([][]string, 0, len(exact))
	for _, row := range exact {
		exactRecords = append(exactRecords, []string{
			strconv.Itoa(row.DatasetSize),
			strconv.Itoa(row.Repetition),
			strconv.FormatInt(row.DistinctCount, 10),
			formatFloat(row.DurationMS),
		})
	}
	err := writeCSVFile(filepath.Join(dir, "exact.csv"),
		[]string{"dataset_size", "repetition", "distinct_count", "duration_ms"},
		exactRecords)
	if err != nil {
		return err
	}

	var hll []experiment1.HLLResult
	if err := db.Where("run_id = ?", runID).
		Order("dataset_size, precision, repetition").Find(&hll).Error; err != nil {
		return fmt.Errorf("failed to read hll_results: %w", err)
	}
	hllRecords := make([][]string, 0, len(hll))
	for _, row := range hll {
		hllRecords = append(hllRecords, []string{
			strconv.Itoa(row.DatasetSize),
			strconv.Itoa(row.Precision),
			strconv.Itoa(row.Repetition),
			strconv.FormatInt(row.EstimatedCount, 10),
			strconv.FormatInt(row.ExactCount, 10),
			formatFloat(row.RelativeError),
			formatFloat(row.DurationMS),
			strconv.Itoa(row.StorageBytes),
		})
	}
	return writeCSVFile(filepath.Join(dir, "hll.csv"),
		[]string{"dataset_size", "precision", "repetition", "estimated_count",
			"exact_count", "relative_error", "duration_ms", "storage_bytes"},
		hllRecords)
}

// ExportExperiment2 writes the run's union and exact re-aggregation
// result tables to tables/experiment_2/{union,exact}.csv.
func ExportExperiment2(db *gorm.DB, runID uuid.UUID, outputDir string) error {
	dir := filepath.Join(outputDir, "experiment_2")

	var union []experiment2.UnionResult
	if err := db.Where("run_id = ?", runID).
		Order("precision, num_days, repetition").Find(&union).Error; err != nil {
		return fmt.Errorf("failed to read union_results: %w", err)
	}
	unionRecords := make([][]string, 0, len(union))
	for _, row := range union {
		unionRecords = append(unionRecords, []string{
			strconv.Itoa(row.Precision),
			strconv.Itoa(row.NumDays),
			strconv.Itoa(row.Repetition),
			strconv.FormatInt(row.EstimatedCount, 10),
			formatFloat(row.QueryTimeMS),
			strconv.Itoa(row.TotalSketchSizeBytes),
		})
	}
	err := writeCSVFile(filepath.Join(dir, "union.csv"),
		[]string{"precision", "num_days", "repetition", "estimated_count",
			"query_time_ms", "total_sketch_size_bytes"},
		unionRecords)
	if err != nil {
		return err
	}

	var exact []experiment2.ExactWindowResult
	if err := db.Where("run_id = ?", runID).
		Order("num_days, repetition").Find(&exact).Error; err != nil {
		return fmt.Errorf("failed to read exact_window_results: %w", err)
	}
	exactRecords := make([][]string, 0, len(exact))
	for _, row := range exact {
		exactRecords = append(exactRecords, []string{
			strconv.Itoa(row.NumDays),
			strconv.Itoa(row.Repetition),
			strconv.FormatInt(row.ExactCount, 10),
			formatFloat(row.QueryTimeMS),
		})
	}
	return writeCSVFile(filepath.Join(dir, "exact.csv"),
		[]string{"num_days", "repetition", "exact_count", "query_time_ms"},
		exactRecords)
}
