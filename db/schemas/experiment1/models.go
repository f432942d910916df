package experiment1

import (
	"github.com/google/uuid"
)

// TestKey is one row of the uniform synthetic dataset: an integer key
// drawn from a bounded random range plus a random string payload.
type TestKey struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	UserID  int64  `gorm:"column:user_id;index"`
	Payload string `gorm:"size:64"`
}

func (TestKey) TableName() string {
	return "test_keys"
}

// ExactResult is one timed COUNT(DISTINCT) repetition.
type ExactResult struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	RunID         uuid.UUID `gorm:"type:uuid;column:run_id;index"`
	DatasetSize   int       `gorm:"column:dataset_size"`
	Repetition    int
	DistinctCount int64   `gorm:"column:distinct_count"`
	DurationMS    float64 `gorm:"column:duration_ms"`
}

func (ExactResult) TableName() string {
	return "exact_results"
}

// HLLResult is one timed sketch build+estimate repetition at a given
// precision, with the exact reference it was compared against.
type HLLResult struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement"`
	RunID          uuid.UUID `gorm:"type:uuid;column:run_id;index"`
	DatasetSize    int       `gorm:"column:dataset_size"`
	Precision      int
	Repetition     int
	EstimatedCount int64   `gorm:"column:estimated_count"`
	ExactCount     int64   `gorm:"column:exact_count"`
	RelativeError  float64 `gorm:"column:relative_error"`
	DurationMS     float64 `gorm:"column:duration_ms"`
	StorageBytes   int     `gorm:"column:storage_bytes"`
}

func (HLLResult) TableName() string {
	return "hll_results"
}
