package experiment2

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UserEvent is one row of the skewed event dataset: a user drawn from
// the three-tier activity distribution, with the calendar date derived
// from the event timestamp at generation time.
type UserEvent struct {
	ID         uint64         `gorm:"primaryKey;autoIncrement"`
	UserID     int64          `gorm:"column:user_id;index"`
	OccurredAt time.Time      `gorm:"column:occurred_at"`
	EventDate  datatypes.Date `gorm:"column:event_date;index"`
}

func (UserEvent) TableName() string {
	return "user_events"
}

// DailySketch is the pre-computed summary for one (date, precision)
// pair. Written once in the pre-computation pass, never mutated; query
// time only unions copies of it.
type DailySketch struct {
	ID           uint64         `gorm:"primaryKey;autoIncrement"`
	EventDate    datatypes.Date `gorm:"column:event_date;index:idx_daily_sketch,unique"`
	Precision    int            `gorm:"index:idx_daily_sketch,unique"`
	Sketch       []byte         `gorm:"column:sketch"`
	ExactCount   int64          `gorm:"column:exact_count"`
	StorageBytes int            `gorm:"column:storage_bytes"`
}

func (DailySketch) TableName() string {
	return "daily_sketches"
}

// UnionResult is one timed union-of-daily-sketches repetition over a
// trailing window.
type UnionResult struct {
	ID                   uint64    `gorm:"primaryKey;autoIncrement"`
	RunID                uuid.UUID `gorm:"type:uuid;column:run_id;index"`
	Precision            int
	NumDays              int   `gorm:"column:num_days"`
	Repetition           int
	EstimatedCount       int64   `gorm:"column:estimated_count"`
	QueryTimeMS          float64 `gorm:"column:query_time_ms"`
	TotalSketchSizeBytes int     `gorm:"column:total_sketch_size_bytes"`
}

func (UnionResult) TableName() string {
	return "union_results"
}

// ExactWindowResult is one timed exact re-aggregation over the same
// trailing window, re-scanning raw events.
type ExactWindowResult struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	RunID       uuid.UUID `gorm:"type:uuid;column:run_id;index"`
	NumDays     int       `gorm:"column:num_days"`
	Repetition  int
	ExactCount  int64   `gorm:"column:exact_count"`
	QueryTimeMS float64 `gorm:"column:query_time_ms"`
}

func (ExactWindowResult) TableName() string {
	return "exact_window_results"
}
