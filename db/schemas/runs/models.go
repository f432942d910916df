package runs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// BenchmarkRun is the immutable parameter snapshot for one harness
// invocation. Every measurement row references it via RunID.
type BenchmarkRun struct {
	RunID     uuid.UUID      `gorm:"type:uuid;primaryKey;column:run_id"`
	StartedAt time.Time      `gorm:"column:started_at"`
	Params    datatypes.JSON `gorm:"type:jsonb"`
}

func (BenchmarkRun) TableName() string {
	return "benchmark_runs"
}
