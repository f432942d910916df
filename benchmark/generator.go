package benchmark

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yourusername/hll-cardinality-bench/db/schemas/experiment1"
	"github.com/yourusername/hll-cardinality-bench/db/schemas/experiment2"
)

const insertBatchSize = 1000

// NewRand returns the RNG for a run. Seed 0 means non-deterministic.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// UniformKeys draws n keys uniformly from [0, distinct), bounding the
// realized cardinality by the configured distinct-value count.
func UniformKeys(r *rand.Rand, n int, distinct int64) ([]int64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("row count must be positive, got %d", n)
	}
	if distinct <= 0 {
		return nil, fmt.Errorf("distinct-value bound must be positive, got %d", distinct)
	}

	keys := make([]int64, n)
	for i := range keys {
		keys[i] = r.Int63n(distinct)
	}
	return keys, nil
}

// Tier is one slice of the skewed user population: Share of all draws
// land in a pool of PoolSize distinct IDs.
type Tier struct {
	Share    float64
	PoolSize int64
}

// TierSplit models super-active/active/casual user activity: a small
// pool of users absorbing a fixed share of events, then increasingly
// larger pools for the rest.
type TierSplit struct {
	SuperActive Tier
	Active      Tier
	Casual      Tier
}

func DefaultTierSplit() TierSplit {
	return TierSplit{
		SuperActive: Tier{Share: 0.10, PoolSize: 1000},
		Active:      Tier{Share: 0.30, PoolSize: 10000},
		Casual:      Tier{Share: 0.60, PoolSize: 100000},
	}
}

func (t TierSplit) Validate() error {
	sum := t.SuperActive.Share + t.Active.Share + t.Casual.Share
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("tier shares must sum to 1, got %g", sum)
	}
	for _, tier := range []Tier{t.SuperActive, t.Active, t.Casual} {
		if tier.Share <= 0 || tier.PoolSize <= 0 {
			return fmt.Errorf("tier shares and pool sizes must be positive: %+v", tier)
		}
	}
	return nil
}

// TotalPool is the number of distinct user IDs the split can produce.
func (t TierSplit) TotalPool() int64 {
	return t.SuperActive.PoolSize + t.Active.PoolSize + t.Casual.PoolSize
}

// Draw picks a user ID. Tiers occupy disjoint ID ranges so realized
// cardinality stays bounded by TotalPool.
func (t TierSplit) Draw(r *rand.Rand) int64 {
	p := r.Float64()
	switch {
	case p < t.SuperActive.Share:
		return r.Int63n(t.SuperActive.PoolSize)
	case p < t.SuperActive.Share+t.Active.Share:
		return t.SuperActive.PoolSize + r.Int63n(t.Active.PoolSize)
	default:
		return t.SuperActive.PoolSize + t.Active.PoolSize + r.Int63n(t.Casual.PoolSize)
	}
}

// GenerateUniformDataset materializes rows random keys bounded by
// distinct into test_keys, replacing any previous dataset. Generation
// completes before any measured aggregation touches the table.
func GenerateUniformDataset(db *gorm.DB, r *rand.Rand, rows int, distinct int64) error {
	if rows <= 0 {
		return fmt.Errorf("row count must be positive, got %d", rows)
	}
	if distinct <= 0 {
		return fmt.Errorf("distinct-value bound must be positive, got %d", distinct)
	}

	if err := db.Exec("TRUNCATE test_keys RESTART IDENTITY").Error; err != nil {
		return fmt.Errorf("failed to truncate test_keys: %w", err)
	}

	remaining := rows
	for remaining > 0 {
		chunk := remaining
		if chunk > 100000 {
			chunk = 100000
		}
		batch := make([]experiment1.TestKey, chunk)
		for i := range batch {
			batch[i] = experiment1.TestKey{
				UserID:  r.Int63n(distinct),
				Payload: randomString(r, 16),
			}
		}
		if err := db.CreateInBatches(&batch, insertBatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert test keys: %w", err)
		}
		remaining -= chunk
	}
	return nil
}

// GenerateEventDataset materializes days * eventsPerDay skewed events
// ending at endDate (inclusive), replacing any previous dataset and
// its daily sketches.
func GenerateEventDataset(db *gorm.DB, r *rand.Rand, days, eventsPerDay int, split TierSplit, endDate time.Time) error {
	if days <= 0 {
		return fmt.Errorf("day count must be positive, got %d", days)
	}
	if eventsPerDay <= 0 {
		return fmt.Errorf("events per day must be positive, got %d", eventsPerDay)
	}
	if err := split.Validate(); err != nil {
		return err
	}

	if err := db.Exec("TRUNCATE user_events RESTART IDENTITY").Error; err != nil {
		return fmt.Errorf("failed to truncate user_events: %w", err)
	}
	if err := db.Exec("TRUNCATE daily_sketches RESTART IDENTITY").Error; err != nil {
		return fmt.Errorf("failed to truncate daily_sketches: %w", err)
	}

	end := endDate.UTC().Truncate(24 * time.Hour)
	for d := days - 1; d >= 0; d-- {
		day := end.AddDate(0, 0, -d)

		batch := make([]experiment2.UserEvent, eventsPerDay)
		for i := range batch {
			at := day.Add(time.Duration(r.Int63n(int64(24 * time.Hour))))
			batch[i] = experiment2.UserEvent{
				UserID:     split.Draw(r),
				OccurredAt: at,
				EventDate:  datatypes.Date(day),
			}
		}
		if err := db.CreateInBatches(&batch, insertBatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert events for %s: %w", day.Format("2006-01-02"), err)
		}
	}
	return nil
}

func randomString(r *rand.Rand, n int) string {
	letters := []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[r.Intn(len(letters))]
	}
	return string(b)
}
