// Package outcome persists replica results for later comparison across
// parameter sweeps. The store sits strictly downstream of the simulation:
// the kernel never touches it.
package outcome

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yanun0323/errors"

	"main/internal/replica"
	"main/pkg/conn"
)

// RunRecord is one persisted replica result.
type RunRecord struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	RunID      uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Batch      string    `gorm:"index;not null"`
	Replica    int       `gorm:"not null"`
	Completed  bool      `gorm:"not null"`
	Truncated  bool      `gorm:"not null"`
	FinalClock int64     `gorm:"not null"`
	Dispatched uint64    `gorm:"not null"`
	Reinserted uint64
	GateHeld   uint64
	Discarded  uint64
	Error      string
	ElapsedMs  int64     `gorm:"not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// TableName sets the storage table.
func (RunRecord) TableName() string { return "simulation_runs" }

// Store writes replica results to PostgreSQL.
type Store struct {
	client *conn.Client
}

// NewStore opens the store and migrates its schema.
func NewStore(opt conn.Option) (*Store, error) {
	client, err := conn.New(opt)
	if err != nil {
		return nil, errors.Wrap(err, "connect outcome store")
	}
	if err := client.DB().AutoMigrate(&RunRecord{}); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "migrate outcome store")
	}
	return &Store{client: client}, nil
}

// SaveBatch persists every result of one harness invocation under a
// shared batch label.
func (s *Store) SaveBatch(ctx context.Context, batch string, results []replica.Result) error {
	if len(results) == 0 {
		return nil
	}
	records := make([]RunRecord, 0, len(results))
	for _, r := range results {
		records = append(records, toRecord(batch, r))
	}
	if err := s.client.DB().WithContext(ctx).Create(&records).Error; err != nil {
		return errors.Wrapf(err, "save batch %s", batch)
	}
	return nil
}

// Batch loads every record of one batch, oldest first.
func (s *Store) Batch(ctx context.Context, batch string) ([]RunRecord, error) {
	var records []RunRecord
	err := s.client.DB().WithContext(ctx).
		Where("batch = ?", batch).
		Order("replica asc").
		Find(&records).Error
	if err != nil {
		return nil, errors.Wrapf(err, "load batch %s", batch)
	}
	return records, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

func toRecord(batch string, r replica.Result) RunRecord {
	rec := RunRecord{
		RunID:      r.Run.ID,
		Batch:      batch,
		Replica:    r.Run.Index,
		Completed:  r.Outcome.Completed,
		Truncated:  r.Outcome.Truncated,
		FinalClock: r.Outcome.FinalClock,
		Dispatched: r.Outcome.Dispatched,
		Reinserted: r.Outcome.Metrics.Reinserted,
		GateHeld:   r.Outcome.Metrics.GateHeld,
		Discarded:  r.Outcome.Metrics.Discarded,
		ElapsedMs:  r.Elapsed.Milliseconds(),
	}
	if r.Outcome.Err != nil {
		rec.Error = r.Outcome.Err.Error()
	}
	return rec
}
