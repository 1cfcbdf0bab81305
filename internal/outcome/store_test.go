package outcome

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yanun0323/errors"

	"main/internal/obs"
	"main/internal/replica"
	"main/internal/sim"
)

func TestToRecord(t *testing.T) {
	id := uuid.New()
	result := replica.Result{
		Run: replica.Run{ID: id, Index: 3},
		Outcome: sim.Outcome{
			FinalClock: 1_700_000_000,
			Completed:  true,
			Dispatched: 42,
			Metrics: obs.Snapshot{
				Reinserted: 7,
				GateHeld:   2,
				Discarded:  1,
			},
		},
		Elapsed: 1500 * time.Millisecond,
	}

	rec := toRecord("batch-a", result)
	require.Equal(t, id, rec.RunID)
	require.Equal(t, "batch-a", rec.Batch)
	assert.Equal(t, 3, rec.Replica)
	assert.True(t, rec.Completed)
	assert.False(t, rec.Truncated)
	assert.Equal(t, int64(1_700_000_000), rec.FinalClock)
	assert.Equal(t, uint64(42), rec.Dispatched)
	assert.Equal(t, uint64(7), rec.Reinserted)
	assert.Equal(t, uint64(2), rec.GateHeld)
	assert.Equal(t, uint64(1), rec.Discarded)
	assert.Empty(t, rec.Error)
	assert.Equal(t, int64(1500), rec.ElapsedMs)
}

func TestToRecordCarriesFailure(t *testing.T) {
	result := replica.Result{
		Run:     replica.Run{ID: uuid.New(), Index: 0},
		Outcome: sim.Outcome{Err: errors.New("stream 2 produced ts behind the clock")},
	}

	rec := toRecord("batch-b", result)
	assert.False(t, rec.Completed)
	assert.Contains(t, rec.Error, "behind the clock")
}
