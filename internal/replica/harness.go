// Package replica runs independent copies of one simulation in parallel.
// Replicas share nothing: every copy assembles its own sources, entities
// and kernel, so one replica's failure never disturbs another.
package replica

import (
	"time"

	"github.com/google/uuid"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"golang.org/x/sync/errgroup"

	"main/internal/sim"
)

// Run identifies one replica within a harness invocation.
type Run struct {
	ID    uuid.UUID
	Index int
}

// Result is one replica's terminal state.
type Result struct {
	Run     Run
	Outcome sim.Outcome
	Elapsed time.Duration
}

// BuildFunc assembles a fresh kernel for one replica. It is called once
// per replica and must not share mutable state between calls.
type BuildFunc func(run Run) (*sim.Kernel, error)

// Config sizes the harness.
type Config struct {
	// Replicas is the number of independent copies to run.
	Replicas int
	// MaxParallel caps concurrently running replicas. Zero means one
	// worker per replica.
	MaxParallel int
}

// Validate checks if the configuration is usable.
func (c Config) Validate() error {
	if c.Replicas <= 0 {
		return errors.Errorf("invalid harness config: Replicas must be > 0, got %d", c.Replicas)
	}
	if c.MaxParallel < 0 {
		return errors.Errorf("invalid harness config: MaxParallel must be >= 0, got %d", c.MaxParallel)
	}
	return nil
}

// Harness fans replicas out over a bounded worker group.
type Harness struct {
	cfg   Config
	build BuildFunc
}

// New builds a harness.
func New(cfg Config, build BuildFunc) (*Harness, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if build == nil {
		return nil, errors.New("invalid harness config: build func is nil")
	}
	return &Harness{cfg: cfg, build: build}, nil
}

// Run executes every replica and returns their results indexed by
// replica. The stop channel requests cooperative truncation of all
// replicas; a failed replica reports through its own result only.
func (h *Harness) Run(stop <-chan struct{}) []Result {
	results := make([]Result, h.cfg.Replicas)

	var group errgroup.Group
	if h.cfg.MaxParallel > 0 {
		group.SetLimit(h.cfg.MaxParallel)
	}

	for i := 0; i < h.cfg.Replicas; i++ {
		run := Run{ID: uuid.New(), Index: i}
		group.Go(func() error {
			results[run.Index] = h.runOne(run, stop)
			return nil
		})
	}
	_ = group.Wait()
	return results
}

func (h *Harness) runOne(run Run, stop <-chan struct{}) Result {
	began := time.Now()
	logs.Infof("replica %d (%s) starting", run.Index, run.ID)

	kernel, err := h.build(run)
	if err != nil {
		logs.Errorf("replica %d (%s) build failed: %+v", run.Index, run.ID, err)
		return Result{
			Run:     run,
			Outcome: sim.Outcome{Err: errors.Wrapf(err, "build replica %d", run.Index)},
			Elapsed: time.Since(began),
		}
	}

	outcome := kernel.Run(stop)
	elapsed := time.Since(began)
	switch {
	case outcome.Failed():
		logs.Errorf("replica %d (%s) failed at clock %d: %+v", run.Index, run.ID, outcome.FinalClock, outcome.Err)
	case outcome.Truncated:
		logs.Infof("replica %d (%s) truncated at clock %d after %d messages", run.Index, run.ID, outcome.FinalClock, outcome.Dispatched)
	default:
		logs.Infof("replica %d (%s) completed: %d messages in %s", run.Index, run.ID, outcome.Dispatched, elapsed)
	}
	return Result{Run: run, Outcome: outcome, Elapsed: elapsed}
}
