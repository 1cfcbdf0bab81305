package sim

import "main/internal/obs"

// Outcome is the terminal state of one kernel run. Entity-owned result
// state stays with the entities; the kernel never interprets it.
type Outcome struct {
	// FinalClock is the virtual timestamp the run stopped at.
	FinalClock int64
	// Completed is true when the simulation window was exhausted.
	Completed bool
	// Truncated is true when a cooperative stop request ended the run.
	Truncated bool
	// Dispatched counts messages delivered to at least zero entities.
	Dispatched uint64
	// Err holds the fatal error for a failed run.
	Err error
	// Entities are the run's participants, in registration order, so
	// callers can collect their result state.
	Entities []Entity
	// Metrics is the final counter snapshot.
	Metrics obs.Snapshot
}

// Failed reports whether the run ended with a fatal error.
func (o Outcome) Failed() bool { return o.Err != nil }
