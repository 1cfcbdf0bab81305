package obs

import (
	"sync/atomic"

	"main/internal/schema"
)

const maxKind = int(schema.KindEndOfData)

// Metrics collects lightweight counters for one kernel instance. The
// kernel is single-threaded, but the harness may sample counters while a
// replica runs, so updates are atomic.
type Metrics struct {
	kindCounts [maxKind + 1]uint64
	steps      uint64
	dispatched uint64
	reinserted uint64
	gateHeld   uint64
	discarded  uint64
}

// CountStep records one merge-dispatch step.
func (m *Metrics) CountStep() {
	atomic.AddUint64(&m.steps, 1)
}

// CountDispatch records one dispatched message by kind.
func (m *Metrics) CountDispatch(kind schema.Kind) {
	atomic.AddUint64(&m.dispatched, 1)
	if int(kind) <= maxKind {
		atomic.AddUint64(&m.kindCounts[kind], 1)
	}
}

// CountReinserted records one entity-emitted message absorbed back into
// the timeline.
func (m *Metrics) CountReinserted() {
	atomic.AddUint64(&m.reinserted, 1)
}

// CountGateHeld records one message queued by a session gate.
func (m *Metrics) CountGateHeld() {
	atomic.AddUint64(&m.gateHeld, 1)
}

// CountDiscarded records one message dropped at the simulation end
// ceiling.
func (m *Metrics) CountDiscarded() {
	atomic.AddUint64(&m.discarded, 1)
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	KindCounts map[schema.Kind]uint64
	Steps      uint64
	Dispatched uint64
	Reinserted uint64
	GateHeld   uint64
	Discarded  uint64
}

// Snapshot captures the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		KindCounts: make(map[schema.Kind]uint64, maxKind+1),
		Steps:      atomic.LoadUint64(&m.steps),
		Dispatched: atomic.LoadUint64(&m.dispatched),
		Reinserted: atomic.LoadUint64(&m.reinserted),
		GateHeld:   atomic.LoadUint64(&m.gateHeld),
		Discarded:  atomic.LoadUint64(&m.discarded),
	}
	for kind := 0; kind <= maxKind; kind++ {
		if v := atomic.LoadUint64(&m.kindCounts[kind]); v > 0 {
			snap.KindCounts[schema.Kind(kind)] = v
		}
	}
	return snap
}
