package obs

import (
	"testing"

	"main/internal/schema"
)

func TestMetricsSnapshot(t *testing.T) {
	var m Metrics
	m.CountStep()
	m.CountStep()
	m.CountDispatch(schema.KindTrade)
	m.CountDispatch(schema.KindTrade)
	m.CountDispatch(schema.KindAck)
	m.CountReinserted()
	m.CountGateHeld()
	m.CountDiscarded()

	snap := m.Snapshot()
	if snap.Steps != 2 || snap.Dispatched != 3 {
		t.Fatalf("steps=%d dispatched=%d", snap.Steps, snap.Dispatched)
	}
	if snap.Reinserted != 1 || snap.GateHeld != 1 || snap.Discarded != 1 {
		t.Fatalf("unexpected counters: %+v", snap)
	}
	if snap.KindCounts[schema.KindTrade] != 2 || snap.KindCounts[schema.KindAck] != 1 {
		t.Fatalf("kind counts: %+v", snap.KindCounts)
	}
	if _, ok := snap.KindCounts[schema.KindCancel]; ok {
		t.Fatal("zero counters must be omitted from the snapshot")
	}
}
