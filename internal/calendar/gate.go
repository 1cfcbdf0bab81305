package calendar

import "main/internal/schema"

// Gate queues market-flow messages that arrive while the exchange is
// closed and releases them, in arrival order, at the next open
// transition. Queued messages are re-stamped to the open timestamp so the
// dispatch sequence stays monotone; arrival order preserves their
// original relative order. Kinds listed as pass-through are never held.
type Gate struct {
	open        bool
	held        []schema.Message
	passThrough map[schema.Kind]bool
}

// NewGate builds a closed gate. passThrough kinds bypass gating entirely.
func NewGate(passThrough ...schema.Kind) *Gate {
	pass := make(map[schema.Kind]bool, len(passThrough))
	for _, k := range passThrough {
		pass[k] = true
	}
	return &Gate{passThrough: pass}
}

// Offer routes one message through the gate. It returns the message and
// true when it may be dispatched now, or false when it was queued.
func (g *Gate) Offer(msg schema.Message) (schema.Message, bool) {
	if g.open || !msg.Kind.MarketFlow() || g.passThrough[msg.Kind] {
		return msg, true
	}
	g.held = append(g.held, msg)
	return schema.Message{}, false
}

// OnOpen transitions the gate to open and returns the held messages
// re-stamped to openTs, in the order they were queued.
func (g *Gate) OnOpen(openTs int64) []schema.Message {
	g.open = true
	if len(g.held) == 0 {
		return nil
	}
	released := g.held
	g.held = nil
	for i := range released {
		released[i].Ts = openTs
	}
	return released
}

// OnClose transitions the gate to closed.
func (g *Gate) OnClose() {
	g.open = false
}

// Open reports the current gate state.
func (g *Gate) Open() bool { return g.open }

// HeldCount returns the number of queued messages.
func (g *Gate) HeldCount() int { return len(g.held) }
