// Package entity holds the built-in simulation participants: a session
// exchange that acknowledges order flow, a latency broker that relays a
// delayed view of a stream, and a recorder that captures everything it
// observes.
package entity

import (
	"sort"

	"main/internal/latency"
	"main/internal/schema"
)

// SessionExchange acknowledges the order flow of the streams it is
// subscribed to. Limit placements rest until canceled, consumed or
// expired; a session close expires everything still resting.
type SessionExchange struct {
	id  string
	ack latency.Model

	resting map[uint64]schema.Order
}

// NewSessionExchange builds an exchange entity. The ack model delays each
// acknowledgement past the message that caused it.
func NewSessionExchange(id string, ack latency.Model) *SessionExchange {
	return &SessionExchange{
		id:      id,
		ack:     ack,
		resting: make(map[uint64]schema.Order),
	}
}

// ID implements sim.Entity.
func (x *SessionExchange) ID() string { return x.id }

// RestingCount reports how many limit orders are currently resting.
func (x *SessionExchange) RestingCount() int { return len(x.resting) }

// OnMessage implements sim.Entity.
func (x *SessionExchange) OnMessage(msg schema.Message) []schema.Message {
	switch msg.Kind {
	case schema.KindOrderLimit:
		o, ok := msg.Payload.(schema.Order)
		if !ok {
			return nil
		}
		x.resting[o.OrderID] = o
		return x.ackAt(msg.Ts, schema.Ack{
			Pair:       o.Pair,
			OrderID:    o.OrderID,
			Status:     schema.AckPlaced,
			LeavesSize: o.Size,
		})

	case schema.KindOrderMarket:
		o, ok := msg.Payload.(schema.Order)
		if !ok {
			return nil
		}
		// Market orders never rest: acknowledged as fully consumed.
		return x.ackAt(msg.Ts, schema.Ack{
			Pair:    o.Pair,
			OrderID: o.OrderID,
			Status:  schema.AckPlaced,
		})

	case schema.KindCancel:
		c, ok := msg.Payload.(schema.Cancel)
		if !ok {
			return nil
		}
		o, known := x.resting[c.OrderID]
		if !known {
			return x.ackAt(msg.Ts, schema.Ack{
				Pair:    c.Pair,
				OrderID: c.OrderID,
				Status:  schema.AckRejected,
			})
		}
		delete(x.resting, c.OrderID)
		return x.ackAt(msg.Ts, schema.Ack{
			Pair:       o.Pair,
			OrderID:    o.OrderID,
			Status:     schema.AckCanceled,
			LeavesSize: o.Size,
		})

	case schema.KindSessionClose:
		return x.expireAll(msg.Ts)
	}
	return nil
}

// expireAll acknowledges every resting order as expired, in order id
// order so repeated runs emit the same sequence.
func (x *SessionExchange) expireAll(ts int64) []schema.Message {
	if len(x.resting) == 0 {
		return nil
	}
	ids := make([]uint64, 0, len(x.resting))
	for id := range x.resting {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]schema.Message, 0, len(ids))
	for _, id := range ids {
		o := x.resting[id]
		out = append(out, schema.Message{
			Ts:   ts + x.ack.Delay(),
			Kind: schema.KindAck,
			Payload: schema.Ack{
				Pair:       o.Pair,
				OrderID:    o.OrderID,
				Status:     schema.AckExpired,
				LeavesSize: o.Size,
			},
		})
	}
	x.resting = make(map[uint64]schema.Order)
	return out
}

func (x *SessionExchange) ackAt(ts int64, ack schema.Ack) []schema.Message {
	return []schema.Message{{
		Ts:      ts + x.ack.Delay(),
		Kind:    schema.KindAck,
		Payload: ack,
	}}
}
