package entity

import (
	"main/internal/latency"
	"main/internal/schema"
)

// LatencyBroker relays the messages it observes onto its own stream after
// a modeled transport delay, giving downstream subscribers a delayed view
// of the original flow.
type LatencyBroker struct {
	id    string
	model latency.Model
	relay func(kind schema.Kind) bool
}

// NewLatencyBroker builds a broker relaying the kinds accepted by the
// filter. A nil filter relays market flow only.
func NewLatencyBroker(id string, model latency.Model, filter func(kind schema.Kind) bool) *LatencyBroker {
	if filter == nil {
		filter = func(kind schema.Kind) bool { return kind.MarketFlow() }
	}
	return &LatencyBroker{id: id, model: model, relay: filter}
}

// ID implements sim.Entity.
func (b *LatencyBroker) ID() string { return b.id }

// OnMessage implements sim.Entity.
func (b *LatencyBroker) OnMessage(msg schema.Message) []schema.Message {
	if !b.relay(msg.Kind) {
		return nil
	}
	return []schema.Message{{
		Ts:      msg.Ts + b.model.Delay(),
		Kind:    msg.Kind,
		Payload: msg.Payload,
	}}
}
