package sim

import (
	"fmt"

	"main/internal/schema"
)

// Subscriptions maps each stream to the ordered list of entities that
// must observe its messages. Dispatch order for one message is the
// subscription registration order, which is stable across runs; that
// stability is part of the reproducibility contract.
type Subscriptions struct {
	subs     map[schema.StreamID][]Entity
	entities []Entity
	streamOf map[string]schema.StreamID
}

// NewSubscriptions creates an empty registry.
func NewSubscriptions() *Subscriptions {
	return &Subscriptions{
		subs:     make(map[schema.StreamID][]Entity),
		streamOf: make(map[string]schema.StreamID),
	}
}

// Register binds an entity to its own emission stream. Every entity that
// can emit messages must be registered exactly once.
func (s *Subscriptions) Register(e Entity, emission schema.StreamID) error {
	if e == nil {
		return fmt.Errorf("entity is nil")
	}
	if _, ok := s.streamOf[e.ID()]; ok {
		return fmt.Errorf("entity already registered: %s", e.ID())
	}
	s.streamOf[e.ID()] = emission
	s.entities = append(s.entities, e)
	return nil
}

// Subscribe appends the entity to a stream's dispatch list.
func (s *Subscriptions) Subscribe(stream schema.StreamID, e Entity) error {
	if e == nil {
		return fmt.Errorf("entity is nil")
	}
	if _, ok := s.streamOf[e.ID()]; !ok {
		return fmt.Errorf("entity not registered: %s", e.ID())
	}
	for _, existing := range s.subs[stream] {
		if existing.ID() == e.ID() {
			return fmt.Errorf("entity %s already subscribed to stream %d", e.ID(), stream)
		}
	}
	s.subs[stream] = append(s.subs[stream], e)
	return nil
}

// Subscribers returns the dispatch list for a stream in registration
// order.
func (s *Subscriptions) Subscribers(stream schema.StreamID) []Entity {
	return s.subs[stream]
}

// EmissionStream returns the stream an entity emits on.
func (s *Subscriptions) EmissionStream(e Entity) (schema.StreamID, bool) {
	id, ok := s.streamOf[e.ID()]
	return id, ok
}

// Entities returns every registered entity in registration order.
func (s *Subscriptions) Entities() []Entity {
	return s.entities
}
