package sim

import "main/internal/schema"

// Entity is any simulated participant: exchange, broker, trading
// algorithm. The kernel drives it through the single OnMessage
// capability; whatever the entity returns is absorbed back into the
// timeline. An entity mutates only its own internal state.
type Entity interface {
	// ID names the entity for error reporting and result collection.
	ID() string
	// OnMessage reacts to one dispatched message and returns the
	// messages it emits in response, possibly none. Emitted messages
	// must be timestamped strictly after the current clock.
	OnMessage(msg schema.Message) []schema.Message
}
