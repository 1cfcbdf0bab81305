package schema

import "fmt"

// ExchangeID is the numeric identifier for an exchange.
type ExchangeID uint16

// PairID is the numeric identifier for a traded pair.
type PairID uint32

// StreamID is the numeric identifier for a message stream. Every producer
// on the timeline (historical feed, calendar feed, entity) owns exactly
// one stream.
type StreamID uint32

// Exchange describes a trading venue.
type Exchange struct {
	ID   ExchangeID
	Name string
}

// Pair describes a traded pair listed on one exchange.
type Pair struct {
	ID         PairID
	ExchangeID ExchangeID
	Kind       string
	Quoted     string
	Base       string
}

// Name returns the canonical pair name, e.g. "Spot/USD/BTC".
func (p Pair) Name() string {
	return p.Kind + "/" + p.Quoted + "/" + p.Base
}

// Stream describes one message stream and the exchange it belongs to.
// Streams not tied to an exchange (pure informational producers) carry
// ExchangeID zero and are never gated.
type Stream struct {
	ID         StreamID
	ExchangeID ExchangeID
	Name       string
}

// Registry stores exchange, pair and stream mappings in a compact form.
// It is constructed once per simulation run and read-only afterwards.
type Registry struct {
	exchanges      []Exchange
	pairs          []Pair
	streams        []Stream
	exchangeByName map[string]ExchangeID
	pairByName     map[string]PairID
	streamByName   map[string]StreamID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		exchangeByName: make(map[string]ExchangeID),
		pairByName:     make(map[string]PairID),
		streamByName:   make(map[string]StreamID),
	}
}

// AddExchange registers a new exchange and returns its ID.
func (r *Registry) AddExchange(name string) (ExchangeID, error) {
	if name == "" {
		return 0, fmt.Errorf("exchange name is empty")
	}
	if id, ok := r.exchangeByName[name]; ok {
		return id, fmt.Errorf("exchange already exists: %s", name)
	}
	id := ExchangeID(len(r.exchanges) + 1)
	r.exchanges = append(r.exchanges, Exchange{ID: id, Name: name})
	r.exchangeByName[name] = id
	return id, nil
}

// AddPair registers a new traded pair and returns its ID.
func (r *Registry) AddPair(exchangeID ExchangeID, kind, quoted, base string) (PairID, error) {
	if kind == "" || quoted == "" || base == "" {
		return 0, fmt.Errorf("pair kind/quoted/base must not be empty")
	}
	if _, ok := r.Exchange(exchangeID); !ok {
		return 0, fmt.Errorf("exchange id not found: %d", exchangeID)
	}
	pair := Pair{ExchangeID: exchangeID, Kind: kind, Quoted: quoted, Base: base}
	key := fmt.Sprintf("%d:%s", exchangeID, pair.Name())
	if id, ok := r.pairByName[key]; ok {
		return id, fmt.Errorf("pair already exists: %s", pair.Name())
	}
	pair.ID = PairID(len(r.pairs) + 1)
	r.pairs = append(r.pairs, pair)
	r.pairByName[key] = pair.ID
	return pair.ID, nil
}

// AddStream registers a new message stream and returns its ID. Stream IDs
// are assigned in registration order, which makes the message tie-break
// stable across runs.
func (r *Registry) AddStream(name string, exchangeID ExchangeID) (StreamID, error) {
	if name == "" {
		return 0, fmt.Errorf("stream name is empty")
	}
	if id, ok := r.streamByName[name]; ok {
		return id, fmt.Errorf("stream already exists: %s", name)
	}
	if exchangeID != 0 {
		if _, ok := r.Exchange(exchangeID); !ok {
			return 0, fmt.Errorf("exchange id not found: %d", exchangeID)
		}
	}
	id := StreamID(len(r.streams) + 1)
	r.streams = append(r.streams, Stream{ID: id, ExchangeID: exchangeID, Name: name})
	r.streamByName[name] = id
	return id, nil
}

// Exchange returns the exchange for an ID.
func (r *Registry) Exchange(id ExchangeID) (Exchange, bool) {
	if id == 0 || int(id) > len(r.exchanges) {
		return Exchange{}, false
	}
	return r.exchanges[id-1], true
}

// ExchangeIDByName resolves an exchange name.
func (r *Registry) ExchangeIDByName(name string) (ExchangeID, bool) {
	id, ok := r.exchangeByName[name]
	return id, ok
}

// Pair returns the pair for an ID.
func (r *Registry) Pair(id PairID) (Pair, bool) {
	if id == 0 || int(id) > len(r.pairs) {
		return Pair{}, false
	}
	return r.pairs[id-1], true
}

// Stream returns the stream for an ID.
func (r *Registry) Stream(id StreamID) (Stream, bool) {
	if id == 0 || int(id) > len(r.streams) {
		return Stream{}, false
	}
	return r.streams[id-1], true
}

// StreamIDByName resolves a stream name.
func (r *Registry) StreamIDByName(name string) (StreamID, bool) {
	id, ok := r.streamByName[name]
	return id, ok
}

// StreamExchange returns the exchange a stream belongs to, or false for
// exchange-less streams.
func (r *Registry) StreamExchange(id StreamID) (ExchangeID, bool) {
	stream, ok := r.Stream(id)
	if !ok || stream.ExchangeID == 0 {
		return 0, false
	}
	return stream.ExchangeID, true
}

// ExchangeCount returns the number of registered exchanges.
func (r *Registry) ExchangeCount() int { return len(r.exchanges) }

// PairCount returns the number of registered pairs.
func (r *Registry) PairCount() int { return len(r.pairs) }

// StreamCount returns the number of registered streams.
func (r *Registry) StreamCount() int { return len(r.streams) }
