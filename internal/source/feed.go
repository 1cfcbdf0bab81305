package source

import "main/internal/schema"

// Feed produces messages in non-decreasing timestamp order for one stream.
// Next returns io.EOF at exhaustion. Restart re-opens the feed from the
// beginning so replicas can re-read the same history independently.
//
// Feeds fill Ts, Kind and Payload only; internal/timeline stamps the stream
// identity and sequence number when the feed is registered with a kernel.
type Feed interface {
	Next() (schema.Message, error)
	Restart() error
}

// Window bounds when a traded pair is eligible to produce messages.
// Records outside [Start, Stop] are excluded at the reading boundary and
// never reach the merge loop. A zero Stop means no upper bound.
type Window struct {
	Start int64
	Stop  int64
}

// Contains reports whether ts falls inside the window.
func (w Window) Contains(ts int64) bool {
	if ts < w.Start {
		return false
	}
	if w.Stop != 0 && ts > w.Stop {
		return false
	}
	return true
}
