package calendar

import (
	"io"

	"main/internal/schema"
)

// BoundaryFeed injects the calendar's open/close transitions into the
// timeline as session-boundary messages, so entities can react to them
// the same way they react to any other message.
type BoundaryFeed struct {
	cal   *Calendar
	index int
	// next boundary of the current interval: false = open, true = close.
	atClose bool
}

// NewBoundaryFeed builds a feed over the calendar's transitions.
func NewBoundaryFeed(cal *Calendar) *BoundaryFeed {
	return &BoundaryFeed{cal: cal}
}

// Next returns the next session-boundary message, or io.EOF when the
// schedule is exhausted.
func (f *BoundaryFeed) Next() (schema.Message, error) {
	if f.index >= len(f.cal.intervals) {
		return schema.Message{}, io.EOF
	}
	iv := f.cal.intervals[f.index]
	msg := schema.Message{
		Payload: schema.SessionBoundary{Exchange: f.cal.exchange},
	}
	if !f.atClose {
		msg.Ts = iv.Open
		msg.Kind = schema.KindSessionOpen
		f.atClose = true
	} else {
		msg.Ts = iv.Close
		msg.Kind = schema.KindSessionClose
		f.atClose = false
		f.index++
	}
	return msg, nil
}

// Restart rewinds to the first transition.
func (f *BoundaryFeed) Restart() error {
	f.index = 0
	f.atClose = false
	return nil
}
