package calendar

import (
	"github.com/yanun0323/errors"

	"main/internal/schema"
	"main/pkg/exception"
)

// State is the calendar position of an exchange at a point in time.
type State uint8

const (
	Closed State = iota
	Open
)

// String returns the state name.
func (s State) String() string {
	if s == Open {
		return "Open"
	}
	return "Closed"
}

// Interval is one trading session: [Open, Close) in nanoseconds.
type Interval struct {
	Open  int64
	Close int64
}

// Calendar is the session schedule of one exchange: ascending,
// non-overlapping open/close intervals. Read-only after construction.
type Calendar struct {
	exchange  schema.ExchangeID
	intervals []Interval
}

// New validates the intervals and builds the calendar. Overlapping or
// descending intervals, or an interval with Open >= Close, are fatal.
func New(exchange schema.ExchangeID, intervals []Interval) (*Calendar, error) {
	var prevClose int64
	for i, iv := range intervals {
		if iv.Open >= iv.Close {
			return nil, errors.Wrapf(exception.ErrCalendarGap, "interval %d: open %d >= close %d", i, iv.Open, iv.Close)
		}
		if iv.Open < prevClose {
			return nil, errors.Wrapf(exception.ErrCalendarGap, "interval %d: open %d before previous close %d", i, iv.Open, prevClose)
		}
		prevClose = iv.Close
	}
	return &Calendar{exchange: exchange, intervals: intervals}, nil
}

// Exchange returns the exchange this calendar belongs to.
func (c *Calendar) Exchange() schema.ExchangeID { return c.exchange }

// Intervals returns the session intervals in ascending order.
func (c *Calendar) Intervals() []Interval { return c.intervals }

// StateAt reports whether the exchange is open at ts. The open boundary is
// inclusive, the close boundary exclusive.
func (c *Calendar) StateAt(ts int64) State {
	for _, iv := range c.intervals {
		if ts < iv.Open {
			return Closed
		}
		if ts < iv.Close {
			return Open
		}
	}
	return Closed
}

// NextBoundary returns the first open or close transition strictly after
// ts, or false when none remains.
func (c *Calendar) NextBoundary(ts int64) (int64, bool) {
	for _, iv := range c.intervals {
		if iv.Open > ts {
			return iv.Open, true
		}
		if iv.Close > ts {
			return iv.Close, true
		}
	}
	return 0, false
}
