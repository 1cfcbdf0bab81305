package timeline

import (
	"io"
	"math"

	"github.com/yanun0323/errors"

	"main/internal/schema"
	"main/pkg/exception"
)

// Feed is the slice of internal/source the timeline consumes: messages in
// non-decreasing timestamp order, io.EOF at exhaustion, restartable.
type Feed interface {
	Next() (schema.Message, error)
	Restart() error
}

// Timeline adapts one feed into a peekable queue of pending messages. It
// stamps the stream identity and sequence number on every message,
// rejects timestamps that travel backward within the stream, and
// synthesizes a final end-of-data marker when the feed drains.
type Timeline struct {
	id   schema.StreamID
	feed Feed

	head      schema.Message
	hasHead   bool
	exhausted bool

	lastTs int64
	seq    uint64
	count  uint64
}

// New wraps feed as the timeline for stream id. Prime must be called
// before the first Head.
func New(id schema.StreamID, feed Feed) *Timeline {
	return &Timeline{id: id, feed: feed, lastTs: math.MinInt64}
}

// Prime pulls the first message from the feed.
func (t *Timeline) Prime() error {
	if t.hasHead || t.exhausted {
		return nil
	}
	return t.pull()
}

// ID returns the stream identity of the timeline.
func (t *Timeline) ID() schema.StreamID { return t.id }

// Head returns the next not-yet-emitted message, if any.
func (t *Timeline) Head() (schema.Message, bool) {
	return t.head, t.hasHead
}

// Advance consumes the current head and pulls the next message. The
// consumption cursor only moves forward; it is never rewound.
func (t *Timeline) Advance() error {
	if !t.hasHead {
		return errors.Wrapf(exception.ErrTimelineExhausted, "stream %d", t.id)
	}
	t.hasHead = false
	return t.pull()
}

// Exhausted reports whether the timeline has emitted everything,
// including the end-of-data marker.
func (t *Timeline) Exhausted() bool { return t.exhausted && !t.hasHead }

// Restart rewinds the feed and resets the cursor for a fresh run.
func (t *Timeline) Restart() error {
	if err := t.feed.Restart(); err != nil {
		return err
	}
	t.hasHead = false
	t.exhausted = false
	t.lastTs = math.MinInt64
	t.seq = 0
	t.count = 0
	return nil
}

func (t *Timeline) pull() error {
	if t.exhausted {
		return nil
	}
	msg, err := t.feed.Next()
	if err == io.EOF {
		t.exhausted = true
		if t.count > 0 {
			// Mark the end of the stream at its last timestamp so
			// subscribers can observe retirement.
			t.head = t.stamp(schema.Message{Ts: t.lastTs, Kind: schema.KindEndOfData})
			t.hasHead = true
		}
		return nil
	}
	if err != nil {
		return err
	}
	if msg.Ts < t.lastTs {
		return errors.Wrapf(exception.ErrUnsortedSource, "stream %d: ts %d after %d", t.id, msg.Ts, t.lastTs)
	}
	t.head = t.stamp(msg)
	t.hasHead = true
	return nil
}

func (t *Timeline) stamp(msg schema.Message) schema.Message {
	t.seq++
	t.count++
	msg.Source = t.id
	msg.Seq = t.seq
	t.lastTs = msg.Ts
	return msg
}
