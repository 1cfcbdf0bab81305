package calendar

import (
	"github.com/yanun0323/errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"main/internal/schema"
	"main/pkg/exception"
)

func TestNewRejectsBadIntervals(t *testing.T) {
	testCases := []struct {
		desc      string
		intervals []Interval
	}{
		{"open after close", []Interval{{Open: 20, Close: 10}}},
		{"zero length", []Interval{{Open: 10, Close: 10}}},
		{"overlap", []Interval{{Open: 10, Close: 30}, {Open: 20, Close: 40}}},
		{"descending", []Interval{{Open: 30, Close: 40}, {Open: 10, Close: 20}}},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			if _, err := New(1, tc.intervals); !errors.Is(err, exception.ErrCalendarGap) {
				t.Fatalf("expected calendar gap error, got %v", err)
			}
		})
	}
}

func TestStateAtBoundaries(t *testing.T) {
	cal, err := New(1, []Interval{{Open: 10, Close: 20}, {Open: 30, Close: 40}})
	if err != nil {
		t.Fatalf("new calendar failed: %v", err)
	}

	testCases := []struct {
		ts   int64
		want State
	}{
		{5, Closed},
		{10, Open}, // open boundary inclusive
		{19, Open},
		{20, Closed}, // close boundary exclusive
		{25, Closed},
		{30, Open},
		{40, Closed},
		{100, Closed},
	}
	for _, tc := range testCases {
		if got := cal.StateAt(tc.ts); got != tc.want {
			t.Fatalf("StateAt(%d) = %s, want %s", tc.ts, got, tc.want)
		}
	}
}

func TestNextBoundary(t *testing.T) {
	cal, err := New(1, []Interval{{Open: 10, Close: 20}})
	if err != nil {
		t.Fatalf("new calendar failed: %v", err)
	}
	if next, ok := cal.NextBoundary(5); !ok || next != 10 {
		t.Fatalf("NextBoundary(5) = %d, %v", next, ok)
	}
	if next, ok := cal.NextBoundary(10); !ok || next != 20 {
		t.Fatalf("NextBoundary(10) = %d, %v", next, ok)
	}
	if _, ok := cal.NextBoundary(20); ok {
		t.Fatal("no boundary should remain after the last close")
	}
}

func TestBoundaryFeedAlternates(t *testing.T) {
	cal, err := New(3, []Interval{{Open: 10, Close: 20}, {Open: 30, Close: 40}})
	if err != nil {
		t.Fatalf("new calendar failed: %v", err)
	}
	feed := NewBoundaryFeed(cal)

	want := []struct {
		ts   int64
		kind schema.Kind
	}{
		{10, schema.KindSessionOpen},
		{20, schema.KindSessionClose},
		{30, schema.KindSessionOpen},
		{40, schema.KindSessionClose},
	}
	for i, w := range want {
		msg, err := feed.Next()
		if err != nil {
			t.Fatalf("next %d failed: %v", i, err)
		}
		if msg.Ts != w.ts || msg.Kind != w.kind {
			t.Fatalf("boundary %d: got ts=%d kind=%s, want ts=%d kind=%s", i, msg.Ts, msg.Kind, w.ts, w.kind)
		}
		boundary, ok := msg.Payload.(schema.SessionBoundary)
		if !ok || boundary.Exchange != 3 {
			t.Fatalf("boundary %d carries wrong payload: %+v", i, msg.Payload)
		}
	}
	if _, err := feed.Next(); err != io.EOF {
		t.Fatalf("expected EOF after the schedule, got %v", err)
	}

	if err := feed.Restart(); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	msg, err := feed.Next()
	if err != nil || msg.Ts != 10 || msg.Kind != schema.KindSessionOpen {
		t.Fatalf("restart did not rewind: %+v, %v", msg, err)
	}
}

func TestGateQueuesWhileClosed(t *testing.T) {
	g := NewGate()

	first := schema.Message{Ts: 5, Seq: 1, Source: 1, Kind: schema.KindTrade}
	second := schema.Message{Ts: 7, Seq: 2, Source: 1, Kind: schema.KindOrderLimit}
	if _, pass := g.Offer(first); pass {
		t.Fatal("market flow must be held while closed")
	}
	if _, pass := g.Offer(second); pass {
		t.Fatal("market flow must be held while closed")
	}
	if g.HeldCount() != 2 {
		t.Fatalf("held count = %d, want 2", g.HeldCount())
	}

	// non-market-flow kinds are never gated
	eod := schema.Message{Ts: 6, Kind: schema.KindEndOfData}
	if _, pass := g.Offer(eod); !pass {
		t.Fatal("end-of-data must pass a closed gate")
	}

	released := g.OnOpen(10)
	if len(released) != 2 {
		t.Fatalf("released %d messages, want 2", len(released))
	}
	// arrival order preserved, timestamps moved to the open
	if released[0].Seq != 1 || released[1].Seq != 2 {
		t.Fatalf("release order broken: %+v", released)
	}
	for _, msg := range released {
		if msg.Ts != 10 {
			t.Fatalf("released message not re-stamped: %+v", msg)
		}
	}

	if _, pass := g.Offer(first); !pass {
		t.Fatal("market flow must pass while open")
	}

	g.OnClose()
	if _, pass := g.Offer(first); pass {
		t.Fatal("market flow must be held again after close")
	}
}

func TestGatePassThroughKinds(t *testing.T) {
	g := NewGate(schema.KindTrade)
	msg := schema.Message{Ts: 5, Kind: schema.KindTrade}
	if _, pass := g.Offer(msg); !pass {
		t.Fatal("pass-through kind must bypass a closed gate")
	}
}

func TestLoadSessions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.csv")
	data := "open,close\n" +
		"2024-01-02 10:00:00,2024-01-02 16:00:00\n" +
		"2024-01-03 10:00:00,2024-01-03 16:00:00\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write sessions file: %v", err)
	}

	cal, err := LoadSessions(1, SessionFileSpec{
		Path:           path,
		OpenColumn:     "open",
		CloseColumn:    "close",
		DatetimeLayout: "2006-01-02 15:04:05",
		Sep:            ',',
	})
	if err != nil {
		t.Fatalf("load sessions failed: %v", err)
	}
	if len(cal.Intervals()) != 2 {
		t.Fatalf("loaded %d intervals, want 2", len(cal.Intervals()))
	}
}

func TestLoadSessionsMalformedRowIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.csv")
	data := "open,close\nnot-a-time,2024-01-02 16:00:00\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write sessions file: %v", err)
	}

	_, err := LoadSessions(1, SessionFileSpec{
		Path:           path,
		OpenColumn:     "open",
		CloseColumn:    "close",
		DatetimeLayout: "2006-01-02 15:04:05",
		Sep:            ',',
	})
	if !errors.Is(err, exception.ErrMalformedRecord) {
		t.Fatalf("expected malformed record error, got %v", err)
	}
}
