package source

import (
	"encoding/csv"
	"github.com/yanun0323/errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"main/internal/schema"
	"main/pkg/exception"
)

const testLayout = "2006-01-02 15:04:05"

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func prlSpec(paths ...string) FileSpec {
	return FileSpec{
		Paths: paths,
		Columns: Columns{
			Datetime: "datetime",
			OrderID:  "order_id",
			Price:    "price",
			Size:     "size",
			Side:     "side",
		},
		DatetimeLayout: testLayout,
		Sep:            ',',
	}
}

func trdSpec(paths ...string) FileSpec {
	return FileSpec{
		Paths: paths,
		Columns: Columns{
			Datetime: "datetime",
			OrderID:  "reference_order_id",
			Price:    "price",
			Size:     "size",
			Side:     "side",
		},
		DatetimeLayout: testLayout,
		Sep:            ',',
	}
}

func drain(t *testing.T, r *PairReader) []schema.Message {
	t.Helper()
	var out []schema.Message
	for {
		msg, err := r.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("next failed: %v", err)
		}
		out = append(out, msg)
	}
}

func TestPairReaderOrderFlow(t *testing.T) {
	dir := t.TempDir()
	prl := writeFile(t, dir, "prl.csv",
		"datetime,order_id,price,size,side\n"+
			"2024-01-02 10:00:00,501,100.5,10,0\n"+ // limit placement
			"2024-01-02 10:00:02,501,100.5,0,0\n") // cancel
	trd := writeFile(t, dir, "trd.csv",
		"datetime,reference_order_id,price,size,side\n"+
			"2024-01-02 10:00:01,501,100.5,4,1\n") // partial consumption

	r := NewPairReader(PairConfig{
		Pair:      1,
		Trd:       trdSpec(trd),
		Prl:       prlSpec(prl),
		PriceStep: decimal.RequireFromString("0.5"),
	})
	msgs := drain(t, r)

	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3: %+v", len(msgs), msgs)
	}

	limit := msgs[0]
	if limit.Kind != schema.KindOrderLimit {
		t.Fatalf("first message kind = %s", limit.Kind)
	}
	placed := limit.Payload.(schema.Order)
	if placed.Price != 201 || placed.Size != 10 || placed.Side != schema.SideBuy || placed.OrderID != 1 {
		t.Fatalf("unexpected placement: %+v", placed)
	}

	market := msgs[1]
	if market.Kind != schema.KindOrderMarket {
		t.Fatalf("second message kind = %s", market.Kind)
	}
	taken := market.Payload.(schema.Order)
	if taken.Size != 4 || taken.Side != schema.SideSell || taken.Price != 0 {
		t.Fatalf("unexpected market order: %+v", taken)
	}

	cancel := msgs[2]
	if cancel.Kind != schema.KindCancel {
		t.Fatalf("third message kind = %s", cancel.Kind)
	}
	if c := cancel.Payload.(schema.Cancel); c.OrderID != placed.OrderID {
		t.Fatalf("cancel references order %d, placement was %d", c.OrderID, placed.OrderID)
	}
}

func TestPairReaderClampsOversizeTrade(t *testing.T) {
	dir := t.TempDir()
	prl := writeFile(t, dir, "prl.csv",
		"datetime,order_id,price,size,side\n"+
			"2024-01-02 10:00:00,77,10.0,5,0\n")
	trd := writeFile(t, dir, "trd.csv",
		"datetime,reference_order_id,price,size,side\n"+
			"2024-01-02 10:00:01,77,10.0,8,1\n")
	errPath := filepath.Join(dir, "err.log")
	errlog, err := OpenErrLog(errPath)
	if err != nil {
		t.Fatalf("open errlog: %v", err)
	}
	defer errlog.Close()

	r := NewPairReader(PairConfig{
		Pair:      1,
		Trd:       trdSpec(trd),
		Prl:       prlSpec(prl),
		PriceStep: decimal.RequireFromString("0.5"),
		ErrLog:    errlog,
	})
	msgs := drain(t, r)

	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	market := msgs[1].Payload.(schema.Order)
	if market.Size != 5 {
		t.Fatalf("oversize trade not clamped to resting size: %+v", market)
	}

	logged, err := os.ReadFile(errPath)
	if err != nil {
		t.Fatalf("read errlog: %v", err)
	}
	if len(logged) == 0 {
		t.Fatal("oversize trade must be reported to the error log")
	}
}

func TestPairReaderSkipsUnknownReferences(t *testing.T) {
	dir := t.TempDir()
	prl := writeFile(t, dir, "prl.csv",
		"datetime,order_id,price,size,side\n"+
			"2024-01-02 10:00:00,5,10.0,0,0\n") // cancel for an order never placed
	trd := writeFile(t, dir, "trd.csv",
		"datetime,reference_order_id,price,size,side\n"+
			"2024-01-02 10:00:01,6,10.0,3,1\n") // trade against an order never placed

	r := NewPairReader(PairConfig{
		Pair:      1,
		Trd:       trdSpec(trd),
		Prl:       prlSpec(prl),
		PriceStep: decimal.RequireFromString("0.5"),
	})
	if msgs := drain(t, r); len(msgs) != 0 {
		t.Fatalf("unknown references must produce no messages, got %+v", msgs)
	}
}

func TestPairReaderWindowFilters(t *testing.T) {
	dir := t.TempDir()
	prl := writeFile(t, dir, "prl.csv",
		"datetime,order_id,price,size,side\n"+
			"2024-01-02 09:00:00,1,10.0,5,0\n"+ // before window
			"2024-01-02 10:00:00,2,10.0,5,0\n"+ // inside
			"2024-01-02 11:00:00,3,10.0,5,0\n") // after window
	trd := writeFile(t, dir, "trd.csv",
		"datetime,reference_order_id,price,size,side\n")

	start := parseTestTime(t, "2024-01-02 09:30:00")
	stop := parseTestTime(t, "2024-01-02 10:30:00")
	r := NewPairReader(PairConfig{
		Pair:      1,
		Trd:       trdSpec(trd),
		Prl:       prlSpec(prl),
		Window:    Window{Start: start, Stop: stop},
		PriceStep: decimal.RequireFromString("0.5"),
	})
	msgs := drain(t, r)
	if len(msgs) != 1 {
		t.Fatalf("window should admit exactly one placement, got %d", len(msgs))
	}
	if msgs[0].Ts != parseTestTime(t, "2024-01-02 10:00:00") {
		t.Fatalf("wrong record admitted: %+v", msgs[0])
	}
}

func TestPairReaderSkipsMalformedRows(t *testing.T) {
	dir := t.TempDir()
	prl := writeFile(t, dir, "prl.csv",
		"datetime,order_id,price,size,side\n"+
			"garbage,1,10.0,5,0\n"+
			"2024-01-02 10:00:00,2,nonsense,5,0\n"+
			"2024-01-02 10:00:01,3,10.0,5,2\n"+ // bad side flag
			"2024-01-02 10:00:02,4,10.3,5,0\n"+ // off the price grid
			"2024-01-02 10:00:03,5,10.0,5,0\n")
	trd := writeFile(t, dir, "trd.csv",
		"datetime,reference_order_id,price,size,side\n")

	r := NewPairReader(PairConfig{
		Pair:      1,
		Trd:       trdSpec(trd),
		Prl:       prlSpec(prl),
		PriceStep: decimal.RequireFromString("0.5"),
	})
	msgs := drain(t, r)
	if len(msgs) != 1 {
		t.Fatalf("only the well-formed row should survive, got %d: %+v", len(msgs), msgs)
	}
}

func TestHistoryReaderReportsUnsplittableRow(t *testing.T) {
	dir := t.TempDir()
	errPath := filepath.Join(dir, "prl.errlog")
	prl := writeFile(t, dir, "prl.csv",
		"datetime,order_id,price,size,side\n"+
			"2024-01-02 10:00:00,7,1\"5,10,B\n"+ // bare quote, csv cannot split it
			"2024-01-02 10:00:01,8,15,10,B\n")

	errlog, err := OpenErrLog(errPath)
	if err != nil {
		t.Fatalf("open error log: %v", err)
	}
	r := newHistoryReader(prlSpec(prl), decimal.New(1, 0), Window{}, errlog)

	e, err := r.next()
	if err != nil {
		t.Fatalf("next after skipped row: %v", err)
	}
	if e.orderID != 8 {
		t.Fatalf("expected the row after the broken one, got order %d", e.orderID)
	}
	if _, err := r.next(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}

	if err := errlog.Close(); err != nil {
		t.Fatalf("close error log: %v", err)
	}
	logged, err := os.ReadFile(errPath)
	if err != nil {
		t.Fatalf("read error log: %v", err)
	}
	if !strings.Contains(string(logged), "cannot read row") {
		t.Fatalf("broken row not reported, log: %q", logged)
	}
}

// stuckReader fails every read with the same error, like a file whose
// backing device went away mid-run.
type stuckReader struct{ err error }

func (r stuckReader) Read([]byte) (int, error) { return 0, r.err }

func TestHistoryReaderFatalOnReadError(t *testing.T) {
	boom := errors.New("device offline")
	r := newHistoryReader(prlSpec("level.csv"), decimal.New(1, 0), Window{}, nil)
	r.reader = csv.NewReader(stuckReader{err: boom})
	r.cols = columnIndex{datetime: 0, orderID: 1, price: 2, size: 3, side: 4}

	if _, err := r.next(); !errors.Is(err, exception.ErrSourceUnreadable) {
		t.Fatalf("expected fatal source error, got %v", err)
	}
	if _, err := r.next(); !errors.Is(err, exception.ErrSourceUnreadable) {
		t.Fatalf("error must persist instead of being skipped, got %v", err)
	}
}

func TestPairReaderMissingFileIsFatal(t *testing.T) {
	r := NewPairReader(PairConfig{
		Pair:      1,
		Trd:       trdSpec("does-not-exist.csv"),
		Prl:       prlSpec("does-not-exist-either.csv"),
		PriceStep: decimal.RequireFromString("0.5"),
	})
	_, err := r.Next()
	if !errors.Is(err, exception.ErrSourceUnreadable) {
		t.Fatalf("expected source unreadable error, got %v", err)
	}
}

func TestPairReaderRestart(t *testing.T) {
	dir := t.TempDir()
	prl := writeFile(t, dir, "prl.csv",
		"datetime,order_id,price,size,side\n"+
			"2024-01-02 10:00:00,501,100.5,10,0\n")
	trd := writeFile(t, dir, "trd.csv",
		"datetime,reference_order_id,price,size,side\n")

	r := NewPairReader(PairConfig{
		Pair:      1,
		Trd:       trdSpec(trd),
		Prl:       prlSpec(prl),
		PriceStep: decimal.RequireFromString("0.5"),
	})
	first := drain(t, r)
	if err := r.Restart(); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	second := drain(t, r)

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("replay lengths differ: %d vs %d", len(first), len(second))
	}
	a, b := first[0].Payload.(schema.Order), second[0].Payload.(schema.Order)
	if a.OrderID != b.OrderID {
		t.Fatalf("internal order ids must restart with the reader: %d vs %d", a.OrderID, b.OrderID)
	}
}

func TestParseSide(t *testing.T) {
	testCases := []struct {
		raw     string
		want    schema.Side
		wantErr bool
	}{
		{"0", schema.SideBuy, false},
		{"B", schema.SideBuy, false},
		{"false", schema.SideBuy, false},
		{"1", schema.SideSell, false},
		{"s", schema.SideSell, false},
		{"True", schema.SideSell, false},
		{"2", schema.SideUnknown, true},
		{"", schema.SideUnknown, true},
	}
	for _, tc := range testCases {
		got, err := parseSide(tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parseSide(%q) should fail", tc.raw)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("parseSide(%q) = %v, %v; want %v", tc.raw, got, err, tc.want)
		}
	}
}

func TestPriceSteps(t *testing.T) {
	step := decimal.RequireFromString("0.0025")

	steps, err := priceSteps("63.0150", step)
	if err != nil {
		t.Fatalf("price on the grid rejected: %v", err)
	}
	if steps != 25206 {
		t.Fatalf("priceSteps = %d, want 25206", steps)
	}

	if _, err := priceSteps("63.0151", step); !errors.Is(err, exception.ErrMalformedRecord) {
		t.Fatalf("off-grid price must be malformed, got %v", err)
	}
}

func parseTestTime(t *testing.T, raw string) int64 {
	t.Helper()
	ts, err := time.Parse(testLayout, raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return ts.UTC().UnixNano()
}
