package sim

import (
	"os"
	"path/filepath"
	"testing"

	"main/internal/config"
	"main/internal/entity"
	"main/internal/latency"
	"main/internal/schema"
)

const buildTestConfig = `
defaults:
  datetime_format: "2006-01-02 15:04:05"
  csv_sep: ","
  open_colname: open
  close_colname: close
  datetime_colname: datetime
  order_id_colname: order_id
  reference_order_id_colname: reference_order_id
  price_colname: price
  size_colname: size
  buy_sell_flag_colname: side
  start_colname: start
  stop_colname: stop
simulation:
  start: "2024-01-02 09:00:00"
  end: "2024-01-02 18:00:00"
exchanges:
  - name: MOEX
    sessions:
      path: sessions.csv
traded_pairs:
  - exchange: MOEX
    kind: Spot
    quoted: USD
    base: RUB
    price_step: "0.5"
    trd:
      path_list: [trd.csv]
    prl:
      path_list: [prl.csv]
`

func writeTestData(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"config.yaml": buildTestConfig,
		"sessions.csv": "open,close\n" +
			"2024-01-02 10:00:00,2024-01-02 16:00:00\n",
		"prl.csv": "datetime,order_id,price,size,side\n" +
			"2024-01-02 10:30:00,501,100.5,10,0\n",
		"trd.csv": "datetime,reference_order_id,price,size,side\n" +
			"2024-01-02 10:31:00,501,100.5,4,1\n" +
			"2024-01-02 16:00:01,501,100.5,2,1\n", // lands after the close
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func assembleTest(t *testing.T) (*Assembly, *collector) {
	t.Helper()
	dir := writeTestData(t)

	cfg, err := config.LoadAndValidate(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	resolved, err := cfg.Resolve(dir)
	if err != nil {
		t.Fatalf("resolve config: %v", err)
	}
	a, err := Assemble(resolved)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	exID, ok := a.Registry.ExchangeIDByName("MOEX")
	if !ok {
		t.Fatal("exchange not registered")
	}
	model, err := latency.NewConstant(10)
	if err != nil {
		t.Fatalf("latency model: %v", err)
	}
	venue := entity.NewSessionExchange("venue", model)
	venueStream, err := a.AddEntity(venue, exID)
	if err != nil {
		t.Fatalf("add venue: %v", err)
	}

	sink := &collector{id: "sink"}
	if _, err := a.AddEntity(sink, 0); err != nil {
		t.Fatalf("add sink: %v", err)
	}

	pairStream, ok := a.PairStream(1)
	if !ok {
		t.Fatal("pair stream missing")
	}
	calStream, ok := a.CalendarStream(exID)
	if !ok {
		t.Fatal("calendar stream missing")
	}
	for _, stream := range []schema.StreamID{pairStream, calStream} {
		if err := a.Subscribe(stream, venue); err != nil {
			t.Fatalf("subscribe venue: %v", err)
		}
	}
	for _, stream := range []schema.StreamID{pairStream, calStream, venueStream} {
		if err := a.Subscribe(stream, sink); err != nil {
			t.Fatalf("subscribe sink: %v", err)
		}
	}
	return a, sink
}

func TestAssembleEndToEnd(t *testing.T) {
	a, sink := assembleTest(t)
	kernel, err := a.Kernel()
	if err != nil {
		t.Fatalf("kernel init: %v", err)
	}

	out := kernel.Run(nil)
	if out.Failed() {
		t.Fatalf("run failed at clock %d: %v", out.FinalClock, out.Err)
	}
	if !out.Completed {
		t.Fatalf("run did not complete: %+v", out)
	}

	var kinds []schema.Kind
	for _, msg := range sink.seen {
		kinds = append(kinds, msg.Kind)
	}
	want := []schema.Kind{
		schema.KindSessionOpen,
		schema.KindOrderLimit,
		schema.KindAck, // placement acknowledged
		schema.KindOrderMarket,
		schema.KindAck, // market order acknowledged
		schema.KindSessionClose,
		schema.KindEndOfData, // calendar schedule spent
		schema.KindAck,       // resting order expired after the close
		schema.KindEndOfData, // pair history spent
	}
	if len(kinds) != len(want) {
		t.Fatalf("observed kinds %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("position %d: got %s, want %s (%v)", i, kinds[i], want[i], kinds)
		}
	}

	// the trade printed after the close never reaches an entity
	if out.Metrics.GateHeld != 1 {
		t.Fatalf("gate held = %d, want 1", out.Metrics.GateHeld)
	}
	for _, msg := range sink.seen {
		if msg.Kind == schema.KindOrderMarket {
			order := msg.Payload.(schema.Order)
			if order.Size != 4 {
				t.Fatalf("unexpected market order: %+v", order)
			}
		}
	}
}

func TestAssembleIsReplayStable(t *testing.T) {
	run := func() []schema.Message {
		a, sink := assembleTest(t)
		kernel, err := a.Kernel()
		if err != nil {
			t.Fatalf("kernel init: %v", err)
		}
		if out := kernel.Run(nil); out.Failed() {
			t.Fatalf("run failed: %v", out.Err)
		}
		return sink.seen
	}

	first, second := run(), run()
	if len(first) != len(second) {
		t.Fatalf("replays differ in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		if a.Ts != b.Ts || a.Seq != b.Seq || a.Source != b.Source || a.Kind != b.Kind {
			t.Fatalf("replays diverge at %d: %+v vs %+v", i, a, b)
		}
	}
}
