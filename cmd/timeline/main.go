package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"main/internal/capture"
	"main/internal/config"
	"main/internal/schema"
	"main/internal/sim"
	"main/internal/source"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML simulation config")
	limit := flag.Int("limit", 0, "Stop after N messages (0=all)")
	decode := flag.Bool("decode", false, "Print payload details")
	raw := flag.String("raw", "", "Dump one raw tape instead of the merged timeline: trd or prl")
	rawPair := flag.Int("raw-pair", 0, "Pair index for -raw")
	compareLeft := flag.String("compare-left", "", "First capture log to compare")
	compareRight := flag.String("compare-right", "", "Second capture log to compare")
	flag.Parse()

	if *compareLeft != "" || *compareRight != "" {
		if *compareLeft == "" || *compareRight == "" {
			log.Fatalf("comparison needs both -compare-left and -compare-right")
		}
		runCompare(*compareLeft, *compareRight)
		return
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	resolved, err := cfg.Resolve(filepath.Dir(*configPath))
	if err != nil {
		log.Fatalf("resolve config failed: %v", err)
	}

	if *raw != "" {
		runRawTape(resolved, *raw, *rawPair, *limit)
		return
	}

	a, err := sim.Assemble(resolved)
	if err != nil {
		log.Fatalf("assemble failed: %v", err)
	}
	defer a.Close()

	stop := make(chan struct{})
	p := &printer{registry: a.Registry, limit: *limit, decode: *decode, stop: stop}
	if _, err := a.AddEntity(p, 0); err != nil {
		log.Fatalf("add printer failed: %v", err)
	}
	own, _ := a.Registry.StreamIDByName("entity:" + p.ID())
	for id := schema.StreamID(1); int(id) <= a.Registry.StreamCount(); id++ {
		if id == own {
			continue
		}
		if err := a.Subscribe(id, p); err != nil {
			log.Fatalf("subscribe printer failed: %v", err)
		}
	}

	kernel, err := a.Kernel()
	if err != nil {
		log.Fatalf("kernel init failed: %v", err)
	}

	out := kernel.Run(stop)
	if out.Failed() {
		log.Fatalf("run failed at clock %d: %v", out.FinalClock, out.Err)
	}
	fmt.Printf("done: %d messages, final clock %s\n", out.Dispatched, stampOf(out.FinalClock))
}

func runRawTape(resolved *config.Resolved, which string, pairIdx, limit int) {
	if pairIdx < 0 || pairIdx >= len(resolved.Pairs) {
		log.Fatalf("raw pair index %d out of range (%d pairs)", pairIdx, len(resolved.Pairs))
	}
	pair := resolved.Pairs[pairIdx]

	var (
		spec source.FileSpec
		kind schema.Kind
	)
	switch which {
	case "trd":
		spec, kind = pair.Trd, schema.KindTrade
	case "prl":
		spec, kind = pair.Prl, schema.KindPriceLevel
	default:
		log.Fatalf("-raw must be trd or prl, got %q", which)
	}

	window, err := config.LoadWindow(pair.WindowFile)
	if err != nil {
		log.Fatalf("load window failed: %v", err)
	}

	feed := source.NewTapeFeed(schema.PairID(pairIdx+1), kind, spec, pair.PriceStep, window, nil)
	count := 0
	for {
		msg, err := feed.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("read tape failed: %v", err)
		}
		count++
		fmt.Printf("%06d %s %s\n", count, stampOf(msg.Ts), msg.Kind)
		printPayload(msg)
		if limit > 0 && count >= limit {
			break
		}
	}
	fmt.Printf("done: %d records\n", count)
}

func runCompare(left, right string) {
	div, err := capture.Compare(left, right)
	if err != nil {
		log.Fatalf("compare failed: %v", err)
	}
	if div == nil {
		fmt.Println("capture logs are identical")
		return
	}
	fmt.Printf("capture logs diverge at record %d\n", div.Index)
	printRecord("left ", div.Left)
	printRecord("right", div.Right)
}

func printRecord(label string, rec *capture.Record) {
	if rec == nil {
		fmt.Printf("  %s: <absent>\n", label)
		return
	}
	fmt.Printf("  %s: ts=%s seq=%d source=%d kind=%s\n", label, stampOf(rec.Ts), rec.Seq, rec.Source, rec.Kind)
}

type printer struct {
	registry *schema.Registry
	limit    int
	decode   bool
	stop     chan struct{}

	count   int
	stopped bool
}

func (p *printer) ID() string { return "dump" }

func (p *printer) OnMessage(msg schema.Message) []schema.Message {
	if p.stopped {
		return nil
	}
	p.count++
	name := fmt.Sprintf("stream-%d", msg.Source)
	if stream, ok := p.registry.Stream(msg.Source); ok {
		name = stream.Name
	}
	fmt.Printf("%06d %s seq=%d %s %s\n", p.count, stampOf(msg.Ts), msg.Seq, name, msg.Kind)
	if p.decode {
		printPayload(msg)
	}
	if p.limit > 0 && p.count >= p.limit {
		p.stopped = true
		close(p.stop)
	}
	return nil
}

func printPayload(msg schema.Message) {
	switch payload := msg.Payload.(type) {
	case schema.Trade:
		fmt.Printf("  trade pair=%d side=%s price=%d size=%d ref=%d\n",
			payload.Pair, payload.Side, payload.Price, payload.Size, payload.RefOrderID)
	case schema.PriceLevel:
		fmt.Printf("  level pair=%d side=%s price=%d size=%d src=%d\n",
			payload.Pair, payload.Side, payload.Price, payload.Size, payload.SourceOrderID)
	case schema.Order:
		fmt.Printf("  order pair=%d id=%d side=%s price=%d size=%d\n",
			payload.Pair, payload.OrderID, payload.Side, payload.Price, payload.Size)
	case schema.Cancel:
		fmt.Printf("  cancel pair=%d id=%d\n", payload.Pair, payload.OrderID)
	case schema.Ack:
		fmt.Printf("  ack pair=%d id=%d status=%d leaves=%d\n",
			payload.Pair, payload.OrderID, payload.Status, payload.LeavesSize)
	case schema.SessionBoundary:
		fmt.Printf("  session exchange=%d\n", payload.Exchange)
	}
}

func stampOf(ts int64) string {
	return time.Unix(0, ts).UTC().Format("2006-01-02 15:04:05.000000000")
}
