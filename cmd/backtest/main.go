package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"

	"main/internal/capture"
	"main/internal/config"
	"main/internal/entity"
	"main/internal/latency"
	"main/internal/outcome"
	"main/internal/replica"
	"main/internal/schema"
	"main/internal/sim"
	"main/pkg/conn"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML simulation config")
	replicas := flag.Int("replicas", 1, "Number of independent replicas")
	parallel := flag.Int("parallel", 0, "Max concurrently running replicas (0=all at once)")
	batch := flag.String("batch", "", "Batch label for persisted results (default: start time)")
	captureDir := flag.String("capture-dir", "", "Directory for per-replica capture logs (empty=disabled)")
	ackLatency := flag.Duration("ack-latency", time.Millisecond, "Exchange acknowledgement latency")
	pgConn := flag.String("pg", "", "PostgreSQL connection string for result persistence (empty=disabled)")
	profileAddr := flag.String("pyroscope", "", "Pyroscope server address (empty=disabled)")
	flag.Parse()

	if *profileAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "backtest",
			ServerAddress:   *profileAddr,
			Logger:          emptyLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	resolved, err := cfg.Resolve(filepath.Dir(*configPath))
	if err != nil {
		log.Fatalf("resolve config failed: %v", err)
	}

	label := *batch
	if label == "" {
		label = time.Now().UTC().Format("20060102-150405")
	}

	var (
		mu         sync.Mutex
		assemblies []*sim.Assembly
		writers    []*capture.Writer
	)
	build := func(run replica.Run) (*sim.Kernel, error) {
		a, err := sim.Assemble(perReplica(resolved, run.Index, *replicas))
		if err != nil {
			return nil, err
		}

		var observed []schema.StreamID
		for id := schema.StreamID(1); int(id) <= a.Registry.StreamCount(); id++ {
			observed = append(observed, id)
		}

		venues, err := attachVenues(a, run.Index, ackLatency.Nanoseconds())
		if err != nil {
			return nil, err
		}
		observed = append(observed, venues...)

		if *captureDir != "" {
			writer, err := capture.NewWriter(capture.Config{
				Path: filepath.Join(*captureDir, fmt.Sprintf("replica-%03d.cap", run.Index)),
			})
			if err != nil {
				return nil, err
			}
			mu.Lock()
			writers = append(writers, writer)
			mu.Unlock()

			rec := entity.NewRecorder(fmt.Sprintf("r%d:recorder", run.Index), writer)
			if _, err := a.AddEntity(rec, 0); err != nil {
				return nil, err
			}
			for _, stream := range observed {
				if err := a.Subscribe(stream, rec); err != nil {
					return nil, err
				}
			}
		}

		mu.Lock()
		assemblies = append(assemblies, a)
		mu.Unlock()
		return a.Kernel()
	}

	harness, err := replica.New(replica.Config{Replicas: *replicas, MaxParallel: *parallel}, build)
	if err != nil {
		log.Fatalf("harness init failed: %v", err)
	}

	stop := make(chan struct{})
	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigC
		close(stop)
	}()

	results := harness.Run(stop)

	for _, w := range writers {
		if err := w.Close(); err != nil {
			log.Printf("close capture log failed: %v", err)
		}
	}
	for _, a := range assemblies {
		if err := a.Close(); err != nil {
			log.Printf("close assembly failed: %v", err)
		}
	}

	failed := 0
	for _, r := range results {
		if r.Outcome.Failed() {
			failed++
			fmt.Printf("replica %03d %s FAILED clock=%d err=%v\n", r.Run.Index, r.Run.ID, r.Outcome.FinalClock, r.Outcome.Err)
			continue
		}
		state := "completed"
		if r.Outcome.Truncated {
			state = "truncated"
		}
		fmt.Printf("replica %03d %s %s clock=%d dispatched=%d reinserted=%d gated=%d elapsed=%s\n",
			r.Run.Index, r.Run.ID, state, r.Outcome.FinalClock, r.Outcome.Dispatched,
			r.Outcome.Metrics.Reinserted, r.Outcome.Metrics.GateHeld, r.Elapsed)
	}

	if *pgConn != "" {
		store, err := outcome.NewStore(conn.Option{ConnString: *pgConn})
		if err != nil {
			log.Fatalf("open outcome store failed: %v", err)
		}
		defer store.Close()
		if err := store.SaveBatch(context.Background(), label, results); err != nil {
			log.Fatalf("save batch failed: %v", err)
		}
		fmt.Printf("saved %d results under batch %s\n", len(results), label)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// attachVenues adds one session exchange entity per configured exchange,
// subscribed to its pairs and its calendar. It returns the venue emission
// streams so a recorder can observe the acknowledgements too.
func attachVenues(a *sim.Assembly, runIdx int, ackNanos int64) ([]schema.StreamID, error) {
	var streams []schema.StreamID
	for exID := schema.ExchangeID(1); int(exID) <= a.Registry.ExchangeCount(); exID++ {
		ex, _ := a.Registry.Exchange(exID)
		model, err := latency.NewConstant(ackNanos)
		if err != nil {
			return nil, err
		}
		venue := entity.NewSessionExchange(fmt.Sprintf("r%d:%s", runIdx, ex.Name), model)
		stream, err := a.AddEntity(venue, exID)
		if err != nil {
			return nil, err
		}
		streams = append(streams, stream)

		for pairID := schema.PairID(1); int(pairID) <= a.Registry.PairCount(); pairID++ {
			pair, _ := a.Registry.Pair(pairID)
			if pair.ExchangeID != exID {
				continue
			}
			pairStream, ok := a.PairStream(pairID)
			if !ok {
				continue
			}
			if err := a.Subscribe(pairStream, venue); err != nil {
				return nil, err
			}
		}
		if calStream, ok := a.CalendarStream(exID); ok {
			if err := a.Subscribe(calStream, venue); err != nil {
				return nil, err
			}
		}
	}
	return streams, nil
}

// perReplica gives each replica its own error log files so concurrent
// replicas never truncate each other's logs.
func perReplica(res *config.Resolved, idx, total int) *config.Resolved {
	if total <= 1 {
		return res
	}
	out := *res
	out.Pairs = make([]config.ResolvedPair, len(res.Pairs))
	copy(out.Pairs, res.Pairs)
	for i := range out.Pairs {
		if out.Pairs[i].ErrLogFile != "" {
			out.Pairs[i].ErrLogFile = fmt.Sprintf("%s.r%03d", out.Pairs[i].ErrLogFile, idx)
		}
	}
	return &out
}

type emptyLogger struct{}

func (emptyLogger) Infof(_ string, _ ...interface{})  {}
func (emptyLogger) Debugf(_ string, _ ...interface{}) {}
func (emptyLogger) Errorf(_ string, _ ...interface{}) {}
