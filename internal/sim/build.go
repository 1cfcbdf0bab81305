package sim

import (
	"fmt"

	"main/internal/calendar"
	"main/internal/config"
	"main/internal/obs"
	"main/internal/schema"
	"main/internal/source"
	"main/internal/timeline"
)

// Assembly turns a resolved configuration into the components one kernel
// needs: the registry, the per-pair timelines, the calendar feeds and
// gates. Entities are attached afterwards, then Kernel builds the runnable
// instance. Each replica assembles its own copy; nothing here is shared.
type Assembly struct {
	Registry      *schema.Registry
	Subscriptions *Subscriptions
	Metrics       *obs.Metrics

	start int64
	end   int64

	timelines      []*timeline.Timeline
	gates          map[schema.ExchangeID]*calendar.Gate
	pairStream     map[schema.PairID]schema.StreamID
	calendarStream map[schema.ExchangeID]schema.StreamID
	errLogs        []*source.ErrLog
}

// Assemble builds the historical side of a simulation from its resolved
// configuration. passThrough kinds bypass every session gate.
func Assemble(res *config.Resolved, passThrough ...schema.Kind) (*Assembly, error) {
	a := &Assembly{
		Registry:       schema.NewRegistry(),
		Subscriptions:  NewSubscriptions(),
		Metrics:        &obs.Metrics{},
		start:          res.Start,
		end:            res.End,
		gates:          make(map[schema.ExchangeID]*calendar.Gate),
		pairStream:     make(map[schema.PairID]schema.StreamID),
		calendarStream: make(map[schema.ExchangeID]schema.StreamID),
	}

	for _, ex := range res.Exchanges {
		if err := a.addExchange(ex, passThrough); err != nil {
			a.Close()
			return nil, err
		}
	}
	for _, p := range res.Pairs {
		if err := a.addPair(p); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *Assembly) addExchange(ex config.ResolvedExchange, passThrough []schema.Kind) error {
	id, err := a.Registry.AddExchange(ex.Name)
	if err != nil {
		return err
	}
	cal, err := calendar.LoadSessions(id, ex.Sessions)
	if err != nil {
		return err
	}
	cal, err = clampCalendar(cal, a.start)
	if err != nil {
		return err
	}

	stream, err := a.Registry.AddStream(ex.Name+":sessions", id)
	if err != nil {
		return err
	}
	a.calendarStream[id] = stream
	a.gates[id] = calendar.NewGate(passThrough...)
	a.timelines = append(a.timelines, timeline.New(stream, calendar.NewBoundaryFeed(cal)))
	return nil
}

func (a *Assembly) addPair(p config.ResolvedPair) error {
	exchangeID, ok := a.Registry.ExchangeIDByName(p.Exchange)
	if !ok {
		return fmt.Errorf("pair %s/%s references unknown exchange %s", p.Base, p.Quoted, p.Exchange)
	}
	pairID, err := a.Registry.AddPair(exchangeID, p.Kind, p.Quoted, p.Base)
	if err != nil {
		return err
	}
	pair, _ := a.Registry.Pair(pairID)

	window, err := config.LoadWindow(p.WindowFile)
	if err != nil {
		return err
	}
	window = a.clampWindow(window)

	errLog, err := source.OpenErrLog(p.ErrLogFile)
	if err != nil {
		return err
	}
	a.errLogs = append(a.errLogs, errLog)

	stream, err := a.Registry.AddStream(p.Exchange+":"+pair.Name(), exchangeID)
	if err != nil {
		return err
	}
	a.pairStream[pairID] = stream

	reader := source.NewPairReader(source.PairConfig{
		Pair:      pairID,
		Trd:       p.Trd,
		Prl:       p.Prl,
		Window:    window,
		PriceStep: p.PriceStep,
		ErrLog:    errLog,
	})
	a.timelines = append(a.timelines, timeline.New(stream, reader))
	return nil
}

// clampWindow intersects a pair's activity window with the simulation
// bounds.
func (a *Assembly) clampWindow(w source.Window) source.Window {
	if w.Start < a.start {
		w.Start = a.start
	}
	if w.Stop == 0 || w.Stop > a.end {
		w.Stop = a.end
	}
	return w
}

// clampCalendar drops sessions that ended before the simulation start and
// moves an in-progress session's open to the start, so the boundary feed
// never emits behind the clock.
func clampCalendar(cal *calendar.Calendar, start int64) (*calendar.Calendar, error) {
	var intervals []calendar.Interval
	for _, iv := range cal.Intervals() {
		if iv.Close <= start {
			continue
		}
		if iv.Open < start {
			iv.Open = start
		}
		intervals = append(intervals, iv)
	}
	return calendar.New(cal.Exchange(), intervals)
}

// AddEntity registers an entity, mints its emission stream and returns
// it. The stream belongs to the given exchange; zero means ungated.
func (a *Assembly) AddEntity(e Entity, exchange schema.ExchangeID) (schema.StreamID, error) {
	stream, err := a.Registry.AddStream("entity:"+e.ID(), exchange)
	if err != nil {
		return 0, err
	}
	if err := a.Subscriptions.Register(e, stream); err != nil {
		return 0, err
	}
	return stream, nil
}

// Subscribe attaches a registered entity to a stream's dispatch list.
func (a *Assembly) Subscribe(stream schema.StreamID, e Entity) error {
	return a.Subscriptions.Subscribe(stream, e)
}

// PairStream returns the stream carrying a pair's order flow.
func (a *Assembly) PairStream(pair schema.PairID) (schema.StreamID, bool) {
	id, ok := a.pairStream[pair]
	return id, ok
}

// PairStreams returns every pair's stream in a fresh map.
func (a *Assembly) PairStreams() map[schema.PairID]schema.StreamID {
	out := make(map[schema.PairID]schema.StreamID, len(a.pairStream))
	for pair, stream := range a.pairStream {
		out[pair] = stream
	}
	return out
}

// CalendarStream returns the stream carrying an exchange's session
// boundaries.
func (a *Assembly) CalendarStream(exchange schema.ExchangeID) (schema.StreamID, bool) {
	id, ok := a.calendarStream[exchange]
	return id, ok
}

// Kernel builds the runnable kernel over everything assembled so far.
func (a *Assembly) Kernel() (*Kernel, error) {
	merger, err := timeline.NewMerger(a.timelines...)
	if err != nil {
		return nil, err
	}
	return NewKernel(Options{
		Start:         a.start,
		End:           a.end,
		Streams:       a.Registry,
		Merger:        merger,
		Subscriptions: a.Subscriptions,
		Gates:         a.gates,
		Metrics:       a.Metrics,
	})
}

// Close releases the per-pair error logs.
func (a *Assembly) Close() error {
	var first error
	for _, l := range a.errLogs {
		if err := l.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
