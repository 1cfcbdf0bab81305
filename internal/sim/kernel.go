package sim

import (
	"fmt"

	"github.com/yanun0323/errors"

	"main/internal/calendar"
	"main/internal/obs"
	"main/internal/schema"
	"main/internal/timeline"
	"main/pkg/exception"
)

// Options assembles one kernel instance. Every referenced component is
// owned exclusively by this kernel; replicas never share any of it.
type Options struct {
	// Start and End bound the simulation window in nanoseconds. End is
	// a hard ceiling: a message timestamped beyond it is discarded, not
	// dispatched.
	Start int64
	End   int64
	// Streams resolves stream identities to their exchanges.
	Streams *schema.Registry
	// Merger holds the per-stream timelines.
	Merger *timeline.Merger
	// Subscriptions routes dispatched messages to entities.
	Subscriptions *Subscriptions
	// Gates queue market-flow messages per exchange while closed.
	// Exchanges without a gate are treated as always open.
	Gates map[schema.ExchangeID]*calendar.Gate
	// Metrics is optional; a nil value allocates a private one.
	Metrics *obs.Metrics
}

// Kernel owns the merge-dispatch loop: it selects the earliest pending
// message across all timelines and re-inserted emissions, advances the
// virtual clock, and dispatches to the subscribed entities. Execution is
// strictly single-threaded; a step either fully completes or the run
// aborts.
type Kernel struct {
	streams *schema.Registry
	merger  *timeline.Merger
	subs    *Subscriptions
	gates   map[schema.ExchangeID]*calendar.Gate
	metrics *obs.Metrics

	pending pendingHeap
	clock   int64
	start   int64
	end     int64

	entitySeq  map[schema.StreamID]uint64
	dispatched uint64
}

// NewKernel validates the options and builds a kernel positioned at the
// simulation start.
func NewKernel(opts Options) (*Kernel, error) {
	if opts.End < opts.Start {
		return nil, fmt.Errorf("simulation end %d is before start %d", opts.End, opts.Start)
	}
	if opts.Streams == nil {
		return nil, fmt.Errorf("stream registry is nil")
	}
	if opts.Merger == nil {
		return nil, fmt.Errorf("merger is nil")
	}
	if opts.Subscriptions == nil {
		return nil, fmt.Errorf("subscriptions are nil")
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = &obs.Metrics{}
	}
	return &Kernel{
		streams:   opts.Streams,
		merger:    opts.Merger,
		subs:      opts.Subscriptions,
		gates:     opts.Gates,
		metrics:   metrics,
		clock:     opts.Start,
		start:     opts.Start,
		end:       opts.End,
		entitySeq: make(map[schema.StreamID]uint64),
	}, nil
}

// Clock returns the current virtual timestamp.
func (k *Kernel) Clock() int64 { return k.clock }

// Metrics returns the kernel's counter set.
func (k *Kernel) Metrics() *obs.Metrics { return k.metrics }

// Run drives the merge-dispatch loop to a terminal state. The stop
// channel is checked once per step, never mid-dispatch; a stop request
// yields a truncated outcome.
func (k *Kernel) Run(stop <-chan struct{}) Outcome {
	for {
		select {
		case <-stop:
			return k.finish(Outcome{Truncated: true, FinalClock: k.clock})
		default:
		}

		msg, ok, err := k.selectNext()
		if err != nil {
			return k.fail(err)
		}
		if !ok {
			// Every timeline is exhausted and no emission remains: the
			// simulation window is spent.
			k.clock = k.end
			return k.finish(Outcome{Completed: true, FinalClock: k.clock})
		}
		if msg.Ts > k.end {
			k.metrics.CountDiscarded()
			k.clock = k.end
			return k.finish(Outcome{Completed: true, FinalClock: k.clock})
		}
		if msg.Ts < k.clock {
			return k.fail(errors.Wrapf(exception.ErrUnsortedSource,
				"stream %d produced ts %d behind the clock %d", msg.Source, msg.Ts, k.clock))
		}

		k.metrics.CountStep()
		k.clock = msg.Ts

		if err := k.route(msg); err != nil {
			return k.fail(err)
		}
	}
}

// selectNext returns the global minimum across the merger and the
// re-insertion heap.
func (k *Kernel) selectNext() (schema.Message, bool, error) {
	merged, haveMerged := k.merger.Peek()
	pending, havePending := k.pending.peek()

	switch {
	case haveMerged && havePending:
		if schema.Less(pending, merged) {
			msg, _ := k.pending.pop()
			return msg, true, nil
		}
		msg, err := k.merger.Pop()
		return msg, err == nil, err
	case haveMerged:
		msg, err := k.merger.Pop()
		return msg, err == nil, err
	case havePending:
		msg, _ := k.pending.pop()
		return msg, true, nil
	default:
		return schema.Message{}, false, nil
	}
}

// route sends one selected message through the exchange gate and on to
// dispatch, flushing gated messages on an open transition.
func (k *Kernel) route(msg schema.Message) error {
	gate := k.gateFor(msg.Source)
	if gate != nil {
		switch msg.Kind {
		case schema.KindSessionOpen:
			if err := k.dispatch(msg); err != nil {
				return err
			}
			for _, held := range gate.OnOpen(msg.Ts) {
				if err := k.dispatch(held); err != nil {
					return err
				}
			}
			return nil
		case schema.KindSessionClose:
			gate.OnClose()
			return k.dispatch(msg)
		default:
			routed, pass := gate.Offer(msg)
			if !pass {
				k.metrics.CountGateHeld()
				return nil
			}
			msg = routed
		}
	}
	return k.dispatch(msg)
}

// gateFor resolves the gate of the exchange owning a stream, if any.
func (k *Kernel) gateFor(stream schema.StreamID) *calendar.Gate {
	if len(k.gates) == 0 {
		return nil
	}
	exchange, ok := k.streams.StreamExchange(stream)
	if !ok {
		return nil
	}
	return k.gates[exchange]
}

// dispatch delivers one message to every subscriber in registration
// order and absorbs their emissions into the re-insertion heap.
func (k *Kernel) dispatch(msg schema.Message) error {
	k.dispatched++
	k.metrics.CountDispatch(msg.Kind)

	for _, e := range k.subs.Subscribers(msg.Source) {
		for _, emitted := range e.OnMessage(msg) {
			if err := k.absorb(e, emitted); err != nil {
				return err
			}
		}
	}
	return nil
}

// absorb validates and re-inserts one entity-emitted message. Emissions
// at or before the current clock would silently corrupt ordering, so the
// run fails fast instead.
func (k *Kernel) absorb(from Entity, msg schema.Message) error {
	if msg.Ts <= k.clock {
		return errors.Wrapf(exception.ErrCausalityViolation,
			"entity %s emitted ts %d at clock %d", from.ID(), msg.Ts, k.clock)
	}
	stream, ok := k.subs.EmissionStream(from)
	if !ok {
		return fmt.Errorf("entity %s has no emission stream", from.ID())
	}
	if msg.Source == 0 {
		msg.Source = stream
	}
	k.entitySeq[msg.Source]++
	msg.Seq = k.entitySeq[msg.Source]
	k.pending.push(msg)
	k.metrics.CountReinserted()
	return nil
}

func (k *Kernel) finish(outcome Outcome) Outcome {
	outcome.Dispatched = k.dispatched
	outcome.Entities = k.subs.Entities()
	outcome.Metrics = k.metrics.Snapshot()
	return outcome
}

func (k *Kernel) fail(err error) Outcome {
	return k.finish(Outcome{Err: err, FinalClock: k.clock})
}
