package source

import (
	"io"

	"github.com/shopspring/decimal"

	"main/internal/schema"
)

// PairConfig assembles everything one traded pair needs to replay its
// history: the trade and price-level file lists, the activity window, the
// price step and the per-pair error log.
type PairConfig struct {
	Pair      schema.PairID
	Trd       FileSpec
	Prl       FileSpec
	Window    Window
	PriceStep decimal.Decimal
	ErrLog    *ErrLog
}

// PairReader reconstructs the order flow of one traded pair from its trade
// and price-level history. Price-level rows become limit placements (size
// > 0) or cancels (size 0); trade rows become market orders consuming the
// referenced limit order. The two files are merged by timestamp, ties
// broken by the source order id.
type PairReader struct {
	cfg PairConfig

	trd *historyReader
	prl *historyReader

	nextTrd   *entry
	nextPrl   *entry
	primed    bool
	endMarked bool

	nextOrderID uint64
	// resting size of each source-referenced limit order, keyed by the
	// source order id from the file.
	active map[uint64]*restingOrder
}

type restingOrder struct {
	internalID uint64
	leaves     schema.Size
}

// NewPairReader builds the reader. No file is touched until the first Next.
func NewPairReader(cfg PairConfig) *PairReader {
	return &PairReader{
		cfg:    cfg,
		trd:    newHistoryReader(cfg.Trd, cfg.PriceStep, cfg.Window, cfg.ErrLog),
		prl:    newHistoryReader(cfg.Prl, cfg.PriceStep, cfg.Window, cfg.ErrLog),
		active: make(map[uint64]*restingOrder),
	}
}

// Next returns the next order-flow message, or io.EOF when both histories
// are drained.
func (p *PairReader) Next() (schema.Message, error) {
	if !p.primed {
		if err := p.prime(); err != nil {
			return schema.Message{}, err
		}
	}
	for {
		var (
			e     entry
			isPrl bool
		)
		switch {
		case p.nextPrl != nil && p.nextTrd != nil:
			prl, trd := p.nextPrl, p.nextTrd
			if prl.ts < trd.ts || (prl.ts == trd.ts && prl.orderID < trd.orderID) {
				e, isPrl = *prl, true
			} else {
				e, isPrl = *trd, false
			}
		case p.nextPrl != nil:
			e, isPrl = *p.nextPrl, true
		case p.nextTrd != nil:
			e, isPrl = *p.nextTrd, false
		default:
			return schema.Message{}, io.EOF
		}

		if err := p.advance(isPrl); err != nil {
			return schema.Message{}, err
		}

		var (
			msg schema.Message
			ok  bool
		)
		if isPrl {
			msg, ok = p.processPrl(e)
		} else {
			msg, ok = p.processTrd(e)
		}
		if ok {
			return msg, nil
		}
	}
}

// Restart rewinds both histories and clears the order-tracking state.
func (p *PairReader) Restart() error {
	if err := p.prl.restart(); err != nil {
		return err
	}
	if err := p.trd.restart(); err != nil {
		return err
	}
	p.nextPrl = nil
	p.nextTrd = nil
	p.primed = false
	p.nextOrderID = 0
	p.active = make(map[uint64]*restingOrder)
	return nil
}

func (p *PairReader) prime() error {
	prl, err := p.prl.next()
	if err != nil && err != io.EOF {
		return err
	}
	if err == nil {
		p.nextPrl = &prl
	}
	trd, err := p.trd.next()
	if err != nil && err != io.EOF {
		return err
	}
	if err == nil {
		p.nextTrd = &trd
	}
	p.primed = true
	return nil
}

func (p *PairReader) advance(isPrl bool) error {
	reader := p.trd
	slot := &p.nextTrd
	if isPrl {
		reader = p.prl
		slot = &p.nextPrl
	}
	next, err := reader.next()
	if err == io.EOF {
		*slot = nil
		return nil
	}
	if err != nil {
		return err
	}
	*slot = &next
	return nil
}

// processPrl turns one price-level row into a limit placement or a cancel.
func (p *PairReader) processPrl(e entry) (schema.Message, bool) {
	resting, known := p.active[e.orderID]
	if e.size != 0 {
		if known {
			// Level updates for an already-resting order carry no new
			// order flow.
			return schema.Message{}, false
		}
		internalID := p.mintOrderID()
		p.active[e.orderID] = &restingOrder{internalID: internalID, leaves: e.size}
		return schema.Message{
			Ts:   e.ts,
			Kind: schema.KindOrderLimit,
			Payload: schema.Order{
				Pair:    p.cfg.Pair,
				OrderID: internalID,
				Side:    e.side,
				Price:   e.price,
				Size:    e.size,
			},
		}, true
	}

	if known && resting.leaves != 0 {
		return schema.Message{
			Ts:   e.ts,
			Kind: schema.KindCancel,
			Payload: schema.Cancel{
				Pair:    p.cfg.Pair,
				OrderID: resting.internalID,
			},
		}, true
	}
	p.cfg.ErrLog.Reportf(e.ts, "cannot cancel limit order with source ID %d since it has not been submitted", e.orderID)
	return schema.Message{}, false
}

// processTrd turns one trade row into a market order consuming the
// referenced limit order's remaining size.
func (p *PairReader) processTrd(e entry) (schema.Message, bool) {
	resting, known := p.active[e.orderID]
	if !known {
		p.cfg.ErrLog.Reportf(e.ts, "cannot match market order with reference order ID %d and size %d since the corresponding limit order has not been submitted", e.orderID, e.size)
		return schema.Message{}, false
	}

	size := e.size
	if resting.leaves < size {
		p.cfg.ErrLog.Reportf(e.ts, "remaining size %d of the limit order with source ID %d is less than the matched market order size %d", resting.leaves, e.orderID, size)
		size = resting.leaves
		resting.leaves = 0
	} else {
		resting.leaves -= size
	}
	if size == 0 {
		return schema.Message{}, false
	}
	return schema.Message{
		Ts:   e.ts,
		Kind: schema.KindOrderMarket,
		Payload: schema.Order{
			Pair:    p.cfg.Pair,
			OrderID: p.mintOrderID(),
			Side:    e.side,
			Size:    size,
		},
	}, true
}

func (p *PairReader) mintOrderID() uint64 {
	p.nextOrderID++
	return p.nextOrderID
}
