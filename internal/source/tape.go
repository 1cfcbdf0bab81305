package source

import (
	"github.com/shopspring/decimal"

	"main/internal/schema"
)

// TapeFeed replays one history file list verbatim, emitting trade prints
// or price-level updates without reconstructing order flow. Used by
// inspection tooling and by entities that only want the raw tape.
type TapeFeed struct {
	pair   schema.PairID
	kind   schema.Kind
	reader *historyReader
}

// NewTapeFeed builds a feed over spec. kind must be KindTrade or
// KindPriceLevel.
func NewTapeFeed(pair schema.PairID, kind schema.Kind, spec FileSpec, priceStep decimal.Decimal, window Window, errlog *ErrLog) *TapeFeed {
	return &TapeFeed{
		pair:   pair,
		kind:   kind,
		reader: newHistoryReader(spec, priceStep, window, errlog),
	}
}

// Next returns the next record as a message, or io.EOF.
func (f *TapeFeed) Next() (schema.Message, error) {
	e, err := f.reader.next()
	if err != nil {
		return schema.Message{}, err
	}
	msg := schema.Message{Ts: e.ts, Kind: f.kind}
	if f.kind == schema.KindTrade {
		msg.Payload = schema.Trade{
			Pair:       f.pair,
			Side:       e.side,
			Price:      e.price,
			Size:       e.size,
			RefOrderID: e.orderID,
		}
	} else {
		msg.Payload = schema.PriceLevel{
			Pair:          f.pair,
			Side:          e.side,
			Price:         e.price,
			Size:          e.size,
			SourceOrderID: e.orderID,
		}
	}
	return msg, nil
}

// Restart rewinds to the first row of the first file.
func (f *TapeFeed) Restart() error {
	return f.reader.restart()
}
