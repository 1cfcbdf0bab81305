package source

import (
	"fmt"
	"io"

	"main/internal/schema"
)

// SyntheticFeed generates a deterministic walk of trade prints for one
// pair. It exists for tests and benchmarks that need a feed without
// backing files.
type SyntheticFeed struct {
	pair      schema.PairID
	startTs   int64
	interval  int64
	count     int
	basePrice schema.Price
	baseSize  schema.Size

	index int
}

// NewSyntheticFeed creates a feed emitting count trades spaced interval
// nanoseconds apart, starting at startTs.
func NewSyntheticFeed(pair schema.PairID, startTs, interval int64, count int, basePrice schema.Price, baseSize schema.Size) (*SyntheticFeed, error) {
	if count <= 0 {
		return nil, fmt.Errorf("synthetic feed count must be > 0")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("synthetic feed interval must be > 0")
	}
	if baseSize <= 0 {
		baseSize = 1
	}
	return &SyntheticFeed{
		pair:      pair,
		startTs:   startTs,
		interval:  interval,
		count:     count,
		basePrice: basePrice,
		baseSize:  baseSize,
	}, nil
}

// Next returns the next synthetic trade, or io.EOF after count messages.
func (f *SyntheticFeed) Next() (schema.Message, error) {
	if f.index >= f.count {
		return schema.Message{}, io.EOF
	}
	i := f.index
	f.index++

	side := schema.SideBuy
	drift := schema.Price(i % 5)
	if i%2 == 1 {
		side = schema.SideSell
		drift = -drift
	}
	return schema.Message{
		Ts:   f.startTs + int64(i)*f.interval,
		Kind: schema.KindTrade,
		Payload: schema.Trade{
			Pair:       f.pair,
			Side:       side,
			Price:      f.basePrice + drift,
			Size:       f.baseSize + schema.Size(i%3),
			RefOrderID: uint64(i + 1),
		},
	}, nil
}

// Restart rewinds the walk.
func (f *SyntheticFeed) Restart() error {
	f.index = 0
	return nil
}
