package codec

import (
	"encoding/binary"

	"main/internal/schema"
)

const TradePayloadSize = 32

// EncodeTrade serializes a trade print into a fixed-size payload.
func EncodeTrade(dst []byte, t schema.Trade) []byte {
	if cap(dst) < TradePayloadSize {
		dst = make([]byte, TradePayloadSize)
	} else {
		dst = dst[:TradePayloadSize]
	}

	binary.LittleEndian.PutUint32(dst[0:4], uint32(t.Pair))
	dst[4] = byte(t.Side)
	dst[5], dst[6], dst[7] = 0, 0, 0
	binary.LittleEndian.PutUint64(dst[8:16], t.RefOrderID)
	binary.LittleEndian.PutUint64(dst[16:24], uint64(t.Price))
	binary.LittleEndian.PutUint64(dst[24:32], uint64(t.Size))

	return dst
}

// DecodeTrade parses a fixed-size trade payload.
func DecodeTrade(src []byte) (schema.Trade, bool) {
	if len(src) < TradePayloadSize {
		return schema.Trade{}, false
	}
	return schema.Trade{
		Pair:       schema.PairID(binary.LittleEndian.Uint32(src[0:4])),
		Side:       schema.Side(src[4]),
		RefOrderID: binary.LittleEndian.Uint64(src[8:16]),
		Price:      schema.Price(int64(binary.LittleEndian.Uint64(src[16:24]))),
		Size:       schema.Size(int64(binary.LittleEndian.Uint64(src[24:32]))),
	}, true
}

const PriceLevelPayloadSize = 32

// EncodePriceLevel serializes a price-level update into a fixed-size
// payload.
func EncodePriceLevel(dst []byte, pl schema.PriceLevel) []byte {
	if cap(dst) < PriceLevelPayloadSize {
		dst = make([]byte, PriceLevelPayloadSize)
	} else {
		dst = dst[:PriceLevelPayloadSize]
	}

	binary.LittleEndian.PutUint32(dst[0:4], uint32(pl.Pair))
	dst[4] = byte(pl.Side)
	dst[5], dst[6], dst[7] = 0, 0, 0
	binary.LittleEndian.PutUint64(dst[8:16], pl.SourceOrderID)
	binary.LittleEndian.PutUint64(dst[16:24], uint64(pl.Price))
	binary.LittleEndian.PutUint64(dst[24:32], uint64(pl.Size))

	return dst
}

// DecodePriceLevel parses a fixed-size price-level payload.
func DecodePriceLevel(src []byte) (schema.PriceLevel, bool) {
	if len(src) < PriceLevelPayloadSize {
		return schema.PriceLevel{}, false
	}
	return schema.PriceLevel{
		Pair:          schema.PairID(binary.LittleEndian.Uint32(src[0:4])),
		Side:          schema.Side(src[4]),
		SourceOrderID: binary.LittleEndian.Uint64(src[8:16]),
		Price:         schema.Price(int64(binary.LittleEndian.Uint64(src[16:24]))),
		Size:          schema.Size(int64(binary.LittleEndian.Uint64(src[24:32]))),
	}, true
}
