package codec

import (
	"encoding/binary"

	"main/internal/schema"
)

const OrderPayloadSize = 32

// EncodeOrder serializes an order placement into a fixed-size payload.
func EncodeOrder(dst []byte, o schema.Order) []byte {
	if cap(dst) < OrderPayloadSize {
		dst = make([]byte, OrderPayloadSize)
	} else {
		dst = dst[:OrderPayloadSize]
	}

	binary.LittleEndian.PutUint32(dst[0:4], uint32(o.Pair))
	dst[4] = byte(o.Side)
	dst[5], dst[6], dst[7] = 0, 0, 0
	binary.LittleEndian.PutUint64(dst[8:16], o.OrderID)
	binary.LittleEndian.PutUint64(dst[16:24], uint64(o.Price))
	binary.LittleEndian.PutUint64(dst[24:32], uint64(o.Size))

	return dst
}

// DecodeOrder parses a fixed-size order payload.
func DecodeOrder(src []byte) (schema.Order, bool) {
	if len(src) < OrderPayloadSize {
		return schema.Order{}, false
	}
	return schema.Order{
		Pair:    schema.PairID(binary.LittleEndian.Uint32(src[0:4])),
		Side:    schema.Side(src[4]),
		OrderID: binary.LittleEndian.Uint64(src[8:16]),
		Price:   schema.Price(int64(binary.LittleEndian.Uint64(src[16:24]))),
		Size:    schema.Size(int64(binary.LittleEndian.Uint64(src[24:32]))),
	}, true
}

const CancelPayloadSize = 16

// EncodeCancel serializes a cancel request into a fixed-size payload.
func EncodeCancel(dst []byte, c schema.Cancel) []byte {
	if cap(dst) < CancelPayloadSize {
		dst = make([]byte, CancelPayloadSize)
	} else {
		dst = dst[:CancelPayloadSize]
	}

	binary.LittleEndian.PutUint32(dst[0:4], uint32(c.Pair))
	binary.LittleEndian.PutUint32(dst[4:8], 0)
	binary.LittleEndian.PutUint64(dst[8:16], c.OrderID)

	return dst
}

// DecodeCancel parses a fixed-size cancel payload.
func DecodeCancel(src []byte) (schema.Cancel, bool) {
	if len(src) < CancelPayloadSize {
		return schema.Cancel{}, false
	}
	return schema.Cancel{
		Pair:    schema.PairID(binary.LittleEndian.Uint32(src[0:4])),
		OrderID: binary.LittleEndian.Uint64(src[8:16]),
	}, true
}
