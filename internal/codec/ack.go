package codec

import (
	"encoding/binary"

	"main/internal/schema"
)

const AckPayloadSize = 24

// EncodeAck serializes an order acknowledgement into a fixed-size payload.
func EncodeAck(dst []byte, a schema.Ack) []byte {
	if cap(dst) < AckPayloadSize {
		dst = make([]byte, AckPayloadSize)
	} else {
		dst = dst[:AckPayloadSize]
	}

	binary.LittleEndian.PutUint32(dst[0:4], uint32(a.Pair))
	dst[4] = byte(a.Status)
	dst[5], dst[6], dst[7] = 0, 0, 0
	binary.LittleEndian.PutUint64(dst[8:16], a.OrderID)
	binary.LittleEndian.PutUint64(dst[16:24], uint64(a.LeavesSize))

	return dst
}

// DecodeAck parses a fixed-size acknowledgement payload.
func DecodeAck(src []byte) (schema.Ack, bool) {
	if len(src) < AckPayloadSize {
		return schema.Ack{}, false
	}
	return schema.Ack{
		Pair:       schema.PairID(binary.LittleEndian.Uint32(src[0:4])),
		Status:     schema.AckStatus(src[4]),
		OrderID:    binary.LittleEndian.Uint64(src[8:16]),
		LeavesSize: schema.Size(int64(binary.LittleEndian.Uint64(src[16:24]))),
	}, true
}

const SessionBoundaryPayloadSize = 4

// EncodeSessionBoundary serializes a session transition marker.
func EncodeSessionBoundary(dst []byte, b schema.SessionBoundary) []byte {
	if cap(dst) < SessionBoundaryPayloadSize {
		dst = make([]byte, SessionBoundaryPayloadSize)
	} else {
		dst = dst[:SessionBoundaryPayloadSize]
	}

	binary.LittleEndian.PutUint16(dst[0:2], uint16(b.Exchange))
	binary.LittleEndian.PutUint16(dst[2:4], 0)

	return dst
}

// DecodeSessionBoundary parses a session transition payload.
func DecodeSessionBoundary(src []byte) (schema.SessionBoundary, bool) {
	if len(src) < SessionBoundaryPayloadSize {
		return schema.SessionBoundary{}, false
	}
	return schema.SessionBoundary{
		Exchange: schema.ExchangeID(binary.LittleEndian.Uint16(src[0:2])),
	}, true
}
