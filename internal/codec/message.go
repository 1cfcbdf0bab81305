package codec

import (
	"main/internal/schema"
)

// EncodePayload serializes the payload of a message by its kind. Messages
// whose kind carries no payload encode to an empty slice. The second
// return reports whether the payload matched the kind.
func EncodePayload(dst []byte, msg schema.Message) ([]byte, bool) {
	switch msg.Kind {
	case schema.KindTrade:
		t, ok := msg.Payload.(schema.Trade)
		if !ok {
			return nil, false
		}
		return EncodeTrade(dst, t), true
	case schema.KindPriceLevel:
		pl, ok := msg.Payload.(schema.PriceLevel)
		if !ok {
			return nil, false
		}
		return EncodePriceLevel(dst, pl), true
	case schema.KindOrderLimit, schema.KindOrderMarket:
		o, ok := msg.Payload.(schema.Order)
		if !ok {
			return nil, false
		}
		return EncodeOrder(dst, o), true
	case schema.KindCancel:
		c, ok := msg.Payload.(schema.Cancel)
		if !ok {
			return nil, false
		}
		return EncodeCancel(dst, c), true
	case schema.KindAck:
		a, ok := msg.Payload.(schema.Ack)
		if !ok {
			return nil, false
		}
		return EncodeAck(dst, a), true
	case schema.KindSessionOpen, schema.KindSessionClose:
		b, ok := msg.Payload.(schema.SessionBoundary)
		if !ok {
			return nil, false
		}
		return EncodeSessionBoundary(dst, b), true
	case schema.KindEndOfData:
		return dst[:0], true
	default:
		return nil, false
	}
}

// DecodePayload parses a payload by kind, inverse of EncodePayload.
func DecodePayload(kind schema.Kind, src []byte) (any, bool) {
	switch kind {
	case schema.KindTrade:
		return decodeAs(DecodeTrade(src))
	case schema.KindPriceLevel:
		return decodeAs(DecodePriceLevel(src))
	case schema.KindOrderLimit, schema.KindOrderMarket:
		return decodeAs(DecodeOrder(src))
	case schema.KindCancel:
		return decodeAs(DecodeCancel(src))
	case schema.KindAck:
		return decodeAs(DecodeAck(src))
	case schema.KindSessionOpen, schema.KindSessionClose:
		return decodeAs(DecodeSessionBoundary(src))
	case schema.KindEndOfData:
		return nil, true
	default:
		return nil, false
	}
}

func decodeAs[T any](v T, ok bool) (any, bool) {
	if !ok {
		return nil, false
	}
	return v, true
}
