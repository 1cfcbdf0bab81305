package schema

// SchemaVersion is the current payload layout version. Capture records
// carry it so logs written under an older layout are rejected on read.
const SchemaVersion uint16 = 1

// Kind identifies the semantic category of a message on the timeline.
type Kind uint16

const (
	KindUnknown Kind = iota
	KindTrade
	KindPriceLevel
	KindOrderLimit
	KindOrderMarket
	KindCancel
	KindAck
	KindSessionOpen
	KindSessionClose
	KindEndOfData
)

// String returns the kind name for logs and tooling.
func (k Kind) String() string {
	switch k {
	case KindTrade:
		return "Trade"
	case KindPriceLevel:
		return "PriceLevel"
	case KindOrderLimit:
		return "OrderLimit"
	case KindOrderMarket:
		return "OrderMarket"
	case KindCancel:
		return "Cancel"
	case KindAck:
		return "Ack"
	case KindSessionOpen:
		return "SessionOpen"
	case KindSessionClose:
		return "SessionClose"
	case KindEndOfData:
		return "EndOfData"
	default:
		return "Unknown"
	}
}

// MarketFlow reports whether the kind requires an open market to be
// dispatched. Market-flow messages are gated while the exchange is closed.
func (k Kind) MarketFlow() bool {
	switch k {
	case KindTrade, KindPriceLevel, KindOrderLimit, KindOrderMarket, KindCancel:
		return true
	default:
		return false
	}
}

// Message is an immutable, timestamped unit of information flowing through
// the kernel. Ts is virtual time in nanoseconds, Seq is the per-source
// sequence number assigned in emission order, and Source identifies the
// stream that produced the message. The payload is opaque to the kernel.
type Message struct {
	Ts      int64
	Seq     uint64
	Source  StreamID
	Kind    Kind
	Payload any
}

// Less defines the total order of messages on the timeline: timestamp,
// then source sequence number, then source identity. The tie-break keeps
// replay reproducible bit-for-bit across runs with identical inputs.
func Less(a, b Message) bool {
	if a.Ts != b.Ts {
		return a.Ts < b.Ts
	}
	if a.Seq != b.Seq {
		return a.Seq < b.Seq
	}
	return a.Source < b.Source
}
