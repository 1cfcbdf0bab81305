package schema

// Side is the direction of an order or trade.
type Side uint8

const (
	SideUnknown Side = iota
	SideBuy
	SideSell
)

// String returns the side name.
func (s Side) String() string {
	switch s {
	case SideBuy:
		return "Buy"
	case SideSell:
		return "Sell"
	default:
		return "Unknown"
	}
}

// Price is an integer number of price steps for the pair.
type Price int64

// Size is an integer order or trade size.
type Size int64

// Trade is a historical trade print.
type Trade struct {
	Pair       PairID
	Side       Side
	Price      Price
	Size       Size
	RefOrderID uint64
}

// PriceLevel is a historical order-book price-level update. Size zero
// means the level (or the referenced order) disappeared.
type PriceLevel struct {
	Pair          PairID
	Side          Side
	Price         Price
	Size          Size
	SourceOrderID uint64
}

// Order is an order placement flowing through the timeline. Market orders
// carry a zero price.
type Order struct {
	Pair    PairID
	OrderID uint64
	Side    Side
	Price   Price
	Size    Size
}

// Cancel requests removal of a previously placed limit order.
type Cancel struct {
	Pair    PairID
	OrderID uint64
}

// AckStatus reports the outcome of an order or cancel request.
type AckStatus uint8

const (
	AckUnknown AckStatus = iota
	AckPlaced
	AckCanceled
	AckRejected
	AckExpired
)

// Ack is an exchange or broker acknowledgement for an order request.
type Ack struct {
	Pair       PairID
	OrderID    uint64
	Status     AckStatus
	LeavesSize Size
}

// SessionBoundary marks an exchange open or close transition.
type SessionBoundary struct {
	Exchange ExchangeID
}
