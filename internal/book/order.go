package book

import (
	"errors"
	"time"
)

// Side of an order.
type Side string

// OrderType enumerates supported order semantics.
type OrderType string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"

	Market           OrderType = "MARKET"
	Limit            OrderType = "LIMIT"
	StopLimit        OrderType = "STOP_LIMIT"
	StopMarket       OrderType = "STOP_MARKET"
	TakeProfitLimit  OrderType = "TAKE_PROFIT_LIMIT"
	TakeProfitMarket OrderType = "TAKE_PROFIT_MARKET"
	TrailingStop     OrderType = "TRAILING_STOP"
	Iceberg          OrderType = "ICEBERG"
	PostOnly         OrderType = "POST_ONLY"
	FillOrKill       OrderType = "FOK"
	ImmediateOrCancel OrderType = "IOC"
)

// Order lifecycle states.
const (
	StatusNew             = "NEW"
	StatusResting         = "RESTING"
	StatusPartiallyFilled = "PARTIALLY_FILLED"
	StatusFilled          = "FILLED"
	StatusCanceled        = "CANCELED"
	StatusRejected        = "REJECTED"
	StatusExpired         = "EXPIRED"
	StatusPendingTrigger  = "PENDING_TRIGGER"
	StatusTriggered       = "TRIGGERED"
)

// Order is the single order entity flowing through the engine. Conditional
// variants carry their trigger condition inline rather than as subtypes; the
// matching dispatch switches on Type.
type Order struct {
	ID         string
	Symbol     string
	Side       Side
	Type       OrderType
	Price      float64 // limit price, 0 for pure market types
	StopPrice  float64 // trigger price for stop/take-profit types; effective stop for trailing
	TrailAmount float64 // trailing-stop offset from the water mark
	WaterMark  float64 // extreme favorable price seen since submission (trailing only)
	Qty        float64
	FilledQty  float64
	QuoteQty   float64 // cumulative price*qty over fills, for average price
	VisibleQty float64 // iceberg tranche size
	ParentID   string  // set on iceberg children
	Status     string
	Seq        uint64 // per-book arrival sequence, assigned on acceptance
	CreatedAt  time.Time
}

// RemainingQty returns the unfilled quantity.
func (o *Order) RemainingQty() float64 {
	return o.Qty - o.FilledQty
}

// IsFullyFilled reports whether no quantity remains.
func (o *Order) IsFullyFilled() bool {
	return o.FilledQty >= o.Qty
}

// AvgFillPrice returns the volume-weighted average fill price, or 0 when
// nothing has filled.
func (o *Order) AvgFillPrice() float64 {
	if o.FilledQty == 0 {
		return 0
	}
	return o.QuoteQty / o.FilledQty
}

// IsTerminal reports whether the order reached a final state and must never
// be mutated again.
func IsTerminal(status string) bool {
	switch status {
	case StatusFilled, StatusCanceled, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// IsConditional reports whether the type waits for a trigger price before
// entering the book.
func (t OrderType) IsConditional() bool {
	switch t {
	case StopLimit, StopMarket, TakeProfitLimit, TakeProfitMarket, TrailingStop:
		return true
	}
	return false
}

// hasLimitPrice reports whether the type requires a limit price.
func (t OrderType) hasLimitPrice() bool {
	switch t {
	case Limit, StopLimit, TakeProfitLimit, Iceberg, PostOnly:
		return true
	}
	return false
}

// Validate checks the order's fields for syntactic correctness. It does
// not consult the book.
func (o *Order) Validate() error {
	if o == nil {
		return errors.New("order is nil")
	}
	if o.Symbol == "" {
		return errors.New("symbol is required")
	}
	if o.Side != Buy && o.Side != Sell {
		return errors.New("invalid side: must be BUY or SELL")
	}
	if o.Qty <= 0 {
		return errors.New("quantity must be > 0")
	}
	switch o.Type {
	case Market, ImmediateOrCancel, FillOrKill:
		// price optional; IOC/FOK with a price behave as limit variants,
		// without one they sweep like a market order
		if o.Price < 0 {
			return errors.New("price must not be negative")
		}
	case Limit, Iceberg, PostOnly, StopLimit, TakeProfitLimit,
		StopMarket, TakeProfitMarket, TrailingStop:
	default:
		return errors.New("unknown order type")
	}
	if o.Type.hasLimitPrice() && o.Price <= 0 {
		return errors.New("limit price must be > 0")
	}
	switch o.Type {
	case StopLimit, TakeProfitLimit, StopMarket, TakeProfitMarket:
		if o.StopPrice <= 0 {
			return errors.New("trigger price must be > 0")
		}
	case TrailingStop:
		if o.TrailAmount <= 0 {
			return errors.New("trail amount must be > 0")
		}
	}
	if o.Type == Iceberg {
		if o.VisibleQty <= 0 {
			return errors.New("iceberg orders require visible quantity > 0")
		}
		if o.VisibleQty > o.Qty {
			return errors.New("visible quantity must not exceed total quantity")
		}
	}
	return nil
}
