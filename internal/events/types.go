package events

import "time"

// Event enumerates high-level topics inside the matching core.
type Event string

const (
	EventPriceTick            Event = "price_tick"
	EventBookUpdate           Event = "book.update"
	EventOrderAccepted        Event = "order.accepted"
	EventOrderRejected        Event = "order.rejected"
	EventOrderFilled          Event = "order.filled"
	EventOrderPartiallyFilled Event = "order.partially_filled"
	EventOrderCanceled        Event = "order.canceled"
	EventOrderTriggered       Event = "order.triggered"
	EventFill                 Event = "fill"
)

// PriceTick is published by market data feeds for every price update.
type PriceTick struct {
	Symbol string
	Price  float64
	Time   time.Time
}

// BookUpdate notifies listeners that a symbol's top of book changed.
type BookUpdate struct {
	Symbol  string
	BestBid float64
	BestAsk float64
}
