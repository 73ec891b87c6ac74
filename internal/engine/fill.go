package engine

import (
	"time"

	"match-core/internal/book"
)

// Fill is one execution against the book. Two fills are produced per trade,
// one for the taker and one for the resting maker. A Fill is immutable once
// created.
type Fill struct {
	TradeID string    `json:"trade_id"`
	OrderID string    `json:"order_id"`
	Symbol  string    `json:"symbol"`
	Side    book.Side `json:"side"`
	Price   float64   `json:"price"`
	Qty     float64   `json:"qty"`
	Fee     float64   `json:"fee"`
	IsMaker bool      `json:"is_maker"`
	Time    time.Time `json:"time"`
}

// Ack is the synchronous result of a submission.
type Ack struct {
	OrderID   string  `json:"order_id"`
	Status    string  `json:"status"`
	FilledQty float64 `json:"filled_qty"`
	AvgPrice  float64 `json:"avg_price"`
	// PartialFillOnly signals a market-family order that exhausted the book
	// before its full quantity was met; the remainder was discarded.
	PartialFillOnly bool `json:"partial_fill_only,omitempty"`
}
