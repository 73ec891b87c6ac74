package book

import "sort"

// Level is one aggregated (price, quantity) row of a depth snapshot.
type Level struct {
	Price float64 `json:"price"`
	Qty   float64 `json:"qty"`
}

// OrderBook holds the resting bid/ask levels for a single symbol.
// It is not safe for concurrent use; the owning pair serializes access.
type OrderBook struct {
	Symbol string

	bids map[float64]*PriceLevel
	asks map[float64]*PriceLevel

	// Sorted price indexes: bids descending, asks ascending, so index 0 is
	// always top of book.
	bidPrices []float64
	askPrices []float64

	resting map[string]*PriceLevel // order ID -> level, for cancel lookups
}

// NewOrderBook creates an empty book for a symbol.
func NewOrderBook(symbol string) *OrderBook {
	return &OrderBook{
		Symbol:  symbol,
		bids:    make(map[float64]*PriceLevel),
		asks:    make(map[float64]*PriceLevel),
		resting: make(map[string]*PriceLevel),
	}
}

// AddResting inserts an order at its price level, preserving time priority.
func (b *OrderBook) AddResting(o *Order) error {
	if o.Price <= 0 {
		return ErrInvalidPrice
	}

	sideMap := b.bids
	if o.Side == Sell {
		sideMap = b.asks
	}

	level, ok := sideMap[o.Price]
	if !ok {
		level = &PriceLevel{Price: o.Price}
		sideMap[o.Price] = level
		b.insertPrice(o.Side, o.Price)
	}
	level.Enqueue(o)
	b.resting[o.ID] = level
	return nil
}

// RemoveResting deletes a resting order by ID. Removing an absent order is a
// no-op, so cancellation stays idempotent.
func (b *OrderBook) RemoveResting(id string) *Order {
	level, ok := b.resting[id]
	if !ok {
		return nil
	}
	var removed *Order
	for _, o := range level.Orders {
		if o.ID == id {
			removed = o
			break
		}
	}
	delete(b.resting, id)
	if removed == nil {
		return nil
	}
	level.Remove(id)
	if level.Empty() {
		b.dropLevel(removed.Side, level.Price)
	}
	return removed
}

// Contains reports whether an order currently rests in the book.
func (b *OrderBook) Contains(id string) bool {
	_, ok := b.resting[id]
	return ok
}

// BestBid returns the highest bid price, or ok=false on an empty side.
func (b *OrderBook) BestBid() (float64, bool) {
	if len(b.bidPrices) == 0 {
		return 0, false
	}
	return b.bidPrices[0], true
}

// BestAsk returns the lowest ask price, or ok=false on an empty side.
func (b *OrderBook) BestAsk() (float64, bool) {
	if len(b.askPrices) == 0 {
		return 0, false
	}
	return b.askPrices[0], true
}

// BestLevel returns the top level of a side, best price first.
func (b *OrderBook) BestLevel(side Side) *PriceLevel {
	if side == Buy {
		if len(b.bidPrices) == 0 {
			return nil
		}
		return b.bids[b.bidPrices[0]]
	}
	if len(b.askPrices) == 0 {
		return nil
	}
	return b.asks[b.askPrices[0]]
}

// Walk visits the side's levels from best to worst until fn returns false.
// Each call restarts from the top, so callers get a fresh traversal.
func (b *OrderBook) Walk(side Side, fn func(*PriceLevel) bool) {
	prices, m := b.askPrices, b.asks
	if side == Buy {
		prices, m = b.bidPrices, b.bids
	}
	for _, p := range prices {
		if !fn(m[p]) {
			return
		}
	}
}

// Depth aggregates up to the given number of levels into (price, qty) rows,
// best price first. levels <= 0 means the whole side.
func (b *OrderBook) Depth(side Side, levels int) []Level {
	var out []Level
	b.Walk(side, func(l *PriceLevel) bool {
		out = append(out, Level{Price: l.Price, Qty: l.TotalQty()})
		return levels <= 0 || len(out) < levels
	})
	return out
}

// AvailableQty sums remaining quantity on a side at prices at least as good
// as limit. limit = 0 means no price constraint (market sweep). The sign of
// "as good" depends on which side is being consumed: asks must be <= limit,
// bids >= limit.
func (b *OrderBook) AvailableQty(side Side, limit float64) float64 {
	var total float64
	b.Walk(side, func(l *PriceLevel) bool {
		if limit > 0 {
			if side == Sell && l.Price > limit {
				return false
			}
			if side == Buy && l.Price < limit {
				return false
			}
		}
		total += l.TotalQty()
		return true
	})
	return total
}

// insertPrice adds a price into the side's sorted index.
func (b *OrderBook) insertPrice(side Side, price float64) {
	if side == Buy {
		i := sort.Search(len(b.bidPrices), func(i int) bool { return b.bidPrices[i] < price })
		b.bidPrices = append(b.bidPrices, 0)
		copy(b.bidPrices[i+1:], b.bidPrices[i:])
		b.bidPrices[i] = price
		return
	}
	i := sort.Search(len(b.askPrices), func(i int) bool { return b.askPrices[i] > price })
	b.askPrices = append(b.askPrices, 0)
	copy(b.askPrices[i+1:], b.askPrices[i:])
	b.askPrices[i] = price
}

// dropLevel removes an emptied level and its price index entry.
func (b *OrderBook) dropLevel(side Side, price float64) {
	if side == Buy {
		delete(b.bids, price)
		i := sort.Search(len(b.bidPrices), func(i int) bool { return b.bidPrices[i] <= price })
		if i < len(b.bidPrices) && b.bidPrices[i] == price {
			b.bidPrices = append(b.bidPrices[:i], b.bidPrices[i+1:]...)
		}
		return
	}
	delete(b.asks, price)
	i := sort.Search(len(b.askPrices), func(i int) bool { return b.askPrices[i] >= price })
	if i < len(b.askPrices) && b.askPrices[i] == price {
		b.askPrices = append(b.askPrices[:i], b.askPrices[i+1:]...)
	}
}

// DropHead removes the front order of the side's best level, cleaning up the
// level when it empties. Used by the matching loop after a full fill.
func (b *OrderBook) DropHead(side Side) {
	level := b.BestLevel(side)
	if level == nil || level.Empty() {
		return
	}
	head := level.Orders[0]
	level.Orders = level.Orders[1:]
	delete(b.resting, head.ID)
	if level.Empty() {
		b.dropLevel(side, level.Price)
	}
}
