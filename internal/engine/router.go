package engine

import (
	"context"
	"errors"

	"match-core/internal/book"
	"match-core/internal/lifecycle"
)

// Router maps symbols to their independent pair engines. The map is built at
// boot from the pairs file and never mutated afterwards, so lookups need no
// lock.
type Router struct {
	pairs map[string]*Pair
}

// NewRouter creates a router over the given pairs.
func NewRouter(pairs ...*Pair) *Router {
	r := &Router{pairs: make(map[string]*Pair, len(pairs))}
	for _, p := range pairs {
		r.pairs[p.Symbol()] = p
	}
	return r
}

// Pair returns the engine for a symbol, or nil.
func (r *Router) Pair(symbol string) *Pair {
	return r.pairs[symbol]
}

// Symbols lists all configured symbols.
func (r *Router) Symbols() []string {
	out := make([]string, 0, len(r.pairs))
	for s := range r.pairs {
		out = append(out, s)
	}
	return out
}

// Submit routes an order to its pair.
func (r *Router) Submit(ctx context.Context, o *book.Order) (*Ack, error) {
	p := r.Pair(o.Symbol)
	if p == nil {
		return nil, ErrUnknownSymbol
	}
	return p.Submit(ctx, o)
}

// Cancel routes a cancel to every pair until one knows the order. Order IDs
// are unique across pairs, so at most one pair accepts.
func (r *Router) Cancel(ctx context.Context, id string) error {
	for _, p := range r.pairs {
		err := p.Cancel(ctx, id)
		if err == nil {
			return nil
		}
		if !errors.Is(err, lifecycle.ErrOrderNotFound) {
			return err
		}
	}
	return lifecycle.ErrOrderNotFound
}

// Status finds an order's current state across pairs.
func (r *Router) Status(id string) (book.Order, error) {
	for _, p := range r.pairs {
		o, err := p.Status(id)
		if err == nil {
			return o, nil
		}
	}
	return book.Order{}, lifecycle.ErrOrderNotFound
}

// OnTick fans a price tick out to the symbol's pair.
func (r *Router) OnTick(ctx context.Context, symbol string, price float64) {
	if p := r.Pair(symbol); p != nil {
		p.OnTick(ctx, price)
	}
}
