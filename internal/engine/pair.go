package engine

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"match-core/internal/book"
	"match-core/internal/events"
	"match-core/internal/fees"
	"match-core/internal/lifecycle"
	"match-core/internal/monitor"
	"match-core/pkg/db"
)

// Pair owns all mutable state of one trading pair: its book, lifecycle
// registry, sequence counter and last traded price. Every operation runs
// under the pair mutex, so each submission, cancel or tick is one atomic
// step. Pairs share nothing, so there is no cross-pair coordination.
type Pair struct {
	mu sync.Mutex

	symbol string
	book   *book.OrderBook
	life   *lifecycle.Manager
	fees   *fees.Calculator

	Bus     *events.Bus
	DB      *db.Database    // optional audit store
	Metrics *monitor.Metrics // optional

	seq       uint64
	lastPrice float64

	icebergs map[string]*icebergState // parent order ID -> refill state
}

// icebergState tracks the currently resting child tranche of an iceberg parent.
type icebergState struct {
	parent  *book.Order
	childID string
	tranche int
}

// NewPair creates the engine for one symbol.
func NewPair(symbol string, feeCalc *fees.Calculator, bus *events.Bus) *Pair {
	return &Pair{
		symbol:   symbol,
		book:     book.NewOrderBook(symbol),
		life:     lifecycle.NewManager(),
		fees:     feeCalc,
		Bus:      bus,
		icebergs: make(map[string]*icebergState),
	}
}

// Symbol returns the pair's symbol.
func (p *Pair) Symbol() string { return p.symbol }

// Submit validates, registers and resolves one incoming order. It returns a
// synchronous ack or a rejection error; rejected submissions leave the book
// untouched.
func (p *Pair) Submit(ctx context.Context, o *book.Order) (*Ack, error) {
	if err := o.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if o.Symbol != p.symbol {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, o.Symbol)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	defer func() {
		if p.Metrics != nil {
			p.Metrics.MatchLatency.RecordDuration(time.Since(start))
			p.Metrics.IncOrders()
		}
	}()

	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	p.seq++
	o.Seq = p.seq
	p.life.Register(o)

	ack, err := p.dispatch(ctx, o)
	if err != nil {
		// Rejections are recorded for audit but never mutate the book.
		o.Status = book.StatusRejected
		p.persistOrder(ctx, o)
		p.publish(events.EventOrderRejected, p.orderView(o))
		if p.Metrics != nil {
			p.Metrics.IncRejects()
		}
		return nil, err
	}

	p.persistOrder(ctx, o)
	p.publish(events.EventOrderAccepted, p.orderView(o))
	switch o.Status {
	case book.StatusFilled:
		p.publish(events.EventOrderFilled, p.orderView(o))
	case book.StatusPartiallyFilled:
		p.publish(events.EventOrderPartiallyFilled, p.orderView(o))
	}
	p.runTriggers(ctx)
	return ack, nil
}

// dispatch routes the order by type. Caller holds the lock.
func (p *Pair) dispatch(ctx context.Context, o *book.Order) (*Ack, error) {
	switch o.Type {
	case book.Market:
		return p.processMarket(ctx, o)
	case book.Limit:
		return p.processLimit(ctx, o)
	case book.PostOnly:
		return p.processPostOnly(ctx, o)
	case book.FillOrKill:
		return p.processFOK(ctx, o)
	case book.ImmediateOrCancel:
		return p.processIOC(ctx, o)
	case book.Iceberg:
		return p.processIceberg(ctx, o)
	case book.StopLimit, book.StopMarket, book.TakeProfitLimit, book.TakeProfitMarket, book.TrailingStop:
		p.life.Park(o)
		return p.ack(o), nil
	}
	return nil, fmt.Errorf("%w: unhandled type %s", ErrValidation, o.Type)
}

// processMarket sweeps the opposing side at resting prices. The unfilled
// remainder never rests; PartialFillOnly reports an exhausted book.
func (p *Pair) processMarket(ctx context.Context, o *book.Order) (*Ack, error) {
	p.match(ctx, o, 0)
	partial := !o.IsFullyFilled()
	p.finishTaker(ctx, o)
	a := p.ack(o)
	a.PartialFillOnly = partial
	return a, nil
}

// processLimit matches at prices at least as good as the limit and rests the
// remainder at the limit price.
func (p *Pair) processLimit(ctx context.Context, o *book.Order) (*Ack, error) {
	p.match(ctx, o, o.Price)
	if o.RemainingQty() > 0 {
		if err := p.book.AddResting(o); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		next := book.StatusResting
		if o.FilledQty > 0 {
			next = book.StatusPartiallyFilled
		}
		p.transition(o, next)
	} else {
		p.transition(o, book.StatusFilled)
	}
	return p.ack(o), nil
}

// processPostOnly rests like a limit order but rejects outright when any
// immediate match would occur.
func (p *Pair) processPostOnly(ctx context.Context, o *book.Order) (*Ack, error) {
	if p.wouldCross(o) {
		return nil, ErrWouldTakeLiquidity
	}
	if err := p.book.AddResting(o); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	p.transition(o, book.StatusResting)
	return p.ack(o), nil
}

// processFOK checks full feasibility against current depth without touching
// the book, then executes atomically or kills the order entirely.
func (p *Pair) processFOK(ctx context.Context, o *book.Order) (*Ack, error) {
	avail := p.book.AvailableQty(opposing(o.Side), o.Price)
	if avail < o.Qty {
		return nil, ErrInsufficientDepth
	}
	p.match(ctx, o, o.Price)
	p.transition(o, book.StatusFilled)
	return p.ack(o), nil
}

// processIOC matches up to available depth and cancels the remainder.
func (p *Pair) processIOC(ctx context.Context, o *book.Order) (*Ack, error) {
	p.match(ctx, o, o.Price)
	p.finishTaker(ctx, o)
	return p.ack(o), nil
}

// processIceberg decomposes the parent into child limit orders of visible
// size. Children that fill immediately are replaced in the same step until a
// tranche rests or the parent is done.
func (p *Pair) processIceberg(ctx context.Context, o *book.Order) (*Ack, error) {
	st := &icebergState{parent: o}
	p.icebergs[o.ID] = st

	for o.RemainingQty() > 0 {
		child := p.newChild(st)
		p.match(ctx, child, child.Price)
		if child.RemainingQty() > 0 {
			if err := p.book.AddResting(child); err != nil {
				delete(p.icebergs, o.ID)
				return nil, fmt.Errorf("%w: %v", ErrValidation, err)
			}
			st.childID = child.ID
			break
		}
	}

	if o.IsFullyFilled() {
		delete(p.icebergs, o.ID)
		p.transition(o, book.StatusFilled)
	} else if o.FilledQty > 0 {
		p.transition(o, book.StatusPartiallyFilled)
	} else {
		p.transition(o, book.StatusResting)
	}
	return p.ack(o), nil
}

// newChild cuts the next visible tranche off an iceberg parent.
func (p *Pair) newChild(st *icebergState) *book.Order {
	st.tranche++
	parent := st.parent
	qty := math.Min(parent.VisibleQty, parent.RemainingQty())
	p.seq++
	return &book.Order{
		ID:        fmt.Sprintf("%s/%d", parent.ID, st.tranche),
		ParentID:  parent.ID,
		Symbol:    parent.Symbol,
		Side:      parent.Side,
		Type:      book.Limit,
		Price:     parent.Price,
		Qty:       qty,
		Status:    book.StatusResting,
		Seq:       p.seq,
		CreatedAt: time.Now(),
	}
}

// wouldCross reports whether a limit order at its price would match
// immediately.
func (p *Pair) wouldCross(o *book.Order) bool {
	if o.Side == book.Buy {
		ask, ok := p.book.BestAsk()
		return ok && ask <= o.Price
	}
	bid, ok := p.book.BestBid()
	return ok && bid >= o.Price
}

// opposing returns the book side an incoming order consumes.
func opposing(s book.Side) book.Side {
	if s == book.Buy {
		return book.Sell
	}
	return book.Buy
}

// match consumes opposing levels best-first while the limit allows. limit=0
// means no price constraint. Trades execute at the resting order's price;
// equal-price makers fill in strict arrival order.
func (p *Pair) match(ctx context.Context, taker *book.Order, limit float64) {
	restSide := opposing(taker.Side)
	for taker.RemainingQty() > 0 {
		level := p.book.BestLevel(restSide)
		if level == nil {
			return
		}
		if limit > 0 {
			if taker.Side == book.Buy && level.Price > limit {
				return
			}
			if taker.Side == book.Sell && level.Price < limit {
				return
			}
		}

		maker := level.Orders[0]
		qty := math.Min(taker.RemainingQty(), maker.RemainingQty())
		price := level.Price

		p.execute(ctx, taker, maker, price, qty)
		p.lastPrice = price

		if maker.IsFullyFilled() {
			p.book.DropHead(restSide)
			p.onMakerDone(ctx, maker)
		} else {
			p.settleMaker(ctx, maker, book.StatusPartiallyFilled)
		}
	}
}

// execute books one trade: updates both orders, computes fees, persists and
// publishes the two fills.
func (p *Pair) execute(ctx context.Context, taker, maker *book.Order, price, qty float64) {
	now := time.Now()
	apply := func(o *book.Order) {
		o.FilledQty += qty
		o.QuoteQty += price * qty
	}
	apply(taker)
	apply(maker)

	takerFill := Fill{
		TradeID: uuid.NewString(),
		OrderID: p.publicID(taker),
		Symbol:  p.symbol,
		Side:    taker.Side,
		Price:   price,
		Qty:     qty,
		Fee:     p.fees.Fee(p.symbol, price, qty, false),
		IsMaker: false,
		Time:    now,
	}
	makerFill := Fill{
		TradeID: uuid.NewString(),
		OrderID: p.publicID(maker),
		Symbol:  p.symbol,
		Side:    maker.Side,
		Price:   price,
		Qty:     qty,
		Fee:     p.fees.Fee(p.symbol, price, qty, true),
		IsMaker: true,
		Time:    now,
	}

	// Credit iceberg child fills to the parent, whichever side the child
	// traded on.
	if parent := p.parentOf(taker); parent != nil {
		apply(parent)
	}
	if parent := p.parentOf(maker); parent != nil {
		apply(parent)
	}

	for _, f := range []Fill{takerFill, makerFill} {
		p.persistFill(ctx, f)
		p.publish(events.EventFill, f)
		if p.Metrics != nil {
			p.Metrics.IncFills()
		}
	}
	p.publishBookUpdate()
}

// publicID maps iceberg children to their parent order ID for reporting.
func (p *Pair) publicID(o *book.Order) string {
	if o.ParentID != "" {
		return o.ParentID
	}
	return o.ID
}

// parentOf resolves the iceberg parent of a child order, or nil.
func (p *Pair) parentOf(o *book.Order) *book.Order {
	if o.ParentID == "" {
		return nil
	}
	if st, ok := p.icebergs[o.ParentID]; ok {
		return st.parent
	}
	return nil
}

// onMakerDone finalizes a fully filled resting order. Iceberg children
// refill their next tranche; ordinary orders go terminal.
func (p *Pair) onMakerDone(ctx context.Context, maker *book.Order) {
	if maker.ParentID == "" {
		p.settleMaker(ctx, maker, book.StatusFilled)
		return
	}

	st, ok := p.icebergs[maker.ParentID]
	if !ok {
		return
	}
	parent := st.parent
	if parent.RemainingQty() > 0 {
		child := p.newChild(st)
		// The refill rests at the parent's limit; it cannot cross because
		// the exhausted tranche rested at the same price.
		if err := p.book.AddResting(child); err != nil {
			log.Printf("engine: iceberg refill for %s failed: %v", parent.ID, err)
			return
		}
		st.childID = child.ID
		p.transition(parent, book.StatusPartiallyFilled)
		p.persistOrder(ctx, parent)
		p.publish(events.EventOrderPartiallyFilled, p.orderView(parent))
		return
	}

	delete(p.icebergs, parent.ID)
	p.transition(parent, book.StatusFilled)
	p.persistOrder(ctx, parent)
	p.publish(events.EventOrderFilled, p.orderView(parent))
}

// settleMaker records a maker's new status after a trade. For iceberg
// children the parent carries the externally visible state, so a partial
// child fill settles the parent instead.
func (p *Pair) settleMaker(ctx context.Context, maker *book.Order, status string) {
	if maker.ParentID != "" {
		if parent := p.parentOf(maker); parent != nil {
			p.transition(parent, book.StatusPartiallyFilled)
			p.persistOrder(ctx, parent)
			p.publish(events.EventOrderPartiallyFilled, p.orderView(parent))
		}
		return
	}
	p.transition(maker, status)
	p.persistOrder(ctx, maker)
	if status == book.StatusFilled {
		p.publish(events.EventOrderFilled, p.orderView(maker))
	} else {
		p.publish(events.EventOrderPartiallyFilled, p.orderView(maker))
	}
}

// finishTaker terminates a market/IOC taker whose remainder must not rest.
func (p *Pair) finishTaker(ctx context.Context, o *book.Order) {
	if o.IsFullyFilled() {
		p.transition(o, book.StatusFilled)
		return
	}
	if o.FilledQty > 0 {
		p.transition(o, book.StatusPartiallyFilled)
	}
	p.transition(o, book.StatusCanceled)
}

// Cancel cancels a resting or pending order. Cancelling a terminal order
// reports ErrAlreadyTerminal; unknown IDs report ErrOrderNotFound.
func (p *Pair) Cancel(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	o := p.life.Get(id)
	if o == nil {
		return lifecycle.ErrOrderNotFound
	}
	if book.IsTerminal(o.Status) {
		return lifecycle.ErrAlreadyTerminal
	}

	switch {
	case o.Status == book.StatusPendingTrigger:
		p.life.CancelPending(id)
	case o.Type == book.Iceberg:
		if st, ok := p.icebergs[id]; ok {
			p.book.RemoveResting(st.childID)
			delete(p.icebergs, id)
		}
	default:
		p.book.RemoveResting(id)
	}

	if err := p.life.Transition(o, book.StatusCanceled); err != nil {
		return err
	}
	p.persistOrder(ctx, o)
	p.publish(events.EventOrderCanceled, p.orderView(o))
	p.publishBookUpdate()
	return nil
}

// Status returns a copy of the order's current state.
func (p *Pair) Status(id string) (book.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	o := p.life.Get(id)
	if o == nil {
		return book.Order{}, lifecycle.ErrOrderNotFound
	}
	return *o, nil
}

// Snapshot returns up to depth aggregated levels per side.
func (p *Pair) Snapshot(depth int) (bids, asks []book.Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.book.Depth(book.Buy, depth), p.book.Depth(book.Sell, depth)
}

// LastPrice returns the most recent trade or tick price.
func (p *Pair) LastPrice() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastPrice
}

// OnTick feeds an external market-data price into the pair, driving
// conditional-order trigger evaluation.
func (p *Pair) OnTick(ctx context.Context, price float64) {
	if price <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastPrice = price
	if p.Metrics != nil {
		p.Metrics.IncTicks()
	}
	p.runTriggers(ctx)
}

// runTriggers fires pending conditional orders against the last price until
// the scan is quiescent. Fired orders convert to market/limit matching for
// their remaining quantity; triggered executions move the last price, which
// may fire further triggers.
func (p *Pair) runTriggers(ctx context.Context) {
	for {
		fired := p.life.Triggered(p.lastPrice)
		if len(fired) == 0 {
			return
		}
		for _, o := range fired {
			p.publish(events.EventOrderTriggered, p.orderView(o))
			p.dispatchTriggered(ctx, o)
			p.persistOrder(ctx, o)
		}
	}
}

// dispatchTriggered resolves a just-triggered conditional order.
func (p *Pair) dispatchTriggered(ctx context.Context, o *book.Order) {
	switch o.Type {
	case book.StopLimit, book.TakeProfitLimit:
		p.match(ctx, o, o.Price)
		if o.RemainingQty() > 0 {
			if err := p.book.AddResting(o); err != nil {
				log.Printf("engine: resting triggered order %s failed: %v", o.ID, err)
				p.transition(o, book.StatusCanceled)
				return
			}
			next := book.StatusResting
			if o.FilledQty > 0 {
				next = book.StatusPartiallyFilled
			}
			p.transition(o, next)
			return
		}
		p.transition(o, book.StatusFilled)
	default:
		// Stop-market, take-profit-market and trailing stops sweep as
		// market orders; the remainder is discarded.
		p.match(ctx, o, 0)
		p.finishTaker(ctx, o)
	}
}

// ack snapshots the order into a submission result.
func (p *Pair) ack(o *book.Order) *Ack {
	return &Ack{
		OrderID:   o.ID,
		Status:    o.Status,
		FilledQty: o.FilledQty,
		AvgPrice:  o.AvgFillPrice(),
	}
}

// transition applies a lifecycle transition, logging illegal ones instead of
// failing the match step.
func (p *Pair) transition(o *book.Order, next string) {
	if err := p.life.Transition(o, next); err != nil {
		log.Printf("engine: %v", err)
	}
}

// orderView is the externally visible order payload for events.
func (p *Pair) orderView(o *book.Order) book.Order {
	return *o
}

func (p *Pair) publish(e events.Event, payload any) {
	if p.Bus != nil {
		p.Bus.Publish(e, payload)
	}
}

func (p *Pair) publishBookUpdate() {
	if p.Bus == nil {
		return
	}
	bid, _ := p.book.BestBid()
	ask, _ := p.book.BestAsk()
	p.Bus.Publish(events.EventBookUpdate, events.BookUpdate{
		Symbol:  p.symbol,
		BestBid: bid,
		BestAsk: ask,
	})
}

// persistOrder upserts the order's audit row. Persistence failures are
// logged, never fatal to the match step.
func (p *Pair) persistOrder(ctx context.Context, o *book.Order) {
	if p.DB == nil {
		return
	}
	if err := p.DB.UpsertOrder(ctx, db.Order{
		ID:         o.ID,
		Symbol:     o.Symbol,
		Side:       string(o.Side),
		Type:       string(o.Type),
		Price:      o.Price,
		StopPrice:  o.StopPrice,
		Qty:        o.Qty,
		FilledQty:  o.FilledQty,
		VisibleQty: o.VisibleQty,
		Status:     o.Status,
		CreatedAt:  o.CreatedAt,
	}); err != nil {
		log.Printf("engine: store order %s: %v", o.ID, err)
	}
}

func (p *Pair) persistFill(ctx context.Context, f Fill) {
	if p.DB == nil {
		return
	}
	if err := p.DB.CreateTrade(ctx, db.Trade{
		ID:        f.TradeID,
		OrderID:   f.OrderID,
		Symbol:    f.Symbol,
		Side:      string(f.Side),
		Price:     f.Price,
		Qty:       f.Qty,
		Fee:       f.Fee,
		IsMaker:   f.IsMaker,
		CreatedAt: f.Time,
	}); err != nil {
		log.Printf("engine: store trade %s: %v", f.TradeID, err)
	}
}
