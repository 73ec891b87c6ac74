// Package lifecycle owns order state transitions and conditional-order
// triggering. A Manager instance belongs to exactly one trading pair and is
// only touched under that pair's lock.
package lifecycle

import (
	"errors"
	"fmt"

	"match-core/internal/book"
)

var (
	// ErrAlreadyTerminal is returned when a cancel or transition targets an
	// order that already reached a final state.
	ErrAlreadyTerminal = errors.New("order already in terminal state")
	// ErrOrderNotFound is returned for unknown order IDs.
	ErrOrderNotFound = errors.New("order not found")
)

// Manager tracks every order of one pair from submission to its terminal
// state. Terminal orders stay in the registry as immutable audit records.
type Manager struct {
	orders  map[string]*book.Order
	pending []*book.Order // conditional orders awaiting trigger, submission order
}

// NewManager creates an empty lifecycle registry.
func NewManager() *Manager {
	return &Manager{orders: make(map[string]*book.Order)}
}

// Register adds a newly accepted order in state NEW.
func (m *Manager) Register(o *book.Order) {
	o.Status = book.StatusNew
	m.orders[o.ID] = o
}

// Get returns the tracked order, or nil.
func (m *Manager) Get(id string) *book.Order {
	return m.orders[id]
}

// allowed maps each state to its legal successors.
var allowed = map[string][]string{
	book.StatusNew: {
		book.StatusResting, book.StatusPartiallyFilled, book.StatusFilled,
		book.StatusCanceled, book.StatusRejected, book.StatusPendingTrigger,
	},
	book.StatusResting: {
		book.StatusPartiallyFilled, book.StatusFilled,
		book.StatusCanceled, book.StatusExpired,
	},
	book.StatusPartiallyFilled: {
		book.StatusFilled, book.StatusCanceled,
	},
	book.StatusPendingTrigger: {
		book.StatusTriggered, book.StatusCanceled,
	},
	book.StatusTriggered: {
		book.StatusResting, book.StatusPartiallyFilled, book.StatusFilled,
		book.StatusCanceled,
	},
}

// Transition moves an order to the next state, enforcing the state machine.
func (m *Manager) Transition(o *book.Order, next string) error {
	if book.IsTerminal(o.Status) {
		return ErrAlreadyTerminal
	}
	if o.Status == next {
		return nil
	}
	for _, s := range allowed[o.Status] {
		if s == next {
			o.Status = next
			return nil
		}
	}
	return fmt.Errorf("illegal transition %s -> %s for order %s", o.Status, next, o.ID)
}

// Park registers a conditional order as pending-trigger. Pending orders keep
// submission order, which is also the firing order on simultaneous triggers.
func (m *Manager) Park(o *book.Order) {
	o.Status = book.StatusPendingTrigger
	m.pending = append(m.pending, o)
}

// CancelPending removes a pending conditional order, reporting whether it was
// found.
func (m *Manager) CancelPending(id string) bool {
	for i, o := range m.pending {
		if o.ID == id {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return true
		}
	}
	return false
}

// PendingCount reports how many conditional orders await their trigger.
func (m *Manager) PendingCount() int {
	return len(m.pending)
}

// Triggered evaluates all pending conditional orders against the last traded
// price. Trailing stops first refresh their water mark and effective stop,
// then every pending order's trigger condition is checked. Fired orders are
// removed from the pending set, marked TRIGGERED, and returned in submission
// order.
func (m *Manager) Triggered(last float64) []*book.Order {
	if last <= 0 || len(m.pending) == 0 {
		return nil
	}

	var fired []*book.Order
	remaining := m.pending[:0]
	for _, o := range m.pending {
		if o.Type == book.TrailingStop {
			updateTrail(o, last)
		}
		if triggers(o, last) {
			o.Status = book.StatusTriggered
			fired = append(fired, o)
			continue
		}
		remaining = append(remaining, o)
	}
	m.pending = remaining
	return fired
}

// updateTrail ratchets the water mark and recomputes the effective stop.
// A sell trailing stop only ever moves its stop up, a buy one only down.
func updateTrail(o *book.Order, last float64) {
	if o.WaterMark == 0 {
		o.WaterMark = last
	}
	if o.Side == book.Sell {
		if last > o.WaterMark {
			o.WaterMark = last
		}
		stop := o.WaterMark - o.TrailAmount
		if stop > o.StopPrice {
			o.StopPrice = stop
		}
		return
	}
	if last < o.WaterMark {
		o.WaterMark = last
	}
	stop := o.WaterMark + o.TrailAmount
	if o.StopPrice == 0 || stop < o.StopPrice {
		o.StopPrice = stop
	}
}

// triggers applies the directional trigger rule: sell conditionals fire when
// the last price trades at or below their stop, buy conditionals at or above.
func triggers(o *book.Order, last float64) bool {
	if o.StopPrice <= 0 {
		return false
	}
	if o.Side == book.Sell {
		return last <= o.StopPrice
	}
	return last >= o.StopPrice
}
