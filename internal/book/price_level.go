package book

// PriceLevel holds the FIFO queue of resting orders at one price.
// Insertion order is execution priority.
type PriceLevel struct {
	Price  float64
	Orders []*Order
}

// Enqueue appends an order at the back of the queue.
func (l *PriceLevel) Enqueue(o *Order) {
	l.Orders = append(l.Orders, o)
}

// Remove deletes the order with the given ID, preserving queue order.
// It reports whether the order was present.
func (l *PriceLevel) Remove(id string) bool {
	for i, o := range l.Orders {
		if o.ID == id {
			l.Orders = append(l.Orders[:i], l.Orders[i+1:]...)
			return true
		}
	}
	return false
}

// TotalQty sums the remaining quantity across the queue.
func (l *PriceLevel) TotalQty() float64 {
	var total float64
	for _, o := range l.Orders {
		total += o.RemainingQty()
	}
	return total
}

// Empty reports whether no orders rest at this level.
func (l *PriceLevel) Empty() bool {
	return len(l.Orders) == 0
}
