package engine

import (
	"context"
	"errors"
	"testing"

	"match-core/internal/book"
	"match-core/internal/fees"
	"match-core/internal/lifecycle"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	calc := fees.NewCalculator(0, 0)
	return NewRouter(
		NewPair("SOLUSDT", calc, nil),
		NewPair("BTCUSDT", calc, nil),
	)
}

func TestRouterRoutesBySymbol(t *testing.T) {
	r := newTestRouter(t)
	ctx := context.Background()

	sol := limitOrder("sol-1", book.Buy, 150, 1)
	if _, err := r.Submit(ctx, sol); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	btc := limitOrder("btc-1", book.Buy, 65000, 1)
	btc.Symbol = "BTCUSDT"
	if _, err := r.Submit(ctx, btc); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	bids, _ := r.Pair("SOLUSDT").Snapshot(0)
	if len(bids) != 1 || bids[0].Price != 150 {
		t.Errorf("SOLUSDT bids = %+v", bids)
	}
	bids, _ = r.Pair("BTCUSDT").Snapshot(0)
	if len(bids) != 1 || bids[0].Price != 65000 {
		t.Errorf("BTCUSDT bids = %+v", bids)
	}
}

func TestRouterRejectsUnknownSymbol(t *testing.T) {
	r := newTestRouter(t)
	o := limitOrder("x", book.Buy, 1, 1)
	o.Symbol = "DOGEUSDT"
	if _, err := r.Submit(context.Background(), o); !errors.Is(err, ErrUnknownSymbol) {
		t.Errorf("Submit err = %v, want ErrUnknownSymbol", err)
	}
}

func TestRouterCancelAndStatusAcrossPairs(t *testing.T) {
	r := newTestRouter(t)
	ctx := context.Background()

	btc := limitOrder("btc-1", book.Buy, 65000, 1)
	btc.Symbol = "BTCUSDT"
	if _, err := r.Submit(ctx, btc); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, err := r.Status("btc-1"); err != nil {
		t.Fatalf("Status: %v", err)
	}
	if err := r.Cancel(ctx, "btc-1"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	// A second cancel surfaces the terminal error, not NOT_FOUND from the
	// other pair.
	if err := r.Cancel(ctx, "btc-1"); !errors.Is(err, lifecycle.ErrAlreadyTerminal) {
		t.Errorf("second cancel = %v, want ErrAlreadyTerminal", err)
	}
	if err := r.Cancel(ctx, "nope"); !errors.Is(err, lifecycle.ErrOrderNotFound) {
		t.Errorf("cancel unknown = %v, want ErrOrderNotFound", err)
	}
}

func TestRouterOnTickTriggersOnlyThatPair(t *testing.T) {
	r := newTestRouter(t)
	ctx := context.Background()

	stop := &book.Order{
		ID: "stop", Symbol: "SOLUSDT", Side: book.Sell, Type: book.StopMarket,
		StopPrice: 149, Qty: 1,
	}
	if _, err := r.Submit(ctx, stop); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	r.OnTick(ctx, "BTCUSDT", 100) // wrong pair, must not fire
	if o, _ := r.Status("stop"); o.Status != book.StatusPendingTrigger {
		t.Fatalf("status = %s after foreign tick", o.Status)
	}

	r.OnTick(ctx, "SOLUSDT", 148)
	o, _ := r.Status("stop")
	if o.Status == book.StatusPendingTrigger {
		t.Error("stop did not fire on its own pair's tick")
	}
}
