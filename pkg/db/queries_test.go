package db

import (
	"context"
	"errors"
	"testing"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	database, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := ApplyMigrations(database); err != nil {
		t.Fatalf("ApplyMigrations: %v", err)
	}
	return database
}

func TestOrderUpsertAndGet(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	o := Order{
		ID: "o1", Symbol: "SOLUSDT", Side: "BUY", Type: "LIMIT",
		Price: 150.10, Qty: 5, Status: "RESTING",
	}
	if err := d.UpsertOrder(ctx, o); err != nil {
		t.Fatalf("UpsertOrder: %v", err)
	}

	// Second upsert refreshes mutable fields only.
	o.FilledQty = 2
	o.Status = "PARTIALLY_FILLED"
	if err := d.UpsertOrder(ctx, o); err != nil {
		t.Fatalf("UpsertOrder (update): %v", err)
	}

	got, err := d.GetOrder(ctx, "o1")
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if got.FilledQty != 2 || got.Status != "PARTIALLY_FILLED" || got.Price != 150.10 {
		t.Errorf("order = %+v", got)
	}

	if _, err := d.GetOrder(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetOrder(missing) = %v, want ErrNotFound", err)
	}
}

func TestListRecentOrdersFiltersBySymbol(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	for _, o := range []Order{
		{ID: "s1", Symbol: "SOLUSDT", Side: "BUY", Type: "LIMIT", Price: 1, Qty: 1, Status: "RESTING"},
		{ID: "s2", Symbol: "SOLUSDT", Side: "SELL", Type: "LIMIT", Price: 2, Qty: 1, Status: "FILLED"},
		{ID: "b1", Symbol: "BTCUSDT", Side: "BUY", Type: "MARKET", Qty: 1, Status: "FILLED"},
	} {
		if err := d.UpsertOrder(ctx, o); err != nil {
			t.Fatalf("UpsertOrder: %v", err)
		}
	}

	sol, err := d.ListRecentOrders(ctx, "SOLUSDT", 10)
	if err != nil {
		t.Fatalf("ListRecentOrders: %v", err)
	}
	if len(sol) != 2 {
		t.Errorf("SOLUSDT orders = %d, want 2", len(sol))
	}

	all, err := d.ListRecentOrders(ctx, "", 10)
	if err != nil {
		t.Fatalf("ListRecentOrders: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all orders = %d, want 3", len(all))
	}
}

func TestTradeQueries(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	for _, tr := range []Trade{
		{ID: "t1", OrderID: "o1", Symbol: "SOLUSDT", Side: "BUY", Price: 150.10, Qty: 10, Fee: 1.8, IsMaker: false},
		{ID: "t2", OrderID: "o1", Symbol: "SOLUSDT", Side: "BUY", Price: 150.20, Qty: 2, Fee: 0.3, IsMaker: false},
		{ID: "t3", OrderID: "o2", Symbol: "BTCUSDT", Side: "SELL", Price: 65000, Qty: 0.1, IsMaker: true},
	} {
		if err := d.CreateTrade(ctx, tr); err != nil {
			t.Fatalf("CreateTrade: %v", err)
		}
	}

	trades, err := d.ListTrades(ctx, "SOLUSDT", 10)
	if err != nil {
		t.Fatalf("ListTrades: %v", err)
	}
	if len(trades) != 2 {
		t.Errorf("SOLUSDT trades = %d, want 2", len(trades))
	}

	byOrder, err := d.ListTradesByOrder(ctx, "o1")
	if err != nil {
		t.Fatalf("ListTradesByOrder: %v", err)
	}
	if len(byOrder) != 2 {
		t.Fatalf("trades for o1 = %d, want 2", len(byOrder))
	}
	if byOrder[0].IsMaker {
		t.Error("taker trade scanned as maker")
	}
}

func TestPairUpsertAndList(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	p := Pair{Symbol: "SOLUSDT", TickSize: 0.01, LotSize: 0.01}
	if err := d.UpsertPair(ctx, p); err != nil {
		t.Fatalf("UpsertPair: %v", err)
	}
	p.MakerFee = 0.0005
	if err := d.UpsertPair(ctx, p); err != nil {
		t.Fatalf("UpsertPair (update): %v", err)
	}

	pairs, err := d.ListPairs(ctx)
	if err != nil {
		t.Fatalf("ListPairs: %v", err)
	}
	if len(pairs) != 1 || pairs[0].MakerFee != 0.0005 {
		t.Errorf("pairs = %+v", pairs)
	}
}

func TestUserQueries(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	if _, err := d.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUserByEmail(missing) = %v, want ErrNotFound", err)
	}

	u := User{ID: "u1", Email: "trader@example.com", PasswordHash: "hash"}
	if err := d.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := d.GetUserByEmail(ctx, "trader@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != "u1" || got.PasswordHash != "hash" {
		t.Errorf("user = %+v", got)
	}

	// Email is unique.
	if err := d.CreateUser(ctx, User{ID: "u2", Email: "trader@example.com", PasswordHash: "x"}); err == nil {
		t.Error("duplicate email insert succeeded")
	}
}
