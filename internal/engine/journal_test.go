package engine

import (
	"context"
	"testing"

	"match-core/internal/book"
	"match-core/internal/fees"
)

func TestJournalRecoversUnresolvedSubmissions(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	j, err := NewJournal(dir)
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}

	resolved := limitOrder("resolved", book.Buy, 150.00, 1)
	unresolved := limitOrder("unresolved", book.Buy, 149.50, 2)

	if err := j.Record(*resolved); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := j.Done(*resolved); err != nil {
		t.Fatalf("Done: %v", err)
	}
	if err := j.Record(*unresolved); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Restart: only the unresolved submission replays.
	j2, err := NewJournal(dir)
	if err != nil {
		t.Fatalf("NewJournal (restart): %v", err)
	}
	defer j2.Close()

	pair := NewPair("SOLUSDT", fees.NewCalculator(0, 0), nil)
	router := NewRouter(pair)
	if err := j2.Recover(ctx, router); err != nil {
		t.Fatalf("Recover: %v", err)
	}

	if _, err := router.Status("resolved"); err == nil {
		t.Error("resolved order replayed")
	}
	o, err := router.Status("unresolved")
	if err != nil {
		t.Fatalf("unresolved order not replayed: %v", err)
	}
	if o.Status != book.StatusResting {
		t.Errorf("replayed status = %s, want RESTING", o.Status)
	}

	m := j2.Metrics()
	if m.Recovered != 1 {
		t.Errorf("Recovered = %d, want 1", m.Recovered)
	}
}

func TestJournalRecoverOnEmptyDirIsNoOp(t *testing.T) {
	dir := t.TempDir()
	j, err := NewJournal(dir)
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}
	defer j.Close()

	pair := NewPair("SOLUSDT", fees.NewCalculator(0, 0), nil)
	if err := j.Recover(context.Background(), NewRouter(pair)); err != nil {
		t.Fatalf("Recover on empty journal: %v", err)
	}
	if m := j.Metrics(); m.Recovered != 0 {
		t.Errorf("Recovered = %d, want 0", m.Recovered)
	}
}

func TestJournalRejectsWritesAfterClose(t *testing.T) {
	j, err := NewJournal(t.TempDir())
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := j.Record(*limitOrder("late", book.Buy, 1, 1)); err == nil {
		t.Error("Record after Close succeeded")
	}
}

func TestJournalReplayPreservesArrivalOrder(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	j, err := NewJournal(dir)
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}
	// Two sells at the same price: arrival order decides fill priority after
	// replay.
	if err := j.Record(*limitOrder("s1", book.Sell, 150.10, 1)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := j.Record(*limitOrder("s2", book.Sell, 150.10, 1)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	j.Close()

	j2, err := NewJournal(dir)
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}
	defer j2.Close()

	pair := NewPair("SOLUSDT", fees.NewCalculator(0, 0), nil)
	router := NewRouter(pair)
	if err := j2.Recover(ctx, router); err != nil {
		t.Fatalf("Recover: %v", err)
	}

	mustSubmit(t, pair, &book.Order{
		ID: "taker", Symbol: "SOLUSDT", Side: book.Buy, Type: book.Market, Qty: 1,
	})
	s1, _ := router.Status("s1")
	s2, _ := router.Status("s2")
	if s1.Status != book.StatusFilled || s2.Status != book.StatusResting {
		t.Errorf("fill order after replay: s1=%s s2=%s, want s1 FILLED first", s1.Status, s2.Status)
	}
}
