package engine

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"match-core/internal/book"
)

// Journal is a write-ahead log of submissions for crash recovery. Every
// accepted submission is recorded before matching and marked done after; on
// restart, recorded-but-unfinished orders are replayed through the router.
type Journal struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	closed  bool
	metrics JournalMetrics
}

// JournalMetrics tracks journal statistics.
type JournalMetrics struct {
	Written   uint64 // submissions written
	Recovered uint64 // submissions replayed on startup
	Completed uint64 // submissions marked done
	Failed    uint64 // write failures
}

// journalEntry is a single JSON line in the log.
type journalEntry struct {
	Action    string     `json:"action"` // "SUBMIT" or "DONE"
	Order     book.Order `json:"order"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewJournal opens (creating if needed) the journal under dir.
func NewJournal(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	path := filepath.Join(dir, "orders.wal")
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	return &Journal{path: path, file: file}, nil
}

// Record appends a SUBMIT entry and syncs it to disk before matching runs.
func (j *Journal) Record(o book.Order) error {
	return j.append(journalEntry{Action: "SUBMIT", Order: o, Timestamp: time.Now()})
}

// Done appends a DONE entry after the submission resolved.
func (j *Journal) Done(o book.Order) error {
	if err := j.append(journalEntry{Action: "DONE", Order: o, Timestamp: time.Now()}); err != nil {
		return err
	}
	atomic.AddUint64(&j.metrics.Completed, 1)
	return nil
}

func (j *Journal) append(e journalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return fmt.Errorf("journal is closed")
	}
	data, err := json.Marshal(e)
	if err != nil {
		atomic.AddUint64(&j.metrics.Failed, 1)
		return fmt.Errorf("marshal journal entry: %w", err)
	}
	if _, err := j.file.Write(append(data, '\n')); err != nil {
		atomic.AddUint64(&j.metrics.Failed, 1)
		return fmt.Errorf("write journal entry: %w", err)
	}
	if err := j.file.Sync(); err != nil {
		return fmt.Errorf("sync journal: %w", err)
	}
	atomic.AddUint64(&j.metrics.Written, 1)
	return nil
}

// Recover replays submissions that were recorded but never resolved. It must
// run before the API starts accepting orders.
func (j *Journal) Recover(ctx context.Context, r *Router) error {
	file, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open journal for recovery: %w", err)
	}
	defer file.Close()

	submitted := make(map[string]book.Order)
	var order []string
	done := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		var e journalEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			log.Printf("journal: parse error (skipping): %v", err)
			continue
		}
		switch e.Action {
		case "SUBMIT":
			if _, seen := submitted[e.Order.ID]; !seen {
				order = append(order, e.Order.ID)
			}
			submitted[e.Order.ID] = e.Order
		case "DONE":
			done[e.Order.ID] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan journal: %w", err)
	}

	recovered := 0
	for _, id := range order {
		if done[id] {
			continue
		}
		o := submitted[id]
		// Reset transient state; the replay resolves it fresh.
		o.FilledQty = 0
		o.QuoteQty = 0
		o.Status = ""
		o.Seq = 0
		if _, err := r.Submit(ctx, &o); err != nil {
			log.Printf("journal: replay of %s rejected: %v", id, err)
		}
		_ = j.Done(o)
		recovered++
	}
	atomic.AddUint64(&j.metrics.Recovered, uint64(recovered))
	if recovered > 0 {
		log.Printf("journal: replayed %d unresolved submissions", recovered)
	}
	return nil
}

// Metrics returns a copy of the journal counters.
func (j *Journal) Metrics() JournalMetrics {
	return JournalMetrics{
		Written:   atomic.LoadUint64(&j.metrics.Written),
		Recovered: atomic.LoadUint64(&j.metrics.Recovered),
		Completed: atomic.LoadUint64(&j.metrics.Completed),
		Failed:    atomic.LoadUint64(&j.metrics.Failed),
	}
}

// Close flushes and closes the underlying file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	return j.file.Close()
}
