// Package monitor tracks engine performance counters and latency histograms.
package monitor

import (
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks overall engine performance.
type Metrics struct {
	// Latency histograms
	MatchLatency *LatencyHistogram
	DBLatency    *LatencyHistogram
	APILatency   *LatencyHistogram

	// Counters
	ordersProcessed uint64
	ticksProcessed  uint64
	fillsProduced   uint64
	ordersRejected  uint64
	apiRequests     uint64
	apiErrors       uint64

	startedAt time.Time
}

// NewMetrics creates a metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		MatchLatency: NewLatencyHistogram(1000),
		DBLatency:    NewLatencyHistogram(1000),
		APILatency:   NewLatencyHistogram(1000),
		startedAt:    time.Now(),
	}
}

func (m *Metrics) IncOrders()    { atomic.AddUint64(&m.ordersProcessed, 1) }
func (m *Metrics) IncTicks()     { atomic.AddUint64(&m.ticksProcessed, 1) }
func (m *Metrics) IncFills()     { atomic.AddUint64(&m.fillsProduced, 1) }
func (m *Metrics) IncRejects()   { atomic.AddUint64(&m.ordersRejected, 1) }
func (m *Metrics) IncAPI()       { atomic.AddUint64(&m.apiRequests, 1) }
func (m *Metrics) IncAPIErrors() { atomic.AddUint64(&m.apiErrors, 1) }

// Snapshot is a point-in-time view of all counters and stats.
type Snapshot struct {
	OrdersProcessed uint64       `json:"orders_processed"`
	TicksProcessed  uint64       `json:"ticks_processed"`
	FillsProduced   uint64       `json:"fills_produced"`
	OrdersRejected  uint64       `json:"orders_rejected"`
	APIRequests     uint64       `json:"api_requests"`
	APIErrors       uint64       `json:"api_errors"`
	MatchLatency    LatencyStats `json:"match_latency_ms"`
	DBLatency       LatencyStats `json:"db_latency_ms"`
	APILatency      LatencyStats `json:"api_latency_ms"`
	UptimeSeconds   float64      `json:"uptime_seconds"`
	Goroutines      int          `json:"goroutines"`
}

// Snapshot collects the current values.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		OrdersProcessed: atomic.LoadUint64(&m.ordersProcessed),
		TicksProcessed:  atomic.LoadUint64(&m.ticksProcessed),
		FillsProduced:   atomic.LoadUint64(&m.fillsProduced),
		OrdersRejected:  atomic.LoadUint64(&m.ordersRejected),
		APIRequests:     atomic.LoadUint64(&m.apiRequests),
		APIErrors:       atomic.LoadUint64(&m.apiErrors),
		MatchLatency:    m.MatchLatency.Stats(),
		DBLatency:       m.DBLatency.Stats(),
		APILatency:      m.APILatency.Stats(),
		UptimeSeconds:   time.Since(m.startedAt).Seconds(),
		Goroutines:      runtime.NumGoroutine(),
	}
}

// LatencyHistogram tracks latency samples with a sliding window and lazy
// stats computation.
type LatencyHistogram struct {
	mu          sync.Mutex
	samples     []float64
	maxSize     int
	dirty       bool
	cachedStats LatencyStats
}

// LatencyStats summarizes a window of samples in milliseconds.
type LatencyStats struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
}

// NewLatencyHistogram creates a sliding window histogram.
func NewLatencyHistogram(size int) *LatencyHistogram {
	if size <= 0 {
		size = 1000
	}
	return &LatencyHistogram{
		samples: make([]float64, 0, size),
		maxSize: size,
		dirty:   true,
	}
}

// Record adds a latency sample in milliseconds.
func (h *LatencyHistogram) Record(latencyMs float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.samples) >= h.maxSize {
		h.samples = h.samples[1:]
	}
	h.samples = append(h.samples, latencyMs)
	h.dirty = true
}

// RecordDuration converts a duration to ms and records it.
func (h *LatencyHistogram) RecordDuration(d time.Duration) {
	h.Record(float64(d.Nanoseconds()) / 1e6)
}

// Stats returns min, max, avg, p50, p95, p99, recomputing only when samples
// changed since the last call.
func (h *LatencyHistogram) Stats() LatencyStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.dirty {
		return h.cachedStats
	}
	if len(h.samples) == 0 {
		h.cachedStats = LatencyStats{}
		h.dirty = false
		return h.cachedStats
	}

	sorted := make([]float64, len(h.samples))
	copy(sorted, h.samples)
	sort.Float64s(sorted)

	var sum float64
	for _, s := range sorted {
		sum += s
	}

	h.cachedStats = LatencyStats{
		Count: len(sorted),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		Avg:   sum / float64(len(sorted)),
		P50:   percentile(sorted, 0.50),
		P95:   percentile(sorted, 0.95),
		P99:   percentile(sorted, 0.99),
	}
	h.dirty = false
	return h.cachedStats
}

// percentile picks from a sorted sample slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}
