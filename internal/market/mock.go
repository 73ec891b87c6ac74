// Package market provides market-data feeds that drive conditional-order
// triggering. The core never ingests real feeds itself; anything publishing
// price_tick events works.
package market

import (
	"context"
	"log"
	"math/rand"
	"time"

	"match-core/internal/events"
)

// MockFeed generates synthetic ticks for local development and simulation.
type MockFeed struct {
	Bus        *events.Bus
	Symbols    []string
	StartPrice float64
	Step       float64
	Interval   time.Duration

	prices map[string]float64
}

// Start launches the random-walk tick loop until ctx is canceled.
func (m *MockFeed) Start(ctx context.Context) {
	if m.Bus == nil {
		log.Println("mock feed: bus not set")
		return
	}
	if len(m.Symbols) == 0 {
		m.Symbols = []string{"SOLUSDT"}
	}
	if m.StartPrice == 0 {
		m.StartPrice = 100.0
	}
	if m.Step == 0 {
		m.Step = 0.5
	}
	if m.Interval == 0 {
		m.Interval = time.Second
	}
	m.prices = make(map[string]float64, len(m.Symbols))
	for _, sym := range m.Symbols {
		m.prices[sym] = m.StartPrice
	}

	go func() {
		t := time.NewTicker(m.Interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				for _, sym := range m.Symbols {
					// independent random walk per symbol
					price := m.prices[sym] + (rand.Float64()*2-1)*m.Step
					if price <= m.Step {
						price = m.Step
					}
					m.prices[sym] = price
					m.Bus.Publish(events.EventPriceTick, events.PriceTick{
						Symbol: sym,
						Price:  price,
						Time:   time.Now(),
					})
				}
			}
		}
	}()
}
