// Package cache provides a sharded in-memory quote cache keyed by symbol.
package cache

import (
	"hash/fnv"
	"sync"
	"time"
)

const numShards = 16

// Quote is the cached market view of one symbol.
type Quote struct {
	LastPrice float64 `json:"last_price"`
	BestBid   float64 `json:"best_bid"`
	BestAsk   float64 `json:"best_ask"`
}

// QuoteCache is a sharded cache of per-symbol quotes, written by the engine
// and feed listeners and read lock-free relative to other shards.
type QuoteCache struct {
	shards [numShards]*quoteShard
}

type quoteShard struct {
	mu    sync.RWMutex
	items map[string]quoteEntry
}

type quoteEntry struct {
	quote     Quote
	updatedAt time.Time
}

// NewQuoteCache creates an empty cache.
func NewQuoteCache() *QuoteCache {
	c := &QuoteCache{}
	for i := 0; i < numShards; i++ {
		c.shards[i] = &quoteShard{items: make(map[string]quoteEntry)}
	}
	return c
}

func (c *QuoteCache) getShard(key string) *quoteShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return c.shards[h.Sum32()%numShards]
}

// SetLastPrice updates only the last traded/ticked price.
func (c *QuoteCache) SetLastPrice(symbol string, price float64) {
	shard := c.getShard(symbol)
	shard.mu.Lock()
	e := shard.items[symbol]
	e.quote.LastPrice = price
	e.updatedAt = time.Now()
	shard.items[symbol] = e
	shard.mu.Unlock()
}

// SetTopOfBook updates the best bid/ask.
func (c *QuoteCache) SetTopOfBook(symbol string, bid, ask float64) {
	shard := c.getShard(symbol)
	shard.mu.Lock()
	e := shard.items[symbol]
	e.quote.BestBid = bid
	e.quote.BestAsk = ask
	e.updatedAt = time.Now()
	shard.items[symbol] = e
	shard.mu.Unlock()
}

// Get retrieves the quote for a symbol.
func (c *QuoteCache) Get(symbol string) (Quote, bool) {
	shard := c.getShard(symbol)
	shard.mu.RLock()
	e, ok := shard.items[symbol]
	shard.mu.RUnlock()
	return e.quote, ok
}

// GetWithAge retrieves the quote and how stale it is.
func (c *QuoteCache) GetWithAge(symbol string) (Quote, time.Duration, bool) {
	shard := c.getShard(symbol)
	shard.mu.RLock()
	e, ok := shard.items[symbol]
	shard.mu.RUnlock()
	if !ok {
		return Quote{}, 0, false
	}
	return e.quote, time.Since(e.updatedAt), true
}

// Delete removes a symbol from the cache.
func (c *QuoteCache) Delete(symbol string) {
	shard := c.getShard(symbol)
	shard.mu.Lock()
	delete(shard.items, symbol)
	shard.mu.Unlock()
}
