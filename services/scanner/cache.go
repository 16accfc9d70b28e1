package scanner

import (
	"fmt"
	"log"
	"sync"
	"time"

	"tw_scanner_backend/services/market"
)

// Cache guards one scan payload with session-aware expiry. A payload is
// stale when its TTL has elapsed, when it was written before the open
// and the session has since opened, or when the calendar day changed.
// Rebuilds are serialized: one caller rebuilds under the lock while the
// rest wait for the fresh payload.
type Cache[T any] struct {
	name      string
	session   *market.Session
	ttlMarket time.Duration
	ttlOff    time.Duration
	rebuild   func() (T, error)

	mu           sync.Mutex
	payload      T
	hasPayload   bool
	writtenAt    time.Time
	phaseAtWrite market.Phase
}

// CacheStatus describes how the returned payload was obtained.
type CacheStatus struct {
	FromCache bool      `json:"from_cache"`
	Stale     bool      `json:"stale"`
	WrittenAt time.Time `json:"written_at"`
	Error     bool      `json:"error"`
}

// NewCache wires a payload builder behind session-aware expiry.
func NewCache[T any](name string, session *market.Session, ttlMarket, ttlOff time.Duration, rebuild func() (T, error)) *Cache[T] {
	return &Cache[T]{
		name:      name,
		session:   session,
		ttlMarket: ttlMarket,
		ttlOff:    ttlOff,
		rebuild:   rebuild,
	}
}

// Get returns the cached payload, rebuilding first when it is stale or
// when force is set. A failed rebuild keeps serving the previous
// payload (flagged stale); with no previous payload the zero value is
// returned with the error flag set.
func (c *Cache[T]) Get(force bool) (T, CacheStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.session.Now()
	if !force && c.hasPayload && c.fresh(now) {
		return c.payload, CacheStatus{FromCache: true, WrittenAt: c.writtenAt}
	}

	payload, err := c.rebuild()
	if err != nil {
		log.Printf("[%s] cache rebuild failed: %v", c.name, err)
		if c.hasPayload {
			return c.payload, CacheStatus{FromCache: true, Stale: true, WrittenAt: c.writtenAt}
		}
		var zero T
		return zero, CacheStatus{Error: true}
	}

	c.payload = payload
	c.hasPayload = true
	c.writtenAt = now
	c.phaseAtWrite = c.session.PhaseAt(now)
	return c.payload, CacheStatus{WrittenAt: c.writtenAt}
}

// Invalidate drops the cached payload.
func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hasPayload = false
}

func (c *Cache[T]) fresh(now time.Time) bool {
	// A new calendar day always invalidates.
	loc := c.session.Location()
	if c.writtenAt.In(loc).Format("2006-01-02") != now.In(loc).Format("2006-01-02") {
		return false
	}

	// Crossing from pre-market into the open session invalidates even
	// inside the TTL: pre-open data does not represent live trading.
	phase := c.session.PhaseAt(now)
	if c.phaseAtWrite == market.PhasePreMarket && phase == market.PhaseOpen {
		return false
	}

	ttl := c.ttlOff
	if phase == market.PhaseOpen {
		ttl = c.ttlMarket
	}
	return now.Sub(c.writtenAt) < ttl
}

// String identifies the cache in logs.
func (c *Cache[T]) String() string {
	return fmt.Sprintf("cache(%s)", c.name)
}
