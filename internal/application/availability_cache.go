package application

import (
	"sync"
	"time"
)

// availabilityCache stores recently computed per-date availability maps to
// avoid repeated full-table scans while the reservation state is unchanged.
// Any mutation or restore invalidates the whole cache.
type availabilityCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]availabilityCacheEntry
}

type availabilityCacheEntry struct {
	slots     map[string][]string
	expiresAt time.Time
}

func newAvailabilityCache(ttl time.Duration, maxEntries int, now func() time.Time) *availabilityCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 64
	}
	if now == nil {
		now = time.Now
	}
	return &availabilityCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]availabilityCacheEntry),
	}
}

func (c *availabilityCache) Get(date string) (map[string][]string, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[date]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, date)
		c.mu.Unlock()
		return nil, false
	}
	return cloneSlots(entry.slots), true
}

func (c *availabilityCache) Set(date string, slots map[string][]string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		if _, exists := c.entries[date]; !exists {
			c.evictOneLocked()
		}
	}
	c.entries[date] = availabilityCacheEntry{
		slots:     cloneSlots(slots),
		expiresAt: c.now().Add(c.ttl),
	}
}

func (c *availabilityCache) InvalidateAll() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]availabilityCacheEntry)
	c.mu.Unlock()
}

// evictOneLocked removes the entry closest to expiry. Called with c.mu held.
func (c *availabilityCache) evictOneLocked() {
	var victim string
	var victimExpiry time.Time
	for date, entry := range c.entries {
		if victim == "" || entry.expiresAt.Before(victimExpiry) {
			victim = date
			victimExpiry = entry.expiresAt
		}
	}
	if victim != "" {
		delete(c.entries, victim)
	}
}

func cloneSlots(slots map[string][]string) map[string][]string {
	out := make(map[string][]string, len(slots))
	for name, intervals := range slots {
		copied := make([]string, len(intervals))
		copy(copied, intervals)
		out[name] = copied
	}
	return out
}
