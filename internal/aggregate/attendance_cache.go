package aggregate

import (
	"fmt"
	"sync"
	"time"
)

// DefaultMonthlyCacheTTL is the validity window of a cached monthly result.
const DefaultMonthlyCacheTTL = 5 * time.Minute

// MonthlyKey scopes a cached monthly aggregation.
type MonthlyKey struct {
	SectionID      int64
	AcademicYearID int64
	Month          int
	Year           int
}

func (k MonthlyKey) String() string {
	return fmt.Sprintf("attendance:monthly:%d:%d:%d-%02d", k.SectionID, k.AcademicYearID, k.Year, k.Month)
}

// CachedMonthly is a cached aggregation and the moment it was computed.
type CachedMonthly struct {
	Data      MonthlyAttendance
	Timestamp time.Time
}

// MonthlyCache keeps monthly aggregations for a bounded wall-clock window.
// Staleness is checked on every read; stale entries are never returned.
type MonthlyCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[MonthlyKey]CachedMonthly
}

// NewMonthlyCache builds a cache. now defaults to time.Now.
func NewMonthlyCache(ttl time.Duration, now func() time.Time) *MonthlyCache {
	if ttl <= 0 {
		ttl = DefaultMonthlyCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &MonthlyCache{ttl: ttl, now: now, entries: make(map[MonthlyKey]CachedMonthly)}
}

// Fresh reports whether an entry stamped at ts is still inside the window.
func (c *MonthlyCache) Fresh(ts time.Time) bool {
	return c.now().Sub(ts) < c.ttl
}

// Get returns a fresh entry. Stale entries are evicted and reported as misses.
func (c *MonthlyCache) Get(key MonthlyKey) (CachedMonthly, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return CachedMonthly{}, false
	}
	if !c.Fresh(entry.Timestamp) {
		delete(c.entries, key)
		return CachedMonthly{}, false
	}
	return entry, true
}

// Put stores data stamped with the current time.
func (c *MonthlyCache) Put(key MonthlyKey, data MonthlyAttendance) CachedMonthly {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := CachedMonthly{Data: data, Timestamp: c.now()}
	c.entries[key] = entry
	return entry
}

// Store inserts an entry with an explicit timestamp.
func (c *MonthlyCache) Store(key MonthlyKey, entry CachedMonthly) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry
}

// Invalidate drops one key.
func (c *MonthlyCache) Invalidate(key MonthlyKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear drops everything.
func (c *MonthlyCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[MonthlyKey]CachedMonthly)
}

// Len returns the number of entries, fresh or not.
func (c *MonthlyCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
