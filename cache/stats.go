package cache

// Stats counts cache activity since construction (or since the counters
// were carried over from a loaded artifact).
type Stats struct {
	Hits         int64 `json:"hits"`
	Misses       int64 `json:"misses"`
	Sets         int64 `json:"sets"`
	Deletes      int64 `json:"deletes"`
	Evictions    int64 `json:"evictions"`
	Compressions int64 `json:"compressions"`
}

// StatsSnapshot is the derived, point-in-time view returned to callers.
type StatsSnapshot struct {
	Stats
	HitRate   float64 `json:"hitRate"`
	CacheSize int     `json:"cacheSize"`
	Stores    int     `json:"stores"`
	LastSave  int64   `json:"lastSave,omitempty"`
	LastLoad  int64   `json:"lastLoad,omitempty"`
}

// GetStats returns a consistent snapshot of the counters plus derived
// totals.
func (c *Cache) GetStats() StatsSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := 0
	for _, store := range c.stores {
		size += len(store)
	}

	snapshot := StatsSnapshot{
		Stats:     c.stats,
		CacheSize: size,
		Stores:    len(c.stores),
		LastSave:  c.state.lastSave,
		LastLoad:  c.state.lastLoad,
	}
	if lookups := c.stats.Hits + c.stats.Misses; lookups > 0 {
		snapshot.HitRate = float64(c.stats.Hits) / float64(lookups)
	}
	return snapshot
}
