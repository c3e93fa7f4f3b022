package cache

import (
	"time"

	"github.com/kiroku-media/kiroku/log"
)

// Background refresh keeps hot entries warm without blocking reads. Work is
// single-flight per "<compoundScope>:<key>": a refresh scheduled while a
// previous one is in flight is dropped.

// StartBackgroundRefresh enables refresh scheduling on reads.
func (c *Cache) StartBackgroundRefresh() *Cache {
	c.mu.Lock()
	c.state.refreshEnabled = true
	c.mu.Unlock()
	return c
}

// StopBackgroundRefresh disables refresh scheduling. In-flight refreshes
// run to completion.
func (c *Cache) StopBackgroundRefresh() *Cache {
	c.mu.Lock()
	c.state.refreshEnabled = false
	c.mu.Unlock()
	return c
}

// maybeRefreshLocked schedules an asynchronous refresh for a key if a
// callback is known and no flight is already up. Callers hold the mutex.
// The refresh never raises to the reader that triggered it.
func (c *Cache) maybeRefreshLocked(refreshKey, k string, opt GetOptions) {
	fn := opt.Refresh
	if fn == nil {
		fn = c.refreshFns[refreshKey]
	}
	if fn == nil {
		return
	}
	if _, up := c.inflight[refreshKey]; up {
		return
	}
	c.inflight[refreshKey] = struct{}{}

	// The re-set must carry the entry's own tags and TTL override, not the
	// read's, or a refresh would silently drop the entry from the tag index.
	ttl := opt.TTL
	var tags []string
	if store, _ := c.getStore(opt.Scope, opt.Source); store != nil {
		if entry, ok := store[k]; ok {
			tags = entry.Tags
			if entry.CustomTTL != nil {
				d := time.Duration(*entry.CustomTTL) * time.Millisecond
				ttl = &d
			}
		}
	}

	go func() {
		value, err := fn()

		if err != nil {
			log.Warnf("cache: background refresh failed for %q: %v", refreshKey, err)
		} else if value != nil {
			c.Set(k, value, SetOptions{
				Scope:   opt.Scope,
				Source:  opt.Source,
				TTL:     ttl,
				Tags:    tags,
				Refresh: fn,
			})
		}

		c.mu.Lock()
		delete(c.inflight, refreshKey)
		c.mu.Unlock()
	}()
}
