package cache

import (
	"encoding/json"
	"time"
)

// Predefined scope alphabet. Stores for the cross product of the provider
// sources and the first three scopes are created eagerly; mediaDetails and
// ad-hoc scopes materialize on first write.
const (
	ScopeUserData      = "userData"
	ScopeMediaData     = "mediaData"
	ScopeSearchResults = "searchResults"
	ScopeMediaDetails  = "mediaDetails"
)

// Entry is a single cached value with its metadata. The JSON layout is the
// persisted artifact layout.
type Entry struct {
	Data         json.RawMessage `json:"data"`
	Compressed   bool            `json:"compressed,omitempty"`
	Timestamp    int64           `json:"timestamp"`
	CustomTTL    *int64          `json:"customTtl,omitempty"`
	Tags         []string        `json:"tags,omitempty"`
	AccessCount  int64           `json:"accessCount,omitempty"`
	Source       string          `json:"source,omitempty"`
	OriginalSize int             `json:"originalSize,omitempty"`
}

// Default freshness policy per scope, in line with how quickly each class
// of data goes stale upstream.
var defaultTTL = map[string]time.Duration{
	ScopeUserData:      30 * time.Minute,
	ScopeMediaData:     10 * time.Minute,
	ScopeSearchResults: 2 * time.Minute,
	ScopeMediaDetails:  60 * time.Minute,
}

// fallbackTTL applies to scopes with no configured policy.
const fallbackTTL = 5 * time.Minute

// TTLFor resolves the effective time-to-live for an entry. Resolution
// order: explicit argument, then the entry's own override, then the
// compound scope policy, then the bare scope policy, then the fallback.
// A zero override set explicitly on the entry means the entry never
// expires.
func (c *Cache) TTLFor(entry *Entry, scope, source string, explicit *time.Duration) (ttl time.Duration, never bool) {
	if explicit != nil {
		return *explicit, *explicit == 0
	}
	if entry != nil && entry.CustomTTL != nil {
		ms := *entry.CustomTTL
		return time.Duration(ms) * time.Millisecond, ms == 0
	}
	if source != "" {
		if d, ok := c.ttl[CompositeScope(scope, source)]; ok {
			return d, false
		}
	}
	if d, ok := c.ttl[scope]; ok {
		return d, false
	}
	return fallbackTTL, false
}

// SetScopeTTL installs or overrides the freshness policy for a scope name
// (bare or compound).
func (c *Cache) SetScopeTTL(scope string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttl[scope] = ttl
}

// expired reports whether an entry has outlived its effective TTL at the
// given instant. An entry whose TTL elapses exactly now is expired.
func (c *Cache) expired(entry *Entry, scope, source string, explicit *time.Duration, now int64) bool {
	ttl, never := c.TTLFor(entry, scope, source, explicit)
	if never {
		return false
	}
	return now-entry.Timestamp >= ttl.Milliseconds()
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
