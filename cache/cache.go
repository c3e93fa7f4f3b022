package cache

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/kiroku-media/kiroku/filesystem"
	"github.com/kiroku-media/kiroku/key"
	"github.com/kiroku-media/kiroku/log"
	"github.com/kiroku-media/kiroku/media"
	"github.com/kiroku-media/kiroku/where"
	"github.com/samber/mo"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Options configure a Cache instance. Zero fields fall back to the values
// registered in the application configuration.
type Options struct {
	// Path and TempPath locate the persisted artifact and its atomic-swap scratch file.
	Path     string
	TempPath string

	// FileSystem is the injected persistence adapter.
	FileSystem afero.Afero

	MaxSize              int
	BatchSize            int
	CompressionThreshold int

	DebounceImmediate time.Duration
	DebounceNormal    time.Duration
	IncrementalSave   time.Duration
	PruneInterval     time.Duration
}

// DefaultOptions resolves the configured cache parameters.
func DefaultOptions() Options {
	return Options{
		Path:                 where.CacheFile(),
		TempPath:             where.CacheTempFile(),
		FileSystem:           filesystem.API(),
		MaxSize:              viper.GetInt(key.CacheMaxSize),
		BatchSize:            viper.GetInt(key.CacheBatchSize),
		CompressionThreshold: viper.GetInt(key.CacheCompressionThreshold),
		DebounceImmediate:    100 * time.Millisecond,
		DebounceNormal:       2 * time.Second,
		IncrementalSave:      time.Duration(viper.GetInt(key.CacheIncrementalSave)) * time.Second,
		PruneInterval:        time.Duration(viper.GetInt(key.CachePruneInterval)) * time.Second,
	}
}

// RefreshFunc produces a fresh value for a cached key. A nil result with a
// nil error means the upstream had nothing; the stale entry is left alone.
type RefreshFunc func() (any, error)

// GetOptions parameterize a read.
type GetOptions struct {
	Scope  string
	Source string
	// TTL overrides every other freshness policy for this read.
	TTL *time.Duration
	// Refresh registers a callback used for background refresh scheduling.
	Refresh RefreshFunc
}

// SetOptions parameterize a write.
type SetOptions struct {
	Scope  string
	Source string
	// TTL becomes the entry's customTtl override. An explicit zero means
	// the entry never expires.
	TTL     *time.Duration
	Tags    []string
	Refresh RefreshFunc
}

// KeyOptions locate a key for deletion.
type KeyOptions struct {
	Scope  string
	Source string
}

// Cache is the multi-source data cache. All in-memory state is guarded by
// a single mutex; no I/O happens while it is held.
type Cache struct {
	mu sync.Mutex

	stores    map[string]map[string]*Entry
	byUser    map[string]map[string]struct{}
	byMedia   map[string]map[string]struct{}
	byTag     map[string]map[string]struct{}
	accessLog map[string]int64
	ttl       map[string]time.Duration

	refreshFns map[string]RefreshFunc
	inflight   map[string]struct{}

	stats Stats
	opts  Options

	state struct {
		saving         bool
		loading        bool
		refreshEnabled bool
		lastSave       int64
		lastLoad       int64
	}

	saveTimer *time.Timer
	pruneStop chan struct{}
	incStop   chan struct{}
}

// New constructs a Cache with eagerly created stores for the known
// (source, scope) cross product plus the bare aggregates.
func New(opts Options) *Cache {
	c := &Cache{
		stores:     make(map[string]map[string]*Entry),
		byUser:     make(map[string]map[string]struct{}),
		byMedia:    make(map[string]map[string]struct{}),
		byTag:      make(map[string]map[string]struct{}),
		accessLog:  make(map[string]int64),
		ttl:        make(map[string]time.Duration),
		refreshFns: make(map[string]RefreshFunc),
		inflight:   make(map[string]struct{}),
		opts:       opts,
	}

	for scope, ttl := range defaultTTL {
		c.ttl[scope] = ttl
	}

	c.initStoresLocked()
	return c
}

// initStoresLocked eagerly creates the known (source, scope) cross product
// plus the bare aggregates. mediaDetails stores materialize lazily.
func (c *Cache) initStoresLocked() {
	eager := []string{ScopeUserData, ScopeMediaData, ScopeSearchResults}
	for _, source := range media.Sources {
		for _, scope := range eager {
			c.stores[CompositeScope(scope, string(source))] = make(map[string]*Entry)
		}
	}
	for _, scope := range eager {
		c.stores[scope] = make(map[string]*Entry)
	}
}

// getStore routes a (scope, source) pair to its container: the compound
// store when present, else the bare store, else nothing.
func (c *Cache) getStore(scope, source string) (map[string]*Entry, string) {
	if source != "" {
		name := CompositeScope(scope, source)
		if store, ok := c.stores[name]; ok {
			return store, name
		}
	}
	if store, ok := c.stores[scope]; ok {
		return store, scope
	}
	return nil, ""
}

// ensureStore materializes a store on first write.
func (c *Cache) ensureStore(scope, source string) (map[string]*Entry, string) {
	name := CompositeScope(scope, source)
	store, ok := c.stores[name]
	if !ok {
		store = make(map[string]*Entry)
		c.stores[name] = store
	}
	return store, name
}

// Get looks up a key. Expired entries are removed before the miss is
// reported. When background refresh is enabled and the entry has consumed
// 80% of its TTL, a refresh is scheduled without blocking the read.
func (c *Cache) Get(rawKey any, opt GetOptions) mo.Option[json.RawMessage] {
	k := Key(rawKey)
	now := nowMillis()
	refreshKey := CompositeScope(opt.Scope, opt.Source) + ":" + k

	c.mu.Lock()

	c.accessLog[k] = now
	if opt.Refresh != nil {
		c.refreshFns[refreshKey] = opt.Refresh
	}

	store, storeName := c.getStore(opt.Scope, opt.Source)
	if store == nil {
		c.stats.Misses++
		c.maybeRefreshLocked(refreshKey, k, opt)
		c.mu.Unlock()
		return mo.None[json.RawMessage]()
	}

	entry, ok := store[k]
	if !ok {
		c.stats.Misses++
		c.maybeRefreshLocked(refreshKey, k, opt)
		c.mu.Unlock()
		return mo.None[json.RawMessage]()
	}

	if c.expired(entry, opt.Scope, opt.Source, opt.TTL, now) {
		c.removeLocked(storeName, k)
		c.stats.Misses++
		c.maybeRefreshLocked(refreshKey, k, opt)
		c.mu.Unlock()
		c.scheduleSave(false)
		return mo.None[json.RawMessage]()
	}

	entry.AccessCount++
	c.stats.Hits++

	if c.state.refreshEnabled {
		ttl, never := c.TTLFor(entry, opt.Scope, opt.Source, opt.TTL)
		if !never && now-entry.Timestamp > ttl.Milliseconds()*8/10 {
			c.maybeRefreshLocked(refreshKey, k, opt)
		}
	}

	data := decodeEntry(entry)
	c.mu.Unlock()
	return mo.Some(data)
}

// GetAs decodes a cached payload into a concrete type. Payloads that fail
// to decode are reported as misses.
func GetAs[T any](c *Cache, rawKey any, opt GetOptions) mo.Option[T] {
	raw, ok := c.Get(rawKey, opt).Get()
	if !ok {
		return mo.None[T]()
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		log.Warnf("cache: failed to decode payload for key %q: %v", Key(rawKey), err)
		return mo.None[T]()
	}
	return mo.Some(value)
}

// Set writes a value under a key, replacing any previous entry. It updates
// the secondary indexes, enforces the store size cap, and schedules an
// immediate-priority save.
func (c *Cache) Set(rawKey any, value any, opt SetOptions) bool {
	k := Key(rawKey)

	enc, err := encodeValue(value, c.opts.CompressionThreshold)
	if err != nil {
		log.Warnf("cache: failed to serialize value for key %q: %v", k, err)
		return false
	}

	var customTTL *int64
	if opt.TTL != nil {
		ms := opt.TTL.Milliseconds()
		customTTL = &ms
	}

	c.mu.Lock()

	store, storeName := c.ensureStore(opt.Scope, opt.Source)
	store[k] = &Entry{
		Data:         enc.data,
		Compressed:   enc.compressed,
		Timestamp:    nowMillis(),
		CustomTTL:    customTTL,
		Tags:         opt.Tags,
		Source:       opt.Source,
		OriginalSize: enc.originalSize,
	}
	if enc.compressed {
		c.stats.Compressions++
	}

	c.indexAddLocked(k, opt.Tags)
	c.accessLog[k] = nowMillis()
	c.stats.Sets++

	if opt.Refresh != nil {
		c.refreshFns[CompositeScope(opt.Scope, opt.Source)+":"+k] = opt.Refresh
	}

	c.enforceSizeLocked(storeName)
	c.mu.Unlock()

	c.scheduleSave(true)
	return true
}

// Delete removes a key from the addressed store.
func (c *Cache) Delete(rawKey any, opt KeyOptions) bool {
	k := Key(rawKey)

	c.mu.Lock()
	_, storeName := c.getStore(opt.Scope, opt.Source)
	if storeName == "" {
		c.mu.Unlock()
		return false
	}
	deleted := c.removeLocked(storeName, k)
	c.mu.Unlock()

	if deleted {
		c.scheduleSave(false)
	}
	return deleted
}

// removeLocked deletes an entry from a named store, mirrors the removal in
// every index, and counts the deletion. Callers hold the mutex.
func (c *Cache) removeLocked(storeName, k string) bool {
	store, ok := c.stores[storeName]
	if !ok {
		return false
	}
	entry, ok := store[k]
	if !ok {
		return false
	}
	delete(store, k)
	c.indexRemoveLocked(k, entry)
	c.stats.Deletes++
	return true
}

// enforceSizeLocked applies LRU eviction: when a store exceeds the cap the
// least recently touched entries are dropped, overshooting by the batch
// size so the sort cost amortizes across many writes.
func (c *Cache) enforceSizeLocked(storeName string) {
	if c.opts.MaxSize <= 0 {
		return
	}
	store := c.stores[storeName]
	if len(store) <= c.opts.MaxSize {
		return
	}

	keys := make([]string, 0, len(store))
	for k := range store {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		return c.accessLog[keys[i]] < c.accessLog[keys[j]]
	})

	evict := len(store) - c.opts.MaxSize + c.opts.BatchSize
	if evict > len(keys) {
		evict = len(keys)
	}

	for _, k := range keys[:evict] {
		entry := store[k]
		delete(store, k)
		c.indexRemoveLocked(k, entry)
		delete(c.accessLog, k)
		c.stats.Evictions++
	}
}

// PruneExpired removes expired entries. An empty scope scans every store;
// a source narrows a scoped prune to the compound store.
func (c *Cache) PruneExpired(scope, source string) int {
	now := nowMillis()
	removed := 0

	c.mu.Lock()
	for storeName, store := range c.stores {
		if scope != "" {
			if _, target := c.getStore(scope, source); target != storeName {
				continue
			}
		}
		baseScope, baseSource := ParseCompositeScope(storeName)
		for k, entry := range store {
			if c.expired(entry, baseScope, baseSource, nil, now) {
				if c.removeLocked(storeName, k) {
					removed++
				}
			}
		}
	}
	c.mu.Unlock()

	if removed > 0 {
		c.scheduleSave(false)
		log.Debugf("cache: pruned %d expired entries", removed)
	}
	return removed
}
