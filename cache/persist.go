package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kiroku-media/kiroku/constant"
	"github.com/kiroku-media/kiroku/log"
)

// pair is a [key, value] tuple in the persisted artifact. Maps are
// flattened to pair arrays so the artifact layout stays stable across
// implementations.
type pair[T any] struct {
	Key   string
	Value T
}

func (p pair[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Key, p.Value})
}

func (p *pair[T]) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("expected [key, value] pair, got %d elements", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.Key); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &p.Value)
}

// artifact is the single on-disk document holding the entire cache state.
type artifact struct {
	Version   string                    `json:"version"`
	Timestamp int64                     `json:"timestamp"`
	Stats     Stats                     `json:"stats"`
	Data      map[string][]pair[*Entry] `json:"data"`
	Indexes   artifactIndexes           `json:"indexes"`
	AccessLog []pair[int64]             `json:"accessLog"`
}

type artifactIndexes struct {
	ByUser  []pair[[]string] `json:"byUser"`
	ByMedia []pair[[]string] `json:"byMedia"`
	ByTag   []pair[[]string] `json:"byTag"`
}

// snapshotLocked flattens the in-memory state into an artifact. Callers
// hold the mutex; entries are copied by value so the artifact stays frozen
// once the mutex is released, even while reads keep bumping access counts.
func (c *Cache) snapshotLocked() *artifact {
	art := &artifact{
		Version:   constant.CacheVersion,
		Timestamp: nowMillis(),
		Stats:     c.stats,
		Data:      make(map[string][]pair[*Entry], len(c.stores)),
	}

	for storeName, store := range c.stores {
		pairs := make([]pair[*Entry], 0, len(store))
		for k, entry := range store {
			frozen := *entry
			pairs = append(pairs, pair[*Entry]{Key: k, Value: &frozen})
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
		art.Data[storeName] = pairs
	}

	art.Indexes.ByUser = flattenIndex(c.byUser)
	art.Indexes.ByMedia = flattenIndex(c.byMedia)
	art.Indexes.ByTag = flattenIndex(c.byTag)

	art.AccessLog = make([]pair[int64], 0, len(c.accessLog))
	for k, ts := range c.accessLog {
		art.AccessLog = append(art.AccessLog, pair[int64]{Key: k, Value: ts})
	}
	sort.Slice(art.AccessLog, func(i, j int) bool { return art.AccessLog[i].Key < art.AccessLog[j].Key })

	return art
}

func flattenIndex(index map[string]map[string]struct{}) []pair[[]string] {
	flat := make([]pair[[]string], 0, len(index))
	for attr, set := range index {
		keys := make([]string, 0, len(set))
		for k := range set {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		flat = append(flat, pair[[]string]{Key: attr, Value: keys})
	}
	sort.Slice(flat, func(i, j int) bool { return flat[i].Key < flat[j].Key })
	return flat
}

// SaveToDisk serializes the cache into its single artifact. A save already
// in flight short-circuits. Strategy: direct write first, atomic replace
// through the scratch file on failure.
func (c *Cache) SaveToDisk() error {
	c.mu.Lock()
	if c.state.saving {
		c.mu.Unlock()
		return nil
	}
	c.state.saving = true
	art := c.snapshotLocked()
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state.saving = false
		c.mu.Unlock()
	}()

	payload, err := json.Marshal(art)
	if err != nil {
		return fmt.Errorf("serialize cache artifact: %w", err)
	}

	fs := c.opts.FileSystem
	if err := fs.MkdirAll(filepath.Dir(c.opts.Path), os.ModePerm); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	if err := fs.WriteFile(c.opts.Path, payload, 0644); err != nil {
		log.Warnf("cache: direct write failed, attempting atomic replace: %v", err)

		if err := fs.WriteFile(c.opts.TempPath, payload, 0644); err != nil {
			return fmt.Errorf("write cache scratch file: %w", err)
		}
		_ = fs.Remove(c.opts.Path)
		if err := fs.Rename(c.opts.TempPath, c.opts.Path); err != nil {
			return fmt.Errorf("replace cache artifact: %w", err)
		}
	}

	c.mu.Lock()
	c.state.lastSave = nowMillis()
	c.mu.Unlock()

	log.Debugf("cache: saved artifact to %s", c.opts.Path)
	return nil
}

// LoadFromDisk restores the cache from its artifact. Absence is not an
// error; incompatible or corrupt artifacts are discarded with a warning and
// the cache continues empty. Entries already past their TTL are dropped
// during replay. Returns the number of entries restored.
func (c *Cache) LoadFromDisk() (int, error) {
	c.mu.Lock()
	if c.state.loading {
		c.mu.Unlock()
		return 0, nil
	}
	c.state.loading = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state.loading = false
		c.mu.Unlock()
	}()

	data, err := c.opts.FileSystem.ReadFile(c.opts.Path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Infof("cache: no artifact at %s, starting empty", c.opts.Path)
		} else {
			log.Warnf("cache: failed to read artifact: %v", err)
		}
		return 0, nil
	}

	var art artifact
	if err := json.Unmarshal(data, &art); err != nil {
		log.Warnf("cache: discarding unreadable artifact: %v", err)
		return 0, nil
	}

	if compareVersions(art.Version, constant.MinCacheVersion) < 0 {
		log.Warnf("cache: discarding artifact with incompatible version %q", art.Version)
		return 0, nil
	}

	now := nowMillis()
	loaded := 0

	c.mu.Lock()
	for storeName, pairs := range art.Data {
		store, ok := c.stores[storeName]
		if !ok {
			store = make(map[string]*Entry)
			c.stores[storeName] = store
		}
		baseScope, baseSource := ParseCompositeScope(storeName)
		for _, p := range pairs {
			if p.Value == nil || p.Value.Timestamp == 0 {
				continue
			}
			if c.expired(p.Value, baseScope, baseSource, nil, now) {
				continue
			}
			store[p.Key] = p.Value
			loaded++
		}
	}

	replayIndex(c.byUser, art.Indexes.ByUser)
	replayIndex(c.byMedia, art.Indexes.ByMedia)
	replayIndex(c.byTag, art.Indexes.ByTag)

	for _, p := range art.AccessLog {
		c.accessLog[p.Key] = p.Value
	}

	// Compression count carries across restarts for stats continuity.
	c.stats.Compressions = art.Stats.Compressions
	c.state.lastLoad = now
	c.mu.Unlock()

	log.Infof("cache: restored %d entries from artifact", loaded)
	return loaded, nil
}

func replayIndex(index map[string]map[string]struct{}, flat []pair[[]string]) {
	for _, p := range flat {
		for _, k := range p.Value {
			addToIndex(index, p.Key, k)
		}
	}
}

// compareVersions performs a dotted-numeric comparison; missing components
// count as zero. Returns 1, -1, or 0.
func compareVersions(a, b string) int {
	as := strings.Split(strings.TrimPrefix(a, "v"), ".")
	bs := strings.Split(strings.TrimPrefix(b, "v"), ".")

	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		var av, bv int
		if i < len(as) {
			av, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bv, _ = strconv.Atoi(bs[i])
		}
		if av > bv {
			return 1
		}
		if av < bv {
			return -1
		}
	}
	return 0
}

// scheduleSave coalesces bursts of mutations into one debounced disk write.
// The pending handle is replaced on every call; immediate priority uses the
// shorter debounce window. Saves are idempotent, so dropping a scheduled
// save in favor of a newer one is safe.
func (c *Cache) scheduleSave(immediate bool) {
	delay := c.opts.DebounceNormal
	if immediate {
		delay = c.opts.DebounceImmediate
	}

	c.mu.Lock()
	if c.saveTimer != nil {
		c.saveTimer.Stop()
	}
	c.saveTimer = time.AfterFunc(delay, func() {
		if err := c.SaveToDisk(); err != nil {
			log.Warnf("cache: scheduled save failed: %v", err)
		}
	})
	c.mu.Unlock()
}

// StartAutoPrune begins periodic expiry sweeps across all stores. A
// non-positive interval falls back to the configured default.
func (c *Cache) StartAutoPrune(interval time.Duration) *Cache {
	if interval <= 0 {
		interval = c.opts.PruneInterval
	}
	if interval <= 0 {
		return c
	}

	c.mu.Lock()
	if c.pruneStop != nil {
		c.mu.Unlock()
		return c
	}
	stop := make(chan struct{})
	c.pruneStop = stop
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.PruneExpired("", "")
			case <-stop:
				return
			}
		}
	}()
	return c
}

// StopAutoPrune halts the periodic expiry sweep.
func (c *Cache) StopAutoPrune() {
	c.mu.Lock()
	if c.pruneStop != nil {
		close(c.pruneStop)
		c.pruneStop = nil
	}
	c.mu.Unlock()
}

// StartIncrementalSave forces a disk write whenever no save has happened
// within half the interval, bounding how much work a crash can lose.
func (c *Cache) StartIncrementalSave(interval time.Duration) *Cache {
	if interval <= 0 {
		interval = c.opts.IncrementalSave
	}
	if interval <= 0 {
		return c
	}

	c.mu.Lock()
	if c.incStop != nil {
		c.mu.Unlock()
		return c
	}
	stop := make(chan struct{})
	c.incStop = stop
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.mu.Lock()
				stale := nowMillis()-c.state.lastSave > interval.Milliseconds()/2
				c.mu.Unlock()
				if stale {
					if err := c.SaveToDisk(); err != nil {
						log.Warnf("cache: incremental save failed: %v", err)
					}
				}
			case <-stop:
				return
			}
		}
	}()
	return c
}

// StopIncrementalSave halts the incremental save timer.
func (c *Cache) StopIncrementalSave() {
	c.mu.Lock()
	if c.incStop != nil {
		close(c.incStop)
		c.incStop = nil
	}
	c.mu.Unlock()
}

// ClearAll wipes every store, index, and tracking structure, resets the
// stats, removes the on-disk artifacts, writes a clean empty artifact, and
// restarts the background timers. Returns the number of entries dropped.
func (c *Cache) ClearAll() int {
	c.StopAutoPrune()
	c.StopIncrementalSave()

	c.mu.Lock()
	if c.saveTimer != nil {
		c.saveTimer.Stop()
		c.saveTimer = nil
	}

	removed := 0
	for _, store := range c.stores {
		removed += len(store)
	}

	c.stores = make(map[string]map[string]*Entry)
	c.byUser = make(map[string]map[string]struct{})
	c.byMedia = make(map[string]map[string]struct{})
	c.byTag = make(map[string]map[string]struct{})
	c.accessLog = make(map[string]int64)
	c.refreshFns = make(map[string]RefreshFunc)
	c.inflight = make(map[string]struct{})
	c.stats = Stats{}
	c.state.lastSave = 0
	c.state.lastLoad = 0

	c.initStoresLocked()
	c.mu.Unlock()

	fs := c.opts.FileSystem
	for _, path := range []string{c.opts.Path, c.opts.TempPath} {
		if err := fs.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warnf("cache: failed to remove %s: %v", path, err)
		}
	}

	// A clean artifact guarantees the next load starts from a known state.
	if err := c.SaveToDisk(); err != nil {
		log.Warnf("cache: failed to write clean artifact: %v", err)
	}

	c.StartAutoPrune(0)
	c.StartIncrementalSave(0)

	return removed
}

// Destroy stops every timer and flushes the cache to disk. The instance
// must not be used afterwards.
func (c *Cache) Destroy() {
	c.StopAutoPrune()
	c.StopIncrementalSave()
	c.StopBackgroundRefresh()

	c.mu.Lock()
	if c.saveTimer != nil {
		c.saveTimer.Stop()
		c.saveTimer = nil
	}
	c.mu.Unlock()

	if err := c.SaveToDisk(); err != nil {
		log.Warnf("cache: final save failed: %v", err)
	}
}
