package cache

import (
	"fmt"

	"github.com/kiroku-media/kiroku/log"
)

// Secondary indexes map user ids, media ids, and tags to the canonical keys
// that carry them. Index membership is a superset of live-entry membership:
// a key may linger in an index after its entry expired elsewhere, which is
// why invalidation attempts deletion rather than assuming presence.

// indexAddLocked registers a freshly written key in the secondary indexes.
// Keys that do not parse as descriptors are skipped; the entry itself is
// still stored.
func (c *Cache) indexAddLocked(k string, tags []string) {
	if fields, ok := ParseDescriptor(k); ok {
		user := fields.Get("userId")
		if user == "" {
			user = fields.Get("username")
		}
		if user != "" {
			addToIndex(c.byUser, user, k)
		}
		if mediaID := fields.Get("mediaId"); mediaID != "" {
			addToIndex(c.byMedia, mediaID, k)
		}
	}
	for _, tag := range tags {
		addToIndex(c.byTag, tag, k)
	}
}

// indexRemoveLocked mirrors a deletion in every index, dropping sets that
// become empty.
func (c *Cache) indexRemoveLocked(k string, entry *Entry) {
	if fields, ok := ParseDescriptor(k); ok {
		user := fields.Get("userId")
		if user == "" {
			user = fields.Get("username")
		}
		if user != "" {
			dropFromIndex(c.byUser, user, k)
		}
		if mediaID := fields.Get("mediaId"); mediaID != "" {
			dropFromIndex(c.byMedia, mediaID, k)
		}
	}
	if entry != nil {
		for _, tag := range entry.Tags {
			dropFromIndex(c.byTag, tag, k)
		}
	}
}

func addToIndex(index map[string]map[string]struct{}, attr, k string) {
	set, ok := index[attr]
	if !ok {
		set = make(map[string]struct{})
		index[attr] = set
	}
	set[k] = struct{}{}
}

func dropFromIndex(index map[string]map[string]struct{}, attr, k string) {
	set, ok := index[attr]
	if !ok {
		return
	}
	delete(set, k)
	if len(set) == 0 {
		delete(index, attr)
	}
}

// InvalidateOptions narrow a bulk invalidation to one provider's stores.
type InvalidateOptions struct {
	Source string
}

// InvalidateByUser drops every cached entry indexed under a user. With a
// source filter, only that provider's stores are touched and the index
// entry survives for the other providers.
func (c *Cache) InvalidateByUser(user string, opt InvalidateOptions) int {
	return c.invalidateByAttr(c.byUser, user, opt)
}

// InvalidateByMedia drops every cached entry indexed under a media id.
func (c *Cache) InvalidateByMedia(mediaID any, opt InvalidateOptions) int {
	return c.invalidateByAttr(c.byMedia, fmt.Sprint(mediaID), opt)
}

// InvalidateByTag drops every cached entry carrying a tag.
func (c *Cache) InvalidateByTag(tag string, opt InvalidateOptions) int {
	return c.invalidateByAttr(c.byTag, tag, opt)
}

func (c *Cache) invalidateByAttr(index map[string]map[string]struct{}, attr string, opt InvalidateOptions) int {
	removed := 0

	c.mu.Lock()
	set, ok := index[attr]
	if !ok {
		c.mu.Unlock()
		return 0
	}

	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}

	for _, k := range keys {
		for storeName := range c.stores {
			if opt.Source != "" {
				if _, source := ParseCompositeScope(storeName); source != opt.Source {
					continue
				}
			}
			if c.removeLocked(storeName, k) {
				removed++
			}
		}
	}

	// Without a source filter nothing can still reference the attribute;
	// with one, other providers may.
	if opt.Source == "" {
		delete(index, attr)
	}
	c.mu.Unlock()

	if removed > 0 {
		c.scheduleSave(false)
		log.Debugf("cache: invalidated %d entries for %q", removed, attr)
	}
	return removed
}

// InvalidateScope empties a single store addressed by scope and optional
// source.
func (c *Cache) InvalidateScope(scope string, opt InvalidateOptions) int {
	c.mu.Lock()
	store, storeName := c.getStore(scope, opt.Source)
	if store == nil {
		c.mu.Unlock()
		return 0
	}
	removed := 0
	for k := range store {
		if c.removeLocked(storeName, k) {
			removed++
		}
	}
	c.mu.Unlock()

	if removed > 0 {
		c.scheduleSave(false)
	}
	return removed
}

// ClearBySource empties every store namespaced by a provider and scrubs
// the indexes of any key whose parsed __source names it. Keys that do not
// parse are conservatively retained.
func (c *Cache) ClearBySource(source string) int {
	removed := 0

	c.mu.Lock()
	for storeName, store := range c.stores {
		if _, storeSource := ParseCompositeScope(storeName); storeSource != source {
			continue
		}
		for k := range store {
			if c.removeLocked(storeName, k) {
				removed++
			}
		}
	}

	scrub := func(index map[string]map[string]struct{}) {
		for attr, set := range index {
			for k := range set {
				fields, ok := ParseDescriptor(k)
				if !ok {
					continue
				}
				if fields.Get(FieldSource) == source {
					delete(set, k)
				}
			}
			if len(set) == 0 {
				delete(index, attr)
			}
		}
	}
	scrub(c.byUser)
	scrub(c.byMedia)
	scrub(c.byTag)
	c.mu.Unlock()

	if removed > 0 {
		c.scheduleSave(false)
	}
	return removed
}

// Clear empties one scope's bare and compound stores, or every store when
// the scope is empty.
func (c *Cache) Clear(scope string) int {
	removed := 0

	c.mu.Lock()
	for storeName, store := range c.stores {
		if scope != "" {
			if base, _ := ParseCompositeScope(storeName); base != scope {
				continue
			}
		}
		for k := range store {
			if c.removeLocked(storeName, k) {
				removed++
			}
		}
	}
	c.mu.Unlock()

	if removed > 0 {
		c.scheduleSave(false)
	}
	return removed
}
