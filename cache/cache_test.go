package cache

import (
	"testing"
	"time"

	"github.com/kiroku-media/kiroku/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

// newTestCache builds a cache on the in-memory filesystem with debounce
// windows long enough that no save fires during a test.
func newTestCache(maxSize, batchSize int) *Cache {
	filesystem.SetMemMapFs()
	return New(Options{
		Path:                 "/cache.json",
		TempPath:             "/cache.tmp",
		FileSystem:           filesystem.API(),
		MaxSize:              maxSize,
		BatchSize:            batchSize,
		CompressionThreshold: 1024,
		DebounceImmediate:    time.Hour,
		DebounceNormal:       time.Hour,
	})
}

func TestGetSet(t *testing.T) {
	Convey("Given an empty cache", t, func() {
		c := newTestCache(100, 10)

		Convey("A written value reads back", func() {
			So(c.Set("greeting", "hello", SetOptions{Scope: ScopeUserData, Source: "anilist"}), ShouldBeTrue)

			raw := c.Get("greeting", GetOptions{Scope: ScopeUserData, Source: "anilist"})
			So(raw.IsPresent(), ShouldBeTrue)
			So(string(raw.MustGet()), ShouldEqual, `"hello"`)

			value, ok := GetAs[string](c, "greeting", GetOptions{Scope: ScopeUserData, Source: "anilist"}).Get()
			So(ok, ShouldBeTrue)
			So(value, ShouldEqual, "hello")
		})

		Convey("An unknown key misses", func() {
			So(c.Get("nope", GetOptions{Scope: ScopeUserData}).IsAbsent(), ShouldBeTrue)
		})

		Convey("Lookups land in the compound store, not the bare one", func() {
			c.Set("k", 1, SetOptions{Scope: ScopeUserData, Source: "anilist"})

			So(c.Get("k", GetOptions{Scope: ScopeUserData, Source: "mal"}).IsAbsent(), ShouldBeTrue)
			So(c.Get("k", GetOptions{Scope: ScopeUserData, Source: "anilist"}).IsPresent(), ShouldBeTrue)
		})

		Convey("Hits and misses count toward the stats", func() {
			c.Set("k", 1, SetOptions{Scope: ScopeUserData})
			c.Get("k", GetOptions{Scope: ScopeUserData})
			c.Get("absent", GetOptions{Scope: ScopeUserData})

			stats := c.GetStats()
			So(stats.Hits, ShouldEqual, 1)
			So(stats.Misses, ShouldEqual, 1)
			So(stats.Sets, ShouldEqual, 1)
			So(stats.HitRate, ShouldEqual, 0.5)
		})

		Convey("Delete removes the entry and reports it", func() {
			c.Set("k", 1, SetOptions{Scope: ScopeUserData})

			So(c.Delete("k", KeyOptions{Scope: ScopeUserData}), ShouldBeTrue)
			So(c.Delete("k", KeyOptions{Scope: ScopeUserData}), ShouldBeFalse)
			So(c.Get("k", GetOptions{Scope: ScopeUserData}).IsAbsent(), ShouldBeTrue)
		})
	})
}

func TestTTLResolution(t *testing.T) {
	Convey("Given the freshness policy", t, func() {
		c := newTestCache(100, 10)

		Convey("An explicit argument wins over everything", func() {
			explicit := 7 * time.Minute
			entryTTL := int64(1000)
			ttl, never := c.TTLFor(&Entry{CustomTTL: &entryTTL}, ScopeUserData, "", &explicit)

			So(ttl, ShouldEqual, explicit)
			So(never, ShouldBeFalse)
		})

		Convey("The entry's own override comes next", func() {
			entryTTL := int64(1000)
			ttl, never := c.TTLFor(&Entry{CustomTTL: &entryTTL}, ScopeUserData, "", nil)

			So(ttl, ShouldEqual, time.Second)
			So(never, ShouldBeFalse)
		})

		Convey("An explicit zero override means never expires", func() {
			zero := int64(0)
			_, never := c.TTLFor(&Entry{CustomTTL: &zero}, ScopeUserData, "", nil)

			So(never, ShouldBeTrue)
		})

		Convey("A compound scope policy shadows the bare scope policy", func() {
			c.SetScopeTTL("anilist:"+ScopeUserData, time.Minute)

			compound, _ := c.TTLFor(&Entry{}, ScopeUserData, "anilist", nil)
			bare, _ := c.TTLFor(&Entry{}, ScopeUserData, "", nil)

			So(compound, ShouldEqual, time.Minute)
			So(bare, ShouldEqual, 30*time.Minute)
		})

		Convey("Unknown scopes use the fallback policy", func() {
			ttl, _ := c.TTLFor(&Entry{}, "adhoc", "", nil)
			So(ttl, ShouldEqual, fallbackTTL)
		})

		Convey("An entry expires exactly when its TTL elapses", func() {
			entry := &Entry{Timestamp: 1000}
			ttl := 30 * time.Minute

			So(c.expired(entry, ScopeUserData, "", nil, 1000+ttl.Milliseconds()-1), ShouldBeFalse)
			So(c.expired(entry, ScopeUserData, "", nil, 1000+ttl.Milliseconds()), ShouldBeTrue)
		})

		Convey("Expired entries are removed on read and count as misses", func() {
			c.Set("stale", 1, SetOptions{Scope: ScopeSearchResults, Source: "anilist"})

			c.mu.Lock()
			c.stores["anilist:"+ScopeSearchResults]["stale"].Timestamp -= (3 * time.Minute).Milliseconds()
			c.mu.Unlock()

			So(c.Get("stale", GetOptions{Scope: ScopeSearchResults, Source: "anilist"}).IsAbsent(), ShouldBeTrue)

			stats := c.GetStats()
			So(stats.Misses, ShouldEqual, 1)
			So(stats.Deletes, ShouldEqual, 1)
		})

		Convey("A never-expiring entry survives any backdating", func() {
			zero := time.Duration(0)
			c.Set("pinned", 1, SetOptions{Scope: ScopeUserData, TTL: &zero})

			c.mu.Lock()
			c.stores[ScopeUserData]["pinned"].Timestamp -= (365 * 24 * time.Hour).Milliseconds()
			c.mu.Unlock()

			So(c.Get("pinned", GetOptions{Scope: ScopeUserData}).IsPresent(), ShouldBeTrue)
		})
	})
}

func TestEviction(t *testing.T) {
	Convey("Given a cache capped at two entries with batch size one", t, func() {
		c := newTestCache(2, 1)

		c.Set("k1", 1, SetOptions{Scope: ScopeUserData})
		c.Set("k2", 2, SetOptions{Scope: ScopeUserData})

		// Deterministic recency regardless of timer resolution.
		c.mu.Lock()
		c.accessLog["k1"] = 100
		c.accessLog["k2"] = 200
		c.accessLog["k3"] = 300
		c.mu.Unlock()

		Convey("A write past the cap evicts the least recent entries plus the overshoot", func() {
			c.Set("k3", 3, SetOptions{Scope: ScopeUserData})

			So(c.Get("k1", GetOptions{Scope: ScopeUserData}).IsAbsent(), ShouldBeTrue)
			So(c.Get("k2", GetOptions{Scope: ScopeUserData}).IsAbsent(), ShouldBeTrue)
			So(c.Get("k3", GetOptions{Scope: ScopeUserData}).IsPresent(), ShouldBeTrue)
			So(c.GetStats().Evictions, ShouldEqual, 2)
		})

		Convey("Recently touched entries are preferred for survival", func() {
			c.mu.Lock()
			c.accessLog["k2"] = 50 // now the coldest
			c.mu.Unlock()

			c.Set("k3", 3, SetOptions{Scope: ScopeUserData})

			So(c.Get("k2", GetOptions{Scope: ScopeUserData}).IsAbsent(), ShouldBeTrue)
			So(c.Get("k3", GetOptions{Scope: ScopeUserData}).IsPresent(), ShouldBeTrue)
		})
	})
}

func TestPruneExpired(t *testing.T) {
	Convey("Given stores with a mix of fresh and expired entries", t, func() {
		c := newTestCache(100, 10)

		c.Set("fresh", 1, SetOptions{Scope: ScopeUserData, Source: "anilist"})
		c.Set("stale", 2, SetOptions{Scope: ScopeSearchResults, Source: "anilist"})
		c.Set("stale2", 3, SetOptions{Scope: ScopeSearchResults, Source: "mal"})

		c.mu.Lock()
		c.stores["anilist:"+ScopeSearchResults]["stale"].Timestamp -= (3 * time.Minute).Milliseconds()
		c.stores["mal:"+ScopeSearchResults]["stale2"].Timestamp -= (3 * time.Minute).Milliseconds()
		c.mu.Unlock()

		Convey("A full sweep removes every expired entry", func() {
			So(c.PruneExpired("", ""), ShouldEqual, 2)
			So(c.Get("fresh", GetOptions{Scope: ScopeUserData, Source: "anilist"}).IsPresent(), ShouldBeTrue)
		})

		Convey("A scoped sweep touches only the addressed store", func() {
			So(c.PruneExpired(ScopeSearchResults, "anilist"), ShouldEqual, 1)
			So(c.Get("stale2", GetOptions{Scope: ScopeSearchResults, Source: "mal"}).IsAbsent(), ShouldBeTrue)
		})
	})
}

func TestBackgroundRefresh(t *testing.T) {
	Convey("Given a cache with background refresh enabled", t, func() {
		c := newTestCache(100, 10)
		c.StartBackgroundRefresh()
		defer c.StopBackgroundRefresh()

		refreshed := make(chan struct{}, 1)
		refresh := func() (any, error) {
			select {
			case refreshed <- struct{}{}:
			default:
			}
			return "newer", nil
		}

		Convey("An entry past 80% of its TTL refreshes without blocking the read", func() {
			c.Set("k", "old", SetOptions{Scope: ScopeUserData})

			c.mu.Lock()
			c.stores[ScopeUserData]["k"].Timestamp -= (29 * time.Minute).Milliseconds()
			c.mu.Unlock()

			value, ok := GetAs[string](c, "k", GetOptions{Scope: ScopeUserData, Refresh: refresh}).Get()
			So(ok, ShouldBeTrue)
			So(value, ShouldEqual, "old")

			select {
			case <-refreshed:
			case <-time.After(2 * time.Second):
				t.Fatal("refresh was not scheduled")
			}

			// The refreshed value lands asynchronously.
			deadline := time.Now().Add(2 * time.Second)
			for time.Now().Before(deadline) {
				if v, ok := GetAs[string](c, "k", GetOptions{Scope: ScopeUserData}).Get(); ok && v == "newer" {
					break
				}
				time.Sleep(10 * time.Millisecond)
			}
			value, ok = GetAs[string](c, "k", GetOptions{Scope: ScopeUserData}).Get()
			So(ok, ShouldBeTrue)
			So(value, ShouldEqual, "newer")
		})

		Convey("A refresh preserves the entry's tags and TTL override", func() {
			ttl := 10 * time.Minute
			c.Set("tagged", "old", SetOptions{Scope: ScopeUserData, TTL: &ttl, Tags: []string{"warm"}})

			c.mu.Lock()
			c.stores[ScopeUserData]["tagged"].Timestamp -= (9 * time.Minute).Milliseconds()
			c.mu.Unlock()

			GetAs[string](c, "tagged", GetOptions{Scope: ScopeUserData, Refresh: refresh})

			select {
			case <-refreshed:
			case <-time.After(2 * time.Second):
				t.Fatal("refresh was not scheduled")
			}

			deadline := time.Now().Add(2 * time.Second)
			for time.Now().Before(deadline) {
				if v, ok := GetAs[string](c, "tagged", GetOptions{Scope: ScopeUserData}).Get(); ok && v == "newer" {
					break
				}
				time.Sleep(10 * time.Millisecond)
			}

			c.mu.Lock()
			entry := c.stores[ScopeUserData]["tagged"]
			_, indexed := c.byTag["warm"]["tagged"]
			c.mu.Unlock()

			So(entry.Tags, ShouldResemble, []string{"warm"})
			So(entry.CustomTTL, ShouldNotBeNil)
			So(*entry.CustomTTL, ShouldEqual, ttl.Milliseconds())
			So(indexed, ShouldBeTrue)
		})

		Convey("A fresh entry does not trigger a refresh", func() {
			c.Set("k", "fresh", SetOptions{Scope: ScopeUserData})

			GetAs[string](c, "k", GetOptions{Scope: ScopeUserData, Refresh: refresh})

			select {
			case <-refreshed:
				t.Fatal("unexpected refresh for a fresh entry")
			case <-time.After(100 * time.Millisecond):
			}
		})
	})
}
