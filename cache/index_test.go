package cache

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSecondaryIndexes(t *testing.T) {
	Convey("Given entries written under structured keys", t, func() {
		c := newTestCache(100, 10)

		libraryKey := StructuredKey(ScopeUserData, "library", "u1", Descriptor{"userId": "u1", FieldSource: "anilist"})
		profileKey := StructuredKey(ScopeUserData, "profile", "u1", Descriptor{"username": "u1"})
		detailKey := StructuredKey(ScopeMediaDetails, "details/stable", 42, Descriptor{"mediaId": 42})

		c.Set(libraryKey, "library", SetOptions{Scope: ScopeUserData, Source: "anilist", Tags: []string{"library"}})
		c.Set(profileKey, "profile", SetOptions{Scope: ScopeUserData, Source: "mal"})
		c.Set(detailKey, "details", SetOptions{Scope: ScopeMediaDetails, Source: "anilist", Tags: []string{"details"}})

		Convey("Keys with user fields land in the user index", func() {
			So(c.byUser["u1"], ShouldContainKey, libraryKey)
			So(c.byUser["u1"], ShouldContainKey, profileKey)
		})

		Convey("InvalidateByUser drops every entry for the user", func() {
			So(c.InvalidateByUser("u1", InvalidateOptions{}), ShouldEqual, 2)
			So(c.Get(libraryKey, GetOptions{Scope: ScopeUserData, Source: "anilist"}).IsAbsent(), ShouldBeTrue)
			So(c.Get(profileKey, GetOptions{Scope: ScopeUserData, Source: "mal"}).IsAbsent(), ShouldBeTrue)

			Convey("And the index attribute is gone", func() {
				So(c.byUser, ShouldNotContainKey, "u1")
				So(c.InvalidateByUser("u1", InvalidateOptions{}), ShouldEqual, 0)
			})
		})

		Convey("A source filter touches only that provider's stores", func() {
			So(c.InvalidateByUser("u1", InvalidateOptions{Source: "anilist"}), ShouldEqual, 1)
			So(c.Get(profileKey, GetOptions{Scope: ScopeUserData, Source: "mal"}).IsPresent(), ShouldBeTrue)

			Convey("And the index attribute survives for the other provider", func() {
				So(c.byUser, ShouldContainKey, "u1")
				So(c.InvalidateByUser("u1", InvalidateOptions{Source: "mal"}), ShouldEqual, 1)
			})
		})

		Convey("InvalidateByMedia accepts any id representation", func() {
			So(c.InvalidateByMedia(42, InvalidateOptions{}), ShouldEqual, 1)
			So(c.Get(detailKey, GetOptions{Scope: ScopeMediaDetails, Source: "anilist"}).IsAbsent(), ShouldBeTrue)
		})

		Convey("InvalidateByTag drops every entry carrying the tag", func() {
			So(c.InvalidateByTag("details", InvalidateOptions{}), ShouldEqual, 1)
			So(c.InvalidateByTag("absent", InvalidateOptions{}), ShouldEqual, 0)
		})

		Convey("Deleting an entry mirrors the removal in the indexes", func() {
			c.Delete(libraryKey, KeyOptions{Scope: ScopeUserData, Source: "anilist"})

			So(c.byUser["u1"], ShouldNotContainKey, libraryKey)
			So(c.byTag, ShouldNotContainKey, "library")
		})
	})
}

func TestBulkClearing(t *testing.T) {
	Convey("Given entries across several provider stores", t, func() {
		c := newTestCache(100, 10)

		taggedKey := StructuredKey(ScopeMediaData, "record", 1, Descriptor{FieldSource: "anilist"})
		c.Set(taggedKey, 1, SetOptions{Scope: ScopeMediaData, Source: "anilist", Tags: []string{"shared"}})
		c.Set("opaque-key", 2, SetOptions{Scope: ScopeMediaData, Source: "mal", Tags: []string{"shared"}})
		c.Set("bare", 3, SetOptions{Scope: ScopeMediaData})

		Convey("ClearBySource empties only that provider's stores", func() {
			So(c.ClearBySource("anilist"), ShouldEqual, 1)

			So(c.Get("opaque-key", GetOptions{Scope: ScopeMediaData, Source: "mal"}).IsPresent(), ShouldBeTrue)
			So(c.Get("bare", GetOptions{Scope: ScopeMediaData}).IsPresent(), ShouldBeTrue)

			Convey("Parseable keys naming the source are scrubbed from the indexes", func() {
				So(c.byTag["shared"], ShouldNotContainKey, taggedKey)
				// Opaque keys are conservatively retained.
				So(c.byTag["shared"], ShouldContainKey, "opaque-key")
			})
		})

		Convey("Clear with a scope empties its bare and compound stores", func() {
			So(c.Clear(ScopeMediaData), ShouldEqual, 3)
			So(c.Get("bare", GetOptions{Scope: ScopeMediaData}).IsAbsent(), ShouldBeTrue)
		})

		Convey("Clear with no scope empties everything", func() {
			c.Set("extra", 4, SetOptions{Scope: ScopeUserData, Source: "simkl"})

			So(c.Clear(""), ShouldEqual, 4)
			So(c.GetStats().CacheSize, ShouldEqual, 0)
		})

		Convey("InvalidateScope targets exactly one store", func() {
			So(c.InvalidateScope(ScopeMediaData, InvalidateOptions{Source: "mal"}), ShouldEqual, 1)
			So(c.Get(taggedKey, GetOptions{Scope: ScopeMediaData, Source: "anilist"}).IsPresent(), ShouldBeTrue)
		})
	})
}
