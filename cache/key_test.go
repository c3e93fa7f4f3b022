package cache

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestKeyCanonicalization(t *testing.T) {
	Convey("Given structured lookup descriptors", t, func() {
		Convey("Field order does not affect the canonical key", func() {
			a := Key(Descriptor{"userId": 42, "scope": "library", "page": 1})
			b := Key(Descriptor{"page": 1, "scope": "library", "userId": 42})

			So(a, ShouldEqual, b)
		})

		Convey("Nil values coerce to the empty string", func() {
			a := Key(Descriptor{"userId": nil})
			b := Key(Descriptor{"userId": ""})

			So(a, ShouldEqual, b)
		})

		Convey("Strings pass through verbatim", func() {
			So(Key("plain-key"), ShouldEqual, "plain-key")
		})

		Convey("Scalars are stringified", func() {
			So(Key(42), ShouldEqual, "42")
		})

		Convey("Reserved characters in values survive a round trip", func() {
			k := Key(Descriptor{"title": "a&b=c d"})

			fields, ok := ParseDescriptor(k)
			So(ok, ShouldBeTrue)
			So(fields.Get("title"), ShouldEqual, "a&b=c d")
		})
	})
}

func TestStructuredKey(t *testing.T) {
	Convey("Given a structured key with metadata", t, func() {
		k := StructuredKey(ScopeMediaDetails, "details/stable", 42, Descriptor{"mediaId": 42})

		Convey("It parses back into its fields", func() {
			fields, ok := ParseDescriptor(k)

			So(ok, ShouldBeTrue)
			So(fields.Get(FieldScope), ShouldEqual, ScopeMediaDetails)
			So(fields.Get(FieldType), ShouldEqual, "details/stable")
			So(fields.Get(FieldID), ShouldEqual, "42")
			So(fields.Get("mediaId"), ShouldEqual, "42")
		})

		Convey("Opaque keys do not parse", func() {
			_, ok := ParseDescriptor("just-a-key")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestCompositeScope(t *testing.T) {
	Convey("Given composite scope names", t, func() {
		Convey("A source prefixes the scope", func() {
			So(CompositeScope("userData", "anilist"), ShouldEqual, "anilist:userData")
		})

		Convey("An empty source yields the bare scope", func() {
			So(CompositeScope("userData", ""), ShouldEqual, "userData")
		})

		Convey("Known prefixes split back into scope and source", func() {
			scope, source := ParseCompositeScope("mal:mediaDetails")

			So(scope, ShouldEqual, "mediaDetails")
			So(source, ShouldEqual, "mal")
		})

		Convey("Unknown prefixes stay part of a bare scope", func() {
			scope, source := ParseCompositeScope("custom:thing")

			So(scope, ShouldEqual, "custom:thing")
			So(source, ShouldBeEmpty)
		})
	})
}
