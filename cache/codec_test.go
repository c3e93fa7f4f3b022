package cache

import (
	"encoding/json"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestValueCodec(t *testing.T) {
	Convey("Given the value codec", t, func() {
		Convey("Small payloads stay uncompressed", func() {
			enc, err := encodeValue(map[string]string{"k": "v"}, 1024)

			So(err, ShouldBeNil)
			So(enc.compressed, ShouldBeFalse)
			So(string(enc.data), ShouldEqual, `{"k":"v"}`)
		})

		Convey("Payloads crossing the threshold compress and round-trip", func() {
			value := strings.Repeat("the same phrase over and over ", 100)
			enc, err := encodeValue(value, 64)

			So(err, ShouldBeNil)
			So(enc.compressed, ShouldBeTrue)
			So(enc.originalSize, ShouldBeGreaterThan, 64)
			So(len(enc.data), ShouldBeLessThan, enc.originalSize)

			entry := &Entry{Data: enc.data, Compressed: true}
			raw := decodeEntry(entry)

			var decoded string
			So(json.Unmarshal(raw, &decoded), ShouldBeNil)
			So(decoded, ShouldEqual, value)
		})

		Convey("A non-positive threshold disables compression", func() {
			enc, err := encodeValue(strings.Repeat("x", 4096), 0)

			So(err, ShouldBeNil)
			So(enc.compressed, ShouldBeFalse)
		})

		Convey("Unserializable values abort", func() {
			_, err := encodeValue(make(chan int), 1024)
			So(err, ShouldNotBeNil)
		})

		Convey("A corrupt compressed blob is returned unchanged", func() {
			entry := &Entry{Data: json.RawMessage(`"not!valid!base64!!"`), Compressed: true}
			So(string(decodeEntry(entry)), ShouldEqual, `"not!valid!base64!!"`)
		})
	})
}
