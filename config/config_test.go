package config

import (
	"testing"

	"github.com/kiroku-media/kiroku/filesystem"
	"github.com/kiroku-media/kiroku/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func TestSetup(t *testing.T) {
	filesystem.SetMemMapFs()
	defer filesystem.SetOsFs()

	Convey("Config Setup", t, func() {
		Convey("Should initialize without error", func() {
			err := Setup()
			So(err, ShouldBeNil)
		})

		Convey("Should have default values populated", func() {
			_ = Setup()
			for name := range Default {
				So(viper.Get(name), ShouldNotBeNil)
			}
			So(viper.GetInt(key.CacheMaxSize), ShouldEqual, 10000)
			So(viper.GetInt(key.CacheBatchSize), ShouldEqual, 100)
		})

		Convey("EnvKeyReplacer should convert dots to underscores", func() {
			So(EnvKeyReplacer.Replace("cache.max.size"), ShouldEqual, "cache_max_size")
		})
	})
}

func TestFieldEnv(t *testing.T) {
	Convey("Field env names carry the application prefix", t, func() {
		f := Default[key.CacheMaxSize]
		So(f.Env(), ShouldEqual, "KIROKU_CACHE_MAX_SIZE")
	})
}
