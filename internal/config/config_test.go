package config_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/okian/vidtag/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.RecordNaming, convey.ShouldEqual, config.NamingPerVideo)
			convey.So(cfg.MergeMode, convey.ShouldEqual, "diff")
			convey.So(cfg.DefaultFrameRate, convey.ShouldEqual, 30)
			convey.So(cfg.MarkerArm, convey.ShouldEqual, 5)
			convey.So(cfg.HalfColumn, convey.ShouldBeFalse)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with bad values", t, func() {
		cases := map[string]func(c *config.Config){
			"empty addr":     func(c *config.Config) { c.Addr = "" },
			"unknown naming": func(c *config.Config) { c.RecordNaming = "flat" },
			"zero fps":       func(c *config.Config) { c.DefaultFrameRate = 0 },
			"negative half":  func(c *config.Config) { c.Half = -1 },
			"negative arm":   func(c *config.Config) { c.MarkerArm = -2 },
			"no overlay cap": func(c *config.Config) { c.MaxOverlayBytes = 0 },
			"no pixel cap":   func(c *config.Config) { c.MaxOverlayPixels = 0 },
		}
		for name, mutate := range cases {
			convey.Convey("When "+name, func() {
				cfg := config.New(context.Background())
				mutate(cfg)
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}

func TestRecordPath(t *testing.T) {
	convey.Convey("Given a video path", t, func() {
		video := filepath.Join("matches", "final.mp4")

		convey.Convey("When naming per video", func() {
			convey.So(config.RecordPath(config.NamingPerVideo, video), convey.ShouldEqual, filepath.Join("matches", "final.csv"))
		})

		convey.Convey("When naming is shared", func() {
			convey.So(config.RecordPath(config.NamingShared, video), convey.ShouldEqual, filepath.Join("matches", "Labels.csv"))
		})
	})
}
