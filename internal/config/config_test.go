package config_test

import (
	"context"
	"errors"
	"math"
	"runtime"
	"testing"
	"time"

	"github.com/okian/drainwatch/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.Threshold, convey.ShouldEqual, 0.01)
			convey.So(cfg.Lag, convey.ShouldEqual, 3)
			convey.So(cfg.MergeGap(), convey.ShouldEqual, time.Minute)
			convey.So(cfg.SignificanceThreshold, convey.ShouldEqual, 0.2)
			convey.So(cfg.WindowHours, convey.ShouldEqual, 24)
			convey.So(cfg.OutlierFrac, convey.ShouldEqual, 0.3)
			convey.So(cfg.VolumeTolerance, convey.ShouldEqual, 10)
			convey.So(cfg.PctTolerance, convey.ShouldEqual, 0)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New(context.Background())

		cases := []struct {
			name   string
			mutate func(*config.Config)
			msg    string
		}{
			{"negative window", func(c *config.Config) { c.WindowHours = -1 }, "window_hours"},
			{"zero lag", func(c *config.Config) { c.Lag = 0 }, "lag"},
			{"negative threshold", func(c *config.Config) { c.Threshold = -0.1 }, "threshold"},
			{"negative merge gap", func(c *config.Config) { c.MergeGapMinutes = -1 }, "merge_gap_minutes"},
			{"negative significance", func(c *config.Config) { c.SignificanceThreshold = -1 }, "significance_threshold"},
			{"negative outlier fraction", func(c *config.Config) { c.OutlierFrac = -0.5 }, "outlier_frac"},
			{"negative workers", func(c *config.Config) { c.WorkerCount = -2 }, "worker_count"},
			{"empty queue", func(c *config.Config) { c.QueueSize = 0 }, "queue_size"},
			{"unknown log format", func(c *config.Config) { c.LogFormat = "xml" }, "log_format"},
			{"NaN window", func(c *config.Config) { c.WindowHours = math.NaN() }, "window_hours"},
			{"window beyond a duration", func(c *config.Config) { c.WindowHours = 1e12 }, "window_hours"},
			{"infinite merge gap", func(c *config.Config) { c.MergeGapMinutes = math.Inf(1) }, "merge_gap_minutes"},
			{"NaN threshold", func(c *config.Config) { c.Threshold = math.NaN() }, "threshold"},
			{"NaN outlier fraction", func(c *config.Config) { c.OutlierFrac = math.NaN() }, "outlier_frac"},
			{"infinite volume tolerance", func(c *config.Config) { c.VolumeTolerance = math.Inf(1) }, "volume_tolerance"},
			{"empty readings path", func(c *config.Config) { c.ReadingsPath = "" }, "readings_path"},
		}

		for _, tc := range cases {
			convey.Convey("When it has a "+tc.name, func() {
				tc.mutate(cfg)
				err := cfg.Validate()

				convey.Convey("Then validation fails with ErrInvalidConfig", func() {
					convey.So(err, convey.ShouldNotBeNil)
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
					convey.So(err.Error(), convey.ShouldContainSubstring, tc.msg)
				})
			})
		}

		convey.Convey("When zero workers are requested", func() {
			cfg.WorkerCount = 0

			convey.Convey("Then it is accepted", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})
	})
}
