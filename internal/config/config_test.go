package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/skinlens/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.PollInterval, convey.ShouldEqual, 3*time.Second)
			convey.So(cfg.PollMaxAttempts, convey.ShouldEqual, 40)
			convey.So(cfg.PollTimeout, convey.ShouldEqual, 2*time.Minute)
			convey.So(cfg.StoreEngine, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.RedisStream, convey.ShouldEqual, "photo-events")
			convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "skinlens")
			convey.So(cfg.MetricsSubsystem, convey.ShouldEqual, "client")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with out-of-range values", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }},
			{"zero poll interval", func(c *config.Config) { c.PollInterval = 0 }},
			{"zero poll attempts", func(c *config.Config) { c.PollMaxAttempts = 0 }},
			{"unknown engine", func(c *config.Config) { c.StoreEngine = "bolt" }},
			{"sqlite without path", func(c *config.Config) { c.StoreEngine = config.StoreSQLite; c.StorePath = "" }},
			{"no workers", func(c *config.Config) { c.WorkerCount = 0 }},
			{"file without secret", func(c *config.Config) { c.SessionFile = "/tmp/s"; c.SessionSecret = "" }},
			{"metrics namespace with dashes", func(c *config.Config) { c.MetricsNamespace = "skin-lens" }},
			{"unordered latency buckets", func(c *config.Config) { c.MetricsLatencyBuckets = []float64{10, 5} }},
			{"negative rate", func(c *config.Config) { c.RateLimitRPS = -1 }},
		}

		for _, tc := range cases {
			cfg := config.New()
			tc.mutate(cfg)

			convey.Convey("Then "+tc.name+" is rejected as invalid", func() {
				err := cfg.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
