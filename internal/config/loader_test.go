package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/skinlens/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.PollMaxAttempts, convey.ShouldEqual, 40)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
				convey.So(cfg.BaseURL, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SKINLENS_ADDR", ":8080")
			_ = os.Setenv("SKINLENS_BASE_URL", "https://vendor.test/api")
			_ = os.Setenv("SKINLENS_POLL_INTERVAL", "500ms")
			_ = os.Setenv("SKINLENS_POLL_MAX_ATTEMPTS", "5")
			_ = os.Setenv("SKINLENS_WORKER_COUNT", "16")
			_ = os.Setenv("SKINLENS_CORS_ORIGINS", "http://a.test,http://b.test")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.BaseURL, convey.ShouldEqual, "https://vendor.test/api")
				convey.So(cfg.PollInterval, convey.ShouldEqual, 500*time.Millisecond)
				convey.So(cfg.PollMaxAttempts, convey.ShouldEqual, 5)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"http://a.test", "http://b.test"})
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
base_url: "https://vendor.test"
poll_timeout: 90s
store_engine: sqlite
store_path: /tmp/history.db
queue_size: 8
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SKINLENS_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.BaseURL, convey.ShouldEqual, "https://vendor.test")
				convey.So(cfg.PollTimeout, convey.ShouldEqual, 90*time.Second)
				convey.So(cfg.StoreEngine, convey.ShouldEqual, config.StoreSQLite)
				convey.So(cfg.StorePath, convey.ShouldEqual, "/tmp/history.db")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 8)
				convey.So(cfg.PollMaxAttempts, convey.ShouldEqual, 40)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
worker_count: 24
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SKINLENS_CONFIG", tmpFile)
			_ = os.Setenv("SKINLENS_WORKER_COUNT", "32")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")  // From file
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32) // Overridden by env
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("SKINLENS_CONFIG", "/non/existent/skinlens.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile("addr: [unterminated\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SKINLENS_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("SKINLENS_POLL_MAX_ATTEMPTS", "many")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config that fails validation", func() {
			_ = os.Setenv("SKINLENS_STORE_ENGINE", "bolt")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"SKINLENS_CONFIG",
		"SKINLENS_ADDR",
		"SKINLENS_BASE_URL",
		"SKINLENS_POLL_INTERVAL",
		"SKINLENS_POLL_MAX_ATTEMPTS",
		"SKINLENS_WORKER_COUNT",
		"SKINLENS_CORS_ORIGINS",
		"SKINLENS_STORE_ENGINE",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "skinlens-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
