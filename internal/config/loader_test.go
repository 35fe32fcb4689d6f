package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/startrack/internal/config"
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
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StoreMemory)
				convey.So(cfg.Publisher, convey.ShouldEqual, config.PublisherLog)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("STARTRACK_ADDR", ":8080")
			_ = os.Setenv("STARTRACK_TOP_N", "50")
			_ = os.Setenv("STARTRACK_BATCH_MAX_OPS", "250")
			_ = os.Setenv("STARTRACK_HISTORY_WINDOW_AFTER", "30m")
			_ = os.Setenv("STARTRACK_MILESTONES", "1000,2000")
			_ = os.Setenv("STARTRACK_SECRET_GITHUB_TOKEN", "ignored-by-config")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.TopN, convey.ShouldEqual, 50)
				convey.So(cfg.BatchMaxOps, convey.ShouldEqual, 250)
				convey.So(cfg.HistoryWindowAfter, convey.ShouldEqual, 30*time.Minute)
				convey.So(cfg.Milestones, convey.ShouldResemble, []int64{1000, 2000})
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
store_driver: sqlite
sqlite_path: /tmp/startrack-test.db
overtake_max_position: 10
freeze_retention: 48h
milestones: [100, 200, 300]
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("STARTRACK_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StoreSQLite)
				convey.So(cfg.SQLitePath, convey.ShouldEqual, "/tmp/startrack-test.db")
				convey.So(cfg.OvertakeMaxPosition, convey.ShouldEqual, 10)
				convey.So(cfg.FreezeRetention, convey.ShouldEqual, 48*time.Hour)
				convey.So(cfg.Milestones, convey.ShouldResemble, []int64{100, 200, 300})
				convey.So(cfg.TopN, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
top_n: 40
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("STARTRACK_CONFIG", tmpFile)
			_ = os.Setenv("STARTRACK_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.TopN, convey.ShouldEqual, 40)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("STARTRACK_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("STARTRACK_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("STARTRACK_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"STARTRACK_CONFIG",
		"STARTRACK_ADDR",
		"STARTRACK_TOP_N",
		"STARTRACK_BATCH_MAX_OPS",
		"STARTRACK_HISTORY_WINDOW_AFTER",
		"STARTRACK_MILESTONES",
		"STARTRACK_SECRET_GITHUB_TOKEN",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "startrack-config-*.yaml")
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
