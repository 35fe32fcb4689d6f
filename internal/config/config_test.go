package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/startrack/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.TopN, convey.ShouldEqual, 100)
			convey.So(cfg.RankingPages, convey.ShouldEqual, 2)
			convey.So(cfg.RankingPerPage, convey.ShouldEqual, 100)
			convey.So(cfg.BatchMaxOps, convey.ShouldEqual, 500)
			convey.So(cfg.HistoryWindowBefore, convey.ShouldEqual, 5*time.Minute)
			convey.So(cfg.HistoryWindowAfter, convey.ShouldEqual, time.Hour)
			convey.So(cfg.OvertakeMaxPosition, convey.ShouldEqual, 25)
			convey.So(cfg.FreezeRetention, convey.ShouldEqual, 31*24*time.Hour)
			convey.So(cfg.CleanupMinAge, convey.ShouldEqual, 8*24*time.Hour)
			convey.So(cfg.Milestones[0], convey.ShouldEqual, 35_000)
			convey.So(cfg.Milestones[len(cfg.Milestones)-1], convey.ShouldEqual, 1_000_000)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("When milestones are not ascending", func() {
			cfg.Milestones = []int64{50_000, 45_000}

			convey.Convey("Then validation should fail", func() {
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the pages cannot cover top_n", func() {
			cfg.RankingPages = 1

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When kafka is selected without brokers", func() {
			cfg.Publisher = config.PublisherKafka

			convey.Convey("Then validation should fail", func() {
				convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the store driver is unknown", func() {
			cfg.StoreDriver = "postgres"

			convey.Convey("Then validation should fail", func() {
				convey.So(cfg.Validate().Error(), convey.ShouldContainSubstring, "store_driver")
			})
		})

		convey.Convey("When the cleanup mode is unknown", func() {
			cfg.CleanupMode = "likes"

			convey.Convey("Then validation should fail", func() {
				convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the sampling ratio is out of range", func() {
			cfg.TracingSampleRatio = 1.5

			convey.Convey("Then validation should name it", func() {
				convey.So(cfg.Validate().Error(), convey.ShouldContainSubstring, "tracing_sample_ratio")
			})
		})
	})
}
