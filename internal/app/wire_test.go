package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	service "github.com/okian/startrack/internal/app"
	"github.com/okian/startrack/internal/config"
	"github.com/okian/startrack/internal/domain/ranking"
	"github.com/okian/startrack/internal/domain/reaper"
	"github.com/okian/startrack/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBuild(t *testing.T) {
	ctx := context.Background()

	Convey("Given a local configuration", t, func() {
		dir := t.TempDir()
		cfg := config.New()
		cfg.SecretsDir = filepath.Join(dir, "secrets")
		cfg.ArchiveDir = filepath.Join(dir, "archive")

		Convey("When the service is built and started", func() {
			svc, err := service.Build(ctx, cfg, logger.Get())
			So(err, ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			Convey("Then freeze runs against the archive directory", func() {
				res, err := svc.RunJob(ctx, service.JobFreeze, false)
				So(err, ShouldBeNil)
				So(res.(reaper.FreezeReport).Archived, ShouldEqual, 0)
			})

			Convey("Then cleanup needs a social account", func() {
				_, err := svc.RunJob(ctx, service.JobCleanup, false)
				So(errors.Is(err, service.ErrUnsupported), ShouldBeTrue)
			})
		})

		Convey("When the denylist file is missing", func() {
			cfg.DenylistFile = filepath.Join(dir, "missing.yaml")
			_, err := service.Build(ctx, cfg, logger.Get())

			Convey("Then the build fails", func() {
				So(errors.Is(err, ranking.ErrDenylist), ShouldBeTrue)
			})
		})

		Convey("When the social publisher has no token", func() {
			cfg.Publisher = config.PublisherSocial
			_, err := service.Build(ctx, cfg, logger.Get())

			Convey("Then the missing secret is reported", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, service.SecretSocialToken)
			})
		})
	})
}
