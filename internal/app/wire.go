package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/startrack/internal/adapters/avatar"
	"github.com/okian/startrack/internal/adapters/blob"
	"github.com/okian/startrack/internal/adapters/github"
	"github.com/okian/startrack/internal/adapters/repository"
	"github.com/okian/startrack/internal/adapters/scheduler"
	"github.com/okian/startrack/internal/adapters/secrets"
	socialadapter "github.com/okian/startrack/internal/adapters/social"
	"github.com/okian/startrack/internal/config"
	"github.com/okian/startrack/internal/domain/dedupe"
	"github.com/okian/startrack/internal/domain/ranking"
	"github.com/okian/startrack/pkg/logger"
	"github.com/okian/startrack/pkg/tracing"
)

// Secret names.
const (
	SecretGitHubToken = "github-token"
	SecretSocialToken = "social-token"
)

const httpTimeout = 30 * time.Second

// Build constructs a Service with every adapter selected by cfg. The
// returned Service still needs Start.
func Build(ctx context.Context, cfg *config.Config, l logger.Logger) (*Service, error) {
	if l == nil {
		l = logger.Get()
	}
	sec := secrets.NewAccessor(cfg.SecretsDir)
	hc := tracing.WrapHTTPClient(&http.Client{Timeout: httpTimeout})

	opts := []Option{WithLogger(l.Named("service"))}
	var closers []func() error
	fail := func(err error) (*Service, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		return nil, err
	}

	ghToken, err := sec.Optional(ctx, SecretGitHubToken)
	if err != nil {
		return fail(err)
	}
	if ghToken == "" {
		l.Warn(ctx, "no github token, using anonymous rate limits")
	}
	gh := github.NewClient(cfg.GitHubAPIURL,
		github.WithToken(ghToken),
		github.WithHTTPClient(hc),
		github.WithRate(cfg.GitHubRPS, cfg.GitHubBurst),
		github.WithLogger(l.Named("github")))
	opts = append(opts, WithSource(gh), WithMentions(gh))

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, store.Close)
	opts = append(opts, WithStore(store))

	switch cfg.Publisher {
	case config.PublisherSocial:
		token, err := sec.Get(ctx, SecretSocialToken)
		if err != nil {
			return fail(err)
		}
		sc := socialadapter.NewHTTPClient(cfg.SocialAPIURL, token, cfg.SocialUserID,
			socialadapter.WithHTTPClient(hc),
			socialadapter.WithLogger(l.Named("social")))
		opts = append(opts, WithPublisher(sc), WithAccount(sc))
	case config.PublisherKafka:
		kp := socialadapter.NewKafkaPublisher(socialadapter.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic), l.Named("kafka"))
		closers = append(closers, kp.Close)
		opts = append(opts, WithPublisher(kp))
	default:
		opts = append(opts, WithPublisher(socialadapter.NewLogPublisher(l.Named("posts"))))
	}

	ts := scheduler.NewTimerScheduler(cfg.SelfBaseURL,
		scheduler.WithHTTPClient(hc),
		scheduler.WithDeduper(dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(cfg.RetryCache))),
		scheduler.WithLogger(l.Named("scheduler")))
	closers = append(closers, func() error { ts.Stop(); return nil })
	opts = append(opts, WithTaskScheduler(ts))

	if cfg.ArchiveDir != "" {
		fs, err := blob.NewFileStore(cfg.ArchiveDir)
		if err != nil {
			return fail(err)
		}
		opts = append(opts, WithBlobStore(fs))
	}

	if cfg.AvatarHashEnabled {
		opts = append(opts, WithAvatarHasher(avatar.NewHasher(hc)))
	}

	deny, err := ranking.LoadDenylist(cfg.DenylistFile)
	if err != nil {
		return fail(err)
	}
	opts = append(opts, WithDenylist(deny))

	for _, c := range closers {
		opts = append(opts, WithCloser(c))
	}
	return New(cfg, opts...), nil
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	gc := repository.GormConfig{
		Driver:        cfg.StoreDriver,
		SQLitePath:    cfg.SQLitePath,
		MySQLHost:     cfg.MySQLHost,
		MySQLPort:     cfg.MySQLPort,
		MySQLUser:     cfg.MySQLUser,
		MySQLPassword: cfg.MySQLPassword,
		MySQLDatabase: cfg.MySQLDatabase,
	}
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return repository.NewMemoryStore(), nil
	case config.StoreSQLite:
		// sqlite serializes writers; a single connection avoids SQLITE_BUSY.
		gc.MaxOpenConns = 1
	case config.StoreMySQL:
		gc.MaxOpenConns = 16
		gc.MaxIdleConns = 4
		gc.ConnLifetime = time.Hour
	default:
		return nil, fmt.Errorf("%w: store_driver %q", config.ErrInvalidConfig, cfg.StoreDriver)
	}
	return repository.OpenGorm(ctx, gc)
}
