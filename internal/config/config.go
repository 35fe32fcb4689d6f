// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keys are flat and snake_case so they map 1:1 to STARTRACK_* env vars.
// - New returns a Config populated with defaults; Load layers file and env on top.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreMySQL  = "mysql"
)

// Publishers.
const (
	PublisherLog    = "log"
	PublisherSocial = "social"
	PublisherKafka  = "kafka"
)

// Cleanup modes.
const (
	CleanupTimeline = "timeline"
	CleanupSearch   = "search"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Tracing exports spans over OTLP/HTTP when enabled.
	TracingEnabled     bool    `koanf:"tracing_enabled"`
	OTLPEndpoint       string  `koanf:"otlp_endpoint"`
	OTLPInsecure       bool    `koanf:"otlp_insecure"`
	TracingSampleRatio float64 `koanf:"tracing_sample_ratio"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`
	// SelfBaseURL is where delayed tasks are delivered, e.g. "http://localhost:9080".
	SelfBaseURL string `koanf:"self_base_url"`
	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// SecretsDir holds one file per secret; env STARTRACK_SECRET_<NAME> wins.
	SecretsDir string `koanf:"secrets_dir"`

	// Ranking source.
	GitHubAPIURL   string  `koanf:"github_api_url"`
	GitHubRPS      float64 `koanf:"github_requests_per_second"`
	GitHubBurst    int     `koanf:"github_burst"`
	RankingQuery   string  `koanf:"ranking_query"`
	RankingSort    string  `koanf:"ranking_sort"`
	RankingPages   int     `koanf:"ranking_pages"`
	RankingPerPage int     `koanf:"ranking_per_page"`
	TopN           int     `koanf:"top_n"`
	DenylistFile   string  `koanf:"denylist_file"`

	// Persistence.
	StoreDriver   string `koanf:"store_driver"`
	SQLitePath    string `koanf:"sqlite_path"`
	MySQLHost     string `koanf:"mysql_host"`
	MySQLPort     int    `koanf:"mysql_port"`
	MySQLUser     string `koanf:"mysql_user"`
	MySQLPassword string `koanf:"mysql_password"`
	MySQLDatabase string `koanf:"mysql_database"`
	BatchMaxOps   int    `koanf:"batch_max_ops"`
	SnowflakeNode int64  `koanf:"snowflake_node"`

	// History lookup tolerance around the target instant.
	HistoryWindowBefore time.Duration `koanf:"history_window_before"`
	HistoryWindowAfter  time.Duration `koanf:"history_window_after"`

	// Detection.
	Milestones           []int64 `koanf:"milestones"`
	OvertakeMaxPosition  int     `koanf:"overtake_max_position"`
	UpdateFastestGrowing bool    `koanf:"update_fastest_growing"`
	MonthlyDays          int     `koanf:"monthly_days"`
	MentionsEnabled      bool    `koanf:"mentions_enabled"`
	AvatarHashEnabled    bool    `koanf:"avatar_hash_enabled"`

	// Publishing.
	Publisher     string   `koanf:"publisher"`
	SocialAPIURL  string   `koanf:"social_api_url"`
	SocialUserID  string   `koanf:"social_user_id"`
	SocialHandle  string   `koanf:"social_handle"`
	KafkaBrokers  []string `koanf:"kafka_brokers"`
	KafkaTopic    string   `koanf:"kafka_topic"`
	RetryEndpoint string   `koanf:"retry_endpoint"`
	RetryCache    int      `koanf:"retry_dedupe_size"`

	// Cleanup of old posts.
	CleanupMode     string        `koanf:"cleanup_mode"`
	CleanupMinAge   time.Duration `koanf:"cleanup_min_age"`
	CleanupMaxLikes int           `koanf:"cleanup_max_likes"`

	// Freeze (cold archive) of old snapshots.
	FreezeRetention time.Duration `koanf:"freeze_retention"`
	FreezeLimit     int           `koanf:"freeze_limit"`
	ArchiveDir      string        `koanf:"archive_dir"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		TracingSampleRatio:   0.1,
		Addr:                 ":9080",
		SelfBaseURL:          "http://localhost:9080",
		MaxLeaderboardLimit:  100,
		SecretsDir:           "/run/secrets",
		GitHubAPIURL:         "https://api.github.com",
		GitHubRPS:            1,
		GitHubBurst:          5,
		RankingQuery:         "stars:>32986",
		RankingSort:          "stars",
		RankingPages:         2,
		RankingPerPage:       100,
		TopN:                 100,
		StoreDriver:          StoreMemory,
		SQLitePath:           "startrack.db",
		MySQLHost:            "127.0.0.1",
		MySQLPort:            3306,
		MySQLUser:            "startrack",
		MySQLDatabase:        "startrack",
		BatchMaxOps:          500,
		SnowflakeNode:        1,
		HistoryWindowBefore:  5 * time.Minute,
		HistoryWindowAfter:   time.Hour,
		Milestones:           DefaultMilestones(),
		OvertakeMaxPosition:  25,
		UpdateFastestGrowing: false,
		MonthlyDays:          31,
		MentionsEnabled:      true,
		AvatarHashEnabled:    true,
		Publisher:            PublisherLog,
		SocialAPIURL:         "https://api.twitter.com",
		SocialHandle:         "github_tracker",
		KafkaTopic:           "startrack.posts",
		RetryEndpoint:        "/tasks/retry",
		RetryCache:           1024,
		CleanupMode:          CleanupTimeline,
		CleanupMinAge:        8 * 24 * time.Hour,
		CleanupMaxLikes:      3,
		FreezeRetention:      31 * 24 * time.Hour,
		FreezeLimit:          10_000,
		ArchiveDir:           "archive",
	}
}

// DefaultMilestones returns the star thresholds celebrated out of the box.
func DefaultMilestones() []int64 {
	return []int64{
		35_000, 40_000, 42_000, 45_000, 50_000, 55_000, 60_000, 65_000, 69_000,
		70_000, 75_000, 80_000, 85_000, 90_000, 95_000, 100_000, 105_000, 110_000,
		111_111, 115_000, 120_000, 123_456, 125_000, 130_000, 135_000, 140_000,
		142_000, 145_000, 150_000, 160_000, 169_000, 170_000, 175_000, 180_000,
		190_000, 200_000, 210_000, 220_000, 222_222, 230_000, 240_000, 242_000,
		250_000, 260_000, 270_000, 275_000, 280_000, 290_000, 300_000, 325_000,
		350_000, 375_000, 400_000, 420_420, 425_000, 450_000, 475_000, 500_000,
		550_000, 600_000, 650_000, 690_000, 700_000, 750_000, 800_000, 900_000,
		1_000_000,
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.TopN < 1:
		return fmt.Errorf("%w: top_n must be positive", ErrInvalidConfig)
	case c.RankingPages*c.RankingPerPage < c.TopN:
		return fmt.Errorf("%w: ranking_pages*ranking_per_page must cover top_n", ErrInvalidConfig)
	case c.BatchMaxOps < 1:
		return fmt.Errorf("%w: batch_max_ops must be positive", ErrInvalidConfig)
	case c.HistoryWindowBefore < 0 || c.HistoryWindowAfter <= 0:
		return fmt.Errorf("%w: history window must be non-empty", ErrInvalidConfig)
	case c.MonthlyDays < 1:
		return fmt.Errorf("%w: monthly_days must be positive", ErrInvalidConfig)
	case c.TracingSampleRatio < 0 || c.TracingSampleRatio > 1:
		return fmt.Errorf("%w: tracing_sample_ratio must be within [0, 1]", ErrInvalidConfig)
	}
	for i := 1; i < len(c.Milestones); i++ {
		if c.Milestones[i] <= c.Milestones[i-1] {
			return fmt.Errorf("%w: milestones must be strictly ascending", ErrInvalidConfig)
		}
	}
	switch c.StoreDriver {
	case StoreMemory, StoreSQLite, StoreMySQL:
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	switch c.Publisher {
	case PublisherLog, PublisherSocial:
	case PublisherKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("%w: kafka publisher needs kafka_brokers", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown publisher %q", ErrInvalidConfig, c.Publisher)
	}
	switch c.CleanupMode {
	case CleanupTimeline, CleanupSearch:
	default:
		return fmt.Errorf("%w: unknown cleanup_mode %q", ErrInvalidConfig, c.CleanupMode)
	}
	return nil
}
