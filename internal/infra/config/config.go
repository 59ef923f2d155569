package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	Sentry    SentrySettings    `mapstructure:"sentry"`
	Scheduler SchedulerSettings `mapstructure:"scheduler"`
	Scrapers  ScraperSettings   `mapstructure:"scrapers"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// RedisSettings configures the Redis connection used for job locks.
type RedisSettings struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	DB            int    `mapstructure:"db"`
	Password      string `mapstructure:"password"`
	TLSEnabled    bool   `mapstructure:"tls_enabled"`
	JobLockPrefix string `mapstructure:"job_lock_prefix"`
}

// KafkaSettings configures the notification event producer.
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
}

// SentrySettings configures the error-reporting collaborator. An empty DSN
// falls back to log-only reporting.
type SentrySettings struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

// SchedulerSettings configures the worker pool and the two recurring jobs.
type SchedulerSettings struct {
	Workers        int           `mapstructure:"workers"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	JobTimeout     time.Duration `mapstructure:"job_timeout"`
	LockTTL        time.Duration `mapstructure:"lock_ttl"`
	ResidencesCron string        `mapstructure:"residences_cron"`
	ReactionsCron  string        `mapstructure:"reactions_cron"`
}

// ScraperSettings groups per-provider scraper configuration.
type ScraperSettings struct {
	Hofwonen    ProviderSettings `mapstructure:"hofwonen"`
	Stadswoning ProviderSettings `mapstructure:"stadswoning"`
}

type ProviderSettings struct {
	BaseURL   string        `mapstructure:"base_url"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("WZ")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.job_lock_prefix",
		"kafka.brokers",
		"kafka.topic_prefix",
		"sentry.dsn",
		"sentry.environment",
		"scheduler.workers",
		"scheduler.poll_interval",
		"scheduler.job_timeout",
		"scheduler.lock_ttl",
		"scheduler.residences_cron",
		"scheduler.reactions_cron",
		"scrapers.hofwonen.base_url",
		"scrapers.hofwonen.user_agent",
		"scrapers.hofwonen.timeout",
		"scrapers.stadswoning.base_url",
		"scrapers.stadswoning.user_agent",
		"scrapers.stadswoning.timeout",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "woningzoeker")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "woningzoeker")
	v.SetDefault("postgres.password", "woningzoeker")
	v.SetDefault("postgres.database", "woningzoeker")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.job_lock_prefix", "wz:job-lock")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "woningzoeker")

	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")

	v.SetDefault("scheduler.workers", 2)
	v.SetDefault("scheduler.poll_interval", "30s")
	v.SetDefault("scheduler.job_timeout", "30m")
	v.SetDefault("scheduler.lock_ttl", "45m")
	// Residences every 2 hours, reactions every 6.
	v.SetDefault("scheduler.residences_cron", "0 */2 * * *")
	v.SetDefault("scheduler.reactions_cron", "0 */6 * * *")

	v.SetDefault("scrapers.hofwonen.base_url", "https://www.hofwonen.nl")
	v.SetDefault("scrapers.hofwonen.user_agent", "woningzoeker/1.0")
	v.SetDefault("scrapers.hofwonen.timeout", "30s")
	v.SetDefault("scrapers.stadswoning.base_url", "https://api.stadswoning.nl")
	v.SetDefault("scrapers.stadswoning.user_agent", "woningzoeker/1.0")
	v.SetDefault("scrapers.stadswoning.timeout", "30s")
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "WZ_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
