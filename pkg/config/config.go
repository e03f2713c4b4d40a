package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "VELTA_DB_DSN"
	EnvDBHost = "VELTA_DB_HOST"
	EnvDBUser = "VELTA_DB_USER"
	EnvDBName = "VELTA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Cron         CronConfig
	Payments     PaymentsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VELTA_APP_ENV" required:"true"`
	Port         string `envconfig:"VELTA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VELTA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VELTA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"VELTA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"VELTA_DB_DSN"`
	Driver string `envconfig:"VELTA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VELTA_DB_HOST"`
	LegacyPort     int    `envconfig:"VELTA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VELTA_DB_USER"`
	LegacyPassword string `envconfig:"VELTA_DB_PASSWORD"`
	LegacyName     string `envconfig:"VELTA_DB_NAME"`
	LegacySSLMode  string `envconfig:"VELTA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VELTA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VELTA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VELTA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VELTA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VELTA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VELTA_REDIS_ADDR"`
	Password     string        `envconfig:"VELTA_REDIS_PASSWORD"`
	DB           int           `envconfig:"VELTA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VELTA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VELTA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VELTA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VELTA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VELTA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"VELTA_CRON_INTERVAL" default:"24h"`
}

// PaymentsConfig points at the treasury service that executes wallet transfers.
type PaymentsConfig struct {
	BaseURL string        `envconfig:"VELTA_PAYMENTS_BASE_URL"`
	APIKey  string        `envconfig:"VELTA_PAYMENTS_API_KEY"`
	Timeout time.Duration `envconfig:"VELTA_PAYMENTS_TIMEOUT" default:"15s"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"VELTA_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	PayoutTopic        string `envconfig:"VELTA_PUBSUB_PAYOUT_TOPIC" default:"velta-payout-events"`
	PayoutSubscription string `envconfig:"VELTA_PUBSUB_PAYOUT_SUBSCRIPTION"`
	ClassSubscription  string `envconfig:"VELTA_PUBSUB_CLASS_SUBSCRIPTION" default:"velta-class-events-sub"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"VELTA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"VELTA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"VELTA_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"VELTA_OUTBOX_RETENTION_DAYS" default:"14"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VELTA_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
