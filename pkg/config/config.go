package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Auction       AuctionConfig
	Cron          CronConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"SCRAPBID_APP_ENV" required:"true"`
	Port         string `envconfig:"SCRAPBID_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SCRAPBID_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SCRAPBID_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SCRAPBID_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SCRAPBID_DB_DSN"`
	Driver string `envconfig:"SCRAPBID_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SCRAPBID_DB_HOST"`
	LegacyPort     int    `envconfig:"SCRAPBID_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SCRAPBID_DB_USER"`
	LegacyPassword string `envconfig:"SCRAPBID_DB_PASSWORD"`
	LegacyName     string `envconfig:"SCRAPBID_DB_NAME"`
	LegacySSLMode  string `envconfig:"SCRAPBID_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SCRAPBID_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SCRAPBID_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SCRAPBID_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SCRAPBID_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SCRAPBID_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SCRAPBID_REDIS_ADDR"`
	Password     string        `envconfig:"SCRAPBID_REDIS_PASSWORD"`
	DB           int           `envconfig:"SCRAPBID_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SCRAPBID_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SCRAPBID_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SCRAPBID_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SCRAPBID_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SCRAPBID_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SCRAPBID_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SCRAPBID_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SCRAPBID_JWT_EXPIRATION_MINUTES" required:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SCRAPBID_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SCRAPBID_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SCRAPBID_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SCRAPBID_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SCRAPBID_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SCRAPBID_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"SCRAPBID_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SCRAPBID_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"SCRAPBID_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"SCRAPBID_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"SCRAPBID_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SCRAPBID_AUTO_MIGRATE" default:"false"`
}

type AuctionConfig struct {
	// MaxBidAttempts bounds optimistic-concurrency retries before a bid
	// surfaces a conflict to the caller.
	MaxBidAttempts int           `envconfig:"SCRAPBID_AUCTION_MAX_BID_ATTEMPTS" default:"3"`
	MinDuration    time.Duration `envconfig:"SCRAPBID_AUCTION_MIN_DURATION" default:"5m"`
	EndingSoon     time.Duration `envconfig:"SCRAPBID_AUCTION_ENDING_SOON_WINDOW" default:"1h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"SCRAPBID_CRON_INTERVAL" default:"1m"`
	LockTTL  time.Duration `envconfig:"SCRAPBID_CRON_LOCK_TTL" default:"5m"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"SCRAPBID_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic string `envconfig:"SCRAPBID_PUBSUB_DOMAIN_TOPIC" default:"sb-domain-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SCRAPBID_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SCRAPBID_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SCRAPBID_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
