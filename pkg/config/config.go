package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	PayPal       PayPalConfig
	Sendgrid     SendgridConfig
	FeatureFlags FeatureFlagsConfig
	Webhooks     WebhooksConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
		if cfg.DB.DSN == "" {
			cfg.DB.DSN = "file:spacegleam.db?cache=shared"
		}
		return &cfg, nil
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SPACEGLEAM_APP_ENV" required:"true"`
	Port         string `envconfig:"SPACEGLEAM_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SPACEGLEAM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SPACEGLEAM_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SPACEGLEAM_DB_DSN"`
	Driver string `envconfig:"SPACEGLEAM_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SPACEGLEAM_DB_HOST"`
	LegacyPort     int    `envconfig:"SPACEGLEAM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SPACEGLEAM_DB_USER"`
	LegacyPassword string `envconfig:"SPACEGLEAM_DB_PASSWORD"`
	LegacyName     string `envconfig:"SPACEGLEAM_DB_NAME"`
	LegacySSLMode  string `envconfig:"SPACEGLEAM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SPACEGLEAM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SPACEGLEAM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SPACEGLEAM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SPACEGLEAM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SPACEGLEAM_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SPACEGLEAM_REDIS_ADDR"`
	Password     string        `envconfig:"SPACEGLEAM_REDIS_PASSWORD"`
	DB           int           `envconfig:"SPACEGLEAM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SPACEGLEAM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SPACEGLEAM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SPACEGLEAM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SPACEGLEAM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SPACEGLEAM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SPACEGLEAM_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SPACEGLEAM_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SPACEGLEAM_JWT_EXPIRATION_MINUTES" default:"60"`
}

// PayPalConfig carries the webhook verification settings. When WebhookID is
// empty, signature verification is skipped (local testing only).
type PayPalConfig struct {
	WebhookID      string        `envconfig:"SPACEGLEAM_PAYPAL_WEBHOOK_ID"`
	CertFetchTTL   time.Duration `envconfig:"SPACEGLEAM_PAYPAL_CERT_FETCH_TTL" default:"1h"`
	RequestTimeout time.Duration `envconfig:"SPACEGLEAM_PAYPAL_REQUEST_TIMEOUT" default:"10s"`
}

type SendgridConfig struct {
	APIKey      string `envconfig:"SPACEGLEAM_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"SPACEGLEAM_SENDGRID_FROM_EMAIL" default:"support@spacegleam.co.jp"`
	FromName    string `envconfig:"SPACEGLEAM_SENDGRID_FROM_NAME" default:"X Draft Support"`
}

// Configured reports whether outbound mail can actually be sent.
func (s SendgridConfig) Configured() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SPACEGLEAM_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SPACEGLEAM_AUTO_MIGRATE" default:"false"`
}

type WebhooksConfig struct {
	IdempotencyTTL time.Duration `envconfig:"SPACEGLEAM_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
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
