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
	Platform     PlatformConfig
	Stripe       StripeConfig
	Checkout     CheckoutConfig
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
	if err := cfg.Platform.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FITPULSE_APP_ENV" required:"true"`
	Port         string `envconfig:"FITPULSE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FITPULSE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FITPULSE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FITPULSE_DB_DSN"`
	Driver string `envconfig:"FITPULSE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FITPULSE_DB_HOST"`
	LegacyPort     int    `envconfig:"FITPULSE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FITPULSE_DB_USER"`
	LegacyPassword string `envconfig:"FITPULSE_DB_PASSWORD"`
	LegacyName     string `envconfig:"FITPULSE_DB_NAME"`
	LegacySSLMode  string `envconfig:"FITPULSE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FITPULSE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FITPULSE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FITPULSE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FITPULSE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FITPULSE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FITPULSE_REDIS_ADDR"`
	Password     string        `envconfig:"FITPULSE_REDIS_PASSWORD"`
	DB           int           `envconfig:"FITPULSE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FITPULSE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FITPULSE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FITPULSE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FITPULSE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FITPULSE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// PlatformConfig points the gateway at the fitness platform's REST API.
type PlatformConfig struct {
	BaseURL    string        `envconfig:"FITPULSE_PLATFORM_BASE_URL" required:"true"`
	Timeout    time.Duration `envconfig:"FITPULSE_PLATFORM_TIMEOUT" default:"15s"`
	RetryCount int           `envconfig:"FITPULSE_PLATFORM_RETRY_COUNT" default:"0"`
}

func (p PlatformConfig) validate() error {
	parsed, err := url.Parse(p.BaseURL)
	if err != nil {
		return fmt.Errorf("parsing platform base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("platform base url must be http(s), got %q", p.BaseURL)
	}
	return nil
}

type StripeConfig struct {
	APIKey string `envconfig:"FITPULSE_STRIPE_API_KEY" required:"true"`
	Env    string `envconfig:"FITPULSE_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// CheckoutConfig tunes session bookkeeping.
type CheckoutConfig struct {
	SessionTTL        time.Duration `envconfig:"FITPULSE_CHECKOUT_SESSION_TTL" default:"1h"`
	ConfirmGuardTTL   time.Duration `envconfig:"FITPULSE_CHECKOUT_CONFIRM_GUARD_TTL" default:"168h"`
	LedgerMethodLabel string        `envconfig:"FITPULSE_CHECKOUT_LEDGER_METHOD" default:"Card (Stripe)"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FITPULSE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FITPULSE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if strings.EqualFold(db.Driver, DriverSQLite) {
		db.DSN = "file::memory:?cache=shared"
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
