package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Checkout      CheckoutConfig
	Stripe        StripeConfig
	CORS          CORSConfig
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

// EnvOr reads a raw environment variable that lives outside the prefixed
// config struct (deploy-platform knobs like PORT and LOG_FORMAT),
// falling back when unset or empty.
func EnvOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

type AppConfig struct {
	Env          string `envconfig:"AGRICONSULT_APP_ENV" required:"true"`
	Port         string `envconfig:"AGRICONSULT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AGRICONSULT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AGRICONSULT_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"AGRICONSULT_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"AGRICONSULT_DB_DSN"`
	Driver string `envconfig:"AGRICONSULT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AGRICONSULT_DB_HOST"`
	LegacyPort     int    `envconfig:"AGRICONSULT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AGRICONSULT_DB_USER"`
	LegacyPassword string `envconfig:"AGRICONSULT_DB_PASSWORD"`
	LegacyName     string `envconfig:"AGRICONSULT_DB_NAME"`
	LegacySSLMode  string `envconfig:"AGRICONSULT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AGRICONSULT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AGRICONSULT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AGRICONSULT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AGRICONSULT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AGRICONSULT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AGRICONSULT_REDIS_ADDR"`
	Password     string        `envconfig:"AGRICONSULT_REDIS_PASSWORD"`
	DB           int           `envconfig:"AGRICONSULT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AGRICONSULT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AGRICONSULT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AGRICONSULT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AGRICONSULT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AGRICONSULT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"AGRICONSULT_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"AGRICONSULT_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"AGRICONSULT_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"AGRICONSULT_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"AGRICONSULT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"AGRICONSULT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"AGRICONSULT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"AGRICONSULT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"AGRICONSULT_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"AGRICONSULT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"AGRICONSULT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"AGRICONSULT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"AGRICONSULT_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"AGRICONSULT_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"AGRICONSULT_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type CheckoutConfig struct {
	IdempotencyTTL  time.Duration `envconfig:"AGRICONSULT_CHECKOUT_IDEMPOTENCY_TTL" default:"168h"`
	WebhookEventTTL time.Duration `envconfig:"AGRICONSULT_WEBHOOK_EVENT_TTL" default:"720h"`
}

type StripeConfig struct {
	APIKey string `envconfig:"AGRICONSULT_STRIPE_API_KEY"`
	Secret string `envconfig:"AGRICONSULT_STRIPE_SECRET"`
	Env    string `envconfig:"AGRICONSULT_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"AGRICONSULT_CORS_ALLOWED_ORIGINS"`
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
