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
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Commission   CommissionConfig
	MercadoPago  MercadoPagoConfig
	Resend       ResendConfig
	Storage      StorageConfig
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
	Env          string `envconfig:"FOTOCLICK_APP_ENV" required:"true"`
	Port         string `envconfig:"FOTOCLICK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FOTOCLICK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FOTOCLICK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FOTOCLICK_DB_DSN"`
	Driver string `envconfig:"FOTOCLICK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FOTOCLICK_DB_HOST"`
	LegacyPort     int    `envconfig:"FOTOCLICK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FOTOCLICK_DB_USER"`
	LegacyPassword string `envconfig:"FOTOCLICK_DB_PASSWORD"`
	LegacyName     string `envconfig:"FOTOCLICK_DB_NAME"`
	LegacySSLMode  string `envconfig:"FOTOCLICK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FOTOCLICK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FOTOCLICK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FOTOCLICK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FOTOCLICK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FOTOCLICK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FOTOCLICK_REDIS_ADDR"`
	Password     string        `envconfig:"FOTOCLICK_REDIS_PASSWORD"`
	DB           int           `envconfig:"FOTOCLICK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FOTOCLICK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FOTOCLICK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FOTOCLICK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FOTOCLICK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FOTOCLICK_REDIS_WRITE_TIMEOUT" default:"5s"`

	WebhookIdempotencyTTL time.Duration `envconfig:"FOTOCLICK_WEBHOOK_IDEMPOTENCY_TTL" default:"72h"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FOTOCLICK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FOTOCLICK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FOTOCLICK_JWT_EXPIRATION_MINUTES" required:"true"`
}

// TokenTTL returns the access token TTL configured in minutes.
func (j JWTConfig) TokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FOTOCLICK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FOTOCLICK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FOTOCLICK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FOTOCLICK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FOTOCLICK_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FOTOCLICK_AUTO_MIGRATE" default:"false"`
}

// CommissionConfig holds the platform commission applied when a photographer
// record has no explicit percentage of its own.
type CommissionConfig struct {
	DefaultPercentage float64 `envconfig:"FOTOCLICK_COMMISSION_DEFAULT_PCT" default:"20"`
}

type MercadoPagoConfig struct {
	AccessToken     string `envconfig:"FOTOCLICK_MP_ACCESS_TOKEN"`
	BaseURL         string `envconfig:"FOTOCLICK_MP_BASE_URL" default:"https://api.mercadopago.com"`
	SuccessURL      string `envconfig:"FOTOCLICK_MP_SUCCESS_URL"`
	FailureURL      string `envconfig:"FOTOCLICK_MP_FAILURE_URL"`
	PendingURL      string `envconfig:"FOTOCLICK_MP_PENDING_URL"`
	NotificationURL string `envconfig:"FOTOCLICK_MP_NOTIFICATION_URL"`
	CurrencyID      string `envconfig:"FOTOCLICK_MP_CURRENCY_ID" default:"ARS"`
}

type ResendConfig struct {
	APIKey    string `envconfig:"FOTOCLICK_RESEND_API_KEY"`
	BaseURL   string `envconfig:"FOTOCLICK_RESEND_BASE_URL" default:"https://api.resend.com"`
	EmailFrom string `envconfig:"FOTOCLICK_EMAIL_FROM"`
}

type StorageConfig struct {
	EndpointURL     string        `envconfig:"FOTOCLICK_S3_ENDPOINT_URL"`
	AccessKeyID     string        `envconfig:"FOTOCLICK_S3_ACCESS_KEY_ID"`
	SecretAccessKey string        `envconfig:"FOTOCLICK_S3_SECRET_ACCESS_KEY"`
	BucketName      string        `envconfig:"FOTOCLICK_S3_BUCKET_NAME"`
	Region          string        `envconfig:"FOTOCLICK_S3_REGION" default:"us-east-1"`
	DownloadExpiry  time.Duration `envconfig:"FOTOCLICK_S3_DOWNLOAD_URL_EXPIRY" default:"1h"`
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
