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
	FeatureFlags FeatureFlagsConfig
	PublicLookup PublicLookupConfig
	Idempotency  IdempotencyConfig
	CORS         CORSConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Metrics      MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MEGORA_APP_ENV" required:"true"`
	Port         string `envconfig:"MEGORA_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"MEGORA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MEGORA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MEGORA_DB_DSN"`
	Driver string `envconfig:"MEGORA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MEGORA_DB_HOST"`
	LegacyPort     int    `envconfig:"MEGORA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MEGORA_DB_USER"`
	LegacyPassword string `envconfig:"MEGORA_DB_PASSWORD"`
	LegacyName     string `envconfig:"MEGORA_DB_NAME"`
	LegacySSLMode  string `envconfig:"MEGORA_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"MEGORA_SQLITE_PATH" default:"megora.db"`

	MaxOpenConns    int           `envconfig:"MEGORA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MEGORA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MEGORA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MEGORA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MEGORA_REDIS_URL"`
	Address      string        `envconfig:"MEGORA_REDIS_ADDR"`
	Password     string        `envconfig:"MEGORA_REDIS_PASSWORD"`
	DB           int           `envconfig:"MEGORA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MEGORA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MEGORA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MEGORA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MEGORA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MEGORA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint has been configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"MEGORA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MEGORA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MEGORA_JWT_EXPIRATION_MINUTES" default:"480"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MEGORA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MEGORA_AUTO_MIGRATE" default:"false"`
}

// PublicLookupConfig tunes the unauthenticated order status page.
type PublicLookupConfig struct {
	PublicIDLength  int           `envconfig:"MEGORA_PUBLIC_ID_LENGTH" default:"10"`
	RateLimitWindow time.Duration `envconfig:"MEGORA_PUBLIC_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitPerIP  int           `envconfig:"MEGORA_PUBLIC_RATE_LIMIT_PER_IP" default:"30"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"MEGORA_IDEMPOTENCY_TTL" default:"24h"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"MEGORA_CORS_ALLOWED_ORIGINS" default:"*"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"MEGORA_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic    string `envconfig:"MEGORA_PUBSUB_ORDERS_TOPIC" default:"megora-order-events"`
	InventoryTopic string `envconfig:"MEGORA_PUBSUB_INVENTORY_TOPIC" default:"megora-inventory-events"`
}

type OutboxConfig struct {
	Transport      string `envconfig:"MEGORA_OUTBOX_TRANSPORT" default:"redis"`
	ChannelPrefix  string `envconfig:"MEGORA_OUTBOX_CHANNEL_PREFIX" default:"megora.events"`
	BatchSize      int    `envconfig:"MEGORA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int    `envconfig:"MEGORA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int    `envconfig:"MEGORA_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type MetricsConfig struct {
	Enabled bool `envconfig:"MEGORA_METRICS_ENABLED" default:"true"`
	// WorkerAddr is where long-running workers expose /metrics.
	WorkerAddr string `envconfig:"MEGORA_METRICS_WORKER_ADDR" default:":9091"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite || strings.EqualFold(db.Driver, DriverSQLite) {
		db.Driver = DriverSQLite
		if db.DSN == "" {
			db.DSN = db.SQLitePath
		}
		return nil
	}

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
