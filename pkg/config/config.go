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
	Store        StoreConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Scale        ScaleConfig
	Checkout     CheckoutConfig
	Outbox       OutboxConfig
	HTTP         HTTPConfig
	Maintenance  MaintenanceConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Store.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PDV_APP_ENV" required:"true"`
	Port         string `envconfig:"PDV_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PDV_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PDV_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN    string `envconfig:"PDV_DB_DSN"`
	Driver string `envconfig:"PDV_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PDV_DB_HOST"`
	LegacyPort     int    `envconfig:"PDV_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PDV_DB_USER"`
	LegacyPassword string `envconfig:"PDV_DB_PASSWORD"`
	LegacyName     string `envconfig:"PDV_DB_NAME"`
	LegacySSLMode  string `envconfig:"PDV_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PDV_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PDV_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PDV_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PDV_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQuery logs statements slower than this at warn level; zero disables it.
	SlowQuery time.Duration `envconfig:"PDV_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PDV_REDIS_URL"`
	Address      string        `envconfig:"PDV_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"PDV_REDIS_PASSWORD"`
	DB           int           `envconfig:"PDV_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PDV_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PDV_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PDV_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PDV_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PDV_REDIS_WRITE_TIMEOUT" default:"5s"`
	CartTTL      time.Duration `envconfig:"PDV_REDIS_CART_TTL" default:"24h"`
	ImageURLTTL  time.Duration `envconfig:"PDV_REDIS_IMAGE_URL_TTL" default:"1h"`
}

// StoreConfig describes the storefront printed on receipts and used to evaluate store hours.
type StoreConfig struct {
	Name     string `envconfig:"PDV_STORE_NAME" default:"ELITE AÇAÍ"`
	Address  string `envconfig:"PDV_STORE_ADDRESS" default:"Rua Dois, 2130-A - Residencial 1 - Cágado"`
	Phone    string `envconfig:"PDV_STORE_PHONE" default:"(85) 98904-1010"`
	Timezone string `envconfig:"PDV_STORE_TIMEZONE" default:"America/Fortaleza"`
}

// Location resolves the configured store timezone.
func (s StoreConfig) Location() (*time.Location, error) {
	tz := strings.TrimSpace(s.Timezone)
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvStoreTimezone, tz, err)
	}
	return loc, nil
}

type JWTConfig struct {
	Secret            string `envconfig:"PDV_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PDV_JWT_ISSUER" default:"elitepedidos-pdv"`
	ExpirationMinutes int    `envconfig:"PDV_JWT_EXPIRATION_MINUTES" default:"720"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PDV_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PDV_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PDV_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PDV_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PDV_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PDV_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PDV_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PDV_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"PDV_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PDV_GOOGLE_APPLICATION_CREDENTIALS"`
}

// Enabled reports whether a GCP project is configured for the cloud-backed adapters.
func (g GCPConfig) Enabled() bool {
	return strings.TrimSpace(g.ProjectID) != ""
}

type GCSConfig struct {
	BucketName    string `envconfig:"PDV_GCS_BUCKET_NAME"`
	PublicBaseURL string `envconfig:"PDV_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
	MaxUploadMB   int    `envconfig:"PDV_GCS_MAX_UPLOAD_MB" default:"5"`
}

type PubSubConfig struct {
	PrintTopic            string `envconfig:"PDV_PUBSUB_PRINT_TOPIC"`
	DomainTopic           string `envconfig:"PDV_PUBSUB_DOMAIN_TOPIC" default:"pdv-domain-events"`
	AnalyticsSubscription string `envconfig:"PDV_PUBSUB_ANALYTICS_SUBSCRIPTION" default:"pdv-sales-analytics"`
}

type BigQueryConfig struct {
	Dataset    string `envconfig:"PDV_BIGQUERY_DATASET" default:"pdv"`
	SalesTable string `envconfig:"PDV_BIGQUERY_SALES_TABLE" default:"sales"`
}

// ScaleConfig points at the in-store scale bridge that exposes the serial scale over HTTP.
type ScaleConfig struct {
	BridgeURL        string        `envconfig:"PDV_SCALE_BRIDGE_URL"`
	Timeout          time.Duration `envconfig:"PDV_SCALE_TIMEOUT" default:"3s"`
	BreakerFailures  uint32        `envconfig:"PDV_SCALE_BREAKER_FAILURES" default:"3"`
	BreakerOpenFor   time.Duration `envconfig:"PDV_SCALE_BREAKER_OPEN_FOR" default:"15s"`
	BreakerHalfOpen  uint32        `envconfig:"PDV_SCALE_BREAKER_HALF_OPEN_REQUESTS" default:"1"`
	RequireStability bool          `envconfig:"PDV_SCALE_REQUIRE_STABLE" default:"true"`
}

type CheckoutConfig struct {
	LockTTL        time.Duration `envconfig:"PDV_CHECKOUT_LOCK_TTL" default:"30s"`
	StateTTL       time.Duration `envconfig:"PDV_CHECKOUT_STATE_TTL" default:"10m"`
	IdempotencyTTL time.Duration `envconfig:"PDV_CHECKOUT_IDEMPOTENCY_TTL" default:"24h"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PDV_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PDV_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PDV_OUTBOX_MAX_ATTEMPTS" default:"10"`
	// ConsumerDedupTTL bounds how long consumers remember processed event ids.
	ConsumerDedupTTL time.Duration `envconfig:"PDV_OUTBOX_CONSUMER_DEDUP_TTL" default:"720h"`
}

// PollInterval returns the publisher polling interval.
func (o OutboxConfig) PollInterval() time.Duration {
	if o.PollIntervalMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(o.PollIntervalMS) * time.Millisecond
}

// MaintenanceConfig drives the housekeeping worker.
type MaintenanceConfig struct {
	Interval            time.Duration `envconfig:"PDV_MAINTENANCE_INTERVAL" default:"1h"`
	OutboxRetentionDays int           `envconfig:"PDV_OUTBOX_RETENTION_DAYS" default:"30"`
	StaleRegisterAfter  time.Duration `envconfig:"PDV_STALE_REGISTER_AFTER" default:"16h"`
}

// HTTPConfig covers the API surface: allowed browser origins and login throttling.
type HTTPConfig struct {
	CORSOrigins       []string      `envconfig:"PDV_CORS_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	LoginWindow       time.Duration `envconfig:"PDV_LOGIN_RATE_WINDOW" default:"1m"`
	LoginIPLimit      int           `envconfig:"PDV_LOGIN_RATE_IP_LIMIT" default:"20"`
	LoginCodeLimit    int           `envconfig:"PDV_LOGIN_RATE_CODE_LIMIT" default:"5"`
	ShutdownTimeout   time.Duration `envconfig:"PDV_HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	ReadHeaderTimeout time.Duration `envconfig:"PDV_HTTP_READ_HEADER_TIMEOUT" default:"5s"`
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
