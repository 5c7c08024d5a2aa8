package config

// EnvPrefix is handed to envconfig; every field carries its full variable name.
const EnvPrefix = "PDV"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv        = "PDV_APP_ENV"
	EnvPort          = "PDV_APP_PORT"
	EnvLogLevel      = "PDV_LOG_LEVEL"
	EnvDBDSN         = "PDV_DB_DSN"
	EnvDBHost        = "PDV_DB_HOST"
	EnvDBPort        = "PDV_DB_PORT"
	EnvDBUser        = "PDV_DB_USER"
	EnvDBPassword    = "PDV_DB_PASSWORD"
	EnvDBName        = "PDV_DB_NAME"
	EnvRedisURL      = "PDV_REDIS_URL"
	EnvRedisCartTTL  = "PDV_REDIS_CART_TTL"
	EnvStoreName     = "PDV_STORE_NAME"
	EnvStoreTimezone = "PDV_STORE_TIMEZONE"
	EnvJWTSecret     = "PDV_JWT_SECRET"
	EnvJWTIssuer     = "PDV_JWT_ISSUER"
	EnvJWTExpMins    = "PDV_JWT_EXPIRATION_MINUTES"
	EnvGCPProjectID  = "PDV_GCP_PROJECT_ID"
	EnvGCSBucket     = "PDV_GCS_BUCKET_NAME"
	EnvPrintTopic    = "PDV_PUBSUB_PRINT_TOPIC"
	EnvScaleURL      = "PDV_SCALE_BRIDGE_URL"
	EnvCheckoutLock  = "PDV_CHECKOUT_LOCK_TTL"
	EnvCORSOrigins   = "PDV_CORS_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
