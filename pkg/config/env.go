package config

// EnvPrefix is handed to envconfig; every field also pins its full key.
const EnvPrefix = "MEGORA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv       = "MEGORA_APP_ENV"
	EnvPort         = "MEGORA_APP_PORT"
	EnvDBDSN        = "MEGORA_DB_DSN"
	EnvDBDriver     = "MEGORA_DB_DRIVER"
	EnvDBHost       = "MEGORA_DB_HOST"
	EnvDBUser       = "MEGORA_DB_USER"
	EnvDBName       = "MEGORA_DB_NAME"
	EnvDBPassword   = "MEGORA_DB_PASSWORD"
	EnvUseSQLite    = "MEGORA_USE_SQLITE"
	EnvRedisURL     = "MEGORA_REDIS_URL"
	EnvJWTSecret    = "MEGORA_JWT_SECRET"
	EnvJWTIssuer    = "MEGORA_JWT_ISSUER"
	EnvJWTExpMins   = "MEGORA_JWT_EXPIRATION_MINUTES"
	EnvCORSOrigins  = "MEGORA_CORS_ALLOWED_ORIGINS"
	EnvOutboxTransp = "MEGORA_OUTBOX_TRANSPORT"
	EnvPublicIDLen  = "MEGORA_PUBLIC_ID_LENGTH"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
