package config

// EnvPrefix scopes every environment variable consumed by the platform.
const EnvPrefix = "SCRAPBID"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Canonical environment variable names referenced outside the struct tags.
const (
	EnvAppEnv     = "SCRAPBID_APP_ENV"
	EnvPort       = "SCRAPBID_APP_PORT"
	EnvDBDSN      = "SCRAPBID_DB_DSN"
	EnvDBHost     = "SCRAPBID_DB_HOST"
	EnvDBUser     = "SCRAPBID_DB_USER"
	EnvDBName     = "SCRAPBID_DB_NAME"
	EnvRedisURL   = "SCRAPBID_REDIS_URL"
	EnvJWTSecret  = "SCRAPBID_JWT_SECRET"
	EnvJWTIssuer  = "SCRAPBID_JWT_ISSUER"
	EnvJWTExpMins = "SCRAPBID_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
