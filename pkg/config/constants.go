package config

const (
	// EnvPrefix is empty because every variable carries the FOTOCLICK_
	// prefix in its envconfig tag already.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv     = "FOTOCLICK_APP_ENV"
	EnvPort       = "FOTOCLICK_APP_PORT"
	EnvDBDSN      = "FOTOCLICK_DB_DSN"
	EnvDBHost     = "FOTOCLICK_DB_HOST"
	EnvDBUser     = "FOTOCLICK_DB_USER"
	EnvDBName     = "FOTOCLICK_DB_NAME"
	EnvRedisURL   = "FOTOCLICK_REDIS_URL"
	EnvJWTSecret  = "FOTOCLICK_JWT_SECRET"
	EnvJWTIssuer  = "FOTOCLICK_JWT_ISSUER"
	EnvJWTExpMins = "FOTOCLICK_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
