package config

const (
	EnvPrefix = "CRM"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv       = "CRM_APP_ENV"
	EnvPort         = "CRM_APP_PORT"
	EnvDBDSN        = "CRM_DB_DSN"
	EnvDBHost       = "CRM_DB_HOST"
	EnvDBUser       = "CRM_DB_USER"
	EnvDBName       = "CRM_DB_NAME"
	EnvDBPassword   = "CRM_DB_PASSWORD"
	EnvDBSQLitePath = "CRM_DB_SQLITE_PATH"
	EnvUseSQLite    = "CRM_USE_SQLITE"
	EnvRedisURL     = "CRM_REDIS_URL"
	EnvJWTSecret    = "CRM_JWT_SECRET"
	EnvJWTIssuer    = "CRM_JWT_ISSUER"
	EnvJWTExpMins   = "CRM_JWT_EXPIRATION_MINUTES"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
