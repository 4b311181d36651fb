package config

const (
	EnvPrefix = "TIENDA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv                 = "TIENDA_APP_ENV"
	EnvPort                   = "TIENDA_APP_PORT"
	EnvDBDSN                  = "TIENDA_DB_DSN"
	EnvDBHost                 = "TIENDA_DB_HOST"
	EnvDBUser                 = "TIENDA_DB_USER"
	EnvDBName                 = "TIENDA_DB_NAME"
	EnvRedisURL               = "TIENDA_REDIS_URL"
	EnvJWTSecret              = "TIENDA_JWT_SECRET"
	EnvJWTIssuer              = "TIENDA_JWT_ISSUER"
	EnvJWTExpMins             = "TIENDA_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "TIENDA_REFRESH_TOKEN_TTL_MINUTES"
	EnvMPAccessToken          = "TIENDA_MP_ACCESS_TOKEN"
	EnvMPBackURLBase          = "TIENDA_MP_BACK_URL_BASE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
