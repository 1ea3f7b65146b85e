package config

// EnvPrefix namespaces every variable consumed by envconfig.
const EnvPrefix = "NAEBAK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                 = "NAEBAK_APP_ENV"
	EnvPort                   = "NAEBAK_APP_PORT"
	EnvServiceName            = "NAEBAK_SERVICE_NAME"
	EnvLogLevel               = "NAEBAK_LOG_LEVEL"
	EnvDBDSN                  = "NAEBAK_DB_DSN"
	EnvDBDriver               = "NAEBAK_DB_DRIVER"
	EnvDBHost                 = "NAEBAK_DB_HOST"
	EnvDBUser                 = "NAEBAK_DB_USER"
	EnvDBName                 = "NAEBAK_DB_NAME"
	EnvRedisURL               = "NAEBAK_REDIS_URL"
	EnvJWTSecret              = "NAEBAK_JWT_SECRET"
	EnvJWTIssuer              = "NAEBAK_JWT_ISSUER"
	EnvJWTExpMins             = "NAEBAK_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "NAEBAK_REFRESH_TOKEN_TTL_MINUTES"
	EnvCORSAllowedOrigins     = "NAEBAK_CORS_ALLOWED_ORIGINS"
	EnvLoginIPLimit           = "NAEBAK_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT"
	EnvRegisterIPLimit        = "NAEBAK_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT"
	EnvMailHost               = "NAEBAK_EMAIL_HOST"
	EnvAutoApproveCitizens    = "NAEBAK_AUTO_APPROVE_CITIZENS"
	EnvUseSQLite              = "NAEBAK_USE_SQLITE"
	EnvTrustedProxies         = "NAEBAK_TRUSTED_PROXIES"
	EnvLoginMaxAttempts       = "NAEBAK_LOGIN_MAX_ATTEMPTS"
)

// legacyDBEnvVars must all be present when no DSN is supplied.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
