package config

const EnvPrefix = "MINDBRIDGE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                 = "MINDBRIDGE_APP_ENV"
	EnvPort                   = "MINDBRIDGE_APP_PORT"
	EnvDBDSN                  = "MINDBRIDGE_DB_DSN"
	EnvDBHost                 = "MINDBRIDGE_DB_HOST"
	EnvDBUser                 = "MINDBRIDGE_DB_USER"
	EnvDBName                 = "MINDBRIDGE_DB_NAME"
	EnvRedisURL               = "MINDBRIDGE_REDIS_URL"
	EnvJWTSecret              = "MINDBRIDGE_JWT_SECRET"
	EnvJWTIssuer              = "MINDBRIDGE_JWT_ISSUER"
	EnvJWTExpMins             = "MINDBRIDGE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "MINDBRIDGE_REFRESH_TOKEN_TTL_MINUTES"
	EnvRazorpayKeyID          = "MINDBRIDGE_RAZORPAY_KEY_ID"
	EnvRazorpayKeySecret      = "MINDBRIDGE_RAZORPAY_KEY_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
