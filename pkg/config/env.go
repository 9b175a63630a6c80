package config

// EnvPrefix is handed to envconfig; every field carries an explicit envconfig tag.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	CooldownBackendRedis = "redis"
	CooldownBackendSQL   = "sql"
)

const (
	EnvAppEnv          = "CITYPULSE_APP_ENV"
	EnvPort            = "CITYPULSE_APP_PORT"
	EnvDBDSN           = "CITYPULSE_DB_DSN"
	EnvDBHost          = "CITYPULSE_DB_HOST"
	EnvDBUser          = "CITYPULSE_DB_USER"
	EnvDBName          = "CITYPULSE_DB_NAME"
	EnvRedisURL        = "CITYPULSE_REDIS_URL"
	EnvJWTSecret       = "CITYPULSE_JWT_SECRET"
	EnvJWTIssuer       = "CITYPULSE_JWT_ISSUER"
	EnvTriggerCooldown = "CITYPULSE_TRIGGER_COOLDOWN"
	EnvTriggerBackend  = "CITYPULSE_TRIGGER_COOLDOWN_BACKEND"
	EnvTriggerDisabled = "CITYPULSE_TRIGGER_DISABLED"
	EnvRealtimeEvery   = "CITYPULSE_SCHEDULE_REALTIME_INTERVAL"
	EnvCleanupAt       = "CITYPULSE_SCHEDULE_CLEANUP_AT"
	EnvDispatchChannel = "CITYPULSE_DISPATCH_CHANNELS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
