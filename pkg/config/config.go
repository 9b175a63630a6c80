package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	Service   ServiceConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	HTTP      HTTPConfig
	Triggers  TriggersConfig
	Schedule  ScheduleConfig
	Dispatch  DispatchConfig
	Snapshots SnapshotsConfig
	Retention RetentionConfig
	GCP       GCPConfig
	PubSub    PubSubConfig
	Firebase  FirebaseConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Triggers.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CITYPULSE_APP_ENV" required:"true"`
	Port         string `envconfig:"CITYPULSE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CITYPULSE_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"CITYPULSE_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"CITYPULSE_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"CITYPULSE_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CITYPULSE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CITYPULSE_DB_DSN"`
	Driver string `envconfig:"CITYPULSE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CITYPULSE_DB_HOST"`
	LegacyPort     int    `envconfig:"CITYPULSE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CITYPULSE_DB_USER"`
	LegacyPassword string `envconfig:"CITYPULSE_DB_PASSWORD"`
	LegacyName     string `envconfig:"CITYPULSE_DB_NAME"`
	LegacySSLMode  string `envconfig:"CITYPULSE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CITYPULSE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CITYPULSE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CITYPULSE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CITYPULSE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CITYPULSE_REDIS_URL"`
	Address      string        `envconfig:"CITYPULSE_REDIS_ADDR"`
	Password     string        `envconfig:"CITYPULSE_REDIS_PASSWORD"`
	DB           int           `envconfig:"CITYPULSE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CITYPULSE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CITYPULSE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CITYPULSE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CITYPULSE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CITYPULSE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"CITYPULSE_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"CITYPULSE_JWT_ISSUER" required:"true"`

	ExpirationMinutes int `envconfig:"CITYPULSE_JWT_EXPIRATION_MINUTES" default:"60"`
}

// HTTPConfig holds the API surface policies.
type HTTPConfig struct {
	CORSOrigins         []string      `envconfig:"CITYPULSE_HTTP_CORS_ORIGINS" default:"http://localhost:3000"`
	EvaluateRateLimit   int           `envconfig:"CITYPULSE_HTTP_EVALUATE_RATE_LIMIT" default:"30"`
	EvaluateRateWindow  time.Duration `envconfig:"CITYPULSE_HTTP_EVALUATE_RATE_WINDOW" default:"1m"`
	ShutdownGracePeriod time.Duration `envconfig:"CITYPULSE_HTTP_SHUTDOWN_GRACE" default:"10s"`
}

// TriggersConfig controls evaluation and cooldown behavior.
type TriggersConfig struct {
	CooldownWindow  time.Duration `envconfig:"CITYPULSE_TRIGGER_COOLDOWN" default:"1h"`
	CooldownBackend string        `envconfig:"CITYPULSE_TRIGGER_COOLDOWN_BACKEND" default:"redis"`
	Disabled        []string      `envconfig:"CITYPULSE_TRIGGER_DISABLED"`
	DefaultRadius   int           `envconfig:"CITYPULSE_TRIGGER_DEFAULT_RADIUS" default:"2000"`
	SweepPageSize   int           `envconfig:"CITYPULSE_TRIGGER_SWEEP_PAGE_SIZE" default:"200"`
	ActiveWithin    time.Duration `envconfig:"CITYPULSE_TRIGGER_ACTIVE_WITHIN" default:"720h"`
	StateRefresh    time.Duration `envconfig:"CITYPULSE_TRIGGER_STATE_REFRESH" default:"15s"`
}

func (t TriggersConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(t.CooldownBackend)) {
	case CooldownBackendRedis, CooldownBackendSQL:
	default:
		return fmt.Errorf("unsupported cooldown backend %q", t.CooldownBackend)
	}
	if t.CooldownWindow <= 0 {
		return fmt.Errorf("%s must be positive", EnvTriggerCooldown)
	}
	return nil
}

// ScheduleConfig holds the independent sweep cadences.
type ScheduleConfig struct {
	RealtimeInterval       time.Duration `envconfig:"CITYPULSE_SCHEDULE_REALTIME_INTERVAL" default:"5m"`
	CulturalInterval       time.Duration `envconfig:"CITYPULSE_SCHEDULE_CULTURAL_INTERVAL" default:"30m"`
	DataCollectionInterval time.Duration `envconfig:"CITYPULSE_SCHEDULE_DATA_COLLECTION_INTERVAL" default:"1h"`
	CleanupAt              string        `envconfig:"CITYPULSE_SCHEDULE_CLEANUP_AT" default:"02:00"`
	UseLock                bool          `envconfig:"CITYPULSE_SCHEDULE_USE_LOCK" default:"true"`
	RunOnStart             bool          `envconfig:"CITYPULSE_SCHEDULE_RUN_ON_START" default:"false"`
}

type DispatchConfig struct {
	QueueSize       int           `envconfig:"CITYPULSE_DISPATCH_QUEUE_SIZE" default:"1024"`
	DeliveryTimeout time.Duration `envconfig:"CITYPULSE_DISPATCH_DELIVERY_TIMEOUT" default:"10s"`
	DrainTimeout    time.Duration `envconfig:"CITYPULSE_DISPATCH_DRAIN_TIMEOUT" default:"15s"`
	Channels        []string      `envconfig:"CITYPULSE_DISPATCH_CHANNELS" default:"log"`
}

// SnapshotsConfig configures the external data sources feeding trigger contexts.
type SnapshotsConfig struct {
	Timeout        time.Duration `envconfig:"CITYPULSE_SNAPSHOT_TIMEOUT" default:"3s"`
	CacheTTL       time.Duration `envconfig:"CITYPULSE_SNAPSHOT_CACHE_TTL" default:"10m"`
	WeatherURL     string        `envconfig:"CITYPULSE_SNAPSHOT_WEATHER_URL"`
	WeatherAPIKey  string        `envconfig:"CITYPULSE_SNAPSHOT_WEATHER_API_KEY"`
	AirQualityURL  string        `envconfig:"CITYPULSE_SNAPSHOT_AIR_QUALITY_URL"`
	AirQualityKey  string        `envconfig:"CITYPULSE_SNAPSHOT_AIR_QUALITY_API_KEY"`
	BikeShareURL   string        `envconfig:"CITYPULSE_SNAPSHOT_BIKE_SHARE_URL"`
	CulturalURL    string        `envconfig:"CITYPULSE_SNAPSHOT_CULTURAL_URL"`
	CulturalAPIKey string        `envconfig:"CITYPULSE_SNAPSHOT_CULTURAL_API_KEY"`
}

type RetentionConfig struct {
	NotificationDays int `envconfig:"CITYPULSE_RETENTION_NOTIFICATION_DAYS" default:"30"`
	TriggerDays      int `envconfig:"CITYPULSE_RETENTION_TRIGGER_DAYS" default:"7"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"CITYPULSE_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"CITYPULSE_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	NotificationTopic string `envconfig:"CITYPULSE_PUBSUB_NOTIFICATION_TOPIC" default:"citypulse-notifications"`
}

type FirebaseConfig struct {
	CredentialsFile string `envconfig:"CITYPULSE_FIREBASE_CREDENTIALS_FILE"`
}

// HasChannel reports whether the named delivery channel is enabled.
func (d DispatchConfig) HasChannel(name string) bool {
	for _, ch := range d.Channels {
		if strings.EqualFold(strings.TrimSpace(ch), name) {
			return true
		}
	}
	return false
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
