package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	HTTP         HTTPConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Metrics      MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		if cfg.DB.SQLitePath == "" {
			return nil, fmt.Errorf("%s is required when %s is set", EnvDBSQLitePath, EnvUseSQLite)
		}
		return &cfg, nil
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env             string        `envconfig:"CRM_APP_ENV" required:"true"`
	Port            string        `envconfig:"CRM_APP_PORT" default:"8080"`
	LogLevel        string        `envconfig:"CRM_LOG_LEVEL" default:"info"`
	LogWarnStack    bool          `envconfig:"CRM_LOG_WARN_STACK" default:"false"`
	ShutdownTimeout time.Duration `envconfig:"CRM_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// HTTPConfig tunes the API server and its edge middleware.
type HTTPConfig struct {
	ReadTimeout     time.Duration `envconfig:"CRM_HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"CRM_HTTP_WRITE_TIMEOUT" default:"30s"`
	CORSOrigins     []string      `envconfig:"CRM_CORS_ORIGINS" default:"http://localhost:3000"`
	LoginWindow     time.Duration `envconfig:"CRM_LOGIN_RATE_WINDOW" default:"15m"`
	LoginIPLimit    int           `envconfig:"CRM_LOGIN_RATE_IP_LIMIT" default:"30"`
	LoginEmailLimit int           `envconfig:"CRM_LOGIN_RATE_EMAIL_LIMIT" default:"5"`
	IdempotencyTTL  time.Duration `envconfig:"CRM_IDEMPOTENCY_TTL" default:"24h"`
}

type DBConfig struct {
	DSN        string `envconfig:"CRM_DB_DSN"`
	SQLitePath string `envconfig:"CRM_DB_SQLITE_PATH" default:"crm.db"`

	Host     string `envconfig:"CRM_DB_HOST"`
	Port     int    `envconfig:"CRM_DB_PORT" default:"5432"`
	User     string `envconfig:"CRM_DB_USER"`
	Password string `envconfig:"CRM_DB_PASSWORD"`
	Name     string `envconfig:"CRM_DB_NAME"`
	SSLMode  string `envconfig:"CRM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CRM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CRM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CRM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CRM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// RedisConfig is optional; an empty URL and address disables the cache.
type RedisConfig struct {
	URL               string        `envconfig:"CRM_REDIS_URL"`
	Address           string        `envconfig:"CRM_REDIS_ADDR"`
	Password          string        `envconfig:"CRM_REDIS_PASSWORD"`
	DB                int           `envconfig:"CRM_REDIS_DB" default:"0"`
	PoolSize          int           `envconfig:"CRM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns      int           `envconfig:"CRM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout       time.Duration `envconfig:"CRM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout       time.Duration `envconfig:"CRM_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout      time.Duration `envconfig:"CRM_REDIS_WRITE_TIMEOUT" default:"3s"`
	BlacklistCacheTTL time.Duration `envconfig:"CRM_REDIS_BLACKLIST_TTL" default:"10m"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"CRM_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CRM_JWT_ISSUER" default:"codcrm"`
	ExpirationMinutes int    `envconfig:"CRM_JWT_EXPIRATION_MINUTES" default:"720"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CRM_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CRM_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CRM_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CRM_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CRM_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CRM_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CRM_AUTO_MIGRATE" default:"false"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"CRM_METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"CRM_METRICS_PATH" default:"/metrics"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	discrete := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if discrete[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
