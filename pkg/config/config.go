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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	CORS         CORSConfig
	Presence     PresenceConfig
	Sync         SyncConfig
	Campaign     CampaignConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"REINVENTORY_APP_ENV" required:"true"`
	Port         string `envconfig:"REINVENTORY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"REINVENTORY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"REINVENTORY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"REINVENTORY_DB_DSN"`
	Driver string `envconfig:"REINVENTORY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"REINVENTORY_DB_HOST"`
	LegacyPort     int    `envconfig:"REINVENTORY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"REINVENTORY_DB_USER"`
	LegacyPassword string `envconfig:"REINVENTORY_DB_PASSWORD"`
	LegacyName     string `envconfig:"REINVENTORY_DB_NAME"`
	LegacySSLMode  string `envconfig:"REINVENTORY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"REINVENTORY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"REINVENTORY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"REINVENTORY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"REINVENTORY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver targets SQLite (local dev only).
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"REINVENTORY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"REINVENTORY_REDIS_ADDR"`
	Password     string        `envconfig:"REINVENTORY_REDIS_PASSWORD"`
	DB           int           `envconfig:"REINVENTORY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"REINVENTORY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REINVENTORY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REINVENTORY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REINVENTORY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"REINVENTORY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"REINVENTORY_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"REINVENTORY_JWT_ISSUER" required:"true"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"REINVENTORY_AUTO_MIGRATE" default:"false"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"REINVENTORY_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

type PresenceConfig struct {
	TTL time.Duration `envconfig:"REINVENTORY_PRESENCE_TTL" default:"45s"`
}

type SyncConfig struct {
	SnapshotBuffer int           `envconfig:"REINVENTORY_SYNC_SNAPSHOT_BUFFER" default:"16"`
	WriteTimeout   time.Duration `envconfig:"REINVENTORY_SYNC_WRITE_TIMEOUT" default:"10s"`
}

type CampaignConfig struct {
	DefaultGridWidth  int `envconfig:"REINVENTORY_DEFAULT_GRID_WIDTH" default:"10"`
	DefaultGridHeight int `envconfig:"REINVENTORY_DEFAULT_GRID_HEIGHT" default:"5"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" || db.IsSQLite() {
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
