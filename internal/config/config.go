package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/coneno/logger"
	"github.com/osit-platform/osit-backend/pkg/jwt"
	"github.com/osit-platform/osit-backend/pkg/types"
)

const (
	ENV_LOG_LEVEL      = "LOG_LEVEL"
	ENV_GIN_DEBUG_MODE = "GIN_DEBUG_MODE"
	ENV_ENVIRONMENT    = "ENVIRONMENT"

	ENV_OSIT_BACKEND_LISTEN_PORT = "OSIT_BACKEND_LISTEN_PORT"
	ENV_CORS_ALLOW_ORIGINS       = "CORS_ALLOW_ORIGINS"

	ENV_JWT_TOKEN_KEY         = "JWT_TOKEN_KEY"
	ENV_TOKEN_EXPIRES_IN_DAYS = "TOKEN_EXPIRES_IN_DAYS"

	ENV_OSIT_DB_CONNECTION_STR    = "OSIT_DB_CONNECTION_STR"
	ENV_OSIT_DB_USERNAME          = "OSIT_DB_USERNAME"
	ENV_OSIT_DB_PASSWORD          = "OSIT_DB_PASSWORD"
	ENV_OSIT_DB_CONNECTION_PREFIX = "OSIT_DB_CONNECTION_PREFIX"

	ENV_DB_TIMEOUT           = "DB_TIMEOUT"
	ENV_DB_IDLE_CONN_TIMEOUT = "DB_IDLE_CONN_TIMEOUT"
	ENV_DB_MAX_POOL_SIZE     = "DB_MAX_POOL_SIZE"
	ENV_DB_NAME_PREFIX       = "DB_DB_NAME_PREFIX"

	ENV_REQUIRE_FIXED_WEEKS   = "REQUIRE_FIXED_WEEKS"
	ENV_ORPHAN_SWEEP_INTERVAL = "ORPHAN_SWEEP_INTERVAL"
)

const (
	defaultPort                = "3000"
	defaultAllowOrigins        = "http://localhost:5173"
	defaultTokenExpiresInDays  = 30
	defaultDBTimeout           = 30
	defaultDBIdleConnTimeout   = 45
	defaultDBMaxPoolSize       = 8
	defaultOrphanSweepInterval = 3600 * 6
)

// Config is the structure that holds all global configuration data
type Config struct {
	Port              string
	AllowOrigins      []string
	LogLevel          logger.LogLevel
	GinDebugMode      bool
	ExposeErrorDetail bool

	JWTSecretKey   []byte
	TokenExpiresIn time.Duration

	OSITDBConfig types.DBConfig

	RequireFixedWeeks   bool
	OrphanSweepInterval int64
}

// InitConfig reads the environment and exits the process on missing or malformed required values
func InitConfig() Config {
	conf, err := readConfig()
	if err != nil {
		logger.Error.Fatal(err)
	}
	return conf
}

func readConfig() (Config, error) {
	conf := Config{}
	conf.Port = getEnvOr(ENV_OSIT_BACKEND_LISTEN_PORT, defaultPort)
	conf.AllowOrigins = splitList(getEnvOr(ENV_CORS_ALLOW_ORIGINS, defaultAllowOrigins))

	conf.LogLevel = getLogLevel()
	conf.GinDebugMode = os.Getenv(ENV_GIN_DEBUG_MODE) == "true"
	conf.ExposeErrorDetail = os.Getenv(ENV_ENVIRONMENT) == "development"
	conf.RequireFixedWeeks = os.Getenv(ENV_REQUIRE_FIXED_WEEKS) == "true"

	key, err := jwt.DecodeSecretKey(os.Getenv(ENV_JWT_TOKEN_KEY))
	if err != nil {
		return conf, fmt.Errorf("%s: %w", ENV_JWT_TOKEN_KEY, err)
	}
	conf.JWTSecretKey = key

	days, err := getIntEnv(ENV_TOKEN_EXPIRES_IN_DAYS, defaultTokenExpiresInDays)
	if err != nil {
		return conf, err
	}
	conf.TokenExpiresIn = time.Duration(days) * 24 * time.Hour

	interval, err := getIntEnv(ENV_ORPHAN_SWEEP_INTERVAL, defaultOrphanSweepInterval)
	if err != nil {
		return conf, err
	}
	conf.OrphanSweepInterval = int64(interval)

	conf.OSITDBConfig, err = getOSITDBConfig()
	if err != nil {
		return conf, err
	}
	return conf, nil
}

func getLogLevel() logger.LogLevel {
	switch os.Getenv(ENV_LOG_LEVEL) {
	case "debug":
		return logger.LEVEL_DEBUG
	case "info":
		return logger.LEVEL_INFO
	case "error":
		return logger.LEVEL_ERROR
	case "warning":
		return logger.LEVEL_WARNING
	default:
		return logger.LEVEL_INFO
	}
}

func getOSITDBConfig() (types.DBConfig, error) {
	connStr := os.Getenv(ENV_OSIT_DB_CONNECTION_STR)
	username := os.Getenv(ENV_OSIT_DB_USERNAME)
	password := os.Getenv(ENV_OSIT_DB_PASSWORD)
	prefix := os.Getenv(ENV_OSIT_DB_CONNECTION_PREFIX) // e.g. "+srv"
	if connStr == "" || username == "" || password == "" {
		return types.DBConfig{}, fmt.Errorf("couldn't read DB credentials")
	}
	URI := fmt.Sprintf(`mongodb%s://%s:%s@%s`, prefix, username, password, connStr)

	Timeout, err := getIntEnv(ENV_DB_TIMEOUT, defaultDBTimeout)
	if err != nil {
		return types.DBConfig{}, err
	}
	IdleConnTimeout, err := getIntEnv(ENV_DB_IDLE_CONN_TIMEOUT, defaultDBIdleConnTimeout)
	if err != nil {
		return types.DBConfig{}, err
	}
	mps, err := getIntEnv(ENV_DB_MAX_POOL_SIZE, defaultDBMaxPoolSize)
	if err != nil {
		return types.DBConfig{}, err
	}

	return types.DBConfig{
		URI:             URI,
		Timeout:         Timeout,
		IdleConnTimeout: IdleConnTimeout,
		MaxPoolSize:     uint64(mps),
		DBNamePrefix:    os.Getenv(ENV_DB_NAME_PREFIX),
	}, nil
}

func getEnvOr(key string, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s: must not be negative", key)
	}
	return n, nil
}

func splitList(v string) []string {
	items := []string{}
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
