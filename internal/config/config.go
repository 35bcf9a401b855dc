package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string

	// StorageDriver selects the backend engine satisfying the storage
	// contract: "sqlite" (embedded-file relational) or "document" (redis
	// documents).
	StorageDriver string

	DBType            string
	DBPath            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Dataset acquisition knobs. CacheMaxAge is the single freshness horizon;
	// the dataset changes slowly, so the default is a multi-week window.
	BundledAssetPath string
	RemoteBaseURL    string
	RemoteTimeout    time.Duration
	RemotePageSize   int
	CacheMaxAge      time.Duration
	ChunkSize        int
	SyntheticCount   int
}

const (
	defaultRemoteBaseURL = "https://exoplanetarchive.ipac.caltech.edu/TAP/sync"
	defaultCacheMaxAge   = 30 * 24 * time.Hour
)

// Load reads configuration from environment variables and an optional .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "atlas"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		StorageDriver: strings.ToLower(getenv("STORAGE_DRIVER", "sqlite")),

		DBType:            getenv("DATABASE_TYPE", "sqlite"),
		DBPath:            getenv("DATABASE_PATH", "atlas.db"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "atlas"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 2),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 10),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),

		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getenvInt("REDIS_DB", 0),

		BundledAssetPath: getenv("BUNDLED_ASSET_PATH", "assets/planets.json"),
		RemoteBaseURL:    getenv("REMOTE_BASE_URL", defaultRemoteBaseURL),
		RemoteTimeout:    getenvDuration("REMOTE_TIMEOUT", 30*time.Second),
		RemotePageSize:   getenvInt("REMOTE_PAGE_SIZE", 0),
		CacheMaxAge:      getenvDuration("CACHE_MAX_AGE", defaultCacheMaxAge),
		ChunkSize:        getenvInt("CACHE_CHUNK_SIZE", 100),
		SyntheticCount:   getenvInt("SYNTHETIC_COUNT", 50),
	}
}

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewDatasetPolicyHolder),
)

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
