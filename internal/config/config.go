package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultExportMaxBytes = 37 << 20

type Config struct {
	Port                  string
	AllowedOrigin         string
	AppEnv                string
	DatabaseURL           string
	DBMaxOpenConns        int
	DBMaxIdleConns        int
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	ReportCacheTTLSeconds int
	ExportLockTTLSeconds  int
	ExportMaxBytes        int64
	LogLevel              string
	LogEncoding           string
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	maxBytes, err := strconv.ParseInt(getEnv("EXPORT_MAX_BYTES", strconv.Itoa(defaultExportMaxBytes)), 10, 64)
	if err != nil {
		maxBytes = defaultExportMaxBytes
	}

	cfg := Config{
		Port:                  getEnv("PORT", "8080"),
		AllowedOrigin:         getEnv("ALLOWED_ORIGIN", "*"),
		AppEnv:                strings.ToLower(getEnv("APP_ENV", "production")),
		DatabaseURL:           strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxOpenConns:        getInt("DB_MAX_OPEN_CONNS", 30),
		DBMaxIdleConns:        getInt("DB_MAX_IDLE_CONNS", 8),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		ReportCacheTTLSeconds: getInt("REPORT_CACHE_TTL_SECONDS", 15),
		ExportLockTTLSeconds:  getInt("EXPORT_LOCK_TTL_SECONDS", 120),
		ExportMaxBytes:        maxBytes,
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogEncoding:           getEnv("LOG_ENCODING", "json"),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c Config) ReportCacheTTL() time.Duration {
	return time.Duration(c.ReportCacheTTLSeconds) * time.Second
}

func (c Config) ExportLockTTL() time.Duration {
	return time.Duration(c.ExportLockTTLSeconds) * time.Second
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

// getInt keeps explicit non-positive values; cmd/server rejects them.
func getInt(key string, fallback int) int {
	val, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return val
}
