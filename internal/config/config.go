package config // package config loads application configuration from environment variables

import (
	"errors"
	"io/fs"
	"log"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; every value has a default so the service starts
// with an empty environment.
type Config struct {
	Env       string // application environment (e.g. "dev", "prod")
	Port      string // HTTP port to listen on
	LogLevel  string // zerolog level name
	LogFormat string // "json" or "console"
	LogCaller bool   // include caller file:line in log lines
	Redis     RedisConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Events    EventsConfig
}

// Load reads an optional .env file and then builds a Config from the
// process environment.  Variables already set in the environment win over
// the file.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: ignoring unreadable .env: %v", err)
	}
	return Config{
		Env:       envStr("APP_ENV", "dev"),
		Port:      envStr("APP_PORT", "8080"),
		LogLevel:  envStr("LOG_LEVEL", "info"),
		LogFormat: envStr("LOG_FORMAT", "json"),
		LogCaller: envBool("LOG_CALLER", false),
		Redis:     LoadRedisConfig(),
		Cache:     LoadCacheConfig(),
		RateLimit: LoadRateLimitConfig(),
		Events:    LoadEventsConfig(),
	}
}
