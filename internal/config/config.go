// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jason-s-yu/dutch/internal/game"
	_ "github.com/joho/godotenv/autoload"
)

// Config is the process configuration, read once from the environment (and .env, if present).
type Config struct {
	Port     string
	LogLevel string

	RedisAddr  string // empty disables the action recorder
	RedisDB    int
	QueueName  string
	BatchSize  int
	FlushMs    int
	PGUser     string
	PGPassword string
	PGHost     string
	PGPort     string
	PGDatabase string

	TokenExpireTime string

	// AllowedOrigins feeds CORS for the HTTP endpoints.
	AllowedOrigins []string

	Rules game.HouseRules
}

// Load reads every setting, falling back to defaults for anything unset or malformed.
func Load() Config {
	rules := game.DefaultHouseRules()
	rules.MaxPlayers = GetEnvInt("MAX_PLAYERS", rules.MaxPlayers)
	rules.EndGraceMs = GetEnvInt("END_GRACE_MS", rules.EndGraceMs)
	rules.SettleDelayMs = GetEnvInt("SETTLE_DELAY_MS", rules.SettleDelayMs)

	return Config{
		Port:            GetEnv("PORT", "8080"),
		LogLevel:        GetEnv("LOG_LEVEL", "debug"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisDB:         GetEnvInt("REDIS_DB", 0),
		QueueName:       GetEnv("HISTORIAN_QUEUE_NAME", "dutch_actions"),
		BatchSize:       GetEnvInt("HISTORIAN_BATCH_SIZE", 20),
		FlushMs:         GetEnvInt("HISTORIAN_FLUSH_MS", 500),
		PGUser:          os.Getenv("POSTGRES_USER"),
		PGPassword:      os.Getenv("POSTGRES_PASSWORD"),
		PGHost:          GetEnv("PG_HOST", "localhost"),
		PGPort:          GetEnv("PG_PORT", "5432"),
		PGDatabase:      os.Getenv("PG_DATABASE"),
		TokenExpireTime: GetEnv("TOKEN_EXPIRE_TIME", "never"),
		AllowedOrigins:  allowedOrigins(),
		Rules:           rules,
	}
}

// allowedOrigins reads ALLOWED_ORIGINS as a comma-separated list. Unset means any origin.
func allowedOrigins() []string {
	raw := os.Getenv("ALLOWED_ORIGINS")
	if raw == "" {
		return []string{"https://*", "http://*"}
	}
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// PostgresURL builds the connection string for pgx.
func (c Config) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// GetEnvInt is a helper to parse an environment variable as integer, else a default value.
func GetEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
