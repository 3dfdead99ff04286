package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppHost string
	AppPort string

	// StoreDriver picks the job store: memory, redis, mysql or postgres.
	StoreDriver string
	RedisAddr   string
	RedisPass   string
	RedisDB     int
	RedisPrefix string
	MySQLDSN    string
	PostgresURL string

	// AMQPURL enables job events when set.
	AMQPURL string

	JWTSecret      string
	TabletTokenTTL time.Duration
	BasicAuthUser  string
	BasicAuthPass  string

	// DirectoryDriver picks the restaurant roster: file or mysql.
	DirectoryDriver string
	RestaurantsFile string

	PrinterWidth    int
	PrinterTimezone string

	Retention     time.Duration
	SweepInterval time.Duration

	LogLevel  string
	LogFormat string
}

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Info().Msg(".env not found, using system environment")
	}
}

// Load reads the configuration from the environment. Call LoadEnv first to
// pick up a .env file.
func Load() Config {
	return Config{
		AppHost: GetEnv("APP_HOST", ""),
		AppPort: GetEnv("APP_PORT", "8080"),

		StoreDriver: strings.ToLower(GetEnv("STORE_DRIVER", "memory")),
		RedisAddr:   GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:   GetEnv("REDIS_PASSWORD", ""),
		RedisDB:     GetEnvInt("REDIS_DB", 0),
		RedisPrefix: GetEnv("REDIS_PREFIX", "print"),
		MySQLDSN:    GetEnv("MYSQL_DSN", ""),
		PostgresURL: GetEnv("POSTGRES_URL", ""),

		AMQPURL: GetEnv("AMQP_URL", ""),

		JWTSecret:      GetEnv("JWT_SECRET", ""),
		TabletTokenTTL: GetEnvDuration("TABLET_TOKEN_TTL", 30*24*time.Hour),
		BasicAuthUser:  GetEnv("BASIC_AUTH_USER", ""),
		BasicAuthPass:  GetEnv("BASIC_AUTH_PASS", ""),

		DirectoryDriver: strings.ToLower(GetEnv("DIRECTORY_DRIVER", "file")),
		RestaurantsFile: GetEnv("RESTAURANTS_FILE", "config/restaurants.json"),

		PrinterWidth:    GetEnvInt("PRINTER_WIDTH", 42),
		PrinterTimezone: GetEnv("PRINTER_TIMEZONE", "UTC"),

		Retention:     GetEnvDuration("RETENTION", 24*time.Hour),
		SweepInterval: GetEnvDuration("SWEEP_INTERVAL", 10*time.Minute),

		LogLevel:  GetEnv("LOG_LEVEL", "info"),
		LogFormat: GetEnv("LOG_FORMAT", "console"),
	}
}

func (c Config) Addr() string {
	return c.AppHost + ":" + c.AppPort
}

func GetEnv(key string, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func GetEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Warn().Str("key", key).Str("value", val).Msg("not an integer, using default")
		return defaultVal
	}
	return n
}

// GetEnvDuration accepts Go durations ("90s", "24h"); "0" disables.
func GetEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Warn().Str("key", key).Str("value", val).Msg("not a duration, using default")
		return defaultVal
	}
	return d
}
