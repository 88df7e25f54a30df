package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv         string
	LogLevel       string
	HTTPAddr       string
	MetricsAddr    string
	RequestTimeout time.Duration

	StoreBackend string // memory|mysql|sqlite
	MySQLDSN     string
	SQLitePath   string

	RedisAddr string // empty disables the review claim guard
	RedisDB   int
	RedisPass string
	ClaimTTL  time.Duration

	CascadeWorkers int
	CascadeRetries int
	StrictIDs      bool

	APIBase     string
	SeedFile    string
	SeedWorkers int
	SeedRPS     int
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-integer setting")
		}
		return def
	}
	c := Config{
		AppEnv:         env("APP_ENV", "prod"),
		LogLevel:       env("LOG_LEVEL", "info"),
		HTTPAddr:       env("HTTP_ADDR", "127.0.0.1:8080"),
		MetricsAddr:    env("METRICS_ADDR", ""),
		RequestTimeout: time.Duration(atoi("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
		StoreBackend:   strings.ToLower(env("STORE_BACKEND", "memory")),
		MySQLDSN:       env("MYSQL_DSN", "root:root@tcp(localhost:3306)/reviews?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		SQLitePath:     env("SQLITE_PATH", "./data/reviews.db"),
		RedisAddr:      env("REDIS_ADDR", ""),
		RedisPass:      env("REDIS_PASSWORD", ""),
		RedisDB:        atoi("REDIS_DB", 0),
		ClaimTTL:       time.Duration(atoi("REVIEW_CLAIM_TTL_SECONDS", 10)) * time.Second,
		CascadeWorkers: atoi("CASCADE_WORKERS", 4),
		CascadeRetries: atoi("CASCADE_RETRIES", 3),
		StrictIDs:      boolEnv("STRICT_IDS", false),
		APIBase:        env("API_BASE_URL", "http://127.0.0.1:8080"),
		SeedFile:       env("SEED_FILE", "seed.yaml"),
		SeedWorkers:    atoi("SEED_WORKERS", 4),
		SeedRPS:        atoi("SEED_RPS", 20),
	}
	if c.RedisAddr == "" {
		log.Warn().Msg("REDIS_ADDR is empty; duplicate-review check is best-effort")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func boolEnv(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
