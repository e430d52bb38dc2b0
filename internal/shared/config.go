package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"rental_yield/internal/calculator"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration

	RatesBase string
	RatesKey  string
	RatesRPS  int
	Workers   int
	SyncCron  string

	RateLimitRPS      float64
	RateLimitBurst    int
	TrustProxyHeaders bool

	CleansPerMonth       float64
	BookedNightsPerMonth float64
	CarryMonthOverflow   bool
	UseBuiltinTable      bool
}

// Load reads the environment, after merging a .env file from the working
// directory when one exists. Values already set in the environment win.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg(".env could not be loaded")
	}

	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/rentyield?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,

		RatesBase: env("RATES_BASE_URL", ""),
		RatesKey:  env("RATES_API_KEY", ""),
		RatesRPS:  atoi("RATES_RPS", 5),
		Workers:   atoi("SYNC_WORKERS", 3),
		SyncCron:  env("SYNC_CRON", ""),

		RateLimitRPS:      atof("RATE_LIMIT_RPS", 10),
		RateLimitBurst:    atoi("RATE_LIMIT_BURST", 20),
		TrustProxyHeaders: atob("TRUST_PROXY_HEADERS", false),

		CleansPerMonth:       atof("CLEANS_PER_MONTH", calculator.CleansPerMonthAssumption),
		BookedNightsPerMonth: atof("BOOKED_NIGHTS_PER_MONTH", calculator.BookedNightsPerMonth),
		CarryMonthOverflow:   atob("CARRY_MONTH_OVERFLOW", true),
		UseBuiltinTable:      atob("USE_BUILTIN_TABLE", false),
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	return c
}

// Policy is the calculator policy the environment asks for; fee tiers are
// not configurable.
func (c Config) Policy() calculator.Policy {
	p := calculator.DefaultPolicy()
	if c.CleansPerMonth >= 0 {
		p.CleansPerMonth = c.CleansPerMonth
	} else {
		log.Warn().Float64("value", c.CleansPerMonth).Msg("CLEANS_PER_MONTH must not be negative, keeping default")
	}
	if c.BookedNightsPerMonth > 0 {
		p.BookedNightsPerMonth = c.BookedNightsPerMonth
	} else {
		log.Warn().Float64("value", c.BookedNightsPerMonth).Msg("BOOKED_NIGHTS_PER_MONTH must be positive, keeping default")
	}
	p.CarryMonthOverflow = c.CarryMonthOverflow
	return p
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
	}
	return def
}

func atof(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not a number, using default")
	}
	return def
}

func atob(k string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(k))) {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	log.Warn().Str("key", k).Msg("not a boolean, using default")
	return def
}
