package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/alphabot-ai/moltbook/internal/rate"
)

type Config struct {
	Addr        string
	DBPath      string
	HashSecret  string
	Env         string
	LogLevel    string
	LogFormat   string
	CORSOrigins []string
	Redis       Redis
	RateLimits  rate.Rules
}

// Redis is optional; an empty Addr selects the in-process counter store.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Load reads configuration from the environment, after merging an optional .env file.
func Load() Config {
	_ = godotenv.Load()

	addr := envString("MOLTBOOK_ADDR", "")
	if addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		} else {
			addr = ":8080"
		}
	}
	return Config{
		Addr:        addr,
		DBPath:      envString("MOLTBOOK_DB", "moltbook.db"),
		HashSecret:  envString("MOLTBOOK_HASH_SECRET", "dev-hash-secret"),
		Env:         envString("MOLTBOOK_ENV", "development"),
		LogLevel:    envString("MOLTBOOK_LOG_LEVEL", "info"),
		LogFormat:   envString("MOLTBOOK_LOG_FORMAT", ""),
		CORSOrigins: envList("MOLTBOOK_CORS_ORIGINS", []string{"*"}),
		Redis: Redis{
			Addr:     envString("MOLTBOOK_REDIS_ADDR", ""),
			Password: envString("MOLTBOOK_REDIS_PASSWORD", ""),
			DB:       envInt("MOLTBOOK_REDIS_DB", 0),
		},
		RateLimits: loadRateLimits(),
	}
}

func loadRateLimits() rate.Rules {
	rules := rate.DefaultRules()
	for action, rule := range rules {
		prefix := "MOLTBOOK_RL_" + strings.ToUpper(string(action))
		if n := envInt(prefix+"_REQUESTS", rule.Requests); n > 0 {
			rule.Requests = n
		}
		if d := envWindow(prefix+"_WINDOW", rule.Window); d > 0 {
			rule.Window = d
		}
		rules[action] = rule
	}
	return rules
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// envWindow reads a duration such as "1h" or a bare number of seconds.
func envWindow(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return envDuration(key, def)
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
