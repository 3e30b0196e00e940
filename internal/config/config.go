package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all client configuration.
type Config struct {
	APIBaseURL  string
	AuthBaseURL string
	LogLevel    string
	LogFormat   string
	// RequestTimeout bounds every HTTP call made by the API gateway.
	RequestTimeout time.Duration
	// CacheTTL is the default freshness window for cached list reads.
	// KindTTL overrides it per entity kind (key = route segment, e.g.
	// "alunos"), populated from CACHE_TTL_<KIND>_SECONDS.
	CacheTTL time.Duration
	KindTTL  map[string]time.Duration
	// StatsTTL is the freshness window for derived stats reads.
	StatsTTL time.Duration
	// RedisURL selects the Redis-backed query cache store. Empty means
	// the in-process store.
	RedisURL    string
	SessionFile string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // .env is optional

	apiBase := getEnv("API_BASE_URL", "http://localhost:8000/api")

	return &Config{
		APIBaseURL:     apiBase,
		AuthBaseURL:    getEnv("AUTH_BASE_URL", apiBase),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "pretty"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		CacheTTL:       time.Duration(getEnvInt("CACHE_TTL_SECONDS", 300)) * time.Second,
		KindTTL:        parseKindTTLs(),
		StatsTTL:       time.Duration(getEnvInt("STATS_TTL_SECONDS", 600)) * time.Second,
		RedisURL:       getEnv("REDIS_URL", ""),
		SessionFile:    getEnv("SESSION_FILE", defaultSessionFile()),
	}
}

// TTLFor returns the freshness window for an entity kind, falling back
// to the default when no per-kind override is set.
func (c *Config) TTLFor(kind string) time.Duration {
	if ttl, ok := c.KindTTL[kind]; ok {
		return ttl
	}
	return c.CacheTTL
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".conflu-session.json"
	}
	return home + "/.config/conflu/session.json"
}

// parseKindTTLs collects CACHE_TTL_<KIND>_SECONDS overrides, e.g.
// CACHE_TTL_ALUNOS_SECONDS=60 sets a one-minute window for students.
func parseKindTTLs() map[string]time.Duration {
	const prefix = "CACHE_TTL_"
	const suffix = "_SECONDS"

	ttls := make(map[string]time.Duration)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		inner := strings.TrimPrefix(key, prefix)
		if !strings.HasSuffix(inner, suffix) {
			continue
		}
		kind := strings.TrimSuffix(inner, suffix)
		if kind == "" {
			continue
		}
		secs, err := strconv.Atoi(value)
		if err != nil || secs <= 0 {
			continue
		}
		ttls[strings.ToLower(kind)] = time.Duration(secs) * time.Second
	}
	return ttls
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
