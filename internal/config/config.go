package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported persistence backends (DASHBOARD_STORE).
const (
	StoreMongo  = "mongo"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request budget enforced by the router

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	Store string // "mongo" | "redis" | "memory"

	// MongoDB
	MongoURI                    string        // connection string, required when Store == "mongo"
	MongoDB                     string        // optional database name
	MongoConnectTimeout         time.Duration // dial + ping budget (ex: 10s)
	MongoServerSelectionTimeout time.Duration // driver server selection timeout
	MongoMaxPoolSize            int           // 0 = driver default

	// Redis
	RedisAddr           string        // ex: "localhost:6379", required when Store == "redis"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	// Import
	BookmarkFile   string        // homepage-style bookmarks.yaml imported periodically (optional)
	ImportInterval time.Duration // interval between imports (default: 24h)

	// Access restrictions
	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict ops endpoints to specific IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	RateBurst    int      // per-IP burst on write routes
	RatePerMin   int      // per-IP refill per minute on write routes
}

// ClientConfig configures CLI commands that talk to a running server.
type ClientConfig struct {
	APIURL  string        // ex: "http://localhost:8080"
	Timeout time.Duration // per-request timeout
}

// Load reads the server configuration from the environment (after an optional .env file).
// Missing required variables are fatal.
func Load() *Config {
	loadDotEnv()

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("DASHBOARD_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("DASHBOARD_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("DASHBOARD_REQUEST_TIMEOUT", 10*time.Second),

		// Logging
		LogLevel:  getenv("DASHBOARD_LOG_LEVEL", "info"),
		PrettyLog: mustBool("DASHBOARD_PRETTY_LOG", true),

		Store: strings.ToLower(getenv("DASHBOARD_STORE", StoreMongo)),

		// Import
		BookmarkFile:   getenv("DASHBOARD_BOOKMARK_FILE", ""), // Optional, empty = import disabled
		ImportInterval: positiveDuration("DASHBOARD_IMPORT_INTERVAL", 24*time.Hour),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("DASHBOARD_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("DASHBOARD_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("DASHBOARD_TRUST_PROXY", true),
		RateBurst:    getenvInt("DASHBOARD_RATE_BURST", 30),
		RatePerMin:   getenvInt("DASHBOARD_RATE_PER_MIN", 120),
	}

	switch cfg.Store {
	case StoreMongo:
		cfg.MongoURI = requireEnv("MONGODB_URI")
		cfg.MongoDB = getenv("MONGODB_DB", "")
		cfg.MongoConnectTimeout = mustDuration("MONGODB_CONNECT_TIMEOUT", 10*time.Second)
		cfg.MongoServerSelectionTimeout = mustDuration("MONGODB_SERVER_SELECTION_TIMEOUT", 5*time.Second)
		cfg.MongoMaxPoolSize = getenvInt("MONGODB_MAX_POOL_SIZE", 0)
	case StoreRedis:
		cfg.RedisAddr = requireEnv("DASHBOARD_REDIS_ADDR")
		cfg.RedisUser = getenv("DASHBOARD_REDIS_USERNAME", "")
		cfg.RedisPassword = getenv("DASHBOARD_REDIS_PASSWORD", "")
		cfg.RedisDB = getenvInt("DASHBOARD_REDIS_DB", 0)
		cfg.RedisDT = mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
		cfg.RedisRT = mustDuration("REDIS_READ_TIMEOUT", 3*time.Second)
		cfg.RedisWT = mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second)
		cfg.RedisMaxWait = mustDuration("REDIS_MAX_WAIT", 10*time.Second)
		cfg.RedisPingTimeout = mustDuration("REDIS_PING_TIMEOUT", 5*time.Second)
		cfg.RedisPoolSize = getenvInt("REDIS_POOL_SIZE", 10)
		cfg.RedisConnectTimeout = mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second)
		cfg.RedisRetryInterval = mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second)
		cfg.RedisWarnThreshold = getenvInt("REDIS_WARN_THRESHOLD", 3)
	case StoreMemory:
		// nothing to configure
	default:
		panic(fmt.Sprintf("❌ FATAL: Unknown DASHBOARD_STORE %q (want mongo, redis or memory)", cfg.Store))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfgCopy.MongoURI != "" {
			cfgCopy.MongoURI = "***REDACTED***"
		}
		if cfgCopy.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// LoadClient reads the CLI client configuration. It never panics.
func LoadClient() ClientConfig {
	loadDotEnv()

	return ClientConfig{
		APIURL:  strings.TrimRight(getenv("DASHBOARD_API_URL", "http://localhost:8080"), "/"),
		Timeout: mustDuration("DASHBOARD_CLIENT_TIMEOUT", 10*time.Second),
	}
}

// loadDotEnv loads DASHBOARD_ENV_FILE (or ./.env). Existing variables are never overridden.
func loadDotEnv() {
	path := getenv("DASHBOARD_ENV_FILE", ".env")
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Printf("[WARN] failed to load %s: %v", path, err)
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// positiveDuration is mustDuration for tickers: zero or negative values fall back to def.
func positiveDuration(key string, def time.Duration) time.Duration {
	if d := mustDuration(key, def); d > 0 {
		return d
	}
	log.Printf("[WARN] %s must be positive, using %s", key, def)
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
