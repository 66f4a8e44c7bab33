package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	Storage     string         // "redis" | "postgres" | "memory"
	Location    *time.Location // zone used for all calendar math
	OptionsFile string         // optional YAML seed of the default options

	// Wake engine
	AlarmMinDelay time.Duration // shortest delay the alarm host accepts (ex: 30s)
	AlarmHorizon  time.Duration // how far ahead the alarm is armed at most (ex: 1h)
	Debounce      time.Duration // fire-now debounce window (ex: 3s)
	DueTolerance  time.Duration // slack under which an item counts as due (ex: 5s)
	PollInterval  time.Duration // safety re-evaluation when polling is on (ex: 15m)
	AllowFileURLs bool          // accept file: URLs

	// Browser and notifications
	BrowserName        string        // shown in "Next <browser> Launch" labels, optional
	BrowserCallTimeout time.Duration // per-command websocket timeout (ex: 10s)
	TelegramToken      string        // optional, empty = telegram disabled
	TelegramChatID     int64

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisPoolSize         int           // Redis connection pool size

	// Postgres
	PostgresDSN string // ex: "postgres://snoozz:secret@db:5432/snoozz"

	// Startup retry, shared by both remote backends
	ConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	MaxWait        time.Duration // max wait between retries (ex: 10s)
	PingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	WarnThreshold  int           // warn after this many attempts

	AllowedHosts   []string // optional, restrict access to specific Host headers
	AllowedCIDRS   []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 5.6.7.8")
	TrustProxy     bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	AllowedOrigins []string // CORS and websocket origin patterns
	RateLimit      int      // snooze creations per minute and client, 0 = unlimited
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("SNOOZZ_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("SNOOZZ_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("SNOOZZ_LOG_LEVEL", "info"),
		PrettyLog: mustBool("SNOOZZ_PRETTY_LOG", true),

		Storage:     strings.ToLower(getenv("SNOOZZ_STORAGE", StorageRedis)),
		Location:    mustLocation("SNOOZZ_TIMEZONE"),
		OptionsFile: getenv("SNOOZZ_OPTIONS_FILE", ""),

		// Wake engine
		AlarmMinDelay: mustDuration("SNOOZZ_ALARM_MIN_DELAY", 30*time.Second),
		AlarmHorizon:  mustDuration("SNOOZZ_ALARM_HORIZON", time.Hour),
		Debounce:      mustDuration("SNOOZZ_DEBOUNCE", 3*time.Second),
		DueTolerance:  mustDuration("SNOOZZ_DUE_TOLERANCE", 5*time.Second),
		PollInterval:  mustDuration("SNOOZZ_POLL_INTERVAL", 15*time.Minute),
		AllowFileURLs: mustBool("SNOOZZ_ALLOW_FILE_URLS", false),

		// Browser and notifications
		BrowserName:        getenv("SNOOZZ_BROWSER_NAME", ""),
		BrowserCallTimeout: mustDuration("SNOOZZ_BROWSER_CALL_TIMEOUT", 10*time.Second),
		TelegramToken:      getenv("SNOOZZ_TELEGRAM_TOKEN", ""),
		TelegramChatID:     getenvInt64("SNOOZZ_TELEGRAM_CHAT_ID", 0),

		// Redis settings
		RedisUser:             getenv("SNOOZZ_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("SNOOZZ_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("SNOOZZ_REDIS_PASSWORD", ""),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),

		// Startup retry
		ConnectTimeout: mustDuration("SNOOZZ_CONNECT_TIMEOUT", 30*time.Second),
		RetryInterval:  mustDuration("SNOOZZ_RETRY_INTERVAL", 2*time.Second),
		MaxWait:        mustDuration("SNOOZZ_MAX_WAIT", 10*time.Second),
		PingTimeout:    mustDuration("SNOOZZ_PING_TIMEOUT", 5*time.Second),
		WarnThreshold:  getenvInt("SNOOZZ_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts:   splitAndTrim(getenv("SNOOZZ_ALLOWED_HOSTS", "")),
		AllowedCIDRS:   parseAllowedIPs(getenv("SNOOZZ_ALLOWED_CIDRS", "")),
		TrustProxy:     mustBool("SNOOZZ_TRUST_PROXY", false),
		AllowedOrigins: splitAndTrim(getenv("SNOOZZ_ALLOWED_ORIGINS", "*")),
		RateLimit:      getenvInt("SNOOZZ_RATE_LIMIT", 60),
	}

	switch cfg.Storage {
	case StorageRedis:
		cfg.RedisAddr = requireEnv("SNOOZZ_REDIS_ADDR")
		cfg.RedisDB = requireEnvInt("SNOOZZ_REDIS_DB")
		// Validate Redis password configuration
		if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
			panic("❌ FATAL: SNOOZZ_REDIS_PASSWORD is required when SNOOZZ_REDIS_PASSWORD_REQUIRED=true")
		}
	case StoragePostgres:
		cfg.PostgresDSN = requireEnv("SNOOZZ_POSTGRES_DSN")
	case StorageMemory:
	default:
		panic(fmt.Sprintf("❌ FATAL: SNOOZZ_STORAGE must be redis, postgres or memory, got %q", cfg.Storage))
	}

	if cfg.TelegramToken != "" && cfg.TelegramChatID == 0 {
		panic("❌ FATAL: SNOOZZ_TELEGRAM_CHAT_ID is required when SNOOZZ_TELEGRAM_TOKEN is set")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.RedisPassword != "" {
		cp.RedisPassword = "***REDACTED***"
	}
	if cp.RedisUser != "" {
		cp.RedisUser = "***REDACTED***"
	}
	if cp.PostgresDSN != "" {
		cp.PostgresDSN = "***REDACTED***"
	}
	if cp.TelegramToken != "" {
		cp.TelegramToken = "***REDACTED***"
	}
	return cp
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

func requireEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
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

// mustLocation loads an IANA zone name, defaulting to the host zone.
func mustLocation(key string) *time.Location {
	v := os.Getenv(key)
	if v == "" || strings.EqualFold(v, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid time zone for %s: %s", key, v))
	}
	return loc
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
