package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // durations for session and lockout windows

	"github.com/joho/godotenv" // optional .env file support for local runs
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Durations are parsed with time.ParseDuration so
// values like "15m" or "720h" are accepted.
type Config struct {
	Env  string // application environment (e.g. "development", "production")
	Port string // HTTP port to listen on

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	SessionSecret string        // HMAC secret for session tokens and the flash cookie store
	SessionTTL    time.Duration // idle timeout; every authenticated request slides it forward
	RememberMeTTL time.Duration // lifetime of the remember-me cookie
	CookieSecure  bool          // mark cookies Secure (enable behind TLS)
	BcryptCost    int           // bcrypt cost for password hashing
	MaxLoginTries int           // failed attempts before an account is locked
	LockoutWindow time.Duration // how long a locked account stays locked after the last failure
	ItemsPerPage  int           // page size of the public results page
	WhatsAppBase  string        // deep-link prefix for WhatsApp chats
	Timezone      string        // IANA zone used when rendering timestamps
	AssetsDir     string        // root of static assets; images live under <AssetsDir>/images
	LogDir        string        // directory of the rotated error log
	AppName       string        // shown in page titles
}

// Load reads configuration values from the environment (after merging an
// optional .env file) and returns a Config.  Required variables are
// enforced by must() and missing values cause the program to exit.
func Load() Config {
	_ = godotenv.Load() // a missing .env is normal outside local development

	return Config{
		Env:  envStr("APP_ENV", "production"), // environment (development/production)
		Port: envStr("APP_PORT", "8080"),      // port to bind the HTTP server

		DBUser: must("DB_USER"),           // database user
		DBPass: os.Getenv("DB_PASS"),      // database password (empty allowed)
		DBHost: must("DB_HOST"),           // database host
		DBPort: envStr("DB_PORT", "3306"), // database port
		DBName: must("DB_NAME"),           // database name

		SessionSecret: must("SESSION_SECRET"),
		SessionTTL:    envDur("SESSION_LIFETIME", 2*time.Hour),
		RememberMeTTL: envDur("REMEMBER_ME_DURATION", 30*24*time.Hour),
		CookieSecure:  envBool("COOKIE_SECURE", false),
		BcryptCost:    envInt("BCRYPT_ROUNDS", 10),
		MaxLoginTries: envInt("MAX_LOGIN_ATTEMPTS", 5),
		LockoutWindow: envDur("LOCKOUT_TIME", 15*time.Minute),
		ItemsPerPage:  envInt("ITEMS_PER_PAGE", 12),
		WhatsAppBase:  envStr("WHATSAPP_BASE_URL", "https://wa.me/"),
		Timezone:      envStr("APP_TIMEZONE", "Asia/Colombo"),
		AssetsDir:     envStr("ASSETS_DIR", "assets"),
		LogDir:        envStr("LOG_DIR", "logs"),
		AppName:       envStr("APP_NAME", "LankanLens"),
	}
}

// IsDevelopment reports whether the app runs in a development environment.
func (c Config) IsDevelopment() bool { return c.Env == "development" || c.Env == "dev" }

// Location resolves Timezone, falling back to UTC when the zone is unknown.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	switch v {
	case "yes", "YES", "on", "ON":
		return true
	case "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

// envDur accepts Go durations ("90s", "2h") and bare integers, which are
// read as seconds to stay compatible with older .env files.
func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return d
}
