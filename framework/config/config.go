package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the bootstrap configuration read from the process environment
// before the kernel environment is initialized.
type Config struct {
	App AppConfig
	Log LogConfig
}

// AppConfig feeds app.Options.
type AppConfig struct {
	Env      string // development | production | test
	Debug    bool
	Path     string // directory holding the packages
	BaseURL  string
	Port     string
	Language string
	Locale   string
	Timezone string
	Encoding string
	Packages []string // extra core packages
}

// LogConfig configures framework/logger.
type LogConfig struct {
	Level  string // debug | info | warn | error
	Format string // json | text
}

// Load reads .env (if present) and populates a Config from environment variables.
// Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	return &Config{
		App: AppConfig{
			Env:      env("FUEL_ENV", "development"),
			Debug:    envBool("FUEL_DEBUG", false),
			Path:     env("FUEL_PATH", "./fuel"),
			BaseURL:  env("FUEL_BASE_URL", "/"),
			Port:     env("FUEL_PORT", "8000"),
			Language: env("FUEL_LANGUAGE", "en"),
			Locale:   env("FUEL_LOCALE", ""),
			Timezone: env("FUEL_TIMEZONE", "UTC"),
			Encoding: env("FUEL_ENCODING", "UTF-8"),
			Packages: GetList("FUEL_PACKAGES", nil),
		},
		Log: LogConfig{
			Level:  env("LOG_LEVEL", "info"),
			Format: env("LOG_FORMAT", "json"),
		},
	}
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return envBool(key, defaultVal)
}

// GetList returns a comma separated env value with blanks dropped.
func GetList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
