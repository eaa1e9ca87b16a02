// Package Config loads settings from an optional .env file and the environment.
package Config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "taskledger-dev-secret"

type Config struct {
	Port     string
	DBDriver string
	DBDSN    string

	JWTSecret string
	JWTTTL    time.Duration

	// RatePerHour is the payroll multiplier applied to approved hours.
	RatePerHour float64
	Location    *time.Location

	UploadDir     string
	ProofMaxWidth int
	LogDir        string

	SlackToken   string
	SlackChannel string
	SlackAPIURL  string

	ManagerUsername string
	ManagerPassword string

	CORSOrigins string
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log.Printf("Error loading .env file: %v", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function so tests can supply their own values.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(k, def string) string {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Port:            get("PORT", "8000"),
		DBDriver:        get("DB_DRIVER", "sqlite"),
		DBDSN:           get("DB_DSN", "taskledger.db"),
		JWTSecret:       get("JWT_SECRET", ""),
		UploadDir:       get("UPLOAD_DIR", "uploads"),
		LogDir:          get("LOG_DIR", "logs"),
		SlackToken:      get("SLACK_TOKEN", ""),
		SlackChannel:    get("SLACK_CHANNEL", ""),
		SlackAPIURL:     get("SLACK_API_URL", ""),
		ManagerUsername: get("MANAGER_USERNAME", ""),
		ManagerPassword: get("MANAGER_PASSWORD", ""),
		CORSOrigins:     get("CORS_ORIGINS", "*"),
	}

	if cfg.JWTSecret == "" {
		log.Println("JWT_SECRET not set, using the development secret")
		cfg.JWTSecret = devJWTSecret
	}

	ttl, err := strconv.Atoi(get("JWT_TTL_HOURS", "24"))
	if err != nil || ttl <= 0 {
		return Config{}, fmt.Errorf("invalid JWT_TTL_HOURS %q", getenv("JWT_TTL_HOURS"))
	}
	cfg.JWTTTL = time.Duration(ttl) * time.Hour

	rate, err := strconv.ParseFloat(get("RATE_PER_HOUR", "15"), 64)
	if err != nil || rate < 0 {
		return Config{}, fmt.Errorf("invalid RATE_PER_HOUR %q", getenv("RATE_PER_HOUR"))
	}
	cfg.RatePerHour = rate

	width, err := strconv.Atoi(get("PROOF_MAX_WIDTH", "1600"))
	if err != nil || width <= 0 {
		return Config{}, fmt.Errorf("invalid PROOF_MAX_WIDTH %q", getenv("PROOF_MAX_WIDTH"))
	}
	cfg.ProofMaxWidth = width

	tz := get("TIMEZONE", "Local")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Config{}, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}
	cfg.Location = loc

	return cfg, nil
}

// SlackEnabled reports whether both a bot token and a channel are configured.
func (c Config) SlackEnabled() bool {
	return c.SlackToken != "" && c.SlackChannel != ""
}
