package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// Config holds runtime configuration values for the CMS server.
type Config struct {
	DBPath        string
	ServerPort    int
	LogLevel      string
	SentryDSN     string
	Environment   string
	ShutdownGrace time.Duration

	SeedURL     string
	SeedTimeout time.Duration
	ExportDir   string
	StrictSlugs bool

	AdminPassword  string
	SessionSecret  string
	SessionTTL     time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	RateLimitTTL   time.Duration
}

const (
	defaultDBPath         = "./data/staticcms.db"
	defaultServerPort     = 8080
	defaultLogLevel       = "info"
	defaultEnvironment    = "development"
	defaultShutdownGrace  = 10 * time.Second
	defaultSeedTimeout    = 5 * time.Second
	defaultExportDir      = "./data/export"
	defaultSessionTTL     = 24 * time.Hour
	defaultRateLimitRPS   = 5.0
	defaultRateLimitBurst = 20
	defaultRateLimitTTL   = 10 * time.Minute
)

// Load reads configuration values from environment variables, applying defaults where necessary.
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:        getEnv("DB_PATH", defaultDBPath),
		LogLevel:      getEnv("LOG_LEVEL", defaultLogLevel),
		SentryDSN:     os.Getenv("SENTRY_DSN"),
		Environment:   getEnv("ENV", defaultEnvironment),
		ShutdownGrace: defaultShutdownGrace,
		SeedURL:       os.Getenv("SEED_URL"),
		ExportDir:     getEnv("EXPORT_DIR", defaultExportDir),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
	}

	var err error

	portValue := getEnv("SERVER_PORT", strconv.Itoa(defaultServerPort))
	cfg.ServerPort, err = strconv.Atoi(portValue)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid SERVER_PORT value: %s", portValue)
	}

	if cfg.SeedTimeout, err = getDuration("SEED_TIMEOUT", defaultSeedTimeout); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", defaultSessionTTL); err != nil {
		return nil, err
	}
	if cfg.RateLimitTTL, err = getDuration("RATE_LIMIT_CLIENT_TTL", defaultRateLimitTTL); err != nil {
		return nil, err
	}

	strictValue := getEnv("STRICT_SLUGS", "true")
	cfg.StrictSlugs, err = strconv.ParseBool(strictValue)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid STRICT_SLUGS value: %s", strictValue)
	}

	rpsValue := getEnv("RATE_LIMIT_RPS", strconv.FormatFloat(defaultRateLimitRPS, 'f', -1, 64))
	cfg.RateLimitRPS, err = strconv.ParseFloat(rpsValue, 64)
	if err != nil || cfg.RateLimitRPS <= 0 {
		return nil, eris.Errorf("invalid RATE_LIMIT_RPS value: %s", rpsValue)
	}

	burstValue := getEnv("RATE_LIMIT_BURST", strconv.Itoa(defaultRateLimitBurst))
	cfg.RateLimitBurst, err = strconv.Atoi(burstValue)
	if err != nil || cfg.RateLimitBurst <= 0 {
		return nil, eris.Errorf("invalid RATE_LIMIT_BURST value: %s", burstValue)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s value: %s", key, raw)
	}
	if value <= 0 {
		return 0, eris.Errorf("invalid %s value: %s", key, raw)
	}
	return value, nil
}
