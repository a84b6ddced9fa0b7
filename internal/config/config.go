package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppEnv           = "dev"
	defaultPort             = "8080"
	defaultDatabaseURL      = "typingspeed.db"
	defaultJWTAccessSecret  = "change-me-access-secret"
	defaultJWTRefreshSecret = "change-me-refresh-secret"
	defaultJWTAccessTTL     = "15m"
	defaultJWTRefreshTTL    = "168h"
	defaultJWTIssuer        = "typingspeed-api"
	defaultJWTAudience      = "typingspeed-client"
	defaultBcryptCost       = "12"
	defaultLogLevel         = "info"
	defaultUserCacheTTL     = "30s"
)

type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	JWTAccessSecret  string
	JWTRefreshSecret string
	JWTAccessTTL     time.Duration
	JWTRefreshTTL    time.Duration
	JWTIssuer        string
	JWTAudience      string

	BcryptCost int

	// GoogleClientID is empty when Google sign-in is not configured.
	GoogleClientID string
	// RedisURL is empty when rate limits are kept in process memory.
	RedisURL string

	CORSAllowedOrigins []string
	// TrustedProxies lists the proxy IPs or CIDRs whose forwarding headers
	// are believed. Empty means none: the socket address is the client.
	TrustedProxies []string
	LogLevel           string
	UserCacheTTL       time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the config from the current environment without touching .env.
func FromEnv() (*Config, error) {
	cfg := &Config{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = defaultAppEnv
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.Port = strings.TrimSpace(getEnv("PORT", defaultPort))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTAccessSecret = strings.TrimSpace(getEnv("JWT_ACCESS_SECRET", defaultJWTAccessSecret))
	cfg.JWTRefreshSecret = strings.TrimSpace(getEnv("JWT_REFRESH_SECRET", defaultJWTRefreshSecret))
	cfg.JWTIssuer = strings.TrimSpace(getEnv("JWT_ISSUER", defaultJWTIssuer))
	cfg.JWTAudience = strings.TrimSpace(getEnv("JWT_AUDIENCE", defaultJWTAudience))
	cfg.GoogleClientID = strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID"))
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", defaultLogLevel)))
	cfg.CORSAllowedOrigins = parseListEnv("CORS_ALLOWED_ORIGINS")
	cfg.TrustedProxies = parseListEnv("TRUSTED_PROXIES")

	var err error
	cfg.JWTAccessTTL, err = parseDurationEnv("JWT_ACCESS_TTL", defaultJWTAccessTTL)
	if err != nil {
		return nil, err
	}

	cfg.JWTRefreshTTL, err = parseDurationEnv("JWT_REFRESH_TTL", defaultJWTRefreshTTL)
	if err != nil {
		return nil, err
	}

	cfg.UserCacheTTL, err = parseDurationEnv("USER_CACHE_TTL", defaultUserCacheTTL)
	if err != nil {
		return nil, err
	}

	cfg.BcryptCost, err = parseIntEnv("BCRYPT_COST", defaultBcryptCost)
	if err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether error details must be hidden from clients.
func (c *Config) IsProduction() bool {
	return isProdLike(c.AppEnv)
}

// GoogleEnabled reports whether the Google sign-in routes can verify tokens.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != ""
}

func validateConfig(cfg *Config) error {
	if cfg.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}
	if cfg.JWTRefreshTTL <= 0 {
		return fmt.Errorf("JWT_REFRESH_TTL must be > 0")
	}
	if cfg.JWTRefreshTTL <= cfg.JWTAccessTTL {
		return fmt.Errorf("JWT_REFRESH_TTL must be longer than JWT_ACCESS_TTL")
	}
	if cfg.UserCacheTTL < 0 {
		return fmt.Errorf("USER_CACHE_TTL must be >= 0")
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}
	if cfg.JWTAccessSecret == "" || cfg.JWTRefreshSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must not be empty")
	}
	if cfg.JWTAccessSecret == cfg.JWTRefreshSecret {
		return fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if cfg.JWTIssuer == "" || cfg.JWTAudience == "" {
		return fmt.Errorf("JWT_ISSUER and JWT_AUDIENCE must not be empty")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	for _, p := range cfg.TrustedProxies {
		if !validProxy(p) {
			return fmt.Errorf("invalid TRUSTED_PROXIES entry %q", p)
		}
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTAccessSecret, defaultJWTAccessSecret) {
			return fmt.Errorf("in prod/release JWT_ACCESS_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.JWTRefreshSecret, defaultJWTRefreshSecret) {
			return fmt.Errorf("in prod/release JWT_REFRESH_SECRET must be set and not default")
		}
		if cfg.BcryptCost < 10 {
			return fmt.Errorf("in prod/release BCRYPT_COST must be at least 10")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func validProxy(p string) bool {
	if strings.Contains(p, "/") {
		_, _, err := net.ParseCIDR(p)
		return err == nil
	}
	return net.ParseIP(p) != nil
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseListEnv(name string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(raw, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
