package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName        = "NoteSafe"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultDataDir        = "data"
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultOTPTTL         = 180 * time.Second
	defaultSessionTTL     = 24 * time.Hour
	defaultCookieName     = "notesafe_session"
	defaultHasher         = "bcrypt"
	defaultLoginLimit     = 5
	defaultForgotLimit    = 3
	defaultSMTPPort       = 587
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DataDir        string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	OTPTTL  time.Duration
	OTPEcho bool

	SessionTTL          time.Duration
	SessionCookieName   string
	SessionCookieSecure bool

	PasswordHasher  string
	LoginRateLimit  int
	ForgotRateLimit int
	RulesFile       string

	SMTP SMTP
}

// SMTP configures mail delivery of OTP codes. Host empty means codes are
// only logged.
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Load reads an optional .env file, then configuration values from the
// environment, and populates a Config instance.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		AppName:           getEnv("APP_NAME", defaultAppName),
		AppEnv:            strings.ToLower(getEnv("APP_ENV", defaultAppEnv)),
		Port:              getEnv("PORT", defaultPort),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DataDir:           getEnv("DATA_DIR", defaultDataDir),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		SessionCookieName: getEnv("SESSION_COOKIE_NAME", defaultCookieName),
		PasswordHasher:    strings.ToLower(getEnv("PASSWORD_HASHER", defaultHasher)),
		RulesFile:         os.Getenv("RULES_FILE"),
		SMTP: SMTP{
			Host:     os.Getenv("SMTP_HOST"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
		},
	}

	var err error
	if cfg.ShutdownPeriod, err = getDuration("SHUTDOWN_TIMEOUT", defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = getDuration("IDEMPOTENCY_TTL", defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.OTPTTL, err = getDuration("OTP_TTL", defaultOTPTTL); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", defaultSessionTTL); err != nil {
		return Config{}, err
	}
	if cfg.OTPEcho, err = getBool("OTP_ECHO", cfg.IsDevelopment()); err != nil {
		return Config{}, err
	}
	if cfg.SessionCookieSecure, err = getBool("SESSION_COOKIE_SECURE", false); err != nil {
		return Config{}, err
	}
	if cfg.LoginRateLimit, err = getInt("LOGIN_RATE_LIMIT", defaultLoginLimit); err != nil {
		return Config{}, err
	}
	if cfg.ForgotRateLimit, err = getInt("FORGOT_RATE_LIMIT", defaultForgotLimit); err != nil {
		return Config{}, err
	}
	if cfg.SMTP.Port, err = getInt("SMTP_PORT", defaultSMTPPort); err != nil {
		return Config{}, err
	}
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.Username
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.PasswordHasher {
	case "bcrypt", "argon2id":
	default:
		return fmt.Errorf("invalid PASSWORD_HASHER %q: want bcrypt or argon2id", c.PasswordHasher)
	}
	if c.OTPTTL <= 0 {
		return fmt.Errorf("OTP_TTL must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if !c.IsDevelopment() && !c.SessionCookieSecure {
		return fmt.Errorf("SESSION_COOKIE_SECURE must be true when APP_ENV is %s", c.AppEnv)
	}
	if !c.IsDevelopment() && c.OTPEcho {
		return fmt.Errorf("OTP_ECHO is only allowed in development")
	}
	return nil
}

// IsDevelopment reports whether the app runs in a local/test environment.
func (c Config) IsDevelopment() bool {
	switch c.AppEnv {
	case "development", "dev", "local", "test":
		return true
	}
	return false
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getDuration reads KEY_SECONDS as whole seconds, else KEY as a Go duration.
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(key + "_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s_SECONDS: %w", key, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return d, nil
	}
	return fallback, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
