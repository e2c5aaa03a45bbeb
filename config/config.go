package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Admin     AdminConfig
	RateLimit RateLimitConfig
	AWS       AWSConfig
	Content   ContentConfig
	Email     EmailConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
	Env                string // "production" enables secure cookies and strict secret resolution
	TrustedProxies     string // comma-separated IPs/CIDRs whose X-Forwarded-For is believed; empty trusts none
}

// Production reports whether the server runs with production settings.
func (c ServerConfig) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

// TrustedProxyList returns the proxies for gin's SetTrustedProxies. Nil trusts no proxy,
// so the client address is always the socket peer.
func (c ServerConfig) TrustedProxyList() []string {
	var out []string
	for _, p := range strings.Split(c.TrustedProxies, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/brightpath?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings. An empty Addr disables Redis:
// the login limiter then counts in-process and notifications are not queued.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	TimeoutMs int
}

// Enabled reports whether a Redis address is configured.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// Timeout is the per-command deadline used by the login limiter.
func (c RedisConfig) Timeout() time.Duration {
	if c.TimeoutMs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// AdminConfig holds the admin area credentials.
type AdminConfig struct {
	Password        string // plain password, compared in constant time
	PasswordHash    string // bcrypt hash; takes precedence over Password when set
	SessionSecret   string // HMAC key for admin session tokens
	SessionTTLHours int
}

// SessionTTL is the lifetime of both the session token and its cookie.
func (c AdminConfig) SessionTTL() time.Duration {
	if c.SessionTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// RateLimitConfig holds login throttling settings.
type RateLimitConfig struct {
	WindowSec   int
	MaxAttempts int
}

// Window returns the fixed counting window.
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSec) * time.Second
}

// AWSConfig holds AWS credentials and the bucket for editable site content.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	ContentBucket   string
	SettingsKey     string
}

// ContentConfig holds local content sources.
type ContentConfig struct {
	SettingsFile    string // local JSON fallback for site settings
	CacheTTLSeconds int
}

// EmailConfig for SMTP notifications.
type EmailConfig struct {
	FromAddress string
	FromName    string
	SMTPHost    string
	SMTPPort    int
	SMTPUser    string
	SMTPPass    string
	AdminNotify string // optional copy of every booking notification
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			Env:                getEnv("APP_ENV", "development"),
			TrustedProxies:     getEnv("TRUSTED_PROXIES", ""),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "brightpath"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", ""),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvInt("REDIS_DB", 0),
			TimeoutMs: getEnvInt("REDIS_TIMEOUT_MS", 2000),
		},
		Admin: AdminConfig{
			Password:        os.Getenv("ADMIN_PASSWORD"),
			PasswordHash:    os.Getenv("ADMIN_PASSWORD_HASH"),
			SessionSecret:   os.Getenv("ADMIN_SESSION_SECRET"),
			SessionTTLHours: getEnvInt("ADMIN_SESSION_TTL_HOURS", 24),
		},
		RateLimit: RateLimitConfig{
			WindowSec:   getEnvInt("LOGIN_RATE_LIMIT_WINDOW_SEC", 900),
			MaxAttempts: getEnvInt("LOGIN_RATE_LIMIT_MAX_ATTEMPTS", 5),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ContentBucket:   getEnv("AWS_S3_CONTENT_BUCKET", ""),
			SettingsKey:     getEnv("SITE_SETTINGS_KEY", "content/settings.json"),
		},
		Content: ContentConfig{
			SettingsFile:    getEnv("SITE_SETTINGS_FILE", "content/settings.json"),
			CacheTTLSeconds: getEnvInt("SITE_SETTINGS_CACHE_SEC", 60),
		},
		Email: EmailConfig{
			FromAddress: getEnv("EMAIL_FROM_ADDRESS", "noreply@example.com"),
			FromName:    getEnv("EMAIL_FROM_NAME", "Brightpath Tutoring"),
			SMTPHost:    getEnv("SMTP_HOST", ""),
			SMTPPort:    getEnvInt("SMTP_PORT", 587),
			SMTPUser:    getEnv("SMTP_USER", ""),
			SMTPPass:    getEnv("SMTP_PASS", ""),
			AdminNotify: getEnv("ADMIN_NOTIFY_EMAIL", ""),
		},
	}
	if cfg.RateLimit.WindowSec <= 0 {
		return nil, fmt.Errorf("LOGIN_RATE_LIMIT_WINDOW_SEC must be positive")
	}
	if cfg.RateLimit.MaxAttempts <= 0 {
		return nil, fmt.Errorf("LOGIN_RATE_LIMIT_MAX_ATTEMPTS must be positive")
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
