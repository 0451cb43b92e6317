// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// AdminConfig provides settings for the admin price-management API.
type AdminConfig interface {
	JWTConfig
	GetAccessTokenTTL() time.Duration
	GetAdminUser() string
	GetAdminPasswordHash() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// RedisConfig provides settings for the Redis connection.
type RedisConfig interface {
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	IsRedisEnabled() bool
}

// SessionConfig provides settings for the conversation session store.
type SessionConfig interface {
	GetSessionTTL() time.Duration
	GetSessionSnapshotPath() string
}

// DedupConfig provides settings for inbound message deduplication.
type DedupConfig interface {
	GetDedupWindow() time.Duration
}

// WhatsAppConfig provides settings for the outbound WhatsApp gateway.
type WhatsAppConfig interface {
	GetWhatsAppBaseURL() string
	GetWhatsAppUser() string
	GetWhatsAppPassword() string
	GetWhatsAppDeviceID() string
	IsWhatsAppEnabled() bool
}

// GeminiConfig provides settings for the fallback intent classifier.
type GeminiConfig interface {
	GetGeminiAPIKey() string
	GetGeminiModel() string
	GetGeminiTimeout() time.Duration
	IsGeminiEnabled() bool
}

// GotenbergConfig provides settings for the Gotenberg HTML-to-PDF service.
type GotenbergConfig interface {
	GetGotenbergURL() string
	GetGotenbergUsername() string
	GetGotenbergPassword() string
	IsGotenbergEnabled() bool
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketProformas() string
	IsMinIOEnabled() bool
}

// MailConfig provides SMTP settings for escalation notifications.
type MailConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUser() string
	GetSMTPPassword() string
	GetMailFrom() string
	GetSalesDeskAddress() string
	IsMailEnabled() bool
}

// RateLimitConfig provides settings for inbound message rate limiting.
type RateLimitConfig interface {
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL string

	JWTAccessSecret   string
	AccessTokenTTL    time.Duration
	AdminUser         string
	AdminPasswordHash string

	CORSAllowAll bool
	CORSOrigins  []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionTTL          time.Duration
	SessionSnapshotPath string
	DedupWindow         time.Duration

	WhatsAppBaseURL  string
	WhatsAppUser     string
	WhatsAppPassword string
	WhatsAppDeviceID string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiTimeout time.Duration

	GotenbergURL      string
	GotenbergUsername string
	GotenbergPassword string

	MinIOEndpoint        string
	MinIOAccessKey       string
	MinIOSecretKey       string
	MinIOUseSSL          bool
	MinioBucketProformas string

	SMTPHost         string
	SMTPPort         int
	SMTPUser         string
	SMTPPassword     string
	MailFrom         string
	SalesDeskAddress string

	RateLimitRPS   float64
	RateLimitBurst int

	PriceSeedPath string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig / AdminConfig implementation
func (c *Config) GetJWTAccessSecret() string       { return c.JWTAccessSecret }
func (c *Config) GetAccessTokenTTL() time.Duration { return c.AccessTokenTTL }
func (c *Config) GetAdminUser() string             { return c.AdminUser }
func (c *Config) GetAdminPasswordHash() string     { return c.AdminPasswordHash }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// RedisConfig implementation
func (c *Config) GetRedisAddr() string     { return c.RedisAddr }
func (c *Config) GetRedisPassword() string { return c.RedisPassword }
func (c *Config) GetRedisDB() int          { return c.RedisDB }
func (c *Config) IsRedisEnabled() bool     { return c.RedisAddr != "" }

// SessionConfig implementation
func (c *Config) GetSessionTTL() time.Duration   { return c.SessionTTL }
func (c *Config) GetSessionSnapshotPath() string { return c.SessionSnapshotPath }

// DedupConfig implementation
func (c *Config) GetDedupWindow() time.Duration { return c.DedupWindow }

// WhatsAppConfig implementation
func (c *Config) GetWhatsAppBaseURL() string  { return c.WhatsAppBaseURL }
func (c *Config) GetWhatsAppUser() string     { return c.WhatsAppUser }
func (c *Config) GetWhatsAppPassword() string { return c.WhatsAppPassword }
func (c *Config) GetWhatsAppDeviceID() string { return c.WhatsAppDeviceID }
func (c *Config) IsWhatsAppEnabled() bool     { return c.WhatsAppBaseURL != "" }

// GeminiConfig implementation
func (c *Config) GetGeminiAPIKey() string         { return c.GeminiAPIKey }
func (c *Config) GetGeminiModel() string          { return c.GeminiModel }
func (c *Config) GetGeminiTimeout() time.Duration { return c.GeminiTimeout }
func (c *Config) IsGeminiEnabled() bool           { return c.GeminiAPIKey != "" }

// GotenbergConfig implementation
func (c *Config) GetGotenbergURL() string      { return c.GotenbergURL }
func (c *Config) GetGotenbergUsername() string { return c.GotenbergUsername }
func (c *Config) GetGotenbergPassword() string { return c.GotenbergPassword }
func (c *Config) IsGotenbergEnabled() bool     { return c.GotenbergURL != "" }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string        { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string       { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string       { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool            { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketProformas() string { return c.MinioBucketProformas }
func (c *Config) IsMinIOEnabled() bool            { return c.MinIOEndpoint != "" }

// MailConfig implementation
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUser() string         { return c.SMTPUser }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetMailFrom() string         { return c.MailFrom }
func (c *Config) GetSalesDeskAddress() string { return c.SalesDeskAddress }
func (c *Config) IsMailEnabled() bool {
	return c.SMTPHost != "" && c.SalesDeskAddress != ""
}

// RateLimitConfig implementation
func (c *Config) GetRateLimitRPS() float64 { return c.RateLimitRPS }
func (c *Config) GetRateLimitBurst() int   { return c.RateLimitBurst }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTAccessSecret:   getEnv("JWT_ACCESS_SECRET", ""),
		AccessTokenTTL:    mustDuration(getEnv("JWT_ACCESS_TTL", "1h")),
		AdminUser:         getEnv("ADMIN_USER", "admin"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),

		CORSAllowAll: strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true"),
		CORSOrigins:  splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200")),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       int(mustInt64(getEnv("REDIS_DB", "0"))),

		SessionTTL:          mustDuration(getEnv("SESSION_TTL", "5m")),
		SessionSnapshotPath: getEnv("SESSION_SNAPSHOT_PATH", "data/sessions.json"),
		DedupWindow:         mustDuration(getEnv("DEDUP_WINDOW", "5m")),

		WhatsAppBaseURL:  getEnv("WHATSAPP_BASE_URL", ""),
		WhatsAppUser:     getEnv("WHATSAPP_BASIC_AUTH_USER", ""),
		WhatsAppPassword: getEnv("WHATSAPP_BASIC_AUTH_PASSWORD", ""),
		WhatsAppDeviceID: getEnv("WHATSAPP_DEVICE_ID", ""),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiTimeout: mustDuration(getEnv("GEMINI_TIMEOUT", "30s")),

		GotenbergURL:      getEnv("GOTENBERG_URL", ""),
		GotenbergUsername: getEnv("GOTENBERG_USERNAME", ""),
		GotenbergPassword: getEnv("GOTENBERG_PASSWORD", ""),

		MinIOEndpoint:        getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:       getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:       getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:          strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketProformas: getEnv("MINIO_BUCKET_PROFORMAS", "proformas"),

		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         int(mustInt64(getEnv("SMTP_PORT", "587"))),
		SMTPUser:         getEnv("SMTP_USER", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		MailFrom:         getEnv("MAIL_FROM", ""),
		SalesDeskAddress: getEnv("SALES_DESK_ADDRESS", ""),

		RateLimitRPS:   mustFloat(getEnv("RATE_LIMIT_RPS", "1")),
		RateLimitBurst: int(mustInt64(getEnv("RATE_LIMIT_BURST", "5"))),

		PriceSeedPath: getEnv("PRICE_SEED_PATH", ""),
	}

	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be a positive duration")
	}
	if cfg.DedupWindow <= 0 {
		return nil, fmt.Errorf("DEDUP_WINDOW must be a positive duration")
	}
	if cfg.DatabaseURL == "" && cfg.PriceSeedPath == "" {
		return nil, fmt.Errorf("either DATABASE_URL or PRICE_SEED_PATH is required")
	}
	if !strings.EqualFold(cfg.Env, "development") {
		if cfg.JWTAccessSecret == "" {
			return nil, fmt.Errorf("JWT_ACCESS_SECRET is required outside development")
		}
		if cfg.AdminPasswordHash == "" {
			return nil, fmt.Errorf("ADMIN_PASSWORD_HASH is required outside development")
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}
