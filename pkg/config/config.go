package config

import (
	"fmt"
	"sort"
	"time"
)

// Config holds runtime configuration for the mailstore bot.
type Config struct {
	AppEnv string

	Bot       BotConfig       `mapstructure:"bot" validate:"required"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Store     StoreConfig     `mapstructure:"store" validate:"required"`
	Broadcast BroadcastConfig `mapstructure:"broadcast"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Flow      FlowConfig      `mapstructure:"flow"`
}

// BotConfig configures the telegram transport.
type BotConfig struct {
	Token   string        `mapstructure:"token" validate:"required"`
	AdminID int64         `mapstructure:"admin_id" validate:"required"`
	Mode    string        `mapstructure:"mode" validate:"oneof=polling webhook"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ServerConfig configures the observability HTTP server.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig configures the Postgres ledger store.
type DatabaseConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     string `mapstructure:"port" validate:"required"`
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`
	Name     string `mapstructure:"name" validate:"required"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN returns the Postgres connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// RedisConfig configures the optional Redis backend used for flow storage
// and callback deduplication. Disabled when Addr is empty.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether a Redis backend is configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// LoggerConfig controls slog output.
type LoggerConfig struct {
	Level      string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"omitempty,oneof=text json"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// SentryConfig controls error reporting.
type SentryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn" validate:"required_if=Enabled true"`
}

// StoreConfig describes the sellable catalog and deposit rules.
type StoreConfig struct {
	// Catalog maps a service name to its unit price in minor units (1 tk = 100).
	Catalog        map[string]int64 `mapstructure:"catalog" validate:"required,min=1"`
	MinDeposit     int64            `mapstructure:"min_deposit"`
	BkashNumber    string           `mapstructure:"bkash_number"`
	NagadNumber    string           `mapstructure:"nagad_number"`
	DocumentFrom   int              `mapstructure:"document_from"`
	UploadMaxLines int              `mapstructure:"upload_max_lines"`
}

// Price returns the unit price for a service and whether it is sold at all.
func (c StoreConfig) Price(service string) (int64, bool) {
	price, ok := c.Catalog[service]
	return price, ok
}

// Services lists catalog service names in a stable order.
func (c StoreConfig) Services() []string {
	services := make([]string, 0, len(c.Catalog))
	for service := range c.Catalog {
		services = append(services, service)
	}
	sort.Strings(services)
	return services
}

// PaymentNumber returns the receiving wallet number for a payment method.
func (c StoreConfig) PaymentNumber(method string) (string, bool) {
	switch method {
	case "bkash":
		return c.BkashNumber, true
	case "nagad":
		return c.NagadNumber, true
	default:
		return "", false
	}
}

// BroadcastConfig tunes the notification dispatcher.
type BroadcastConfig struct {
	SendTimeout time.Duration `mapstructure:"send_timeout"`
	Pace        time.Duration `mapstructure:"pace"`
}

// RateLimitConfig tunes the per-user sliding window limiter.
type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Limit   int           `mapstructure:"limit"`
	Window  time.Duration `mapstructure:"window"`
}

// FlowConfig tunes the conversation flow tracker.
type FlowConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

func (c *Config) applyDefaults() {
	if c.Bot.Mode == "" {
		c.Bot.Mode = "polling"
	}
	if c.Bot.Timeout <= 0 {
		c.Bot.Timeout = 10 * time.Second
	}
	if c.Server.Port == "" {
		c.Server.Port = ":9090"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "text"
	}
	if c.Logger.MaxSizeMB <= 0 {
		c.Logger.MaxSizeMB = 50
	}
	if c.Logger.MaxBackups <= 0 {
		c.Logger.MaxBackups = 3
	}
	if c.Store.MinDeposit <= 0 {
		c.Store.MinDeposit = 2000 // 20.00 tk
	}
	if c.Store.DocumentFrom <= 0 {
		c.Store.DocumentFrom = 5
	}
	if c.Store.UploadMaxLines <= 0 {
		c.Store.UploadMaxLines = 10000
	}
	if c.Broadcast.SendTimeout <= 0 {
		c.Broadcast.SendTimeout = 5 * time.Second
	}
	if c.Broadcast.Pace <= 0 {
		c.Broadcast.Pace = 50 * time.Millisecond
	}
	if c.RateLimit.Limit <= 0 {
		c.RateLimit.Limit = 20
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = time.Minute
	}
	if c.Flow.TTL <= 0 {
		c.Flow.TTL = time.Hour
	}
	if c.Flow.CleanupInterval <= 0 {
		c.Flow.CleanupInterval = 10 * time.Minute
	}
}
