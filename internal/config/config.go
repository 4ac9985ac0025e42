// Package config defines all configuration structures for riskradar.
// No I/O or parsing logic lives here, only plain data types and validation.
package config

import (
	"fmt"
	"time"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	StatsCacheTTL time.Duration `mapstructure:"stats_cache_ttl"`
}

// AuthConfig holds token issuance parameters.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// AIConfig holds parameters for the external LLM capability.
type AIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
	RunLockTTL  time.Duration `mapstructure:"run_lock_ttl"`
}

// NewsConfig holds news scan policy parameters.
type NewsConfig struct {
	RetentionDays       int           `mapstructure:"retention_days"`
	FirstScanWindowDays int           `mapstructure:"first_scan_window_days"`
	ReadMinRelevance    int           `mapstructure:"read_min_relevance"`
	ScanMinRelevance    int           `mapstructure:"scan_min_relevance"`
	MaxAlertsPerScan    int           `mapstructure:"max_alerts_per_scan"`
	StaleAfter          time.Duration `mapstructure:"stale_after"`
}

// BatchConfig holds batch entry-point caps.
type BatchConfig struct {
	MaxCompanies    int `mapstructure:"max_companies"`
	MaxPortfolioAdd int `mapstructure:"max_portfolio_add"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
}

// Config is the root configuration for the service.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	AI       AIConfig       `mapstructure:"ai"`
	News     NewsConfig     `mapstructure:"news"`
	Batch    BatchConfig    `mapstructure:"batch"`
	Log      LogConfig      `mapstructure:"log"`
}

// Validate checks cross-field invariants that defaults cannot repair.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in (0, 65535], got %d", c.Server.Port)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.AI.APIKey == "" {
		return fmt.Errorf("ai.api_key is required")
	}
	if c.News.ScanMinRelevance > c.News.ReadMinRelevance {
		return fmt.Errorf("news.scan_min_relevance (%d) must not exceed news.read_min_relevance (%d)",
			c.News.ScanMinRelevance, c.News.ReadMinRelevance)
	}
	if c.Batch.MaxCompanies <= 0 || c.Batch.MaxPortfolioAdd <= 0 {
		return fmt.Errorf("batch caps must be positive")
	}
	return nil
}
