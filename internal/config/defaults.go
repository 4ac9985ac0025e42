package config

import "time"

const (
	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultDBHost  = "localhost"
	DefaultDBPort  = 5432
	DefaultDBName  = "riskradar"
	DefaultSSLMode = "disable"

	DefaultRedisAddr = "localhost:6379"

	DefaultAIModel     = "gpt-4o"
	DefaultAIMaxTokens = 8192

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills zero-value fields in cfg with well-known defaults.
// Fields already set by the caller are left unchanged so explicit
// configuration always wins.  Must run after unmarshalling and before
// Validate so optional-but-defaulted fields are never seen as missing.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = DefaultSSLMode
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 10
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = "migrations"
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "riskradar"
	}
	if cfg.Redis.StatsCacheTTL == 0 {
		cfg.Redis.StatsCacheTTL = time.Minute
	}

	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 7 * 24 * time.Hour
	}

	if cfg.AI.Model == "" {
		cfg.AI.Model = DefaultAIModel
	}
	if cfg.AI.MaxTokens == 0 {
		cfg.AI.MaxTokens = DefaultAIMaxTokens
	}
	if cfg.AI.CallTimeout == 0 {
		cfg.AI.CallTimeout = 5 * time.Minute
	}
	if cfg.AI.RunLockTTL == 0 {
		cfg.AI.RunLockTTL = 10 * time.Minute
	}

	if cfg.News.RetentionDays == 0 {
		cfg.News.RetentionDays = 90
	}
	if cfg.News.FirstScanWindowDays == 0 {
		cfg.News.FirstScanWindowDays = 30
	}
	if cfg.News.ReadMinRelevance == 0 {
		cfg.News.ReadMinRelevance = 6
	}
	if cfg.News.ScanMinRelevance == 0 {
		cfg.News.ScanMinRelevance = 5
	}
	if cfg.News.MaxAlertsPerScan == 0 {
		cfg.News.MaxAlertsPerScan = 20
	}
	if cfg.News.StaleAfter == 0 {
		cfg.News.StaleAfter = 4 * time.Hour
	}

	if cfg.Batch.MaxCompanies == 0 {
		cfg.Batch.MaxCompanies = 20
	}
	if cfg.Batch.MaxPortfolioAdd == 0 {
		cfg.Batch.MaxPortfolioAdd = 75
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
