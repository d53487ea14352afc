package models

import "time"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Ledger   LedgerConfig
	Cache    CacheConfig
	Server   ServerConfig
	Auth     AuthConfig
	Audit    AuditConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	BusyTimeout     time.Duration
	SeedDemoData    bool
}

// LedgerConfig holds rental ledger settings
type LedgerConfig struct {
	TariffFile             string
	LockTimeout            time.Duration
	AllowThirdPartyReturns bool
	// MaxDistance caps the distance a single return may report.
	MaxDistance            int64
}

// CacheConfig selects the bike status cache backend
type CacheConfig struct {
	Backend  string // none, memory, redis
	RedisURL string
	TTL      time.Duration
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// AuthConfig holds token and bootstrap admin settings
type AuthConfig struct {
	JwtSecret     string
	TokenTTL      time.Duration
	AdminEmail    string
	AdminPassword string
}

// AuditConfig controls the periodic occupancy audit. A zero interval disables it.
type AuditConfig struct {
	Interval time.Duration
}
