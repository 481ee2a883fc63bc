package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DatabaseType represents the type of database
type DatabaseType string

const (
	DatabaseTypeSQLite     DatabaseType = "sqlite"
	DatabaseTypePostgreSQL DatabaseType = "postgres"
)

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Type     DatabaseType   `json:"type"`
	SQLite   SQLiteConfig   `json:"sqlite"`
	Postgres PostgresConfig `json:"postgres"`
	Pool     PoolConfig     `json:"pool"`
}

// SQLiteConfig holds SQLite specific configuration
type SQLiteConfig struct {
	Path string `json:"path"`
}

// PostgresConfig holds PostgreSQL specific configuration
type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
	SSLMode  string `json:"sslMode"`
	TimeZone string `json:"timeZone"`
}

// PoolConfig bounds the connection pool shared by all requests.
type PoolConfig struct {
	// Size is the maximum number of open connections.
	Size int `json:"size"`
	// AcquireTimeout is how long a request waits for a free connection
	// before the pool is reported as exhausted.
	AcquireTimeout time.Duration `json:"acquireTimeout"`
}

// GetDSN returns the data source name for the database
func (c *DatabaseConfig) GetDSN() string {
	switch c.Type {
	case DatabaseTypeSQLite:
		return c.SQLite.Path
	case DatabaseTypePostgreSQL:
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
			c.Postgres.Host,
			c.Postgres.Username,
			c.Postgres.Password,
			c.Postgres.Database,
			c.Postgres.Port,
			c.Postgres.SSLMode,
			c.Postgres.TimeZone,
		)
	default:
		return c.SQLite.Path
	}
}

// GetDefaultDatabaseConfig returns default database configuration
func GetDefaultDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Type: DatabaseTypeSQLite,
		SQLite: SQLiteConfig{
			Path: getDefaultSQLitePath(),
		},
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "seatbook",
			Username: "seatbook",
			Password: "",
			SSLMode:  "disable",
			TimeZone: "UTC",
		},
		Pool: PoolConfig{
			Size:           defaultPoolSize,
			AcquireTimeout: defaultPoolAcquireTimeout,
		},
	}
}

// GetDatabaseConfig returns the default configuration overridden by SEATBOOK_DB_* and
// SEATBOOK_PG_* environment variables.
func GetDatabaseConfig() *DatabaseConfig {
	c := GetDefaultDatabaseConfig()
	c.Type = DatabaseType(getEnv("SEATBOOK_DB_TYPE", string(c.Type)))
	c.SQLite.Path = getEnv("SEATBOOK_DB_PATH", c.SQLite.Path)

	c.Postgres.Host = getEnv("SEATBOOK_PG_HOST", c.Postgres.Host)
	c.Postgres.Port = getEnvInt("SEATBOOK_PG_PORT", c.Postgres.Port)
	c.Postgres.Database = getEnv("SEATBOOK_PG_DB", c.Postgres.Database)
	c.Postgres.Username = getEnv("SEATBOOK_PG_USER", c.Postgres.Username)
	c.Postgres.Password = getEnv("SEATBOOK_PG_PASSWORD", c.Postgres.Password)
	c.Postgres.SSLMode = getEnv("SEATBOOK_PG_SSLMODE", c.Postgres.SSLMode)
	c.Postgres.TimeZone = getEnv("SEATBOOK_PG_TIMEZONE", c.Postgres.TimeZone)

	c.Pool.Size = getEnvInt("SEATBOOK_POOL_SIZE", c.Pool.Size)
	c.Pool.AcquireTimeout = getEnvDuration("SEATBOOK_POOL_ACQUIRE_TIMEOUT", c.Pool.AcquireTimeout)
	return c
}

// getDefaultSQLitePath returns the default SQLite database path
func getDefaultSQLitePath() string {
	if IsDebug() {
		return "db/seatbook.db"
	}
	return filepath.Join(GetDBFolderPath(), GetName()+".db")
}

// ValidateConfig validates the database configuration
func (c *DatabaseConfig) ValidateConfig() error {
	switch c.Type {
	case DatabaseTypeSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("SQLite path cannot be empty")
		}
	case DatabaseTypePostgreSQL:
		if c.Postgres.Host == "" {
			return fmt.Errorf("PostgreSQL host cannot be empty")
		}
		if c.Postgres.Database == "" {
			return fmt.Errorf("PostgreSQL database name cannot be empty")
		}
		if c.Postgres.Username == "" {
			return fmt.Errorf("PostgreSQL username cannot be empty")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			return fmt.Errorf("PostgreSQL port must be between 1 and 65535")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Type)
	}
	if c.Pool.Size <= 0 {
		return fmt.Errorf("pool size must be positive")
	}
	if c.Pool.AcquireTimeout <= 0 {
		return fmt.Errorf("pool acquire timeout must be positive")
	}
	return nil
}

// IsPostgreSQL returns true if the database type is PostgreSQL
func (c *DatabaseConfig) IsPostgreSQL() bool {
	return c.Type == DatabaseTypePostgreSQL
}

// IsSQLite returns true if the database type is SQLite
func (c *DatabaseConfig) IsSQLite() bool {
	return c.Type == DatabaseTypeSQLite
}

// EnsureDirectoryExists ensures the directory for SQLite database exists
func (c *DatabaseConfig) EnsureDirectoryExists() error {
	if c.Type == DatabaseTypeSQLite {
		dir := filepath.Dir(c.SQLite.Path)
		return os.MkdirAll(dir, 0755)
	}
	return nil
}
