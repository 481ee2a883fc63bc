package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDatabaseConfigFromEnv(t *testing.T) {
	t.Setenv("SEATBOOK_DB_TYPE", "postgres")
	t.Setenv("SEATBOOK_PG_HOST", "db.internal")
	t.Setenv("SEATBOOK_PG_PORT", "6432")
	t.Setenv("SEATBOOK_POOL_SIZE", "4")
	t.Setenv("SEATBOOK_POOL_ACQUIRE_TIMEOUT", "250ms")

	c := GetDatabaseConfig()
	require.NoError(t, c.ValidateConfig())
	assert.True(t, c.IsPostgreSQL())
	assert.Equal(t, "db.internal", c.Postgres.Host)
	assert.Equal(t, 6432, c.Postgres.Port)
	assert.Equal(t, 4, c.Pool.Size)
	assert.Equal(t, 250*time.Millisecond, c.Pool.AcquireTimeout)
	assert.Contains(t, c.GetDSN(), "host=db.internal")
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *DatabaseConfig)
		wantErr bool
	}{
		{"defaults", func(c *DatabaseConfig) {}, false},
		{"empty sqlite path", func(c *DatabaseConfig) { c.SQLite.Path = "" }, true},
		{"unknown type", func(c *DatabaseConfig) { c.Type = "mysql" }, true},
		{"bad postgres port", func(c *DatabaseConfig) {
			c.Type = DatabaseTypePostgreSQL
			c.Postgres.Port = 70000
		}, true},
		{"zero pool", func(c *DatabaseConfig) { c.Pool.Size = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := GetDefaultDatabaseConfig()
			tt.mutate(c)
			err := c.ValidateConfig()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSessionCookieMaxAgeNeverOutlivesSession(t *testing.T) {
	t.Setenv("SEATBOOK_SESSION_LIFETIME", "2h")
	t.Setenv("SEATBOOK_SESSION_COOKIE_MAX_AGE", "24h")
	assert.Equal(t, 2*time.Hour, GetSessionCookieMaxAge())

	t.Setenv("SEATBOOK_SESSION_LIFETIME", "")
	assert.Equal(t, 24*time.Hour, GetSessionCookieMaxAge())
}

func TestGetSessionLifetime(t *testing.T) {
	tests := []struct {
		value   string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"1s", time.Second, false},
		{"12h", 12 * time.Hour, false},
		{"-1h", 0, true},
		{"500ms", 0, true},
		{"forever", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("SEATBOOK_SESSION_LIFETIME", tt.value)
			got, err := GetSessionLifetime()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetNameScripts(t *testing.T) {
	t.Setenv("SEATBOOK_NAME_SCRIPTS", " Latin , ,Greek")
	assert.Equal(t, []string{"Latin", "Greek"}, GetNameScripts())
}

func TestLoadEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SEATBOOK_PORT=9090\nSEATBOOK_LANG=en-US\n"), 0o600))

	t.Setenv("SEATBOOK_LANG", "ru-RU")
	t.Setenv("SEATBOOK_PORT", "")
	os.Unsetenv("SEATBOOK_PORT")
	require.NoError(t, LoadEnv(envFile, filepath.Join(dir, "missing.env")))
	t.Cleanup(func() { os.Unsetenv("SEATBOOK_PORT") })

	assert.Equal(t, 9090, GetPort())
	assert.Equal(t, "ru-RU", GetLang())
}
