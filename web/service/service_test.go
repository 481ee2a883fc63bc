package service

import (
	"path/filepath"
	"testing"

	"github.com/seatbook/seatbook/config"
	"github.com/seatbook/seatbook/database"
	"github.com/seatbook/seatbook/database/model"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := config.GetDefaultDatabaseConfig()
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "test.db")
	cfg.Pool.Size = 4
	db, err := database.InitDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseDB(db) })
	return db
}

func createUser(t *testing.T, db *gorm.DB, login, password string) *model.User {
	t.Helper()
	u, err := NewUserService(db).CreateUser(login, "Test User", password, model.RoleUser)
	require.NoError(t, err)
	return u
}
