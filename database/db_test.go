package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/seatbook/seatbook/config"
	"github.com/seatbook/seatbook/database/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T, poolSize int) *gorm.DB {
	t.Helper()
	cfg := config.GetDefaultDatabaseConfig()
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "test.db")
	cfg.Pool.Size = poolSize
	db, err := InitDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDB(db) })
	return db
}

func TestInitDBCreatesSchema(t *testing.T) {
	db := openTestDB(t, 2)
	for _, table := range []string{"users", "sessions", "seats"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestInitDBRejectsInvalidConfig(t *testing.T) {
	cfg := config.GetDefaultDatabaseConfig()
	cfg.SQLite.Path = ""
	_, err := InitDB(cfg)
	assert.Error(t, err)
}

func TestUniqueLoginIsTranslated(t *testing.T) {
	db := openTestDB(t, 2)
	require.NoError(t, db.Create(&model.User{Login: "ivan", Name: "Ivan", PasswordHash: "x"}).Error)
	err := db.Create(&model.User{Login: "ivan", Name: "Other", PasswordHash: "y"}).Error
	assert.ErrorIs(t, Translate(err), gorm.ErrDuplicatedKey)
}

func TestDeletingUserCascadesToSessions(t *testing.T) {
	db := openTestDB(t, 2)
	u := &model.User{Login: "ivan", Name: "Ivan", PasswordHash: "x"}
	require.NoError(t, db.Create(u).Error)
	require.NoError(t, db.Create(&model.Session{Token: "t1", UserId: u.Id}).Error)

	require.NoError(t, db.Delete(&model.User{}, u.Id).Error)

	var n int64
	require.NoError(t, db.Model(&model.Session{}).Where("user_id = ?", u.Id).Count(&n).Error)
	assert.Zero(t, n)
}

func TestSessionForMissingUserIsRejected(t *testing.T) {
	db := openTestDB(t, 2)
	err := db.Create(&model.Session{Token: "t1", UserId: 42}).Error
	assert.ErrorIs(t, Translate(err), gorm.ErrForeignKeyViolated)
}

func TestPoolAcquireAndRelease(t *testing.T) {
	db := openTestDB(t, 1)
	pool, err := NewPool(db, 50*time.Millisecond)
	require.NoError(t, err)

	conn, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	var one int
	require.NoError(t, conn.DB().Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)

	_, err = pool.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrPoolExhausted)

	require.NoError(t, conn.Release())
	require.NoError(t, conn.Release())

	again, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	defer again.Release()
	assert.Equal(t, 1, pool.Stats().InUse)
}

func TestPoolAcquireCanceledByCaller(t *testing.T) {
	db := openTestDB(t, 1)
	pool, err := NewPool(db, time.Second)
	require.NoError(t, err)

	held, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	defer held.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = pool.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrPoolExhausted)
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, Translate(nil))
	assert.ErrorIs(t, Translate(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, Translate(context.Canceled), context.Canceled)

	decodeErr := &model.DecodeError{Entity: "user", Field: "login"}
	var target *model.DecodeError
	assert.True(t, errors.As(Translate(decodeErr), &target))

	cause := errors.New("connection refused")
	err := Translate(cause)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, cause)
}

func TestQueryPanicsOnUnknownName(t *testing.T) {
	assert.NotEmpty(t, Query("session_user"))
	assert.Panics(t, func() { Query("drop_everything") })
}

func TestIsSQLiteDB(t *testing.T) {
	cfg := config.GetDefaultDatabaseConfig()
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "header.db")
	db, err := InitDB(cfg)
	require.NoError(t, err)
	require.NoError(t, CloseDB(db))

	f, err := os.Open(cfg.SQLite.Path)
	require.NoError(t, err)
	defer f.Close()
	ok, err := IsSQLiteDB(f)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInitDBRefusesForeignFile(t *testing.T) {
	cfg := config.GetDefaultDatabaseConfig()
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "notes.db")
	require.NoError(t, os.WriteFile(cfg.SQLite.Path, []byte("just some notes, not a database\n"), 0o600))

	_, err := InitDB(cfg)
	assert.ErrorContains(t, err, "not a sqlite database")

	// a short file is rejected too
	require.NoError(t, os.WriteFile(cfg.SQLite.Path, []byte("x"), 0o600))
	_, err = InitDB(cfg)
	assert.ErrorContains(t, err, "not a sqlite database")
}
