// Package database opens the relational store, migrates its schema and hands out
// pooled connections to requests.
package database

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/seatbook/seatbook/config"
	"github.com/seatbook/seatbook/database/model"
	"github.com/seatbook/seatbook/logger"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const sqliteParams = "_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=5000"

func initModels(db *gorm.DB) error {
	models := []any{
		&model.User{},
		&model.Session{},
		&model.Seat{},
	}
	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			logger.Errorf("Error auto migrating model %T: %v", m, err)
			return err
		}
	}
	return nil
}

func dialector(cfg *config.DatabaseConfig) gorm.Dialector {
	if cfg.IsPostgreSQL() {
		return postgres.Open(cfg.GetDSN())
	}
	dsn := cfg.GetDSN()
	if strings.Contains(dsn, "?") {
		dsn += "&" + sqliteParams
	} else {
		dsn += "?" + sqliteParams
	}
	return sqlite.Open(dsn)
}

// InitDB opens the configured store, bounds its connection pool and migrates the
// schema.
func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	if err := cfg.ValidateConfig(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectoryExists(); err != nil {
		return nil, err
	}
	if cfg.IsSQLite() {
		if err := checkSQLiteFile(cfg.SQLite.Path); err != nil {
			return nil, err
		}
	}

	var gormLogger gormlogger.Interface
	if config.IsDebug() {
		gormLogger = gormlogger.Default
	} else {
		gormLogger = gormlogger.Discard
	}

	c := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}

	db, err := gorm.Open(dialector(cfg), c)
	if err != nil {
		return nil, Translate(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.Pool.Size)
	sqlDB.SetMaxIdleConns(cfg.Pool.Size)

	if err := initModels(db); err != nil {
		_ = sqlDB.Close()
		return nil, Translate(err)
	}
	return db, nil
}

// CloseDB checkpoints the sqlite WAL, if any, and closes the pool.
func CloseDB(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	if db.Dialector.Name() == "sqlite" {
		if err := db.Exec("PRAGMA wal_checkpoint;").Error; err != nil {
			logger.Warning("error executing checkpoint: ", err)
		}
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// checkSQLiteFile refuses to open an existing non-empty file that is not a
// sqlite database. A missing or empty file is created by the driver.
func checkSQLiteFile(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return nil
	}
	ok, err := IsSQLiteDB(f)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if !ok {
		return fmt.Errorf("%s is not a sqlite database", path)
	}
	return nil
}

// IsSQLiteDB reports whether file starts with the sqlite header.
func IsSQLiteDB(file io.ReaderAt) (bool, error) {
	signature := []byte("SQLite format 3\x00")
	buf := make([]byte, len(signature))
	_, err := file.ReadAt(buf, 0)
	if err != nil {
		return false, err
	}
	return bytes.Equal(buf, signature), nil
}
