package setup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/archivelabs/lenny/internal/config"
	"github.com/ncruces/go-sqlite3/gormlite"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "github.com/ncruces/go-sqlite3/embed"
)

var getGormDatabaseFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (*gorm.DB, error) {
	return openDatabase(ctx, conf.Storage.Database, slog.Level(conf.Logger.Level))
})

func openDatabase(ctx context.Context, conf config.Database, level slog.Level) (*gorm.DB, error) {
	if err := ensureDatabaseDir(conf.DSN); err != nil {
		return nil, errors.WithStack(err)
	}

	var logLevel logger.LogLevel
	switch level {
	case slog.LevelWarn:
		logLevel = logger.Warn
	case slog.LevelInfo, slog.LevelDebug:
		logLevel = logger.Info
	default:
		logLevel = logger.Error
	}

	db, err := gorm.Open(gormlite.Open(conf.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "could not open database '%s'", conf.DSN)
	}

	if level == slog.LevelDebug {
		db = db.Debug()
	}

	internalDB, err := db.DB()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// A single connection serializes the loan availability checks
	internalDB.SetMaxOpenConns(1)

	pragmas := fmt.Sprintf("PRAGMA journal_mode=wal; PRAGMA foreign_keys=on; PRAGMA busy_timeout=%d", conf.BusyTimeout.Milliseconds())
	if err := db.Exec(pragmas).Error; err != nil {
		return nil, errors.WithStack(err)
	}

	slog.DebugContext(ctx, "database opened", slog.String("dsn", conf.DSN))

	return db, nil
}

// ensureDatabaseDir creates the parent directory of file databases.
func ensureDatabaseDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	path, _, _ = strings.Cut(path, "?")

	if path == "" || path == ":memory:" || strings.HasPrefix(dsn, "file::memory:") {
		return nil
	}

	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.Wrapf(err, "could not create database directory '%s'", dir)
	}

	return nil
}
