package setup

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/archivelabs/lenny/internal/config"
	"github.com/pkg/errors"
)

func TestOpenDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data", "db")

	db, err := openDatabase(t.Context(), config.Database{
		DSN:         "file:" + filepath.Join(dir, "lenny.sqlite") + "?mode=rwc",
		BusyTimeout: 2 * time.Second,
	}, slog.LevelError)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("%+v", errors.WithStack(err))
	}

	var busyTimeout int64
	if err := db.Raw("PRAGMA busy_timeout").Scan(&busyTimeout).Error; err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := int64(2000), busyTimeout; e != g {
		t.Errorf("busy_timeout: expected %v, got %v", e, g)
	}
}

func TestEnsureDatabaseDir(t *testing.T) {
	root := t.TempDir()

	type testCase struct {
		DSN         string
		ExpectedDir string
	}

	testCases := []testCase{
		{DSN: ":memory:"},
		{DSN: "file::memory:?cache=shared"},
		{DSN: "lenny.sqlite"},
		{DSN: filepath.Join(root, "a", "lenny.sqlite"), ExpectedDir: filepath.Join(root, "a")},
		{DSN: "file:" + filepath.Join(root, "b", "lenny.sqlite") + "?mode=rwc", ExpectedDir: filepath.Join(root, "b")},
	}

	for _, tc := range testCases {
		t.Run(tc.DSN, func(t *testing.T) {
			if err := ensureDatabaseDir(tc.DSN); err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			if tc.ExpectedDir == "" {
				return
			}

			info, err := os.Stat(tc.ExpectedDir)
			if err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			if !info.IsDir() {
				t.Errorf("expected '%s' to be a directory", tc.ExpectedDir)
			}
		})
	}
}
