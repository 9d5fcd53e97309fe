package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"testing"

	gormAdapter "github.com/archivelabs/lenny/internal/adapter/gorm"
	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/ncruces/go-sqlite3/gormlite"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "github.com/ncruces/go-sqlite3/embed"
)

var testSeed = []byte("test seed")

func newTestStore(t *testing.T) *gormAdapter.Store {
	dsn := fmt.Sprintf("file:%s", filepath.Join(t.TempDir(), "test.sqlite"))

	db, err := gorm.Open(gormlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if err := db.Exec("PRAGMA foreign_keys=on").Error; err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err != nil {
			return
		}

		sqlDB.Close()
	})

	return gormAdapter.NewStore(db)
}

func countObjects(t *testing.T, bookshelf port.Bookshelf) int {
	count := 0
	for _, err := range bookshelf.Keys(t.Context(), "") {
		if err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}

		count++
	}

	return count
}

func readObject(t *testing.T, bookshelf port.Bookshelf, key string) []byte {
	r, err := bookshelf.Get(t.Context(), key)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	return data
}

type staticMetadataProvider map[model.Edition]*port.EditionMetadata

// GetEditions implements port.MetadataProvider.
func (p staticMetadataProvider) GetEditions(ctx context.Context, editions ...model.Edition) (map[model.Edition]*port.EditionMetadata, error) {
	results := map[model.Edition]*port.EditionMetadata{}
	for _, e := range editions {
		if m, exists := p[e]; exists {
			results[e] = m
		}
	}

	return results, nil
}

func saveTestItem(t *testing.T, store port.ItemStore, edition model.Edition, encrypted bool, funcs ...model.ItemOptionFunc) model.PersistedItem {
	item, err := store.SaveItem(t.Context(), model.NewItem(model.NewItemID(), edition, encrypted, model.FormatEPUB, model.ObjectKey(edition, encrypted, ".epub"), funcs...))
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	return item
}
