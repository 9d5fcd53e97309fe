package cache

import (
	"context"
	"testing"
	"time"

	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/pkg/errors"
)

type mapItemStore struct {
	items map[model.ItemID]model.PersistedItem
}

func (s *mapItemStore) SaveItem(ctx context.Context, item model.Item) (model.PersistedItem, error) {
	saved := &persistedItem{model.NewItem(item.ID(), item.Edition(), item.Encrypted(), item.Formats(), item.ObjectKey())}
	s.items[item.ID()] = saved
	return saved, nil
}

func (s *mapItemStore) GetItemByID(ctx context.Context, id model.ItemID) (model.PersistedItem, error) {
	item, exists := s.items[id]
	if !exists {
		return nil, errors.WithStack(port.ErrNotFound)
	}
	return item, nil
}

func (s *mapItemStore) GetItemByEdition(ctx context.Context, edition model.Edition, encrypted bool) (model.PersistedItem, error) {
	for _, item := range s.items {
		if item.Edition() == edition && item.Encrypted() == encrypted {
			return item, nil
		}
	}
	return nil, errors.WithStack(port.ErrNotFound)
}

func (s *mapItemStore) QueryItems(ctx context.Context, opts port.QueryItemsOptions) ([]model.PersistedItem, int64, error) {
	items := make([]model.PersistedItem, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	return items, int64(len(items)), nil
}

func (s *mapItemStore) DeleteItem(ctx context.Context, id model.ItemID) error {
	if _, exists := s.items[id]; !exists {
		return errors.WithStack(port.ErrNotFound)
	}
	delete(s.items, id)
	return nil
}

func (s *mapItemStore) CountItems(ctx context.Context) (int64, error) {
	return int64(len(s.items)), nil
}

var _ port.ItemStore = &mapItemStore{}

func TestItemStoreEviction(t *testing.T) {
	type testCase struct {
		Name    string
		Mutate  func(ctx context.Context, store *ItemStore) error
		Edition model.Edition
	}

	testCases := []testCase{
		{
			Name: "DeleteItem",
			Mutate: func(ctx context.Context, store *ItemStore) error {
				return store.DeleteItem(ctx, "item")
			},
			Edition: 12,
		},
		{
			Name: "SaveItemWithNewEdition",
			Mutate: func(ctx context.Context, store *ItemStore) error {
				_, err := store.SaveItem(ctx, model.NewItem("item", 13, true, model.FormatEPUB, "13_encrypted.epub"))
				return err
			},
			Edition: 12,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			ctx := t.Context()

			backend := &mapItemStore{items: map[model.ItemID]model.PersistedItem{}}
			store := NewItemStore(backend, 10, time.Minute)

			if _, err := store.SaveItem(ctx, model.NewItem("item", 12, true, model.FormatEPUB, "12_encrypted.epub")); err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			if _, err := store.GetItemByEdition(ctx, 12, true); err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			// The id entry leaves the cache on its own, the edition entry stays
			store.cache.cache.Remove(itemIDKey("item"))

			if _, exists := store.cache.Get(itemEditionKey(12, true)); !exists {
				t.Fatalf("expected item to be cached by edition")
			}

			if err := tc.Mutate(ctx, store); err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			if _, err := store.GetItemByEdition(ctx, tc.Edition, true); !errors.Is(err, port.ErrNotFound) {
				t.Errorf("GetItemByEdition(%d): expected port.ErrNotFound, got %+v", tc.Edition, err)
			}
		})
	}
}
