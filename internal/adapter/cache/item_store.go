package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/pkg/errors"
)

type CacheableItem struct {
	model.PersistedItem
}

// CacheKeys implements Cacheable.
func (i *CacheableItem) CacheKeys() []string {
	return []string{
		itemIDKey(i.ID()),
		itemEditionKey(i.Edition(), i.Encrypted()),
	}
}

func itemIDKey(id model.ItemID) string {
	return "id:" + string(id)
}

func itemEditionKey(edition model.Edition, encrypted bool) string {
	return fmt.Sprintf("edition:%d:%v", edition, encrypted)
}

var _ Cacheable = &CacheableItem{}

// ItemStore caches the items read by id or edition. Queries are not cached.
type ItemStore struct {
	backend port.ItemStore
	cache   *MultiIndexCache[*CacheableItem]
}

// SaveItem implements port.ItemStore.
func (s *ItemStore) SaveItem(ctx context.Context, item model.Item) (model.PersistedItem, error) {
	if err := s.evict(ctx, item.ID()); err != nil {
		return nil, errors.WithStack(err)
	}

	s.cache.Remove(itemEditionKey(item.Edition(), item.Encrypted()))

	saved, err := s.backend.SaveItem(ctx, item)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	s.cache.Add(&CacheableItem{saved})

	return saved, nil
}

// GetItemByID implements port.ItemStore.
func (s *ItemStore) GetItemByID(ctx context.Context, id model.ItemID) (model.PersistedItem, error) {
	if cached, exists := s.cache.Get(itemIDKey(id)); exists {
		return cached.PersistedItem, nil
	}

	item, err := s.backend.GetItemByID(ctx, id)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	s.cache.Add(&CacheableItem{item})

	return item, nil
}

// GetItemByEdition implements port.ItemStore.
func (s *ItemStore) GetItemByEdition(ctx context.Context, edition model.Edition, encrypted bool) (model.PersistedItem, error) {
	if cached, exists := s.cache.Get(itemEditionKey(edition, encrypted)); exists {
		return cached.PersistedItem, nil
	}

	item, err := s.backend.GetItemByEdition(ctx, edition, encrypted)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	s.cache.Add(&CacheableItem{item})

	return item, nil
}

// QueryItems implements port.ItemStore.
func (s *ItemStore) QueryItems(ctx context.Context, opts port.QueryItemsOptions) ([]model.PersistedItem, int64, error) {
	items, total, err := s.backend.QueryItems(ctx, opts)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return items, total, nil
}

// DeleteItem implements port.ItemStore.
func (s *ItemStore) DeleteItem(ctx context.Context, id model.ItemID) error {
	if err := s.evict(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	if err := s.backend.DeleteItem(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// evict removes every key of the stored item, including the ones whose
// sibling entry was already evicted from the cache.
func (s *ItemStore) evict(ctx context.Context, id model.ItemID) error {
	keys := []string{itemIDKey(id)}

	stored, err := s.backend.GetItemByID(ctx, id)
	if err != nil && !errors.Is(err, port.ErrNotFound) {
		return errors.WithStack(err)
	}

	if stored != nil {
		keys = append(keys, itemEditionKey(stored.Edition(), stored.Encrypted()))
	}

	s.cache.Remove(keys...)

	return nil
}

// CountItems implements port.ItemStore.
func (s *ItemStore) CountItems(ctx context.Context) (int64, error) {
	total, err := s.backend.CountItems(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return total, nil
}

func NewItemStore(backend port.ItemStore, size int, ttl time.Duration) *ItemStore {
	return &ItemStore{
		backend: backend,
		cache:   NewMultiIndexCache[*CacheableItem](size, ttl),
	}
}

var _ port.ItemStore = &ItemStore{}
