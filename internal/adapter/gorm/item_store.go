package gorm

import (
	"context"

	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaveItem implements port.ItemStore.
func (s *Store) SaveItem(ctx context.Context, item model.Item) (model.PersistedItem, error) {
	gormItem := fromItem(item)

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		var conflicts int64
		err := db.Model(&Item{}).
			Where("edition = ? AND encrypted = ? AND id <> ?", gormItem.Edition, gormItem.Encrypted, gormItem.ID).
			Count(&conflicts).Error
		if err != nil {
			return errors.WithStack(err)
		}

		if conflicts > 0 {
			return errors.WithStack(port.ErrAlreadyExists)
		}

		err = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"updated_at", "formats", "object_key", "lendable_copies", "lendable", "waitlistable", "print_disabled", "login_required"}),
		}).Create(gormItem).Error
		if err != nil {
			if isUniqueConstraintErr(err) {
				return errors.WithStack(port.ErrAlreadyExists)
			}

			return errors.WithStack(err)
		}

		if err := db.First(gormItem, "id = ?", gormItem.ID).Error; err != nil {
			return errors.WithStack(err)
		}

		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &wrappedItem{gormItem}, nil
}

// GetItemByID implements port.ItemStore.
func (s *Store) GetItemByID(ctx context.Context, id model.ItemID) (model.PersistedItem, error) {
	var item Item

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		if err := db.First(&item, "id = ?", string(id)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.WithStack(port.ErrNotFound)
			}

			return errors.WithStack(err)
		}

		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &wrappedItem{&item}, nil
}

// GetItemByEdition implements port.ItemStore.
func (s *Store) GetItemByEdition(ctx context.Context, edition model.Edition, encrypted bool) (model.PersistedItem, error) {
	var item Item

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		if err := db.First(&item, "edition = ? AND encrypted = ?", int64(edition), encrypted).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.WithStack(port.ErrNotFound)
			}

			return errors.WithStack(err)
		}

		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &wrappedItem{&item}, nil
}

// QueryItems implements port.ItemStore.
func (s *Store) QueryItems(ctx context.Context, opts port.QueryItemsOptions) ([]model.PersistedItem, int64, error) {
	var (
		items []*Item
		total int64
	)

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		query := db.Model(&Item{})

		if len(opts.IDs) > 0 {
			ids := make([]string, 0, len(opts.IDs))
			for _, id := range opts.IDs {
				ids = append(ids, string(id))
			}
			query = query.Where("id IN ?", ids)
		}

		if err := query.Count(&total).Error; err != nil {
			return errors.WithStack(err)
		}

		if opts.Offset != nil {
			query = query.Offset(*opts.Offset)
		}

		if opts.Limit != nil {
			query = query.Limit(*opts.Limit)
		}

		if err := query.Order("created_at ASC, id ASC").Find(&items).Error; err != nil {
			return errors.WithStack(err)
		}

		return nil
	})
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	wrappedItems := make([]model.PersistedItem, 0, len(items))
	for _, i := range items {
		wrappedItems = append(wrappedItems, &wrappedItem{i})
	}

	return wrappedItems, total, nil
}

// DeleteItem implements port.ItemStore.
func (s *Store) DeleteItem(ctx context.Context, id model.ItemID) error {
	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		if err := db.Delete(&Loan{}, "item_id = ?", string(id)).Error; err != nil {
			return errors.WithStack(err)
		}

		result := db.Delete(&Item{}, "id = ?", string(id))
		if result.Error != nil {
			return errors.WithStack(result.Error)
		}

		if result.RowsAffected == 0 {
			return errors.WithStack(port.ErrNotFound)
		}

		return nil
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// CountItems implements port.ItemStore.
func (s *Store) CountItems(ctx context.Context) (int64, error) {
	var total int64

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		if err := db.Model(&Item{}).Count(&total).Error; err != nil {
			return errors.WithStack(err)
		}

		return nil
	})
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return total, nil
}
