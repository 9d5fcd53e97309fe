package port

import (
	"context"

	"github.com/archivelabs/lenny/internal/core/model"
)

type ItemStore interface {
	// SaveItem creates or updates an item, or returns ErrAlreadyExists if
	// another item uses the same edition and encryption
	SaveItem(ctx context.Context, item model.Item) (model.PersistedItem, error)

	// GetItemByID returns the item with the given id, or ErrNotFound
	GetItemByID(ctx context.Context, id model.ItemID) (model.PersistedItem, error)

	// GetItemByEdition returns the item matching the edition and encryption, or ErrNotFound
	GetItemByEdition(ctx context.Context, edition model.Edition, encrypted bool) (model.PersistedItem, error)

	// QueryItems returns a page of items ordered by creation date and the total number of items
	QueryItems(ctx context.Context, opts QueryItemsOptions) ([]model.PersistedItem, int64, error)

	// DeleteItem deletes an item and its loans
	DeleteItem(ctx context.Context, id model.ItemID) error

	CountItems(ctx context.Context) (int64, error)
}

type QueryItemsOptions struct {
	Offset *int
	Limit  *int
	IDs    []model.ItemID
}
