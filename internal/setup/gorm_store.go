package setup

import (
	"context"

	gormAdapter "github.com/archivelabs/lenny/internal/adapter/gorm"
	"github.com/archivelabs/lenny/internal/config"
	"github.com/pkg/errors"
)

var getGormStoreFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (*gormAdapter.Store, error) {
	db, err := getGormDatabaseFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return gormAdapter.NewStore(db), nil
})

// NewClientStoreFromConfig returns the store of the OAuth clients, for the
// operator commands.
func NewClientStoreFromConfig(ctx context.Context, conf *config.Config) (*gormAdapter.Store, error) {
	store, err := getGormStoreFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return store, nil
}
