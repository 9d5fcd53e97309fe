package setup

import (
	"context"

	"github.com/archivelabs/lenny/internal/adapter/cache"
	"github.com/archivelabs/lenny/internal/config"
	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/pkg/errors"
)

var getItemStoreFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (port.ItemStore, error) {
	store, err := getGormStoreFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if !conf.Storage.Cache.Enabled {
		return store, nil
	}

	return cache.NewItemStore(store, conf.Storage.Cache.Size, conf.Storage.Cache.TTL), nil
})
