package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pkg/errors"
)

// MetadataProvider keeps the editions metadata returned by its backend. Only
// found editions are cached.
type MetadataProvider struct {
	backend port.MetadataProvider
	cache   *expirable.LRU[string, *port.EditionMetadata]
}

// GetEditions implements port.MetadataProvider.
func (p *MetadataProvider) GetEditions(ctx context.Context, editions ...model.Edition) (map[model.Edition]*port.EditionMetadata, error) {
	metadata := make(map[model.Edition]*port.EditionMetadata, len(editions))
	missing := make([]model.Edition, 0)

	for _, e := range editions {
		if m, exists := p.cache.Get(editionKey(e)); exists {
			metadata[e] = m
			continue
		}

		missing = append(missing, e)
	}

	if len(missing) == 0 {
		return metadata, nil
	}

	fetched, err := p.backend.GetEditions(ctx, missing...)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	for e, m := range fetched {
		p.cache.Add(editionKey(e), m)
		metadata[e] = m
	}

	return metadata, nil
}

func editionKey(e model.Edition) string {
	return strconv.FormatInt(int64(e), 10)
}

func NewMetadataProvider(backend port.MetadataProvider, size int, ttl time.Duration) *MetadataProvider {
	return &MetadataProvider{
		backend: backend,
		cache:   expirable.NewLRU[string, *port.EditionMetadata](size, nil, ttl),
	}
}

var _ port.MetadataProvider = &MetadataProvider{}
