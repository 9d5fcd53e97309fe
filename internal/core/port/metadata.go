package port

import (
	"context"

	"github.com/archivelabs/lenny/internal/core/model"
)

type Author struct {
	Name string
}

// EditionMetadata holds the bibliographic informations of an edition.
type EditionMetadata struct {
	Edition  model.Edition
	Title    string
	Authors  []Author
	Language []string
	CoverURL string
}

// MetadataProvider resolves bibliographic metadata for editions.
type MetadataProvider interface {
	// GetEditions returns the metadata found for the given editions. Editions
	// without metadata are absent from the returned map.
	GetEditions(ctx context.Context, editions ...model.Edition) (map[model.Edition]*EditionMetadata, error)
}
