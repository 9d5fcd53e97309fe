package openlibrary

import (
	"context"
	"log/slog"
	"strings"

	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/bornholm/go-x/slogx"
	"github.com/pkg/errors"
)

// GetEditions implements port.MetadataProvider.
//
// Search failures are logged and yield an empty result so that the catalog
// stays browsable when Open Library is unreachable.
func (c *Client) GetEditions(ctx context.Context, editions ...model.Edition) (map[model.Edition]*port.EditionMetadata, error) {
	metadata := make(map[model.Edition]*port.EditionMetadata, len(editions))

	if len(editions) == 0 {
		return metadata, nil
	}

	records, err := c.Search(ctx, EditionsQuery(editions...), WithSearchLimit(len(editions)), WithSearchMaxResults(len(editions)))
	if err != nil {
		slog.WarnContext(ctx, "could not retrieve editions metadata", slogx.Error(errors.WithStack(err)))
		return metadata, nil
	}

	for _, r := range records {
		edition, err := r.EditionNumber()
		if err != nil {
			slog.DebugContext(ctx, "ignoring record without edition", slog.String("key", r.Key))
			continue
		}

		authors := make([]port.Author, 0, len(r.AuthorName))
		for _, name := range r.AuthorName {
			authors = append(authors, port.Author{Name: name})
		}

		var language []string
		if e := r.Edition(); e != nil {
			language = e.Language
		}

		metadata[edition] = &port.EditionMetadata{
			Edition:  edition,
			Title:    r.DisplayTitle(),
			Authors:  authors,
			Language: language,
			CoverURL: r.CoverURL(c.coversURL),
		}
	}

	return metadata, nil
}

// EditionsQuery returns a search query matching all the given editions.
func EditionsQuery(editions ...model.Edition) string {
	olids := make([]string, 0, len(editions))
	for _, e := range editions {
		olids = append(olids, e.OLID())
	}

	return "edition_key:(" + strings.Join(olids, " OR ") + ")"
}

var _ port.MetadataProvider = &Client{}
