package service

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/archivelabs/lenny/internal/opds"
	"github.com/bornholm/go-x/slogx"
	"github.com/pkg/errors"
)

const (
	CatalogTitle     = "Lenny Catalog"
	ShelfTitle       = "My Bookshelf"
	ProfileTitle     = "User Profile"
	UntitledItem     = "Untitled"
	APIPrefix        = "/v1/api"
	authDocumentID   = "oauth/implicit"
	authDocumentDesc = "Sign in with your Open Library account to borrow books"
)

// ReaderLocator resolves the url opening a manifest in the web reader.
type ReaderLocator interface {
	ReaderURL(manifestURL string) string
}

// Catalog renders the items as OPDS 2.0 documents.
type Catalog struct {
	items    port.ItemStore
	lending  *Lending
	metadata port.MetadataProvider
	reader   ReaderLocator
	baseURL  *url.URL
}

// URL returns the absolute url of the given API path.
func (c *Catalog) URL(path ...string) string {
	return c.baseURL.JoinPath(append([]string{APIPrefix}, path...)...).String()
}

func (c *Catalog) Items(ctx context.Context, offset int, limit int) ([]model.PersistedItem, int64, error) {
	items, total, err := c.items.QueryItems(ctx, port.QueryItemsOptions{
		Offset: &offset,
		Limit:  &limit,
	})
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return items, total, nil
}

func (c *Catalog) Item(ctx context.Context, id model.ItemID) (model.PersistedItem, error) {
	item, err := c.items.GetItemByID(ctx, id)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return item, nil
}

func (c *Catalog) Feed(ctx context.Context, offset int, limit int) (*opds.Feed, error) {
	items, total, err := c.Items(ctx, offset, limit)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	publications, err := c.publications(ctx, items, c.Publication)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &opds.Feed{
		Metadata: opds.FeedMetadata{
			Title:         CatalogTitle,
			NumberOfItems: &total,
		},
		Links: []opds.Link{
			{Rel: opds.RelSelf, Href: c.URL("opds"), Type: opds.MediaTypeFeed},
		},
		Publications: publications,
	}, nil
}

type publicationFunc func(ctx context.Context, item model.PersistedItem, metadata *port.EditionMetadata) (*opds.Publication, error)

func (c *Catalog) publications(ctx context.Context, items []model.PersistedItem, fn publicationFunc) ([]opds.Publication, error) {
	metadata := c.editions(ctx, items...)

	publications := make([]opds.Publication, 0, len(items))
	for _, item := range items {
		publication, err := fn(ctx, item, metadata[item.Edition()])
		if err != nil {
			return nil, errors.WithStack(err)
		}

		publications = append(publications, *publication)
	}

	return publications, nil
}

func (c *Catalog) editions(ctx context.Context, items ...model.PersistedItem) map[model.Edition]*port.EditionMetadata {
	editions := make([]model.Edition, 0, len(items))
	for _, item := range items {
		editions = append(editions, item.Edition())
	}

	metadata, err := c.metadata.GetEditions(ctx, editions...)
	if err != nil {
		slog.WarnContext(ctx, "could not retrieve editions metadata", slogx.Error(err))
		return map[model.Edition]*port.EditionMetadata{}
	}

	return metadata
}

// ItemPublication returns the publication of a single item.
func (c *Catalog) ItemPublication(ctx context.Context, item model.PersistedItem) (*opds.Publication, error) {
	metadata := c.editions(ctx, item)
	return c.Publication(ctx, item, metadata[item.Edition()])
}

// Publication returns the OPDS publication of the item. The metadata may be nil.
func (c *Catalog) Publication(ctx context.Context, item model.PersistedItem, metadata *port.EditionMetadata) (*opds.Publication, error) {
	id := string(item.ID())

	publication := newPublication(item, metadata)
	publication.Links = []opds.Link{
		{Rel: opds.RelSelf, Href: c.URL("opds", id), Type: opds.MediaTypePublication},
	}

	if item.Encrypted() {
		available, err := c.lending.Available(ctx, item)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		state := opds.AvailabilityAvailable
		if available <= 0 || !item.Lendable() {
			state = opds.AvailabilityUnavailable
		}

		publication.Links = append(publication.Links, opds.Link{
			Rel:  opds.RelBorrow,
			Href: c.URL("items", id, "borrow"),
			Type: opds.MediaTypePublication,
			Properties: &opds.Properties{
				Authenticate: &opds.Link{
					Href: c.URL("oauth", "implicit"),
					Type: opds.MediaTypeAuthentication,
				},
				Availability: &opds.Availability{State: state},
				IndirectAcquisition: []opds.IndirectAcquisition{
					{
						Type:  opds.MediaTypeLCPLicense,
						Child: []opds.IndirectAcquisition{{Type: opds.MediaTypeEPUB}},
					},
				},
			},
		})
	} else {
		publication.Links = append(publication.Links, opds.Link{
			Rel:  opds.RelOpenAccess,
			Href: c.URL("items", id, "read"),
			Type: opds.MediaTypeHTML,
		})
	}

	return publication, nil
}

// BorrowedPublication returns the publication of an item borrowed by the
// patron, exposing the reading and returning links.
func (c *Catalog) BorrowedPublication(ctx context.Context, item model.PersistedItem, metadata *port.EditionMetadata) (*opds.Publication, error) {
	id := string(item.ID())

	publication := newPublication(item, metadata)
	publication.Links = []opds.Link{
		{Rel: opds.RelSelf, Href: c.URL("opds", id), Type: opds.MediaTypePublication},
		{
			Rel:  opds.RelAcquisition,
			Href: c.reader.ReaderURL(c.URL("items", id, "readium", "manifest.json")),
			Type: opds.MediaTypeHTML,
		},
		{Rel: opds.RelReturn, Href: c.URL("items", id, "return"), Type: opds.MediaTypeJSON},
		{Rel: opds.RelProfile, Href: c.URL("profile"), Type: opds.MediaTypeProfile},
	}

	return publication, nil
}

func (c *Catalog) BorrowedItemPublication(ctx context.Context, item model.PersistedItem) (*opds.Publication, error) {
	metadata := c.editions(ctx, item)
	return c.BorrowedPublication(ctx, item, metadata[item.Edition()])
}

func newPublication(item model.PersistedItem, metadata *port.EditionMetadata) *opds.Publication {
	modified := item.UpdatedAt()

	publication := &opds.Publication{
		Metadata: opds.PublicationMetadata{
			Type:       opds.TypeBook,
			Title:      UntitledItem,
			Identifier: item.Edition().OLID(),
			Modified:   &modified,
		},
	}

	if metadata == nil {
		return publication
	}

	if metadata.Title != "" {
		publication.Metadata.Title = metadata.Title
	}

	for _, a := range metadata.Authors {
		publication.Metadata.Author = append(publication.Metadata.Author, opds.Contributor{Name: a.Name})
	}

	publication.Metadata.Language = metadata.Language

	if metadata.CoverURL != "" {
		publication.Images = []opds.Link{
			{Rel: opds.RelImage, Href: metadata.CoverURL, Type: opds.MediaTypeJPEG},
		}
	}

	return publication
}

// AuthenticationDocument describes how OPDS readers obtain an access token.
func (c *Catalog) AuthenticationDocument() *opds.AuthenticationDocument {
	return &opds.AuthenticationDocument{
		ID:          c.URL(authDocumentID),
		Title:       CatalogTitle,
		Description: authDocumentDesc,
		Authentication: []opds.Authentication{
			{
				Type: opds.AuthTypeOAuthImplicit,
				Links: []opds.Link{
					{Rel: opds.RelAuthenticate, Href: c.URL("oauth", "authorize"), Type: opds.MediaTypeHTML},
					{Rel: opds.RelCode, Href: c.URL("oauth", "authorize"), Type: opds.MediaTypeHTML},
					{Rel: opds.RelRefresh, Href: c.URL("oauth", "token"), Type: opds.MediaTypeJSON},
				},
			},
		},
		Links: []opds.Link{
			{Rel: opds.RelProfile, Href: c.URL("profile"), Type: opds.MediaTypeProfile},
			{Rel: opds.RelShelf, Href: c.URL("shelf"), Type: opds.MediaTypeFeed},
			{Rel: opds.RelStart, Href: c.URL("opds"), Type: opds.MediaTypeFeed},
		},
	}
}

func (c *Catalog) Profile(ctx context.Context, email string) (*opds.Profile, error) {
	loans, err := c.lending.Loans(ctx, email)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	total := c.lending.MaxLoansPerPatron()

	return &opds.Profile{
		Metadata: opds.ProfileMetadata{
			Title: ProfileTitle,
			Type:  opds.TypePerson,
			Email: email,
		},
		Links: []opds.Link{
			{Rel: opds.RelSelf, Href: c.URL("profile"), Type: opds.MediaTypeProfile},
			{Rel: opds.RelStart, Href: c.URL("opds"), Type: opds.MediaTypeFeed},
			{Rel: opds.RelShelf, Href: c.URL("shelf"), Type: opds.MediaTypeFeed},
		},
		Loans: opds.Quota{
			Total:     total,
			Available: max(total-int64(len(loans)), 0),
		},
	}, nil
}

// Shelf returns the feed of the items currently borrowed by the patron.
func (c *Catalog) Shelf(ctx context.Context, email string) (*opds.Feed, error) {
	_, items, err := c.lending.LoanItems(ctx, email)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	publications, err := c.publications(ctx, items, c.BorrowedPublication)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	total := int64(len(publications))

	return &opds.Feed{
		Metadata: opds.FeedMetadata{
			Title:         ShelfTitle,
			NumberOfItems: &total,
		},
		Links: []opds.Link{
			{Rel: opds.RelSelf, Href: c.URL("shelf"), Type: opds.MediaTypeFeed},
			{Rel: opds.RelStart, Href: c.URL("opds"), Type: opds.MediaTypeFeed},
			{Rel: opds.RelProfile, Href: c.URL("profile"), Type: opds.MediaTypeProfile},
		},
		Publications: publications,
	}, nil
}

func NewCatalog(baseURL *url.URL, items port.ItemStore, lending *Lending, metadata port.MetadataProvider, reader ReaderLocator) *Catalog {
	return &Catalog{
		baseURL:  baseURL,
		items:    items,
		lending:  lending,
		metadata: metadata,
		reader:   reader,
	}
}
