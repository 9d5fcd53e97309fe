package setup

import (
	"context"
	"net/url"

	"github.com/archivelabs/lenny/internal/config"
	"github.com/archivelabs/lenny/internal/core/service"
	"github.com/pkg/errors"
)

var getLendingFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (*service.Lending, error) {
	items, err := getItemStoreFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create item store from config")
	}

	store, err := getGormStoreFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create loan store from config")
	}

	lending := service.NewLending(
		items, store, []byte(conf.Auth.Seed),
		service.WithLoanDuration(conf.Lending.LoanDuration),
		service.WithMaxLoansPerPatron(conf.Lending.MaxLoansPerPatron),
	)

	return lending, nil
})

var getLibrarianFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (*service.Librarian, error) {
	items, err := getItemStoreFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create item store from config")
	}

	bookshelf, err := getBookshelfFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create bookshelf from config")
	}

	return service.NewLibrarian(items, bookshelf), nil
})

var getCatalogFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (*service.Catalog, error) {
	baseURL, err := url.Parse(conf.HTTP.BaseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse base url '%s'", conf.HTTP.BaseURL)
	}

	items, err := getItemStoreFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create item store from config")
	}

	lending, err := getLendingFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create lending service from config")
	}

	metadata, err := getMetadataProviderFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create metadata provider from config")
	}

	reader, err := getReadiumClientFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create readium client from config")
	}

	return service.NewCatalog(baseURL, items, lending, metadata, reader), nil
})

var getAuthenticatorFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (*service.Authenticator, error) {
	issuer, err := getOTPIssuerFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create otp issuer from config")
	}

	return service.NewAuthenticator(issuer), nil
})

var getOAuthFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (*service.OAuth, error) {
	store, err := getGormStoreFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create oauth store from config")
	}

	oauth, err := service.NewOAuth(
		store, store, []byte(conf.Auth.Seed),
		service.WithAccessTokenTTL(conf.Auth.AccessTokenTTL),
		service.WithRefreshTokenTTL(conf.Auth.RefreshTokenTTL),
		service.WithAuthorizationCodeTTL(conf.Auth.AuthorizationCodeTTL),
	)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return oauth, nil
})
