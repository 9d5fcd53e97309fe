package setup

import (
	"context"
	"net/http"
	"net/url"

	"github.com/archivelabs/lenny/internal/adapter/cache"
	"github.com/archivelabs/lenny/internal/adapter/openlibrary"
	"github.com/archivelabs/lenny/internal/config"
	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/pkg/errors"
)

var getMetadataProviderFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (port.MetadataProvider, error) {
	openLibraryConf := conf.OpenLibrary

	baseURL, err := url.Parse(openLibraryConf.BaseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse open library url '%s'", openLibraryConf.BaseURL)
	}

	client := openlibrary.NewClient(
		openlibrary.WithBaseURL(baseURL),
		openlibrary.WithCoversURL(openLibraryConf.CoversURL),
		openlibrary.WithUserAgent(openLibraryConf.UserAgent),
		openlibrary.WithHTTPClient(&http.Client{Timeout: openLibraryConf.Timeout}),
	)

	if !openLibraryConf.Cache.Enabled {
		return client, nil
	}

	return cache.NewMetadataProvider(client, openLibraryConf.Cache.Size, openLibraryConf.Cache.TTL), nil
})
