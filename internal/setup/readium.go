package setup

import (
	"context"
	"net/url"

	"github.com/archivelabs/lenny/internal/config"
	"github.com/archivelabs/lenny/internal/readium"
	"github.com/pkg/errors"
)

var getReadiumClientFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (*readium.Client, error) {
	baseURL, err := url.Parse(conf.Readium.BaseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse readium url '%s'", conf.Readium.BaseURL)
	}

	return readium.NewClient(baseURL, conf.Readium.ReaderURL, conf.Storage.Bookshelf.Bucket, conf.Readium.Timeout), nil
})
