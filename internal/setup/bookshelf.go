package setup

import (
	"context"
	"log/slog"

	"github.com/archivelabs/lenny/internal/adapter/minio"
	"github.com/archivelabs/lenny/internal/config"
	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/pkg/errors"
)

var getBookshelfFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (port.Bookshelf, error) {
	bookshelfConf := conf.Storage.Bookshelf

	bookshelf, err := minio.NewBookshelf(
		bookshelfConf.Endpoint,
		bookshelfConf.Bucket,
		minio.WithCredentials(bookshelfConf.AccessKey, bookshelfConf.SecretKey),
		minio.WithRegion(bookshelfConf.Region),
		minio.WithSecure(bookshelfConf.Secure),
	)
	if err != nil {
		return nil, errors.Wrap(err, "could not create bookshelf")
	}

	if err := bookshelf.Ensure(ctx); err != nil {
		return nil, errors.Wrapf(err, "could not ensure bucket '%s'", bookshelfConf.Bucket)
	}

	slog.DebugContext(ctx, "bookshelf ready", slog.String("endpoint", bookshelfConf.Endpoint), slog.String("bucket", bookshelfConf.Bucket))

	return bookshelf, nil
})
