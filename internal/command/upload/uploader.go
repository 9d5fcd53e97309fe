package upload

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/archivelabs/lenny/pkg/client"
	"github.com/bornholm/go-x/slogx"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const codeItemExists = "item_exists"

type Client interface {
	Upload(ctx context.Context, edition model.Edition, encrypted bool, filename string, r io.Reader) (*client.Item, error)
}

// Uploader sends publication files to the server, a bounded number at a time.
type Uploader struct {
	client    Client
	fs        afero.Fs
	semaphore chan struct{}
}

// UploadFile uploads the file at path. Files already in the catalog are
// skipped.
func (u *Uploader) UploadFile(ctx context.Context, path string) error {
	u.semaphore <- struct{}{}
	defer func() {
		<-u.semaphore
	}()

	ctx = slogx.WithAttrs(ctx, slog.String("file", path))

	edition, encrypted, err := ParseFilename(path)
	if err != nil {
		return errors.WithStack(err)
	}

	file, err := u.fs.Open(path)
	if err != nil {
		return errors.WithStack(err)
	}

	defer file.Close()

	slog.InfoContext(ctx, "uploading file", slog.String("olid", edition.OLID()), slog.Bool("encrypted", encrypted))

	item, err := u.client.Upload(ctx, edition, encrypted, filepath.Base(path), file)
	if err != nil {
		if client.IsErrorCode(err, codeItemExists) {
			slog.WarnContext(ctx, "item already exists, skipping")
			return nil
		}

		return errors.WithStack(err)
	}

	slog.InfoContext(ctx, "file uploaded", slog.String("itemID", string(item.ID)))

	return nil
}

func NewUploader(client Client, fs afero.Fs, concurrency int) *Uploader {
	if concurrency < 1 {
		concurrency = 1
	}

	return &Uploader{
		client:    client,
		fs:        fs,
		semaphore: make(chan struct{}, concurrency),
	}
}
