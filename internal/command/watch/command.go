package watch

import (
	"context"
	"log/slog"

	"github.com/bornholm/go-x/slogx"
	"github.com/pkg/errors"
	"github.com/progrium/watcher"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"

	"github.com/archivelabs/lenny/internal/command/common"
	"github.com/archivelabs/lenny/internal/command/upload"
)

func Command() *cli.Command {
	flags := common.WithCommonFlags(
		withWatchFlags(upload.WithUploadFlags()...)...,
	)
	return &cli.Command{
		Name:   "watch",
		Usage:  "Watch a directory and upload the publication files created in it",
		Flags:  flags,
		Before: altsrc.InitInputSourceWithContext(flags, common.NewFileSourceFromFlagFunc("config")),
		Action: func(ctx *cli.Context) error {
			client, err := common.GetLennyClient(ctx)
			if err != nil {
				return errors.Wrap(err, "could not retrieve lenny client")
			}

			watchOptions, err := getWatchOptions(ctx)
			if err != nil {
				return errors.WithStack(err)
			}

			directory := ctx.String(paramDirectory)

			fs := afero.NewBasePathFs(afero.NewOsFs(), directory)

			handler := &uploadHandler{
				uploader: upload.NewUploader(client, fs, upload.GetConcurrency(ctx)),
			}

			watchCtx := slogx.WithAttrs(ctx.Context, slog.String("directory", directory))

			if err := Watch(watchCtx, fs, handler, watchOptions...); err != nil {
				return errors.Wrapf(err, "could not watch directory '%s'", directory)
			}

			return nil
		},
	}
}

type uploadHandler struct {
	uploader *upload.Uploader
}

// Handle implements WatchHandler.
func (h *uploadHandler) Handle(ctx context.Context, w *watcher.Watcher, event WatchEvent) error {
	if event.IsDir() || event.Op != watcher.Create {
		return nil
	}

	if err := h.uploader.UploadFile(ctx, event.Path); err != nil {
		slog.ErrorContext(ctx, "could not upload file", slogx.Error(errors.WithStack(err)), slog.String("path", event.Path))
	}

	return nil
}

var _ WatchHandler = &uploadHandler{}
