package upload

import (
	"log/slog"
	"sync"

	"github.com/archivelabs/lenny/internal/command/common"
	"github.com/bornholm/go-x/slogx"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
)

const paramConcurrency = "concurrency"

var flagConcurrency = altsrc.NewIntFlag(&cli.IntFlag{
	Name:  paramConcurrency,
	Value: 4,
	Usage: "Maximum number of concurrent uploads",
})

func WithUploadFlags(flags ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{
		flagConcurrency,
	}, flags...)
}

func GetConcurrency(ctx *cli.Context) int {
	return ctx.Int(paramConcurrency)
}

func Command() *cli.Command {
	flags := common.WithCommonFlags(WithUploadFlags()...)
	return &cli.Command{
		Name:      "upload",
		Usage:     "Upload publication files named 'OL<n>M[_encrypted].{epub,pdf}'",
		ArgsUsage: "<file>...",
		Flags:     flags,
		Before:    altsrc.InitInputSourceWithContext(flags, common.NewFileSourceFromFlagFunc("config")),
		Action: func(ctx *cli.Context) error {
			paths := ctx.Args().Slice()
			if len(paths) == 0 {
				return errors.New("at least one file is required")
			}

			client, err := common.GetLennyClient(ctx)
			if err != nil {
				return errors.Wrap(err, "could not retrieve lenny client")
			}

			uploader := NewUploader(client, afero.NewOsFs(), GetConcurrency(ctx))

			var (
				wg     sync.WaitGroup
				mutex  sync.Mutex
				failed int
			)

			for _, path := range paths {
				wg.Add(1)
				go func(path string) {
					defer wg.Done()

					if err := uploader.UploadFile(ctx.Context, path); err != nil {
						slog.ErrorContext(ctx.Context, "could not upload file", slogx.Error(errors.WithStack(err)), slog.String("file", path))

						mutex.Lock()
						failed++
						mutex.Unlock()
					}
				}(path)
			}

			wg.Wait()

			if failed > 0 {
				return errors.Errorf("%d of %d uploads failed", failed, len(paths))
			}

			return nil
		},
	}
}
