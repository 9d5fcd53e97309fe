package watch

import (
	"regexp"
	"time"

	"github.com/pkg/errors"
	"github.com/redmatter/go-globre/v2"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
)

const (
	paramDirectory = "directory"
	paramFilter    = "filter"
	paramInterval  = "interval"
	paramRecursive = "recursive"
)

var (
	flagDirectory = altsrc.NewStringFlag(&cli.StringFlag{
		Name:    paramDirectory,
		Aliases: []string{"d"},
		Value:   ".",
		Usage:   "Directory to watch",
	})
	flagFilter = altsrc.NewStringFlag(&cli.StringFlag{
		Name:    paramFilter,
		Aliases: []string{"f"},
		Value:   "*.{epub,pdf}",
		Usage:   "Glob pattern the names of the uploaded files must match",
	})
	flagInterval = altsrc.NewDurationFlag(&cli.DurationFlag{
		Name:  paramInterval,
		Value: 30 * time.Second,
		Usage: "Polling interval",
	})
	flagRecursive = altsrc.NewBoolFlag(&cli.BoolFlag{
		Name:  paramRecursive,
		Value: false,
		Usage: "Watch the sub directories too",
	})
)

func withWatchFlags(flags ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{
		flagDirectory,
		flagFilter,
		flagInterval,
		flagRecursive,
	}, flags...)
}

func getWatchOptions(ctx *cli.Context) ([]WatchOptionFunc, error) {
	options := []WatchOptionFunc{
		WithRecursive(ctx.Bool(paramRecursive)),
		WithInterval(ctx.Duration(paramInterval)),
	}

	if rawFilter := ctx.String(paramFilter); rawFilter != "" {
		filter, err := compileFilter(rawFilter)
		if err != nil {
			return nil, errors.Wrapf(err, "could not parse '%s' parameter", paramFilter)
		}

		options = append(options, WithFilter(filter))
	}

	return options, nil
}

func compileFilter(glob string) (*regexp.Regexp, error) {
	pathRegExp := globre.RegexFromGlob(
		glob,
		globre.ExtendedSyntaxEnabled(true),
		globre.GlobStarEnabled(true),
		globre.WithDelimiter('/'),
	)

	filter, err := regexp.Compile("^(?:" + pathRegExp + ")$")
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return filter, nil
}
