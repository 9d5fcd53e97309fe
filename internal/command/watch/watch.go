package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"time"

	"github.com/bornholm/go-x/slogx"
	"github.com/pkg/errors"
	"github.com/progrium/watcher"
	"github.com/spf13/afero"
)

type WatchEvent = watcher.Event

type WatchHandler interface {
	Handle(ctx context.Context, w *watcher.Watcher, event WatchEvent) error
}

type WatchHandlerFunc func(ctx context.Context, watcher *watcher.Watcher, event WatchEvent) error

func (f WatchHandlerFunc) Handle(ctx context.Context, watcher *watcher.Watcher, event WatchEvent) error {
	return f(ctx, watcher, event)
}

type WatchOptions struct {
	// Filter is matched against the file names
	Filter    *regexp.Regexp
	Interval  time.Duration
	Directory string
	Recursive bool
}

type WatchOptionFunc func(opts *WatchOptions)

func NewWatchOptions(funcs ...WatchOptionFunc) *WatchOptions {
	opts := &WatchOptions{
		Directory: ".",
		Interval:  time.Second * 30,
		Filter:    nil,
		Recursive: false,
	}
	for _, fn := range funcs {
		fn(opts)
	}
	return opts
}

func WithInterval(interval time.Duration) WatchOptionFunc {
	return func(opts *WatchOptions) {
		opts.Interval = interval
	}
}

func WithDirectory(dir string) WatchOptionFunc {
	return func(opts *WatchOptions) {
		opts.Directory = dir
	}
}

func WithFilter(filter *regexp.Regexp) WatchOptionFunc {
	return func(opts *WatchOptions) {
		opts.Filter = filter
	}
}

func WithRecursive(recursive bool) WatchOptionFunc {
	return func(opts *WatchOptions) {
		opts.Recursive = recursive
	}
}

// Watch polls the directory and calls the handler with the create events of
// the matching files, until the context is canceled. Files present when the
// watch starts are reported as created.
func Watch(ctx context.Context, fs afero.Fs, handler WatchHandler, funcs ...WatchOptionFunc) error {
	opts := NewWatchOptions(funcs...)
	w := watcher.New()

	w.SetFileSystem(fs)
	w.FilterOps(watcher.Create)

	go func() {
		defer w.Close()

		for {
			select {
			case event, ok := <-w.Event:
				if !ok {
					return
				}

				slog.DebugContext(ctx, "new event", slog.Any("event", event))

				go func(event watcher.Event) {
					if err := handler.Handle(ctx, w, event); err != nil {
						slog.ErrorContext(ctx, "error while handling event", slogx.Error(errors.WithStack(err)))
					}
				}(event)

			case err, ok := <-w.Error:
				if !ok {
					return
				}

				slog.ErrorContext(ctx, "error while watching files", slogx.Error(errors.WithStack(err)))

			case <-w.Closed:
				return

			case <-ctx.Done():
				return
			}
		}
	}()

	if opts.Filter != nil {
		w.AddFilterHook(watcher.RegexFilterHook(opts.Filter, false))
	}

	if opts.Recursive {
		if err := w.AddRecursive(opts.Directory); err != nil {
			return errors.Wrapf(err, "could not add watched recursive directory '%s'", opts.Directory)
		}
	} else {
		if err := w.Add(opts.Directory); err != nil {
			return errors.Wrapf(err, "could not add watched directory '%s'", opts.Directory)
		}
	}

	go triggerCreateEventForPreExistingFiles(ctx, fs, w, opts)

	slog.InfoContext(ctx, "starting watcher", slog.Duration("interval", opts.Interval))
	defer slog.InfoContext(ctx, "watcher stopped")

	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}

	if err := w.Start(opts.Interval); err != nil {
		return errors.Wrap(err, "could not watch files")
	}

	return nil
}

func triggerCreateEventForPreExistingFiles(ctx context.Context, afs afero.Fs, w *watcher.Watcher, opts *WatchOptions) {
	w.Wait()

	slog.InfoContext(ctx, "watcher started, checking for pre-existing files")

	err := afero.Walk(afs, opts.Directory, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return errors.WithStack(err)
		}

		if info.IsDir() {
			if path != opts.Directory && !opts.Recursive {
				return filepath.SkipDir
			}

			return nil
		}

		if opts.Filter != nil && !opts.Filter.MatchString(info.Name()) {
			return nil
		}

		slog.DebugContext(ctx, "triggering create event for pre-existing file", slog.String("path", path))

		select {
		case w.Event <- watcher.Event{Op: watcher.Create, Path: path, FileInfo: info}:
		case <-ctx.Done():
			return errors.WithStack(ctx.Err())
		}

		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "could not check pre-existing files", slogx.Error(errors.WithStack(err)))
		return
	}

	slog.InfoContext(ctx, "done checking for pre-existing files")
}
