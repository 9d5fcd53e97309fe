package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/archivelabs/lenny/internal/metrics"
	"github.com/archivelabs/lenny/internal/workflow"
	"github.com/bornholm/go-x/slogx"
	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const DefaultMaxFileSize int64 = 50 << 20

// Size of the file header used to sniff its content type
const sniffSize = 3072

var acceptedFiles = map[string]struct {
	MimeType string
	Format   model.Format
}{
	".epub": {MimeType: "application/epub+zip", Format: model.FormatEPUB},
	".pdf":  {MimeType: "application/pdf", Format: model.FormatPDF},
}

type LibrarianOptions struct {
	MaxFileSize int64
}

type LibrarianOptionFunc func(opts *LibrarianOptions)

func WithMaxFileSize(size int64) LibrarianOptionFunc {
	return func(opts *LibrarianOptions) {
		opts.MaxFileSize = size
	}
}

func NewLibrarianOptions(funcs ...LibrarianOptionFunc) *LibrarianOptions {
	opts := &LibrarianOptions{
		MaxFileSize: DefaultMaxFileSize,
	}
	for _, fn := range funcs {
		fn(opts)
	}
	return opts
}

// Librarian adds and removes items of the catalog.
type Librarian struct {
	items       port.ItemStore
	bookshelf   port.Bookshelf
	maxFileSize int64
}

type UploadRequest struct {
	Edition   model.Edition
	Encrypted bool
	Filename  string
	// Size of the file, or -1 if unknown
	Size int64
	File io.Reader
}

func (l *Librarian) Upload(ctx context.Context, req UploadRequest) (model.PersistedItem, error) {
	item, err := l.upload(ctx, req)
	if err != nil {
		outcome := "error"
		switch {
		case errors.Is(err, ErrInvalidFile):
			outcome = "invalid_file"
		case errors.Is(err, ErrFileTooLarge):
			outcome = "too_large"
		case errors.Is(err, ErrItemExists):
			outcome = "exists"
		}

		metrics.Uploads.With(prometheus.Labels{metrics.LabelOutcome: outcome}).Inc()

		return nil, errors.WithStack(err)
	}

	metrics.Uploads.With(prometheus.Labels{metrics.LabelOutcome: "success"}).Inc()

	return item, nil
}

func (l *Librarian) upload(ctx context.Context, req UploadRequest) (model.PersistedItem, error) {
	ctx = slogx.WithAttrs(ctx,
		slog.String("edition", req.Edition.OLID()),
		slog.Bool("encrypted", req.Encrypted),
		slog.String("filename", req.Filename),
	)

	ext := strings.ToLower(filepath.Ext(req.Filename))

	accepted, exists := acceptedFiles[ext]
	if !exists {
		return nil, errors.Wrapf(ErrInvalidFile, "unsupported file extension '%s'", ext)
	}

	if req.Size > l.maxFileSize {
		return nil, errors.Wrapf(ErrFileTooLarge, "file size %s exceeds the maximum of %s", humanize.IBytes(uint64(req.Size)), humanize.IBytes(uint64(l.maxFileSize)))
	}

	header := make([]byte, sniffSize)

	read, err := io.ReadFull(req.File, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "could not read file header")
	}

	header = header[:read]

	if mime := mimetype.Detect(header); !mime.Is(accepted.MimeType) {
		return nil, errors.Wrapf(ErrInvalidFile, "unexpected content type '%s' for a '%s' file", mime.String(), ext)
	}

	if _, err := l.items.GetItemByEdition(ctx, req.Edition, req.Encrypted); err == nil {
		return nil, errors.WithStack(ErrItemExists)
	} else if !errors.Is(err, port.ErrNotFound) {
		return nil, errors.WithStack(err)
	}

	key := model.ObjectKey(req.Edition, req.Encrypted, ext)

	file := &maxSizeReader{
		reader: io.MultiReader(bytes.NewReader(header), req.File),
		max:    l.maxFileSize,
	}

	var item model.PersistedItem

	wf := workflow.New(
		workflow.StepFunc(
			"put object",
			func(ctx context.Context) error {
				if err := l.bookshelf.Put(ctx, key, file, req.Size, accepted.MimeType); err != nil {
					if errors.Is(err, ErrFileTooLarge) {
						return errors.Wrapf(err, "file exceeds the maximum of %s", humanize.IBytes(uint64(l.maxFileSize)))
					}

					return errors.Wrap(err, "could not store file")
				}

				return nil
			},
			func(ctx context.Context) error {
				slog.DebugContext(ctx, "removing uploaded object", slog.String("key", key))

				if err := l.bookshelf.Remove(ctx, key); err != nil {
					return errors.Wrapf(err, "could not remove object '%s'", key)
				}

				return nil
			},
		),
		workflow.StepFunc(
			"save item",
			func(ctx context.Context) error {
				saved, err := l.items.SaveItem(ctx, model.NewItem(model.NewItemID(), req.Edition, req.Encrypted, accepted.Format, key))
				if err != nil {
					if errors.Is(err, port.ErrAlreadyExists) {
						return errors.WithStack(ErrItemExists)
					}

					return errors.Wrap(err, "could not save item")
				}

				item = saved

				return nil
			},
			nil,
		),
	)

	if err := wf.Execute(ctx); err != nil {
		return nil, errors.WithStack(err)
	}

	metrics.UploadedSize.Add(float64(file.read))

	slog.InfoContext(ctx, "item uploaded", slog.String("itemID", string(item.ID())), slog.String("size", humanize.IBytes(uint64(file.read))))

	return item, nil
}

// Delete removes the item file from the bookshelf and the item from the catalog.
func (l *Librarian) Delete(ctx context.Context, id model.ItemID) error {
	item, err := l.items.GetItemByID(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := l.bookshelf.Remove(ctx, item.ObjectKey()); err != nil {
		return errors.Wrapf(err, "could not remove object '%s'", item.ObjectKey())
	}

	if err := l.items.DeleteItem(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	slog.InfoContext(ctx, "item deleted", slog.String("itemID", string(id)))

	return nil
}

type SyncReport struct {
	// Items whose file is missing from the bookshelf
	MissingObjects []model.ItemID
	// Bookshelf objects not referenced by any item
	OrphanObjects []string
}

func (r *SyncReport) String() string {
	return fmt.Sprintf("%d item(s) without file, %d orphan file(s)", len(r.MissingObjects), len(r.OrphanObjects))
}

// Sync compares the catalog with the bookshelf content.
func (l *Librarian) Sync(ctx context.Context, progress func(float64)) (*SyncReport, error) {
	keys := map[string]struct{}{}

	for key, err := range l.bookshelf.Keys(ctx, "") {
		if err != nil {
			return nil, errors.Wrap(err, "could not list bookshelf objects")
		}

		keys[key] = struct{}{}
	}

	progress(0.5)

	total, err := l.items.CountItems(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	report := &SyncReport{
		MissingObjects: make([]model.ItemID, 0),
		OrphanObjects:  make([]string, 0),
	}

	offset := 0
	limit := 100
	for {
		items, _, err := l.items.QueryItems(ctx, port.QueryItemsOptions{Offset: &offset, Limit: &limit})
		if err != nil {
			return nil, errors.WithStack(err)
		}

		if len(items) == 0 {
			break
		}

		for _, item := range items {
			if _, exists := keys[item.ObjectKey()]; !exists {
				slog.WarnContext(ctx, "item file is missing", slog.String("itemID", string(item.ID())), slog.String("key", item.ObjectKey()))
				report.MissingObjects = append(report.MissingObjects, item.ID())
				continue
			}

			delete(keys, item.ObjectKey())
		}

		offset += len(items)

		if total > 0 {
			progress(0.5 + min(float64(offset)/float64(total), 1)/2)
		}
	}

	for key := range keys {
		slog.WarnContext(ctx, "bookshelf object without item", slog.String("key", key))
		report.OrphanObjects = append(report.OrphanObjects, key)
	}

	slices.Sort(report.OrphanObjects)

	return report, nil
}

// SyncHandler runs the bookshelf synchronization as a background task.
func (l *Librarian) SyncHandler() port.TaskHandler {
	return port.TaskHandlerFunc(func(ctx context.Context, task port.Task, progress chan float64) (string, error) {
		report, err := l.Sync(ctx, func(p float64) { progress <- p })
		if err != nil {
			return "", errors.WithStack(err)
		}

		return report.String(), nil
	})
}

func NewLibrarian(items port.ItemStore, bookshelf port.Bookshelf, funcs ...LibrarianOptionFunc) *Librarian {
	opts := NewLibrarianOptions(funcs...)

	return &Librarian{
		items:       items,
		bookshelf:   bookshelf,
		maxFileSize: opts.MaxFileSize,
	}
}

type maxSizeReader struct {
	reader io.Reader
	max    int64
	read   int64
}

// Read implements io.Reader.
func (r *maxSizeReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.read += int64(n)

	if r.read > r.max {
		return n, errors.WithStack(ErrFileTooLarge)
	}

	return n, err
}

var _ io.Reader = &maxSizeReader{}
