package port

import (
	"context"
	"io"
	"iter"
)

type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
}

// Bookshelf stores the item files.
type Bookshelf interface {
	// Bucket returns the name of the bucket holding the files
	Bucket() string

	// Ensure creates the underlying bucket if it does not exist
	Ensure(ctx context.Context) error

	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Stat returns the object informations, or ErrNotFound
	Stat(ctx context.Context, key string) (*ObjectInfo, error)

	// Get opens the object, or returns ErrNotFound
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	Remove(ctx context.Context, key string) error

	// Keys iterates over the keys matching the prefix
	Keys(ctx context.Context, prefix string) iter.Seq2[string, error]
}
