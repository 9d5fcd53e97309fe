package memory

import (
	"bytes"
	"context"
	"io"
	"iter"
	"slices"
	"strings"
	"sync"

	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/pkg/errors"
)

// Bookshelf keeps the item files in memory.
type Bookshelf struct {
	mutex   sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

// Bucket implements port.Bookshelf.
func (b *Bookshelf) Bucket() string {
	return "memory"
}

// Ensure implements port.Bookshelf.
func (b *Bookshelf) Ensure(ctx context.Context) error {
	return nil
}

// Get implements port.Bookshelf.
func (b *Bookshelf) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	obj, exists := b.objects[key]
	if !exists {
		return nil, errors.WithStack(port.ErrNotFound)
	}

	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Keys implements port.Bookshelf.
func (b *Bookshelf) Keys(ctx context.Context, prefix string) iter.Seq2[string, error] {
	b.mutex.RLock()
	keys := make([]string, 0, len(b.objects))
	for k := range b.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	b.mutex.RUnlock()

	slices.Sort(keys)

	return func(yield func(string, error) bool) {
		for _, k := range keys {
			if err := ctx.Err(); err != nil {
				yield("", errors.WithStack(err))
				return
			}

			if !yield(k, nil) {
				return
			}
		}
	}
}

// Put implements port.Bookshelf.
func (b *Bookshelf) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return errors.WithStack(err)
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.objects[key] = memoryObject{data: data, contentType: contentType}

	return nil
}

// Remove implements port.Bookshelf.
func (b *Bookshelf) Remove(ctx context.Context, key string) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	delete(b.objects, key)

	return nil
}

// Stat implements port.Bookshelf.
func (b *Bookshelf) Stat(ctx context.Context, key string) (*port.ObjectInfo, error) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	obj, exists := b.objects[key]
	if !exists {
		return nil, errors.WithStack(port.ErrNotFound)
	}

	return &port.ObjectInfo{Key: key, Size: int64(len(obj.data)), ContentType: obj.contentType}, nil
}

var _ port.Bookshelf = &Bookshelf{}

func NewBookshelf() *Bookshelf {
	return &Bookshelf{
		objects: map[string]memoryObject{},
	}
}
