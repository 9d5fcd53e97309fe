package minio

import (
	"context"
	"io"
	"iter"
	"log/slog"

	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

type Bookshelf struct {
	client *minio.Client
	bucket string
	region string
}

// Bucket implements port.Bookshelf.
func (b *Bookshelf) Bucket() string {
	return b.bucket
}

// Ensure implements port.Bookshelf.
func (b *Bookshelf) Ensure(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return errors.WithStack(err)
	}

	if exists {
		return nil
	}

	slog.InfoContext(ctx, "creating bookshelf bucket", slog.String("bucket", b.bucket))

	if err := b.client.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{Region: b.region}); err != nil {
		errRes := minio.ToErrorResponse(err)
		if errRes.Code == "BucketAlreadyOwnedByYou" || errRes.Code == "BucketAlreadyExists" {
			return nil
		}

		return errors.WithStack(err)
	}

	return nil
}

// Put implements port.Bookshelf.
func (b *Bookshelf) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := b.client.PutObject(ctx, b.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return errors.Wrapf(err, "could not put object '%s'", key)
	}

	return nil
}

// Stat implements port.Bookshelf.
func (b *Bookshelf) Stat(ctx context.Context, key string) (*port.ObjectInfo, error) {
	stat, err := b.client.StatObject(ctx, b.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, errors.WithStack(port.ErrNotFound)
		}

		return nil, errors.WithStack(err)
	}

	return &port.ObjectInfo{
		Key:         stat.Key,
		Size:        stat.Size,
		ContentType: stat.ContentType,
	}, nil
}

// Get implements port.Bookshelf.
func (b *Bookshelf) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if _, err := b.Stat(ctx, key); err != nil {
		return nil, errors.WithStack(err)
	}

	object, err := b.client.GetObject(ctx, b.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return object, nil
}

// Remove implements port.Bookshelf.
func (b *Bookshelf) Remove(ctx context.Context, key string) error {
	if err := b.client.RemoveObject(ctx, b.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		if isNotFound(err) {
			return nil
		}

		return errors.Wrapf(err, "could not remove object '%s'", key)
	}

	return nil
}

// Keys implements port.Bookshelf.
func (b *Bookshelf) Keys(ctx context.Context, prefix string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		objects := b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{
			Prefix:    prefix,
			Recursive: true,
		})

		for obj := range objects {
			if obj.Err != nil {
				yield("", errors.WithStack(obj.Err))
				return
			}

			if !yield(obj.Key, nil) {
				return
			}
		}
	}
}

func isNotFound(err error) bool {
	errRes := minio.ToErrorResponse(err)
	return errRes.Code == "NoSuchKey" || errRes.Code == "NoSuchBucket"
}

type Options struct {
	AccessKey string
	SecretKey string
	Region    string
	Secure    bool
}

type OptionFunc func(opts *Options)

func NewOptions(funcs ...OptionFunc) *Options {
	opts := &Options{
		Region: "us-east-1",
	}
	for _, fn := range funcs {
		fn(opts)
	}
	return opts
}

func WithCredentials(accessKey, secretKey string) OptionFunc {
	return func(opts *Options) {
		opts.AccessKey = accessKey
		opts.SecretKey = secretKey
	}
}

func WithRegion(region string) OptionFunc {
	return func(opts *Options) {
		opts.Region = region
	}
}

func WithSecure(secure bool) OptionFunc {
	return func(opts *Options) {
		opts.Secure = secure
	}
}

func NewBookshelf(endpoint string, bucket string, funcs ...OptionFunc) (*Bookshelf, error) {
	opts := NewOptions(funcs...)

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.Secure,
		Region: opts.Region,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &Bookshelf{
		client: client,
		bucket: bucket,
		region: opts.Region,
	}, nil
}

var _ port.Bookshelf = &Bookshelf{}
