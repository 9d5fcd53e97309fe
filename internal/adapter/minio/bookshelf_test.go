package minio

import (
	"bytes"
	"context"
	"io"
	"slices"
	"testing"

	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/pkg/errors"
	"github.com/testcontainers/testcontainers-go"
	testminio "github.com/testcontainers/testcontainers-go/modules/minio"
)

func TestBookshelf(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container based test in short mode")
	}

	ctx := context.Background()

	const (
		minioUsername = "miniousername"
		minioPassword = "miniopassword"
	)

	minioContainer, err := testminio.Run(
		ctx, "minio/minio:RELEASE.2024-01-16T16-07-38Z",
		testminio.WithUsername(minioUsername),
		testminio.WithPassword(minioPassword),
	)
	defer func() {
		if err := testcontainers.TerminateContainer(minioContainer); err != nil {
			t.Fatalf("failed to terminate container: %+v", errors.WithStack(err))
		}
	}()
	if err != nil {
		t.Fatalf("failed to start container: %+v", errors.WithStack(err))
	}

	endpoint, err := minioContainer.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("could not retrieve connection string: %+v", errors.WithStack(err))
	}

	bookshelf, err := NewBookshelf(endpoint, "bookshelf", WithCredentials(minioUsername, minioPassword))
	if err != nil {
		t.Fatalf("failed to create bookshelf: %+v", errors.WithStack(err))
	}

	if err := bookshelf.Ensure(ctx); err != nil {
		t.Fatalf("failed to ensure bucket: %+v", errors.WithStack(err))
	}

	if err := bookshelf.Ensure(ctx); err != nil {
		t.Fatalf("second ensure should be a no-op: %+v", errors.WithStack(err))
	}

	content := []byte("%PDF-1.4 fake book")

	keys := []string{"1.pdf", "2_encrypted.pdf", "3.pdf"}
	for _, k := range keys {
		if err := bookshelf.Put(ctx, k, bytes.NewReader(content), int64(len(content)), "application/pdf"); err != nil {
			t.Fatalf("failed to put object: %+v", errors.WithStack(err))
		}
	}

	info, err := bookshelf.Stat(ctx, "1.pdf")
	if err != nil {
		t.Fatalf("failed to stat object: %+v", errors.WithStack(err))
	}

	if e, g := int64(len(content)), info.Size; e != g {
		t.Errorf("info.Size: expected %v, got %v", e, g)
	}

	if e, g := "application/pdf", info.ContentType; e != g {
		t.Errorf("info.ContentType: expected %v, got %v", e, g)
	}

	reader, err := bookshelf.Get(ctx, "1.pdf")
	if err != nil {
		t.Fatalf("failed to get object: %+v", errors.WithStack(err))
	}

	data, err := io.ReadAll(reader)
	reader.Close()
	if err != nil {
		t.Fatalf("failed to read object: %+v", errors.WithStack(err))
	}

	if e, g := string(content), string(data); e != g {
		t.Errorf("data: expected %v, got %v", e, g)
	}

	listed := make([]string, 0)
	for key, err := range bookshelf.Keys(ctx, "") {
		if err != nil {
			t.Fatalf("failed to list keys: %+v", errors.WithStack(err))
		}
		listed = append(listed, key)
	}

	slices.Sort(listed)

	if !slices.Equal(keys, listed) {
		t.Errorf("listed: expected %v, got %v", keys, listed)
	}

	if err := bookshelf.Remove(ctx, "1.pdf"); err != nil {
		t.Fatalf("failed to remove object: %+v", errors.WithStack(err))
	}

	if _, err := bookshelf.Stat(ctx, "1.pdf"); !errors.Is(err, port.ErrNotFound) {
		t.Errorf("Stat(removed): expected port.ErrNotFound, got %+v", err)
	}

	if _, err := bookshelf.Get(ctx, "1.pdf"); !errors.Is(err, port.ErrNotFound) {
		t.Errorf("Get(removed): expected port.ErrNotFound, got %+v", err)
	}
}
