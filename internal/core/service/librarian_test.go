package service

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/archivelabs/lenny/internal/adapter/memory"
	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/pkg/errors"
)

func TestLibrarianUpload(t *testing.T) {
	type testCase struct {
		Name      string
		Filename  string
		Data      func(t *testing.T) []byte
		Funcs     []LibrarianOptionFunc
		Setup     func(t *testing.T, store port.ItemStore)
		ExpectErr error
		ExpectKey string
	}

	testCases := []testCase{
		{
			Name:      "EPUB",
			Filename:  "book.epub",
			Data:      newTestEPUB,
			ExpectKey: "42_encrypted.epub",
		},
		{
			Name:      "PDF",
			Filename:  "Book.PDF",
			Data:      func(t *testing.T) []byte { return []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n") },
			ExpectKey: "42_encrypted.pdf",
		},
		{
			Name:      "UnsupportedExtension",
			Filename:  "book.txt",
			Data:      func(t *testing.T) []byte { return []byte("hello") },
			ExpectErr: ErrInvalidFile,
		},
		{
			Name:      "MismatchingContent",
			Filename:  "book.epub",
			Data:      func(t *testing.T) []byte { return []byte("not an epub file") },
			ExpectErr: ErrInvalidFile,
		},
		{
			Name:      "TooLarge",
			Filename:  "book.pdf",
			Data:      func(t *testing.T) []byte { return []byte("%PDF-1.4\n" + strings.Repeat("x", 64)) },
			Funcs:     []LibrarianOptionFunc{WithMaxFileSize(16)},
			ExpectErr: ErrFileTooLarge,
		},
		{
			Name:     "Exists",
			Filename: "book.epub",
			Data:     newTestEPUB,
			Setup: func(t *testing.T, store port.ItemStore) {
				saveTestItem(t, store, 42, true)
			},
			ExpectErr: ErrItemExists,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			store := newTestStore(t)
			bookshelf := memory.NewBookshelf()

			if tc.Setup != nil {
				tc.Setup(t, store)
			}

			librarian := NewLibrarian(store, bookshelf, tc.Funcs...)

			data := tc.Data(t)

			item, err := librarian.Upload(t.Context(), UploadRequest{
				Edition:   42,
				Encrypted: true,
				Filename:  tc.Filename,
				Size:      int64(len(data)),
				File:      bytes.NewReader(data),
			})

			if tc.ExpectErr != nil {
				if !errors.Is(err, tc.ExpectErr) {
					t.Errorf("err: expected %v, got %+v", tc.ExpectErr, err)
				}

				if tc.Setup == nil {
					if e, g := 0, countObjects(t, bookshelf); e != g {
						t.Errorf("countObjects(t, bookshelf): expected %v, got %v", e, g)
					}
				}

				return
			}

			if err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			if e, g := tc.ExpectKey, item.ObjectKey(); e != g {
				t.Errorf("item.ObjectKey(): expected '%s', got '%s'", e, g)
			}

			if e, g := data, readObject(t, bookshelf, tc.ExpectKey); !bytes.Equal(e, g) {
				t.Errorf("stored object does not match the uploaded file")
			}
		})
	}
}

type failingItemStore struct {
	port.ItemStore
}

// SaveItem implements port.ItemStore.
func (s *failingItemStore) SaveItem(ctx context.Context, item model.Item) (model.PersistedItem, error) {
	return nil, errors.New("save failed")
}

func TestLibrarianUploadCompensation(t *testing.T) {
	store := newTestStore(t)
	bookshelf := memory.NewBookshelf()

	librarian := NewLibrarian(&failingItemStore{store}, bookshelf)

	data := newTestEPUB(t)

	_, err := librarian.Upload(t.Context(), UploadRequest{
		Edition:  7,
		Filename: "book.epub",
		Size:     -1,
		File:     bytes.NewReader(data),
	})
	if err == nil {
		t.Fatalf("expected an error")
	}

	if e, g := 0, countObjects(t, bookshelf); e != g {
		t.Errorf("countObjects(t, bookshelf): expected %v, got %v", e, g)
	}
}

func TestLibrarianDeleteAndSync(t *testing.T) {
	ctx := t.Context()
	store := newTestStore(t)
	bookshelf := memory.NewBookshelf()

	librarian := NewLibrarian(store, bookshelf)

	uploaded, err := librarian.Upload(ctx, UploadRequest{
		Edition:  1,
		Filename: "book.epub",
		Size:     -1,
		File:     bytes.NewReader(newTestEPUB(t)),
	})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	missing := saveTestItem(t, store, 2, false)

	if err := bookshelf.Put(ctx, "orphan.pdf", strings.NewReader("orphan"), 6, "application/pdf"); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	report, err := librarian.Sync(ctx, func(float64) {})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := []model.ItemID{missing.ID()}, report.MissingObjects; len(g) != 1 || e[0] != g[0] {
		t.Errorf("report.MissingObjects: expected %v, got %v", e, g)
	}

	if e, g := []string{"orphan.pdf"}, report.OrphanObjects; len(g) != 1 || e[0] != g[0] {
		t.Errorf("report.OrphanObjects: expected %v, got %v", e, g)
	}

	if err := librarian.Delete(ctx, uploaded.ID()); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if _, err := bookshelf.Stat(ctx, uploaded.ObjectKey()); !errors.Is(err, port.ErrNotFound) {
		t.Errorf("expected object '%s' to be removed", uploaded.ObjectKey())
	}

	if _, err := store.GetItemByID(ctx, uploaded.ID()); !errors.Is(err, port.ErrNotFound) {
		t.Errorf("err: expected port.ErrNotFound, got %+v", err)
	}
}

func newTestEPUB(t *testing.T) []byte {
	var buff bytes.Buffer

	writer := zip.NewWriter(&buff)

	mimetype, err := writer.CreateHeader(&zip.FileHeader{
		Name:   "mimetype",
		Method: zip.Store,
	})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if _, err := mimetype.Write([]byte("application/epub+zip")); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	container, err := writer.Create("META-INF/container.xml")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if _, err := container.Write([]byte(`<?xml version="1.0"?><container version="1.0"></container>`)); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	return buff.Bytes()
}
