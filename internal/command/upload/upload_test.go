package upload

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/archivelabs/lenny/pkg/client"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

func TestParseFilename(t *testing.T) {
	type testCase struct {
		Path              string
		ExpectedEdition   model.Edition
		ExpectedEncrypted bool
		ExpectError       bool
	}

	testCases := []testCase{
		{Path: "OL123M.epub", ExpectedEdition: 123},
		{Path: "/books/OL42M_encrypted.pdf", ExpectedEdition: 42, ExpectedEncrypted: true},
		{Path: "ol7m.EPUB", ExpectedEdition: 7},
		{Path: "OL123M.txt", ExpectError: true},
		{Path: "book.epub", ExpectError: true},
		{Path: "OL0M.epub", ExpectError: true},
		{Path: "OL12M_drm.epub", ExpectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.Path, func(t *testing.T) {
			edition, encrypted, err := ParseFilename(tc.Path)
			if tc.ExpectError {
				if err == nil {
					t.Errorf("expected an error")
				}
				return
			}

			if err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			if e, g := tc.ExpectedEdition, edition; e != g {
				t.Errorf("edition: expected %d, got %d", e, g)
			}

			if e, g := tc.ExpectedEncrypted, encrypted; e != g {
				t.Errorf("encrypted: expected %v, got %v", e, g)
			}
		})
	}
}

type conflictClient struct {
	calls int
}

func (c *conflictClient) Upload(ctx context.Context, edition model.Edition, encrypted bool, filename string, r io.Reader) (*client.Item, error) {
	c.calls++
	return nil, errors.WithStack(&client.Error{StatusCode: http.StatusConflict, Code: "item_exists"})
}

func TestUploaderSkipsExistingItems(t *testing.T) {
	fs := afero.NewMemMapFs()

	if err := afero.WriteFile(fs, "OL1M.epub", []byte("data"), 0644); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	conflicts := &conflictClient{}

	uploader := NewUploader(conflicts, fs, 1)

	if err := uploader.UploadFile(context.Background(), "OL1M.epub"); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 1, conflicts.calls; e != g {
		t.Errorf("conflicts.calls: expected %d, got %d", e, g)
	}

	if err := uploader.UploadFile(context.Background(), "invalid.epub"); err == nil {
		t.Errorf("expected an error for an invalid file name")
	}

	if e, g := 1, conflicts.calls; e != g {
		t.Errorf("conflicts.calls: expected %d, got %d", e, g)
	}
}
