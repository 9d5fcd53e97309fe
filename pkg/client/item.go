package client

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/archivelabs/lenny/internal/http/handler/api"
	"github.com/pkg/errors"
)

type Item = api.Item

// Upload adds a publication to the catalog.
func (c *Client) Upload(ctx context.Context, edition model.Edition, encrypted bool, filename string, r io.Reader) (*Item, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	if err := form.WriteField("openlibrary_edition", strconv.FormatInt(int64(edition), 10)); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := form.WriteField("encrypted", strconv.FormatBool(encrypted)); err != nil {
		return nil, errors.WithStack(err)
	}

	fileWriter, err := form.CreateFormFile("file", filename)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if _, err := io.Copy(fileWriter, r); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := form.Close(); err != nil {
		return nil, errors.WithStack(err)
	}

	header := http.Header{}
	header.Set("Content-Type", form.FormDataContentType())

	var res api.UploadResponse

	if err := c.jsonRequest(ctx, http.MethodPost, "/upload", header, bytes.NewReader(body.Bytes()), &res); err != nil {
		return nil, errors.WithStack(err)
	}

	return &res.Item, nil
}

func (c *Client) UploadFile(ctx context.Context, edition model.Edition, encrypted bool, path string) (*Item, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	defer file.Close()

	item, err := c.Upload(ctx, edition, encrypted, filepath.Base(path), file)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return item, nil
}

// QueryItems returns a page of the catalog items and the total number of items.
func (c *Client) QueryItems(ctx context.Context, offset int, limit int) ([]Item, int64, error) {
	endpoint := &url.URL{
		Path: "/items",
	}

	query := endpoint.Query()
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(limit))
	endpoint.RawQuery = query.Encode()

	var res api.ListItemsResponse

	if err := c.jsonRequest(ctx, http.MethodGet, endpoint.String(), nil, nil, &res); err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return res.Items, res.Total, nil
}

func (c *Client) DeleteItem(ctx context.Context, id model.ItemID) error {
	endpoint := (&url.URL{Path: "/items"}).JoinPath(string(id))

	if err := c.request(ctx, http.MethodDelete, endpoint.String(), nil, nil, nil); err != nil {
		return errors.WithStack(err)
	}

	return nil
}
