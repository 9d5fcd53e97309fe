// Package readium talks to the manifest server generating Readium web
// publication manifests from the bookshelf files.
package readium

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/pkg/errors"
)

// Manifest is a Readium web publication manifest. Only the links are
// interpreted, everything else is forwarded as is.
type Manifest map[string]any

// EncodeBookPath returns the path segment identifying a bookshelf object on
// the manifest server, i.e. the unpadded url safe base64 of its s3 url.
func EncodeBookPath(bucket string, key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte("s3://" + bucket + "/" + key))
}

// PatchManifest rewrites the self links of the manifest so that relative
// resources are resolved against the given url.
func PatchManifest(manifest Manifest, selfURL string) Manifest {
	rawLinks, ok := manifest["links"].([]any)
	if !ok {
		return manifest
	}

	for _, rawLink := range rawLinks {
		link, ok := rawLink.(map[string]any)
		if !ok {
			continue
		}

		if hasRel(link["rel"], "self") {
			link["href"] = selfURL
		}
	}

	return manifest
}

func hasRel(rawRel any, rel string) bool {
	switch r := rawRel.(type) {
	case string:
		return r == rel
	case []any:
		for _, v := range r {
			if s, ok := v.(string); ok && s == rel {
				return true
			}
		}
	}

	return false
}

type Client struct {
	baseURL    *url.URL
	readerURL  string
	bucket     string
	timeout    time.Duration
	httpClient *http.Client
}

// ManifestURL returns the url of the manifest of the given bookshelf object.
func (c *Client) ManifestURL(key string) string {
	return c.resourceURL(key, "manifest.json").String()
}

// ReaderURL returns the url opening the given manifest in the web reader.
func (c *Client) ReaderURL(manifestURL string) string {
	return c.readerURL + "?book=" + url.QueryEscape(manifestURL)
}

func (c *Client) resourceURL(key string, path string) *url.URL {
	return c.baseURL.JoinPath(EncodeBookPath(c.bucket, key), path)
}

func (c *Client) Manifest(ctx context.Context, key string) (Manifest, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	res, err := c.get(ctx, c.resourceURL(key, "manifest.json"))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	defer res.Body.Close()

	manifest := Manifest{}
	if err := json.NewDecoder(res.Body).Decode(&manifest); err != nil {
		return nil, errors.Wrap(err, "could not decode manifest")
	}

	return manifest, nil
}

// Resource opens a publication resource. The caller must close the returned
// reader. Only the response headers are bounded by the client timeout, the
// body is streamed for as long as the request context lives.
func (c *Client) Resource(ctx context.Context, key string, path string) (io.ReadCloser, string, error) {
	path = strings.TrimPrefix(path, "/")
	if path == "" || strings.Contains(path, "..") {
		return nil, "", errors.WithStack(port.ErrNotFound)
	}

	res, err := c.get(ctx, c.resourceURL(key, path))
	if err != nil {
		return nil, "", errors.WithStack(err)
	}

	return res.Body, res.Header.Get("Content-Type"), nil
}

func (c *Client) get(ctx context.Context, u *url.URL) (*http.Response, error) {
	slog.DebugContext(ctx, "requesting readium server", slog.String("url", u.String()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if res.StatusCode == http.StatusNotFound {
		res.Body.Close()
		return nil, errors.WithStack(port.ErrNotFound)
	}

	if res.StatusCode != http.StatusOK {
		res.Body.Close()
		return nil, errors.Errorf("unexpected response code %d (%s)", res.StatusCode, res.Status)
	}

	return res, nil
}

func NewClient(baseURL *url.URL, readerURL string, bucket string, timeout time.Duration) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout

	return &Client{
		baseURL:   baseURL,
		readerURL: readerURL,
		bucket:    bucket,
		timeout:   timeout,
		httpClient: &http.Client{
			Transport: transport,
		},
	}
}
