package openlibrary

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var DefaultFields = []string{
	"key", "title", "author_key", "author_name", "editions", "editions.*",
}

type Client struct {
	baseURL    *url.URL
	coversURL  string
	userAgent  string
	httpClient *http.Client
}

type searchResponse struct {
	NumFound int       `json:"numFound"`
	Docs     []*Record `json:"docs"`
}

type SearchOptions struct {
	Fields     []string
	Offset     int
	Limit      int
	MaxResults int
}

type SearchOptionFunc func(opts *SearchOptions)

func WithSearchFields(fields ...string) SearchOptionFunc {
	return func(opts *SearchOptions) {
		opts.Fields = fields
	}
}

func WithSearchOffset(offset int) SearchOptionFunc {
	return func(opts *SearchOptions) {
		opts.Offset = offset
	}
}

func WithSearchLimit(limit int) SearchOptionFunc {
	return func(opts *SearchOptions) {
		opts.Limit = limit
	}
}

func WithSearchMaxResults(max int) SearchOptionFunc {
	return func(opts *SearchOptions) {
		opts.MaxResults = max
	}
}

func NewSearchOptions(funcs ...SearchOptionFunc) *SearchOptions {
	opts := &SearchOptions{
		Limit: 100,
	}
	for _, fn := range funcs {
		fn(opts)
	}
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	return opts
}

// Search pages through the search endpoint, starting at the given offset,
// until a page returns less than the page size.
func (c *Client) Search(ctx context.Context, query string, funcs ...SearchOptionFunc) ([]*Record, error) {
	opts := NewSearchOptions(funcs...)

	page := opts.Offset/opts.Limit + 1
	skip := opts.Offset % opts.Limit

	records := make([]*Record, 0)

	for {
		res, err := c.searchPage(ctx, query, opts.Fields, page, opts.Limit)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		page++

		docs := res.Docs
		if skip > 0 {
			docs = docs[min(skip, len(docs)):]
			skip = 0
		}

		for _, d := range docs {
			records = append(records, d)
			if opts.MaxResults > 0 && len(records) >= opts.MaxResults {
				return records, nil
			}
		}

		if len(res.Docs) < opts.Limit {
			return records, nil
		}
	}
}

func (c *Client) searchPage(ctx context.Context, query string, fields []string, page int, limit int) (*searchResponse, error) {
	allFields := append(slices.Clone(DefaultFields), fields...)
	slices.Sort(allFields)
	allFields = slices.Compact(allFields)

	endpoint := c.baseURL.JoinPath("/search.json")

	params := url.Values{}
	params.Set("q", query)
	params.Set("fields", strings.Join(allFields, ","))
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))

	endpoint.RawQuery = params.Encode()

	slog.DebugContext(ctx, "searching open library", slog.String("url", endpoint.String()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected response code %d (%s)", res.StatusCode, res.Status)
	}

	var result searchResponse
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "could not decode search response")
	}

	return &result, nil
}

type Options struct {
	BaseURL    *url.URL
	CoversURL  string
	UserAgent  string
	HTTPClient *http.Client
}

type OptionFunc func(opts *Options)

func WithBaseURL(baseURL *url.URL) OptionFunc {
	return func(opts *Options) {
		opts.BaseURL = baseURL
	}
}

func WithCoversURL(coversURL string) OptionFunc {
	return func(opts *Options) {
		opts.CoversURL = coversURL
	}
}

func WithUserAgent(userAgent string) OptionFunc {
	return func(opts *Options) {
		opts.UserAgent = userAgent
	}
}

func WithHTTPClient(httpClient *http.Client) OptionFunc {
	return func(opts *Options) {
		opts.HTTPClient = httpClient
	}
}

func NewOptions(funcs ...OptionFunc) *Options {
	opts := &Options{
		BaseURL: &url.URL{
			Scheme: "https",
			Host:   "openlibrary.org",
		},
		CoversURL: "https://covers.openlibrary.org",
		HTTPClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
	for _, fn := range funcs {
		fn(opts)
	}
	return opts
}

func NewClient(funcs ...OptionFunc) *Client {
	opts := NewOptions(funcs...)
	return &Client{
		baseURL:    opts.BaseURL,
		coversURL:  opts.CoversURL,
		userAgent:  opts.UserAgent,
		httpClient: opts.HTTPClient,
	}
}
