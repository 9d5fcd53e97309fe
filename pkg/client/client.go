package client

import (
	"net/http"
	"net/url"
)

// Client talks to the lending API of a Lenny server.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	accessKey  string
	secretKey  string
}

func New(funcs ...OptionFunc) *Client {
	opts := NewOptions(funcs...)
	return &Client{
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		accessKey:  opts.AccessKey,
		secretKey:  opts.SecretKey,
	}
}
