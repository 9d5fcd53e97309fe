package http

import (
	"net/http"
	"time"
)

type Options struct {
	Address            string
	BaseURL            string
	CORSAllowedOrigins []string
	TrustProxyHeaders  bool
	ShutdownTimeout    time.Duration
	ReadHeaderTimeout  time.Duration
	Mounts             map[string]http.Handler
}

type OptionFunc func(opts *Options)

func NewOptions(funcs ...OptionFunc) *Options {
	opts := &Options{
		Address:            ":8080",
		BaseURL:            "",
		CORSAllowedOrigins: []string{"*"},
		ShutdownTimeout:    10 * time.Second,
		ReadHeaderTimeout:  10 * time.Second,
		Mounts:             map[string]http.Handler{},
	}
	for _, fn := range funcs {
		fn(opts)
	}
	return opts
}

func WithMount(prefix string, handler http.Handler) OptionFunc {
	return func(opts *Options) {
		opts.Mounts[prefix] = handler
	}
}

func WithBaseURL(baseURL string) OptionFunc {
	return func(opts *Options) {
		opts.BaseURL = baseURL
	}
}

func WithAddress(addr string) OptionFunc {
	return func(opts *Options) {
		opts.Address = addr
	}
}

func WithCORSAllowedOrigins(origins ...string) OptionFunc {
	return func(opts *Options) {
		opts.CORSAllowedOrigins = origins
	}
}

func WithTrustProxyHeaders(trust bool) OptionFunc {
	return func(opts *Options) {
		opts.TrustProxyHeaders = trust
	}
}

func WithReadHeaderTimeout(timeout time.Duration) OptionFunc {
	return func(opts *Options) {
		opts.ReadHeaderTimeout = timeout
	}
}
