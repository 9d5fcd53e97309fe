package api

import (
	"net/http"

	"github.com/archivelabs/lenny/internal/core/service"
)

type Options struct {
	// MaxUploadSize bounds the size of the upload request bodies
	MaxUploadSize int64
	Routes        map[string]http.Handler
}

type OptionFunc func(opts *Options)

func NewOptions(funcs ...OptionFunc) *Options {
	opts := &Options{
		MaxUploadSize: service.DefaultMaxFileSize,
		Routes:        map[string]http.Handler{},
	}

	for _, fn := range funcs {
		fn(opts)
	}

	return opts
}

func WithMaxUploadSize(size int64) OptionFunc {
	return func(opts *Options) {
		opts.MaxUploadSize = size
	}
}

// WithRoute serves an additional handler on the API mux, i.e. the
// authentication endpoints.
func WithRoute(pattern string, handler http.Handler) OptionFunc {
	return func(opts *Options) {
		opts.Routes[pattern] = handler
	}
}
