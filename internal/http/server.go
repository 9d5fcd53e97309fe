package http

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/archivelabs/lenny/internal/http/middleware/clientip"
	"github.com/bornholm/go-x/slogx"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	sloghttp "github.com/samber/slog-http"

	httpCtx "github.com/archivelabs/lenny/internal/http/context"
)

type Server struct {
	opts    *Options
	baseURL *url.URL
}

// Run serves the mounted handlers until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return errors.WithStack(err)
	}

	return s.Serve(ctx, listener)
}

func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.opts.ReadHeaderTimeout,
		BaseContext: func(l net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	serveErr := make(chan error, 1)

	slog.InfoContext(ctx, "http server listening", slog.String("address", listener.Addr().String()), slog.String("baseURL", s.baseURL.String()))

	go func() {
		serveErr <- server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "could not shutdown http server")
		}

		return nil

	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return errors.WithStack(err)
	}
}

// Handler returns the root handler of the server, with its middlewares.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	for prefix, handler := range s.opts.Mounts {
		mount(mux, prefix, handler)
	}

	var handler http.Handler = mux

	handler = s.contextMiddleware(handler)
	handler = clientip.Middleware(s.opts.TrustProxyHeaders)(handler)

	handler = cors.New(cors.Options{
		AllowedOrigins:   s.opts.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: !containsWildcard(s.opts.CORSAllowedOrigins),
	}).Handler(handler)

	handler = sloghttp.Recovery(handler)
	handler = sloghttp.NewWithConfig(slog.Default(), sloghttp.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
		WithRequestID:    true,
		Filters: []sloghttp.Filter{
			sloghttp.IgnorePathPrefix("/metrics"),
		},
	})(handler)

	return handler
}

func (s *Server) contextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := httpCtx.SetBaseURL(r.Context(), s.baseURL)
		ctx = slogx.WithAttrs(ctx, slog.String("clientIP", httpCtx.ClientIP(ctx)))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}

	return false
}

func mount(mux *http.ServeMux, prefix string, handler http.Handler) {
	trimmed := strings.TrimSuffix(prefix, "/")

	if len(trimmed) > 0 {
		mux.Handle(prefix, http.StripPrefix(trimmed, handler))
	} else {
		mux.Handle(prefix, handler)
	}
}

func NewServer(funcs ...OptionFunc) *Server {
	opts := NewOptions(funcs...)

	baseURL, err := url.Parse(opts.BaseURL)
	if err != nil || opts.BaseURL == "" {
		baseURL = &url.URL{Path: "/"}
	}

	return &Server{
		opts:    opts,
		baseURL: baseURL,
	}
}
