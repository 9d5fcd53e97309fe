package setup

import (
	"context"

	"github.com/archivelabs/lenny/internal/config"
	"github.com/archivelabs/lenny/internal/http"
	"github.com/archivelabs/lenny/internal/http/handler/webui"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewHTTPServerFromConfig(ctx context.Context, conf *config.Config) (*http.Server, error) {
	api, err := getAPIHandlerFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not configure api handler from config")
	}

	authnMiddleware, err := getAuthnMiddlewareFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not configure authn middleware from config")
	}

	options := []http.OptionFunc{
		http.WithAddress(conf.HTTP.Address),
		http.WithBaseURL(conf.HTTP.BaseURL),
		http.WithTrustProxyHeaders(conf.HTTP.TrustProxyHeaders),
		http.WithCORSAllowedOrigins(conf.HTTP.CORSAllowedOrigins...),
		http.WithReadHeaderTimeout(conf.HTTP.ReadHeaderTimeout),
		http.WithMount("/", webui.NewHandler()),
		http.WithMount("/v1/api/", authnMiddleware(api)),
		http.WithMount("/metrics", promhttp.Handler()),
	}

	server := http.NewServer(options...)

	return server, nil
}
