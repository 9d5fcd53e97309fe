package setup

import (
	"context"
	"net/http"

	"github.com/archivelabs/lenny/internal/config"
	"github.com/archivelabs/lenny/internal/http/handler/api"
	"github.com/archivelabs/lenny/internal/http/middleware/ratelimit"
	"github.com/pkg/errors"
)

func getAPIHandlerFromConfig(ctx context.Context, conf *config.Config) (*api.Handler, error) {
	catalog, err := getCatalogFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create catalog from config")
	}

	lending, err := getLendingFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create lending service from config")
	}

	librarian, err := getLibrarianFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create librarian service from config")
	}

	readium, err := getReadiumClientFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create readium client from config")
	}

	taskManager, err := getTaskManagerFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create task manager from config")
	}

	sessionHandler, err := getSessionHandlerFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create session handler from config")
	}

	oauthHandler, err := getOAuthHandlerFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create oauth handler from config")
	}

	rateLimitConf := conf.HTTP.RateLimit
	rateLimit := ratelimit.Middleware(rateLimitConf.Interval, rateLimitConf.MaxBurst, rateLimitConf.CacheSize, rateLimitConf.CacheTTL)

	handler := api.NewHandler(
		catalog, lending, librarian, readium, taskManager,
		api.WithRoute("POST /authenticate/otp", rateLimit(sessionHandler)),
		api.WithRoute("POST /authenticate", rateLimit(sessionHandler)),
		api.WithRoute("POST /logout", sessionHandler),
		api.WithRoute("/oauth/", http.StripPrefix("/oauth", oauthHandler)),
	)

	return handler, nil
}
