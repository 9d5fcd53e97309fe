package setup

import (
	"context"

	"github.com/archivelabs/lenny/internal/config"
	"github.com/archivelabs/lenny/internal/http/handler/oauth"
	"github.com/pkg/errors"
)

func getOAuthHandlerFromConfig(ctx context.Context, conf *config.Config) (*oauth.Handler, error) {
	oauthService, err := getOAuthFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create oauth service from config")
	}

	catalog, err := getCatalogFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create catalog from config")
	}

	authenticator, err := getAuthenticatorFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create authenticator from config")
	}

	sessionHandler, err := getSessionHandlerFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create session handler from config")
	}

	return oauth.NewHandler(oauthService, catalog, authenticator, sessionHandler), nil
}
