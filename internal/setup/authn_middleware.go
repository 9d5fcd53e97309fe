package setup

import (
	"context"
	"net/http"

	"github.com/archivelabs/lenny/internal/config"
	"github.com/archivelabs/lenny/internal/http/middleware/authn"
	"github.com/archivelabs/lenny/internal/http/middleware/authn/basic"
	"github.com/archivelabs/lenny/internal/http/middleware/authn/bearer"
	"github.com/pkg/errors"
)

// getAuthnMiddlewareFromConfig identifies librarians with the bookshelf
// credentials and patrons with their session cookie or bearer token.
func getAuthnMiddlewareFromConfig(ctx context.Context, conf *config.Config) (func(http.Handler) http.Handler, error) {
	sessionHandler, err := getSessionHandlerFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create session handler from config")
	}

	oauth, err := getOAuthFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create oauth service from config")
	}

	librarian := basic.Middleware(conf.Storage.Bookshelf.AccessKey, conf.Storage.Bookshelf.SecretKey)
	patron := authn.Middleware(sessionHandler, bearer.NewAuthenticator(oauth))

	return func(next http.Handler) http.Handler {
		return librarian(patron(next))
	}, nil
}
