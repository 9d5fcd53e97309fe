package setup

import (
	"context"

	"github.com/archivelabs/lenny/internal/config"
	"github.com/archivelabs/lenny/internal/http/middleware/authn/session"
	"github.com/pkg/errors"
)

var getSessionHandlerFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (*session.Handler, error) {
	sessionStore, err := getSessionStoreFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create session store from config")
	}

	authenticator, err := getAuthenticatorFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create authenticator from config")
	}

	return session.NewHandler(sessionStore, authenticator), nil
})
