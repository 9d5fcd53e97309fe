package authn

import (
	"log/slog"
	"net/http"

	"github.com/archivelabs/lenny/internal/http/handler/common"
	"github.com/bornholm/go-x/slogx"
	"github.com/pkg/errors"

	httpCtx "github.com/archivelabs/lenny/internal/http/context"
)

// Patron is an authenticated patron.
type Patron struct {
	Email string
	// Method used to authenticate the patron
	Method string
}

type Authenticator interface {
	// Authenticate returns the patron of the request, or nil if the request
	// does not carry any identity this authenticator knows about
	Authenticate(w http.ResponseWriter, r *http.Request) (*Patron, error)
}

// Middleware identifies the patron of the request with the first
// authenticator recognizing it. Anonymous requests are forwarded as is:
// access control is left to the authz middleware.
func Middleware(authenticators ...Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		var fn http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			for _, authenticator := range authenticators {
				patron, err := authenticator.Authenticate(w, r)
				if err != nil {
					slog.ErrorContext(r.Context(), "could not authenticate patron", slogx.Error(errors.WithStack(err)))
					common.HandleError(w, r, err)
					return
				}

				if patron == nil {
					continue
				}

				ctx := httpCtx.SetPatron(r.Context(), patron.Email)
				ctx = slogx.WithAttrs(ctx, slog.String("authMethod", patron.Method))

				r = r.WithContext(ctx)

				break
			}

			next.ServeHTTP(w, r)
		}

		return fn
	}
}
