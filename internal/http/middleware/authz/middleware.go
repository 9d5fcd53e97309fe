package authz

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/archivelabs/lenny/internal/http/handler/common"
	"github.com/pkg/errors"

	httpCtx "github.com/archivelabs/lenny/internal/http/context"
)

type AssertFunc func(ctx context.Context) (bool, error)

func IsPatron(ctx context.Context) (bool, error) {
	return httpCtx.Patron(ctx) != "", nil
}

func IsLibrarian(ctx context.Context) (bool, error) {
	return httpCtx.Librarian(ctx), nil
}

func OneOf(funcs ...AssertFunc) AssertFunc {
	return func(ctx context.Context) (bool, error) {
		for _, fn := range funcs {
			allowed, err := fn(ctx)
			if err != nil {
				return false, errors.WithStack(err)
			}

			if allowed {
				return true, nil
			}
		}

		return false, nil
	}
}

func Assert(ctx context.Context, funcs ...AssertFunc) (bool, error) {
	for _, fn := range funcs {
		allowed, err := fn(ctx)
		if err != nil {
			return false, errors.WithStack(err)
		}

		if !allowed {
			return false, nil
		}
	}

	return true, nil
}

func Middleware(forbidden http.Handler, funcs ...AssertFunc) func(h http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			allowed, err := Assert(ctx, funcs...)
			if err != nil {
				slog.ErrorContext(ctx, "could not assert authorizations", slog.Any("error", errors.WithStack(err)))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			if !allowed {
				if forbidden == nil {
					common.HandleError(w, r, common.NewHTTPError(http.StatusForbidden))
					return
				}

				forbidden.ServeHTTP(w, r)
				return
			}

			h.ServeHTTP(w, r)
		}

		return http.HandlerFunc(fn)
	}
}

// PatronChallenge answers unauthenticated patron requests, pointing OPDS
// readers to the authentication document.
func PatronChallenge(authDocumentURL string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("WWW-Authenticate", `Bearer realm="lenny"`)
		w.Header().Add("Link", "<"+authDocumentURL+`>; rel="http://opds-spec.org/auth/document"; type="application/opds-authentication+json"`)
		common.HandleError(w, r, common.NewError("unauthorized", "Authentication required.", http.StatusUnauthorized))
	})
}

// LibrarianChallenge asks for the librarian credentials.
func LibrarianChallenge() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("WWW-Authenticate", `Basic realm="lenny", charset="UTF-8"`)
		common.HandleError(w, r, common.NewHTTPError(http.StatusUnauthorized))
	})
}
