package basic

import (
	"crypto/sha256"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/bornholm/go-x/slogx"

	httpCtx "github.com/archivelabs/lenny/internal/http/context"
)

// Middleware flags the requests carrying the librarian credentials.
// Credentials are compared in constant time.
func Middleware(username string, password string) func(http.Handler) http.Handler {
	expectedUsername := sha256.Sum256([]byte(username))
	expectedPassword := sha256.Sum256([]byte(password))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if ok && username != "" && password != "" {
				usernameHash := sha256.Sum256([]byte(user))
				passwordHash := sha256.Sum256([]byte(pass))

				usernameMatch := (subtle.ConstantTimeCompare(usernameHash[:], expectedUsername[:]) == 1)
				passwordMatch := (subtle.ConstantTimeCompare(passwordHash[:], expectedPassword[:]) == 1)

				if usernameMatch && passwordMatch {
					ctx := httpCtx.SetLibrarian(r.Context(), true)
					ctx = slogx.WithAttrs(ctx, slog.Bool("librarian", true))

					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
