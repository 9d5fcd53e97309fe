package bearer

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/archivelabs/lenny/internal/http/middleware/authn"
	"github.com/bornholm/go-x/slogx"
)

const MethodBearer = "bearer"

type TokenValidator interface {
	// ValidateAccessToken returns the email of the patron the token was issued to
	ValidateAccessToken(token string) (string, error)
}

// Authenticator identifies patrons with the OAuth access tokens issued to
// OPDS readers.
type Authenticator struct {
	validator TokenValidator
}

// Authenticate implements [authn.Authenticator].
func (a *Authenticator) Authenticate(w http.ResponseWriter, r *http.Request) (*authn.Patron, error) {
	authorization := r.Header.Get("Authorization")

	token, found := strings.CutPrefix(authorization, "Bearer ")
	if !found || token == "" {
		return nil, nil
	}

	email, err := a.validator.ValidateAccessToken(strings.TrimSpace(token))
	if err != nil {
		slog.DebugContext(r.Context(), "invalid access token", slogx.Error(err))
		return nil, nil
	}

	return &authn.Patron{Email: email, Method: MethodBearer}, nil
}

func NewAuthenticator(validator TokenValidator) *Authenticator {
	return &Authenticator{validator: validator}
}

var _ authn.Authenticator = &Authenticator{}
