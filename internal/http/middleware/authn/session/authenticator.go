package session

import (
	"net/http"

	"github.com/archivelabs/lenny/internal/http/middleware/authn"
	"github.com/pkg/errors"
)

const MethodSession = "session"

// Authenticate implements [authn.Authenticator].
func (h *Handler) Authenticate(w http.ResponseWriter, r *http.Request) (*authn.Patron, error) {
	email, err := h.retrieveSessionEmail(r)
	if err != nil {
		if errors.Is(err, errSessionNotFound) {
			return nil, nil
		}

		return nil, errors.WithStack(err)
	}

	return &authn.Patron{Email: email, Method: MethodSession}, nil
}

var _ authn.Authenticator = &Handler{}
