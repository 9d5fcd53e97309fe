package session

import (
	"net/http"

	"github.com/pkg/errors"

	httpCtx "github.com/archivelabs/lenny/internal/http/context"
)

const (
	keyEmail = "email"
	keyIP    = "ip"
)

var errSessionNotFound = errors.New("session not found")

// StoreSession binds the patron to the client address of the request.
func (h *Handler) StoreSession(w http.ResponseWriter, r *http.Request, email string) error {
	sess, err := h.sessionStore.New(r, h.sessionName)
	if err != nil {
		// A cookie signed with a rotated key yields an error along with a new session
		if sess == nil {
			return errors.WithStack(err)
		}
	}

	sess.Values[keyEmail] = email
	sess.Values[keyIP] = httpCtx.ClientIP(r.Context())

	if err := sess.Save(r, w); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (h *Handler) retrieveSessionEmail(r *http.Request) (string, error) {
	sess, err := h.sessionStore.Get(r, h.sessionName)
	if err != nil {
		return "", errors.WithStack(errSessionNotFound)
	}

	email, ok := sess.Values[keyEmail].(string)
	if !ok || email == "" {
		return "", errors.WithStack(errSessionNotFound)
	}

	ip, _ := sess.Values[keyIP].(string)
	if ip != httpCtx.ClientIP(r.Context()) {
		return "", errors.WithStack(errSessionNotFound)
	}

	return email, nil
}

func (h *Handler) clearSession(w http.ResponseWriter, r *http.Request) error {
	sess, err := h.sessionStore.Get(r, h.sessionName)
	if err != nil {
		return errors.WithStack(errSessionNotFound)
	}

	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1

	if err := sess.Save(r, w); err != nil {
		return errors.WithStack(err)
	}

	return nil
}
