package oauth

import (
	"net/http"

	"github.com/archivelabs/lenny/internal/core/service"
)

// SessionLogin opens a patron session from a one time password.
type SessionLogin interface {
	Login(w http.ResponseWriter, r *http.Request, email string, otp string) (string, error)
}

// Handler serves the OAuth 2.0 authorization code flow used by OPDS readers.
type Handler struct {
	mux           *http.ServeMux
	oauth         *service.OAuth
	catalog       *service.Catalog
	authenticator *service.Authenticator
	session       SessionLogin
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func NewHandler(oauth *service.OAuth, catalog *service.Catalog, authenticator *service.Authenticator, session SessionLogin) *Handler {
	h := &Handler{
		mux:           http.NewServeMux(),
		oauth:         oauth,
		catalog:       catalog,
		authenticator: authenticator,
		session:       session,
	}

	h.mux.HandleFunc("GET /implicit", h.handleAuthenticationDocument)
	h.mux.HandleFunc("GET /authorize", h.handleAuthorize)
	h.mux.HandleFunc("POST /authorize", h.handleAuthorizeForm)
	h.mux.HandleFunc("POST /token", h.handleToken)

	return h
}

var _ http.Handler = &Handler{}
