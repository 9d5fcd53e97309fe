package session

import (
	"net/http"

	"github.com/archivelabs/lenny/internal/core/service"
	"github.com/gorilla/sessions"
)

// Handler authenticates patrons with one time passwords and keeps them
// authenticated with a session cookie.
type Handler struct {
	mux           *http.ServeMux
	sessionStore  sessions.Store
	sessionName   string
	authenticator *service.Authenticator
}

// ServeHTTP implements [http.Handler].
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func NewHandler(sessionStore sessions.Store, authenticator *service.Authenticator, funcs ...OptionFunc) *Handler {
	opts := NewOptions(funcs...)
	h := &Handler{
		mux:           http.NewServeMux(),
		sessionStore:  sessionStore,
		sessionName:   opts.SessionName,
		authenticator: authenticator,
	}

	h.mux.HandleFunc("POST /authenticate/otp", h.handleIssueOTP)
	h.mux.HandleFunc("POST /authenticate", h.handleLogin)
	h.mux.HandleFunc("POST /logout", h.handleLogout)

	return h
}

var _ http.Handler = &Handler{}
