package session

import (
	"log/slog"
	"net/http"

	"github.com/archivelabs/lenny/internal/core/service"
	"github.com/archivelabs/lenny/internal/http/handler/common"
	"github.com/bornholm/go-x/slogx"
	"github.com/pkg/errors"

	httpCtx "github.com/archivelabs/lenny/internal/http/context"
)

type AuthenticationResponse struct {
	Success bool   `json:"success"`
	Email   string `json:"email,omitempty"`
}

func (h *Handler) handleIssueOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		common.HandleError(w, r, common.NewHTTPError(http.StatusBadRequest))
		return
	}

	email := r.FormValue("email")
	if email == "" {
		common.HandleError(w, r, common.NewError("missing email", "An email address is required.", http.StatusBadRequest))
		return
	}

	if err := h.authenticator.Issue(ctx, email, httpCtx.ClientIP(ctx)); err != nil {
		common.HandleError(w, r, authenticationError(err))
		return
	}

	common.WriteJSON(w, r, http.StatusOK, AuthenticationResponse{Success: true})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		common.HandleError(w, r, common.NewHTTPError(http.StatusBadRequest))
		return
	}

	email, otp := r.FormValue("email"), r.FormValue("otp")
	if email == "" || otp == "" {
		common.HandleError(w, r, common.NewError("missing credentials", "An email address and a one time password are required.", http.StatusBadRequest))
		return
	}

	email, err := h.Login(w, r, email, otp)
	if err != nil {
		common.HandleError(w, r, err)
		return
	}

	slog.InfoContext(ctx, "patron authenticated")

	common.WriteJSON(w, r, http.StatusOK, AuthenticationResponse{Success: true, Email: email})
}

// Login redeems the one time password and opens a session on success. The
// returned errors are suitable for common.HandleError.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request, email string, otp string) (string, error) {
	ctx := r.Context()

	email, err := h.authenticator.Authenticate(ctx, email, otp, httpCtx.ClientIP(ctx))
	if err != nil {
		return "", authenticationError(err)
	}

	if err := h.StoreSession(w, r, email); err != nil {
		slog.ErrorContext(ctx, "could not store session", slogx.Error(err))
		return "", errors.WithStack(err)
	}

	return email, nil
}

func authenticationError(err error) error {
	switch {
	case errors.Is(err, service.ErrRateLimited):
		return common.NewError(err.Error(), "Too many attempts, please try again later.", http.StatusTooManyRequests)
	case errors.Is(err, service.ErrInvalidOTP):
		return common.NewError(err.Error(), "The one time password is invalid or expired.", http.StatusUnauthorized)
	default:
		return errors.WithStack(err)
	}
}
