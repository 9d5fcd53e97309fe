package oauth

import (
	"net/http"

	"github.com/archivelabs/lenny/internal/core/service"
	"github.com/archivelabs/lenny/internal/http/handler/common"
	"github.com/pkg/errors"
)

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		handleOAuthError(w, r, &service.OAuthError{Code: service.OAuthErrInvalidRequest, Description: "invalid form"})
		return
	}

	res, err := h.oauth.Token(ctx, service.TokenRequest{
		GrantType:    r.PostFormValue("grant_type"),
		Code:         r.PostFormValue("code"),
		RedirectURI:  r.PostFormValue("redirect_uri"),
		ClientID:     r.PostFormValue("client_id"),
		CodeVerifier: r.PostFormValue("code_verifier"),
		RefreshToken: r.PostFormValue("refresh_token"),
	})
	if err != nil {
		handleOAuthError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")

	common.WriteJSON(w, r, http.StatusOK, res)
}

// handleOAuthError writes OAuth errors as defined by RFC 6749, other errors
// are handled as usual.
func handleOAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var oauthErr *service.OAuthError
	if !errors.As(err, &oauthErr) {
		common.HandleError(w, r, errors.WithStack(err))
		return
	}

	statusCode := http.StatusBadRequest
	if oauthErr.Code == service.OAuthErrInvalidClient {
		statusCode = http.StatusUnauthorized
	}

	w.Header().Set("Cache-Control", "no-store")

	common.WriteJSON(w, r, statusCode, oauthErr)
}
