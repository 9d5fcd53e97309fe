package oauth

import (
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/archivelabs/lenny/internal/core/service"
	"github.com/archivelabs/lenny/internal/http/handler/common"
	"github.com/archivelabs/lenny/internal/http/handler/oauth/component"
	"github.com/bornholm/go-x/slogx"
	"github.com/pkg/errors"

	httpCtx "github.com/archivelabs/lenny/internal/http/context"
)

const (
	actionIssue = "issue"
	actionLogin = "login"
)

func (h *Handler) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := service.ParseAuthorizeRequest(r.URL.Query())

	client, err := h.oauth.ValidateAuthorize(ctx, req)
	if err != nil {
		handleOAuthError(w, r, err)
		return
	}

	if email := httpCtx.Patron(ctx); email != "" {
		h.authorize(w, r, client, req, email)
		return
	}

	h.renderLoginForm(w, r, http.StatusOK, component.LoginFormVModel{
		ClientName: client.Name(),
		Action:     h.formAction(req),
		Step:       component.LoginStepEmail,
	})
}

func (h *Handler) handleAuthorizeForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		common.HandleError(w, r, common.NewHTTPError(http.StatusBadRequest))
		return
	}

	req := service.ParseAuthorizeRequest(r.Form)

	client, err := h.oauth.ValidateAuthorize(ctx, req)
	if err != nil {
		handleOAuthError(w, r, err)
		return
	}

	vmodel := component.LoginFormVModel{
		ClientName: client.Name(),
		Action:     h.formAction(req),
		Email:      r.PostFormValue("email"),
		Step:       component.LoginStepEmail,
	}

	if vmodel.Email == "" {
		vmodel.Error = "An email address is required."
		h.renderLoginForm(w, r, http.StatusBadRequest, vmodel)
		return
	}

	switch r.PostFormValue("action") {
	case actionIssue:
		if err := h.authenticator.Issue(ctx, vmodel.Email, httpCtx.ClientIP(ctx)); err != nil {
			vmodel.Error, err = userMessage(err)
			if err != nil {
				common.HandleError(w, r, err)
				return
			}

			h.renderLoginForm(w, r, http.StatusTooManyRequests, vmodel)
			return
		}

		vmodel.Step = component.LoginStepOTP
		vmodel.Message = "A one time password was sent to your email address."

		h.renderLoginForm(w, r, http.StatusOK, vmodel)

	case actionLogin:
		vmodel.Step = component.LoginStepOTP

		email, err := h.session.Login(w, r, vmodel.Email, r.PostFormValue("otp"))
		if err != nil {
			vmodel.Error, err = userMessage(err)
			if err != nil {
				common.HandleError(w, r, err)
				return
			}

			h.renderLoginForm(w, r, http.StatusUnauthorized, vmodel)
			return
		}

		h.authorize(w, r, client, req, email)

	default:
		vmodel.Error = "Unsupported action."
		h.renderLoginForm(w, r, http.StatusBadRequest, vmodel)
	}
}

func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, client model.Client, req service.AuthorizeRequest, email string) {
	ctx := r.Context()

	code, err := h.oauth.Authorize(ctx, req, email)
	if err != nil {
		handleOAuthError(w, r, err)
		return
	}

	redirectURL := service.RedirectURL(req.RedirectURI, code, req.State)

	if !service.IsAppRedirect(req.RedirectURI) {
		http.Redirect(w, r, redirectURL, http.StatusFound)
		return
	}

	h.render(w, r, http.StatusOK, component.Authorized(component.AuthorizedVModel{
		ClientName:  client.Name(),
		Code:        code,
		RedirectURL: redirectURL,
	}))
}

func (h *Handler) formAction(req service.AuthorizeRequest) string {
	return h.catalog.URL("oauth", "authorize") + "?" + req.Values().Encode()
}

func (h *Handler) renderLoginForm(w http.ResponseWriter, r *http.Request, statusCode int, vmodel component.LoginFormVModel) {
	h.render(w, r, statusCode, component.LoginForm(vmodel))
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, statusCode int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)

	if err := c.Render(r.Context(), w); err != nil {
		slog.ErrorContext(r.Context(), "could not render page", slogx.Error(errors.WithStack(err)))
	}
}

// userMessage returns the message of user facing errors, or the error itself
// otherwise.
func userMessage(err error) (string, error) {
	switch {
	case errors.Is(err, service.ErrRateLimited):
		return "Too many attempts, please try again later.", nil
	case errors.Is(err, service.ErrInvalidOTP):
		return "The one time password is invalid or expired.", nil
	}

	var userFacingErr common.UserFacingError
	if errors.As(err, &userFacingErr) {
		return userFacingErr.UserMessage(), nil
	}

	return "", errors.WithStack(err)
}
