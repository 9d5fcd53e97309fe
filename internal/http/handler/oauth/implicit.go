package oauth

import (
	"net/http"

	"github.com/archivelabs/lenny/internal/http/handler/common"
	"github.com/archivelabs/lenny/internal/opds"
)

func (h *Handler) handleAuthenticationDocument(w http.ResponseWriter, r *http.Request) {
	common.WriteJSONAs(w, r, opds.MediaTypeAuthentication, http.StatusOK, h.catalog.AuthenticationDocument())
}
