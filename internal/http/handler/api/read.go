package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/archivelabs/lenny/internal/http/handler/common"
	"github.com/archivelabs/lenny/internal/http/middleware/authz"
	"github.com/archivelabs/lenny/internal/readium"
	"github.com/bornholm/go-x/slogx"
	"github.com/pkg/errors"

	httpCtx "github.com/archivelabs/lenny/internal/http/context"
)

const mediaTypeWebPub = "application/webpub+json"

func (h *Handler) manifestURL(item model.Item) string {
	return h.catalog.URL("items", string(item.ID()), "readium", "manifest.json")
}

// readableItem returns the requested item if the request is allowed to read
// it. Otherwise the response is written and nil is returned.
func (h *Handler) readableItem(w http.ResponseWriter, r *http.Request) model.PersistedItem {
	ctx := r.Context()

	item, err := h.getItem(r)
	if err != nil {
		common.HandleError(w, r, err)
		return nil
	}

	if !item.Encrypted() {
		return item
	}

	email := httpCtx.Patron(ctx)
	if email == "" {
		authz.PatronChallenge(h.catalog.URL(authDocumentPath)).ServeHTTP(w, r)
		return nil
	}

	hasAccess, err := h.lending.HasAccess(ctx, item, email)
	if err != nil {
		common.HandleError(w, r, errors.WithStack(err))
		return nil
	}

	if !hasAccess {
		common.HandleError(w, r, errNoAccess)
		return nil
	}

	return item
}

func (h *Handler) handleRead(w http.ResponseWriter, r *http.Request) {
	item := h.readableItem(w, r)
	if item == nil {
		return
	}

	http.Redirect(w, r, h.publications.ReaderURL(h.manifestURL(item)), http.StatusFound)
}

func (h *Handler) handleManifest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	item := h.readableItem(w, r)
	if item == nil {
		return
	}

	manifest, err := h.publications.Manifest(ctx, item.ObjectKey())
	if err != nil {
		common.HandleError(w, r, publicationError(ctx, err))
		return
	}

	manifest = readium.PatchManifest(manifest, h.manifestURL(item))

	common.WriteJSONAs(w, r, mediaTypeWebPub, http.StatusOK, manifest)
}

func (h *Handler) handleResource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	item := h.readableItem(w, r)
	if item == nil {
		return
	}

	resource, contentType, err := h.publications.Resource(ctx, item.ObjectKey(), r.PathValue("path"))
	if err != nil {
		common.HandleError(w, r, publicationError(ctx, err))
		return
	}

	defer resource.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, resource); err != nil {
		slog.WarnContext(ctx, "could not stream publication resource", slogx.Error(errors.WithStack(err)))
	}
}

var errPublicationServerUnavailable = common.NewError("publication_server_unavailable", "The publication server could not be reached.", http.StatusBadGateway)

func publicationError(ctx context.Context, err error) error {
	if errors.Is(err, port.ErrNotFound) {
		return common.NewError("resource_not_found", "The requested publication resource does not exist.", http.StatusNotFound)
	}

	slog.ErrorContext(ctx, "could not retrieve publication from publication server", slogx.Error(errors.WithStack(err)))

	return errPublicationServerUnavailable
}
