package api

import (
	"net/http"

	"github.com/archivelabs/lenny/internal/http/handler/common"
	"github.com/archivelabs/lenny/internal/opds"
	"github.com/pkg/errors"

	httpCtx "github.com/archivelabs/lenny/internal/http/context"
)

func (h *Handler) handleFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	offset := getQueryOffset(r.URL.Query())
	limit := getQueryLimit(r.URL.Query(), defaultLimit)

	feed, err := h.catalog.Feed(ctx, offset, limit)
	if err != nil {
		common.HandleError(w, r, errors.WithStack(err))
		return
	}

	common.WriteJSONAs(w, r, opds.MediaTypeFeed, http.StatusOK, feed)
}

func (h *Handler) handlePublication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	item, err := h.getItem(r)
	if err != nil {
		common.HandleError(w, r, err)
		return
	}

	var publication *opds.Publication

	// Patrons holding a loan get the reading links
	if email := httpCtx.Patron(ctx); email != "" && item.Encrypted() {
		hasAccess, err := h.lending.HasAccess(ctx, item, email)
		if err != nil {
			common.HandleError(w, r, errors.WithStack(err))
			return
		}

		if hasAccess {
			publication, err = h.catalog.BorrowedItemPublication(ctx, item)
			if err != nil {
				common.HandleError(w, r, errors.WithStack(err))
				return
			}
		}
	}

	if publication == nil {
		publication, err = h.catalog.ItemPublication(ctx, item)
		if err != nil {
			common.HandleError(w, r, errors.WithStack(err))
			return
		}
	}

	common.WriteJSONAs(w, r, opds.MediaTypePublication, http.StatusOK, publication)
}
