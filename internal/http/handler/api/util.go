package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/archivelabs/lenny/internal/http/handler/common"
	"github.com/pkg/errors"
)

const (
	authDocumentPath = "oauth/implicit"
	defaultLimit     = 50
	maxLimit         = 500
)

func getQueryOffset(query url.Values) int {
	return max(getQueryInt(query, "offset", 0), 0)
}

func getQueryLimit(query url.Values, defaultValue int) int {
	limit := getQueryInt(query, "limit", defaultValue)
	if limit <= 0 {
		return defaultValue
	}

	return min(limit, maxLimit)
}

func getQueryInt(query url.Values, name string, defaultValue int) int {
	raw := query.Get(name)
	if raw == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return defaultValue
	}

	return int(value)
}

func (h *Handler) getItem(r *http.Request) (model.PersistedItem, error) {
	itemID := model.ItemID(r.PathValue("itemID"))

	item, err := h.catalog.Item(r.Context(), itemID)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return nil, common.NewError("item_not_found", "The requested item does not exist.", http.StatusNotFound)
		}

		return nil, errors.WithStack(err)
	}

	return item, nil
}
