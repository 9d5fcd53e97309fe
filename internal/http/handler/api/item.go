package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/archivelabs/lenny/internal/core/service"
	"github.com/archivelabs/lenny/internal/http/handler/common"
	"github.com/pkg/errors"
)

const (
	formEdition   = "openlibrary_edition"
	formEncrypted = "encrypted"
	formFile      = "file"

	// Memory used to parse multipart forms, larger files are spilled to disk
	multipartMaxMemory = 32 << 20
	multipartOverhead  = 1 << 20
)

type Item struct {
	ID                 model.ItemID `json:"id"`
	OpenLibraryEdition int64        `json:"openlibrary_edition"`
	OLID               string       `json:"olid"`
	Encrypted          bool         `json:"encrypted"`
	Formats            model.Format `json:"formats"`
	LendableCopies     int64        `json:"lendable_copies"`
	IsLendable         bool         `json:"is_lendable"`
	IsWaitlistable     bool         `json:"is_waitlistable"`
	IsPrintDisabled    bool         `json:"is_printdisabled"`
	IsLoginRequired    bool         `json:"is_login_required"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

func toItem(i model.PersistedItem) Item {
	return Item{
		ID:                 i.ID(),
		OpenLibraryEdition: int64(i.Edition()),
		OLID:               i.Edition().OLID(),
		Encrypted:          i.Encrypted(),
		Formats:            i.Formats(),
		LendableCopies:     i.LendableCopies(),
		IsLendable:         i.Lendable(),
		IsWaitlistable:     i.Waitlistable(),
		IsPrintDisabled:    i.PrintDisabled(),
		IsLoginRequired:    i.LoginRequired(),
		CreatedAt:          i.CreatedAt(),
		UpdatedAt:          i.UpdatedAt(),
	}
}

type ListItemsResponse struct {
	Items  []Item `json:"items"`
	Total  int64  `json:"total"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	offset := getQueryOffset(r.URL.Query())
	limit := getQueryLimit(r.URL.Query(), defaultLimit)

	items, total, err := h.catalog.Items(ctx, offset, limit)
	if err != nil {
		common.HandleError(w, r, errors.WithStack(err))
		return
	}

	res := ListItemsResponse{
		Items:  make([]Item, 0, len(items)),
		Total:  total,
		Offset: offset,
		Limit:  limit,
	}

	for _, i := range items {
		res.Items = append(res.Items, toItem(i))
	}

	common.WriteJSON(w, r, http.StatusOK, res)
}

type UploadResponse struct {
	Item Item `json:"item"`
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadSize+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMaxMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			common.HandleError(w, r, common.NewError("file_too_large", "The uploaded file is too large.", http.StatusRequestEntityTooLarge))
			return
		}

		common.HandleError(w, r, common.NewError("invalid_request", "The request must be a multipart form.", http.StatusBadRequest))
		return
	}

	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			slog.WarnContext(ctx, "could not remove multipart temporary files", slog.Any("error", errors.WithStack(err)))
		}
	}()

	edition, err := model.ParseEdition(r.FormValue(formEdition))
	if err != nil {
		common.HandleError(w, r, common.NewError("invalid_edition", "A valid open library edition (i.e. OL123M) is required.", http.StatusBadRequest))
		return
	}

	encrypted := false
	if raw := r.FormValue(formEncrypted); raw != "" {
		encrypted, err = strconv.ParseBool(raw)
		if err != nil {
			common.HandleError(w, r, common.NewError("invalid_encrypted", "The encrypted field must be a boolean.", http.StatusBadRequest))
			return
		}
	}

	file, fileHeader, err := r.FormFile(formFile)
	if err != nil {
		common.HandleError(w, r, common.NewError("missing_file", "A file is required.", http.StatusBadRequest))
		return
	}

	defer file.Close()

	item, err := h.librarian.Upload(ctx, service.UploadRequest{
		Edition:   edition,
		Encrypted: encrypted,
		Filename:  fileHeader.Filename,
		Size:      fileHeader.Size,
		File:      file,
	})
	if err != nil {
		common.HandleError(w, r, uploadError(err))
		return
	}

	common.WriteJSON(w, r, http.StatusCreated, UploadResponse{Item: toItem(item)})
}

func (h *Handler) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	itemID := model.ItemID(r.PathValue("itemID"))

	if err := h.librarian.Delete(ctx, itemID); err != nil {
		common.HandleError(w, r, uploadError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
