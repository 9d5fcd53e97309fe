package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/archivelabs/lenny/internal/http/handler/common"
	"github.com/archivelabs/lenny/internal/opds"
	"github.com/pkg/errors"

	httpCtx "github.com/archivelabs/lenny/internal/http/context"
)

func (h *Handler) handleBorrow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	item, err := h.getItem(r)
	if err != nil {
		common.HandleError(w, r, err)
		return
	}

	loan, err := h.lending.Borrow(ctx, item, httpCtx.Patron(ctx))
	if err != nil {
		common.HandleError(w, r, lendingError(err))
		return
	}

	slog.DebugContext(ctx, "loan created", slog.String("loanID", string(loan.ID())), slog.Time("expiresAt", loan.ExpiresAt()))

	publication, err := h.catalog.BorrowedItemPublication(ctx, item)
	if err != nil {
		common.HandleError(w, r, errors.WithStack(err))
		return
	}

	common.WriteJSONAs(w, r, opds.MediaTypePublication, http.StatusCreated, publication)
}

func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	item, err := h.getItem(r)
	if err != nil {
		common.HandleError(w, r, err)
		return
	}

	if err := h.lending.Return(ctx, item, httpCtx.Patron(ctx)); err != nil {
		common.HandleError(w, r, lendingError(err))
		return
	}

	publication, err := h.catalog.ItemPublication(ctx, item)
	if err != nil {
		common.HandleError(w, r, errors.WithStack(err))
		return
	}

	common.WriteJSONAs(w, r, opds.MediaTypePublication, http.StatusOK, publication)
}

type Loan struct {
	ID        model.LoanID `json:"id"`
	ItemID    model.ItemID `json:"item_id"`
	StartedAt time.Time    `json:"started_at"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type ListLoansResponse struct {
	Loans []Loan `json:"loans"`
}

func (h *Handler) handleListLoans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	loans, err := h.lending.Loans(ctx, httpCtx.Patron(ctx))
	if err != nil {
		common.HandleError(w, r, errors.WithStack(err))
		return
	}

	res := ListLoansResponse{
		Loans: make([]Loan, 0, len(loans)),
	}

	for _, l := range loans {
		res.Loans = append(res.Loans, Loan{
			ID:        l.ID(),
			ItemID:    l.ItemID(),
			StartedAt: l.StartedAt(),
			ExpiresAt: l.ExpiresAt(),
		})
	}

	common.WriteJSON(w, r, http.StatusOK, res)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profile, err := h.catalog.Profile(ctx, httpCtx.Patron(ctx))
	if err != nil {
		common.HandleError(w, r, errors.WithStack(err))
		return
	}

	common.WriteJSONAs(w, r, opds.MediaTypeProfile, http.StatusOK, profile)
}

func (h *Handler) handleShelf(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	shelf, err := h.catalog.Shelf(ctx, httpCtx.Patron(ctx))
	if err != nil {
		common.HandleError(w, r, errors.WithStack(err))
		return
	}

	common.WriteJSONAs(w, r, opds.MediaTypeFeed, http.StatusOK, shelf)
}
