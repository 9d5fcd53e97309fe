package api

import (
	"net/http"

	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/archivelabs/lenny/internal/core/service"
	"github.com/archivelabs/lenny/internal/http/handler/common"
	"github.com/pkg/errors"
)

var (
	errLoanNotRequired  = common.NewError("loan_not_required", "This item is open access and can be read without borrowing it.", http.StatusBadRequest)
	errItemNotLendable  = common.NewError("item_not_lendable", "This item cannot be borrowed.", http.StatusForbidden)
	errExistingLoan     = common.NewError("existing_loan", "You already borrowed this item.", http.StatusConflict)
	errLoanLimitReached = common.NewError("loan_limit_reached", "You reached the maximum number of borrowed items.", http.StatusForbidden)
	errItemUnavailable  = common.NewError("item_unavailable", "All copies of this item are currently borrowed.", http.StatusConflict)
	errLoanNotFound     = common.NewError("loan_not_found", "You did not borrow this item.", http.StatusNotFound)
	errNoAccess         = common.NewError("loan_required", "You must borrow this item before reading it.", http.StatusForbidden)
)

// lendingError maps the lending errors to their API counterpart.
func lendingError(err error) error {
	switch {
	case errors.Is(err, service.ErrLoanNotRequired):
		return errLoanNotRequired
	case errors.Is(err, service.ErrItemNotLendable):
		return errItemNotLendable
	case errors.Is(err, service.ErrExistingLoan):
		return errExistingLoan
	case errors.Is(err, service.ErrLoanLimitReached):
		return errLoanLimitReached
	case errors.Is(err, service.ErrItemUnavailable):
		return errItemUnavailable
	case errors.Is(err, service.ErrLoanNotFound):
		return errLoanNotFound
	default:
		return errors.WithStack(err)
	}
}

func uploadError(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidFile):
		return common.NewError("invalid_file", err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrFileTooLarge):
		return common.NewError("file_too_large", err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, service.ErrItemExists):
		return common.NewError("item_exists", "An item with the same edition and encryption already exists.", http.StatusConflict)
	case errors.Is(err, port.ErrNotFound):
		return common.NewError("item_not_found", "The requested item does not exist.", http.StatusNotFound)
	default:
		return errors.WithStack(err)
	}
}
