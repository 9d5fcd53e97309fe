package port

import (
	"context"
	"time"

	"github.com/archivelabs/lenny/internal/core/model"
)

type LoanStore interface {
	// CreateLoan atomically creates the loan if the item still has less than
	// maxActive active loans at the loan start time, or returns ErrUnavailable
	CreateLoan(ctx context.Context, loan model.Loan, maxActive int64) error

	// FindActiveLoan returns the active loan of a patron for an item, or ErrNotFound
	FindActiveLoan(ctx context.Context, itemID model.ItemID, patron model.PatronHash, now time.Time) (model.Loan, error)

	// ReturnLoan marks a loan as returned
	ReturnLoan(ctx context.Context, id model.LoanID, returnedAt time.Time) error

	// CountActiveLoans returns the number of active loans of an item
	CountActiveLoans(ctx context.Context, itemID model.ItemID, now time.Time) (int64, error)

	// QueryPatronLoans returns the active loans of a patron
	QueryPatronLoans(ctx context.Context, patron model.PatronHash, now time.Time) ([]model.Loan, error)

	// ExpireLoans marks as returned all the loans expired at the given time and
	// returns the number of affected loans
	ExpireLoans(ctx context.Context, now time.Time) (int64, error)
}
