package service

import "github.com/pkg/errors"

var (
	ErrLoanNotRequired  = errors.New("item is open access and does not require a loan")
	ErrItemNotLendable  = errors.New("item is not lendable")
	ErrExistingLoan     = errors.New("patron already has an active loan for this item")
	ErrLoanLimitReached = errors.New("patron reached the maximum number of active loans")
	ErrItemUnavailable  = errors.New("no copy of the item is currently available")
	ErrLoanNotFound     = errors.New("no active loan found")
)

var (
	ErrInvalidFile  = errors.New("invalid file")
	ErrFileTooLarge = errors.New("file too large")
	ErrItemExists   = errors.New("item already exists")
)

var (
	ErrRateLimited = errors.New("too many requests")
	ErrInvalidOTP  = errors.New("invalid one time password")
)
