package model

import (
	"time"

	"github.com/rs/xid"
)

type LoanID string

func NewLoanID() LoanID {
	return LoanID(xid.New().String())
}

type Loan interface {
	WithID[LoanID]

	ItemID() ItemID
	Patron() PatronHash
	StartedAt() time.Time
	ExpiresAt() time.Time
	ReturnedAt() *time.Time
}

// Active returns true if the loan has neither been returned nor expired at the given time.
func Active(l Loan, now time.Time) bool {
	return l.ReturnedAt() == nil && now.Before(l.ExpiresAt())
}

type BaseLoan struct {
	id         LoanID
	itemID     ItemID
	patron     PatronHash
	startedAt  time.Time
	expiresAt  time.Time
	returnedAt *time.Time
}

// ExpiresAt implements Loan.
func (l *BaseLoan) ExpiresAt() time.Time {
	return l.expiresAt
}

// ID implements Loan.
func (l *BaseLoan) ID() LoanID {
	return l.id
}

// ItemID implements Loan.
func (l *BaseLoan) ItemID() ItemID {
	return l.itemID
}

// Patron implements Loan.
func (l *BaseLoan) Patron() PatronHash {
	return l.patron
}

// ReturnedAt implements Loan.
func (l *BaseLoan) ReturnedAt() *time.Time {
	return l.returnedAt
}

// StartedAt implements Loan.
func (l *BaseLoan) StartedAt() time.Time {
	return l.startedAt
}

var _ Loan = &BaseLoan{}

func NewLoan(itemID ItemID, patron PatronHash, startedAt time.Time, duration time.Duration) *BaseLoan {
	return &BaseLoan{
		id:        NewLoanID(),
		itemID:    itemID,
		patron:    patron,
		startedAt: startedAt,
		expiresAt: startedAt.Add(duration),
	}
}
