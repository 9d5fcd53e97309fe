package gorm

import (
	"time"

	"github.com/archivelabs/lenny/internal/core/model"
)

type Loan struct {
	ID string `gorm:"primaryKey;autoIncrement:false"`

	CreatedAt time.Time
	UpdatedAt time.Time

	ItemID string `gorm:"index"`

	Patron string `gorm:"index"`

	StartedAt  time.Time
	ExpiresAt  time.Time `gorm:"index"`
	ReturnedAt *time.Time
}

type wrappedLoan struct {
	l *Loan
}

// ExpiresAt implements model.Loan.
func (w *wrappedLoan) ExpiresAt() time.Time {
	return w.l.ExpiresAt
}

// ID implements model.Loan.
func (w *wrappedLoan) ID() model.LoanID {
	return model.LoanID(w.l.ID)
}

// ItemID implements model.Loan.
func (w *wrappedLoan) ItemID() model.ItemID {
	return model.ItemID(w.l.ItemID)
}

// Patron implements model.Loan.
func (w *wrappedLoan) Patron() model.PatronHash {
	return model.PatronHash(w.l.Patron)
}

// ReturnedAt implements model.Loan.
func (w *wrappedLoan) ReturnedAt() *time.Time {
	return w.l.ReturnedAt
}

// StartedAt implements model.Loan.
func (w *wrappedLoan) StartedAt() time.Time {
	return w.l.StartedAt
}

var _ model.Loan = &wrappedLoan{}

// Loan dates are stored in UTC so that they can be compared in queries.
func fromLoan(l model.Loan) *Loan {
	var returnedAt *time.Time
	if l.ReturnedAt() != nil {
		utc := l.ReturnedAt().UTC()
		returnedAt = &utc
	}

	return &Loan{
		ID:         string(l.ID()),
		ItemID:     string(l.ItemID()),
		Patron:     string(l.Patron()),
		StartedAt:  l.StartedAt().UTC(),
		ExpiresAt:  l.ExpiresAt().UTC(),
		ReturnedAt: returnedAt,
	}
}
