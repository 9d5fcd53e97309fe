package gorm

import (
	"context"
	"time"

	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const activeLoanCondition = "returned_at IS NULL AND expires_at > ?"

// CreateLoan implements port.LoanStore.
func (s *Store) CreateLoan(ctx context.Context, loan model.Loan, maxActive int64) error {
	gormLoan := fromLoan(loan)

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		var existing int64
		err := db.Model(&Loan{}).
			Where("item_id = ? AND patron = ?", gormLoan.ItemID, gormLoan.Patron).
			Where(activeLoanCondition, gormLoan.StartedAt).
			Count(&existing).Error
		if err != nil {
			return errors.WithStack(err)
		}

		if existing > 0 {
			return errors.WithStack(port.ErrAlreadyExists)
		}

		var active int64
		err = db.Model(&Loan{}).
			Where("item_id = ?", gormLoan.ItemID).
			Where(activeLoanCondition, gormLoan.StartedAt).
			Count(&active).Error
		if err != nil {
			return errors.WithStack(err)
		}

		if active >= maxActive {
			return errors.WithStack(port.ErrUnavailable)
		}

		if err := db.Create(gormLoan).Error; err != nil {
			return errors.WithStack(err)
		}

		return nil
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// FindActiveLoan implements port.LoanStore.
func (s *Store) FindActiveLoan(ctx context.Context, itemID model.ItemID, patron model.PatronHash, now time.Time) (model.Loan, error) {
	var loan Loan

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		err := db.Where("item_id = ? AND patron = ?", string(itemID), string(patron)).
			Where(activeLoanCondition, now.UTC()).
			Order("started_at DESC").
			First(&loan).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.WithStack(port.ErrNotFound)
			}

			return errors.WithStack(err)
		}

		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &wrappedLoan{&loan}, nil
}

// ReturnLoan implements port.LoanStore.
func (s *Store) ReturnLoan(ctx context.Context, id model.LoanID, returnedAt time.Time) error {
	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		result := db.Model(&Loan{}).
			Where("id = ? AND returned_at IS NULL", string(id)).
			Update("returned_at", returnedAt.UTC())
		if result.Error != nil {
			return errors.WithStack(result.Error)
		}

		if result.RowsAffected == 0 {
			return errors.WithStack(port.ErrNotFound)
		}

		return nil
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// CountActiveLoans implements port.LoanStore.
func (s *Store) CountActiveLoans(ctx context.Context, itemID model.ItemID, now time.Time) (int64, error) {
	var count int64

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		err := db.Model(&Loan{}).
			Where("item_id = ?", string(itemID)).
			Where(activeLoanCondition, now.UTC()).
			Count(&count).Error
		if err != nil {
			return errors.WithStack(err)
		}

		return nil
	})
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return count, nil
}

// QueryPatronLoans implements port.LoanStore.
func (s *Store) QueryPatronLoans(ctx context.Context, patron model.PatronHash, now time.Time) ([]model.Loan, error) {
	var loans []*Loan

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		err := db.Where("patron = ?", string(patron)).
			Where(activeLoanCondition, now.UTC()).
			Order("started_at DESC").
			Find(&loans).Error
		if err != nil {
			return errors.WithStack(err)
		}

		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	wrappedLoans := make([]model.Loan, 0, len(loans))
	for _, l := range loans {
		wrappedLoans = append(wrappedLoans, &wrappedLoan{l})
	}

	return wrappedLoans, nil
}

// ExpireLoans implements port.LoanStore.
func (s *Store) ExpireLoans(ctx context.Context, now time.Time) (int64, error) {
	var expired int64

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		result := db.Model(&Loan{}).
			Where("returned_at IS NULL AND expires_at <= ?", now.UTC()).
			Update("returned_at", gorm.Expr("expires_at"))
		if result.Error != nil {
			return errors.WithStack(result.Error)
		}

		expired = result.RowsAffected

		return nil
	})
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return expired, nil
}
