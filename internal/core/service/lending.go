package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/archivelabs/lenny/internal/metrics"
	"github.com/bornholm/go-x/slogx"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

type LendingOptions struct {
	LoanDuration      time.Duration
	MaxLoansPerPatron int64
	Now               func() time.Time
}

type LendingOptionFunc func(opts *LendingOptions)

func WithLoanDuration(duration time.Duration) LendingOptionFunc {
	return func(opts *LendingOptions) {
		opts.LoanDuration = duration
	}
}

// WithMaxLoansPerPatron sets the number of simultaneous active loans a patron
// may hold. Zero or less disables the limit.
func WithMaxLoansPerPatron(max int64) LendingOptionFunc {
	return func(opts *LendingOptions) {
		opts.MaxLoansPerPatron = max
	}
}

func WithLendingClock(now func() time.Time) LendingOptionFunc {
	return func(opts *LendingOptions) {
		opts.Now = now
	}
}

func NewLendingOptions(funcs ...LendingOptionFunc) *LendingOptions {
	opts := &LendingOptions{
		LoanDuration:      14 * 24 * time.Hour,
		MaxLoansPerPatron: 10,
		Now:               time.Now,
	}
	for _, fn := range funcs {
		fn(opts)
	}
	return opts
}

// Lending manages the loans of encrypted items. Patrons are identified by
// their email, which is never persisted in clear.
type Lending struct {
	items port.ItemStore
	loans port.LoanStore
	seed  []byte

	loanDuration      time.Duration
	maxLoansPerPatron int64
	now               func() time.Time
}

func (l *Lending) Patron(email string) model.PatronHash {
	return model.HashEmail(l.seed, email)
}

func (l *Lending) MaxLoansPerPatron() int64 {
	return l.maxLoansPerPatron
}

func (l *Lending) Borrow(ctx context.Context, item model.Item, email string) (model.Loan, error) {
	loan, err := l.borrow(ctx, item, email)

	outcome := "success"
	if err != nil {
		outcome = borrowOutcome(err)
	}

	metrics.Borrows.With(prometheus.Labels{metrics.LabelOutcome: outcome}).Inc()

	if err != nil {
		return nil, errors.WithStack(err)
	}

	return loan, nil
}

func (l *Lending) borrow(ctx context.Context, item model.Item, email string) (model.Loan, error) {
	if !item.Encrypted() {
		return nil, errors.WithStack(ErrLoanNotRequired)
	}

	if !item.Lendable() {
		return nil, errors.WithStack(ErrItemNotLendable)
	}

	patron := l.Patron(email)
	now := l.now()

	if _, err := l.loans.FindActiveLoan(ctx, item.ID(), patron, now); err == nil {
		return nil, errors.WithStack(ErrExistingLoan)
	} else if !errors.Is(err, port.ErrNotFound) {
		return nil, errors.WithStack(err)
	}

	if l.maxLoansPerPatron > 0 {
		active, err := l.loans.QueryPatronLoans(ctx, patron, now)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		if int64(len(active)) >= l.maxLoansPerPatron {
			return nil, errors.WithStack(ErrLoanLimitReached)
		}
	}

	loan := model.NewLoan(item.ID(), patron, now, l.loanDuration)

	if err := l.loans.CreateLoan(ctx, loan, item.LendableCopies()); err != nil {
		switch {
		case errors.Is(err, port.ErrUnavailable):
			return nil, errors.WithStack(ErrItemUnavailable)
		case errors.Is(err, port.ErrAlreadyExists):
			return nil, errors.WithStack(ErrExistingLoan)
		default:
			return nil, errors.WithStack(err)
		}
	}

	slog.InfoContext(ctx, "item borrowed", slog.String("itemID", string(item.ID())), slog.String("loanID", string(loan.ID())))

	return loan, nil
}

func borrowOutcome(err error) string {
	switch {
	case errors.Is(err, ErrLoanNotRequired):
		return "not_required"
	case errors.Is(err, ErrItemNotLendable):
		return "not_lendable"
	case errors.Is(err, ErrExistingLoan):
		return "existing_loan"
	case errors.Is(err, ErrLoanLimitReached):
		return "limit_reached"
	case errors.Is(err, ErrItemUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

func (l *Lending) Return(ctx context.Context, item model.Item, email string) error {
	loan, err := l.loans.FindActiveLoan(ctx, item.ID(), l.Patron(email), l.now())
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return errors.WithStack(ErrLoanNotFound)
		}

		return errors.WithStack(err)
	}

	if err := l.loans.ReturnLoan(ctx, loan.ID(), l.now()); err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return errors.WithStack(ErrLoanNotFound)
		}

		return errors.WithStack(err)
	}

	metrics.Returns.Inc()

	slog.InfoContext(ctx, "item returned", slog.String("itemID", string(item.ID())), slog.String("loanID", string(loan.ID())))

	return nil
}

// Loans returns the active loans of the patron.
func (l *Lending) Loans(ctx context.Context, email string) ([]model.Loan, error) {
	loans, err := l.loans.QueryPatronLoans(ctx, l.Patron(email), l.now())
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return loans, nil
}

// Available returns the number of copies of the item which can still be borrowed.
func (l *Lending) Available(ctx context.Context, item model.Item) (int64, error) {
	active, err := l.loans.CountActiveLoans(ctx, item.ID(), l.now())
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return max(item.LendableCopies()-active, 0), nil
}

func (l *Lending) ExpireLoans(ctx context.Context) (int64, error) {
	expired, err := l.loans.ExpireLoans(ctx, l.now())
	if err != nil {
		return 0, errors.WithStack(err)
	}

	if expired > 0 {
		metrics.ExpiredLoans.Add(float64(expired))
		slog.InfoContext(ctx, "loans expired", slog.Int64("total", expired))
	}

	return expired, nil
}

// HasAccess returns true if the patron can read the item, i.e. the item is
// open access or the patron holds an active loan for it. An empty email
// stands for an anonymous patron.
func (l *Lending) HasAccess(ctx context.Context, item model.Item, email string) (bool, error) {
	if !item.Encrypted() {
		return true, nil
	}

	if email == "" {
		return false, nil
	}

	if _, err := l.loans.FindActiveLoan(ctx, item.ID(), l.Patron(email), l.now()); err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return false, nil
		}

		return false, errors.WithStack(err)
	}

	return true, nil
}

// LoanItems returns the items borrowed by the patron along with their loan.
func (l *Lending) LoanItems(ctx context.Context, email string) ([]model.Loan, []model.PersistedItem, error) {
	loans, err := l.Loans(ctx, email)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}

	borrowed := make([]model.Loan, 0, len(loans))
	items := make([]model.PersistedItem, 0, len(loans))

	for _, loan := range loans {
		item, err := l.items.GetItemByID(ctx, loan.ItemID())
		if err != nil {
			if errors.Is(err, port.ErrNotFound) {
				slog.WarnContext(ctx, "loan references a missing item", slog.String("loanID", string(loan.ID())))
				continue
			}

			return nil, nil, errors.WithStack(err)
		}

		borrowed = append(borrowed, loan)
		items = append(items, item)
	}

	return borrowed, items, nil
}

// ExpireLoansHandler closes the expired loans.
func (l *Lending) ExpireLoansHandler() port.TaskHandler {
	return port.TaskHandlerFunc(func(ctx context.Context, task port.Task, progress chan float64) (string, error) {
		expired, err := l.ExpireLoans(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "could not expire loans", slogx.Error(err))
			return "", errors.WithStack(err)
		}

		progress <- 1

		return fmt.Sprintf("%d loan(s) expired", expired), nil
	})
}

func NewLending(items port.ItemStore, loans port.LoanStore, seed []byte, funcs ...LendingOptionFunc) *Lending {
	opts := NewLendingOptions(funcs...)

	return &Lending{
		items:             items,
		loans:             loans,
		seed:              seed,
		loanDuration:      opts.LoanDuration,
		maxLoansPerPatron: opts.MaxLoansPerPatron,
		now:               opts.Now,
	}
}
