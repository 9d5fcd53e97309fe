package testsuite

import (
	"context"
	"testing"
	"time"

	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/pkg/errors"
)

type LendingStore interface {
	port.ItemStore
	port.LoanStore
}

func TestLoanStore(t *testing.T, factory func(t *testing.T) (LendingStore, error)) {
	type testCase struct {
		Name string
		Run  func(t *testing.T, ctx context.Context, store LendingStore, item model.Item) error
	}

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	var testCases []testCase = []testCase{
		{
			Name: "CreateUntilUnavailable",
			Run: func(t *testing.T, ctx context.Context, store LendingStore, item model.Item) error {
				if err := store.CreateLoan(ctx, model.NewLoan(item.ID(), "alice", now, time.Hour), 2); err != nil {
					return errors.WithStack(err)
				}

				if err := store.CreateLoan(ctx, model.NewLoan(item.ID(), "alice", now, time.Hour), 2); !errors.Is(err, port.ErrAlreadyExists) {
					t.Errorf("CreateLoan(same patron): expected port.ErrAlreadyExists, got %+v", err)
				}

				if err := store.CreateLoan(ctx, model.NewLoan(item.ID(), "bob", now, time.Hour), 2); err != nil {
					return errors.WithStack(err)
				}

				if err := store.CreateLoan(ctx, model.NewLoan(item.ID(), "carol", now, time.Hour), 2); !errors.Is(err, port.ErrUnavailable) {
					t.Errorf("CreateLoan(no copy left): expected port.ErrUnavailable, got %+v", err)
				}

				count, err := store.CountActiveLoans(ctx, item.ID(), now)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := int64(2), count; e != g {
					t.Errorf("count: expected %v, got %v", e, g)
				}

				return nil
			},
		},
		{
			Name: "FindAndReturn",
			Run: func(t *testing.T, ctx context.Context, store LendingStore, item model.Item) error {
				loan := model.NewLoan(item.ID(), "alice", now, time.Hour)
				if err := store.CreateLoan(ctx, loan, 1); err != nil {
					return errors.WithStack(err)
				}

				found, err := store.FindActiveLoan(ctx, item.ID(), "alice", now.Add(time.Minute))
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := loan.ID(), found.ID(); e != g {
					t.Errorf("found.ID(): expected %v, got %v", e, g)
				}

				loans, err := store.QueryPatronLoans(ctx, "alice", now)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := 1, len(loans); e != g {
					t.Errorf("len(loans): expected %v, got %v", e, g)
				}

				if err := store.ReturnLoan(ctx, loan.ID(), now.Add(time.Minute)); err != nil {
					return errors.WithStack(err)
				}

				if err := store.ReturnLoan(ctx, loan.ID(), now.Add(time.Minute)); !errors.Is(err, port.ErrNotFound) {
					t.Errorf("ReturnLoan(returned): expected port.ErrNotFound, got %+v", err)
				}

				if _, err := store.FindActiveLoan(ctx, item.ID(), "alice", now.Add(2*time.Minute)); !errors.Is(err, port.ErrNotFound) {
					t.Errorf("FindActiveLoan(returned): expected port.ErrNotFound, got %+v", err)
				}

				if err := store.CreateLoan(ctx, model.NewLoan(item.ID(), "bob", now.Add(2*time.Minute), time.Hour), 1); err != nil {
					return errors.WithStack(err)
				}

				return nil
			},
		},
		{
			Name: "Expire",
			Run: func(t *testing.T, ctx context.Context, store LendingStore, item model.Item) error {
				if err := store.CreateLoan(ctx, model.NewLoan(item.ID(), "alice", now, time.Hour), 5); err != nil {
					return errors.WithStack(err)
				}

				if err := store.CreateLoan(ctx, model.NewLoan(item.ID(), "bob", now, 3*time.Hour), 5); err != nil {
					return errors.WithStack(err)
				}

				expired, err := store.ExpireLoans(ctx, now.Add(2*time.Hour))
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := int64(1), expired; e != g {
					t.Errorf("expired: expected %v, got %v", e, g)
				}

				loans, err := store.QueryPatronLoans(ctx, "alice", now)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := 0, len(loans); e != g {
					t.Errorf("len(loans): expected %v, got %v", e, g)
				}

				count, err := store.CountActiveLoans(ctx, item.ID(), now.Add(2*time.Hour))
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := int64(1), count; e != g {
					t.Errorf("count: expected %v, got %v", e, g)
				}

				return nil
			},
		},
		{
			Name: "DeleteItemCascades",
			Run: func(t *testing.T, ctx context.Context, store LendingStore, item model.Item) error {
				if err := store.CreateLoan(ctx, model.NewLoan(item.ID(), "alice", now, time.Hour), 1); err != nil {
					return errors.WithStack(err)
				}

				if err := store.DeleteItem(ctx, item.ID()); err != nil {
					return errors.WithStack(err)
				}

				loans, err := store.QueryPatronLoans(ctx, "alice", now)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := 0, len(loans); e != g {
					t.Errorf("len(loans): expected %v, got %v", e, g)
				}

				return nil
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			store, err := factory(t)
			if err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			ctx := t.Context()

			item := model.NewItem(model.NewItemID(), 42, true, model.FormatEPUB, "42_encrypted.epub")
			if _, err := store.SaveItem(ctx, item); err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			if err := tc.Run(t, ctx, store, item); err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}
		})
	}
}
