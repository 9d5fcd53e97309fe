package testsuite

import (
	"context"
	"testing"

	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
)

func TestItemStore(t *testing.T, factory func(t *testing.T) (port.ItemStore, error)) {
	type testCase struct {
		Name string
		Run  func(t *testing.T, ctx context.Context, store port.ItemStore) error
	}

	var testCases []testCase = []testCase{
		{
			Name: "SaveAndGet",
			Run: func(t *testing.T, ctx context.Context, store port.ItemStore) error {
				item := model.NewItem(model.NewItemID(), 32941311, false, model.FormatEPUB, "32941311.epub", model.WithLendableCopies(3))

				saved, err := store.SaveItem(ctx, item)
				if err != nil {
					return errors.WithStack(err)
				}

				if saved.CreatedAt().IsZero() {
					t.Errorf("saved.CreatedAt(): expected non zero time")
				}

				found, err := store.GetItemByID(ctx, item.ID())
				if err != nil {
					return errors.WithStack(err)
				}

				t.Logf("found: %s", spew.Sdump(found))

				if e, g := item.Edition(), found.Edition(); e != g {
					t.Errorf("found.Edition(): expected %v, got %v", e, g)
				}

				if e, g := int64(3), found.LendableCopies(); e != g {
					t.Errorf("found.LendableCopies(): expected %v, got %v", e, g)
				}

				if e, g := "32941311.epub", found.ObjectKey(); e != g {
					t.Errorf("found.ObjectKey(): expected %v, got %v", e, g)
				}

				byEdition, err := store.GetItemByEdition(ctx, 32941311, false)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := item.ID(), byEdition.ID(); e != g {
					t.Errorf("byEdition.ID(): expected %v, got %v", e, g)
				}

				if _, err := store.GetItemByEdition(ctx, 32941311, true); !errors.Is(err, port.ErrNotFound) {
					t.Errorf("GetItemByEdition(encrypted): expected port.ErrNotFound, got %+v", err)
				}

				return nil
			},
		},
		{
			Name: "UniqueEdition",
			Run: func(t *testing.T, ctx context.Context, store port.ItemStore) error {
				first := model.NewItem(model.NewItemID(), 1, true, model.FormatEPUB, "1_encrypted.epub")
				if _, err := store.SaveItem(ctx, first); err != nil {
					return errors.WithStack(err)
				}

				duplicate := model.NewItem(model.NewItemID(), 1, true, model.FormatPDF, "1_encrypted.pdf")
				if _, err := store.SaveItem(ctx, duplicate); !errors.Is(err, port.ErrAlreadyExists) {
					t.Errorf("SaveItem(duplicate): expected port.ErrAlreadyExists, got %+v", err)
				}

				clear := model.NewItem(model.NewItemID(), 1, false, model.FormatEPUB, "1.epub")
				if _, err := store.SaveItem(ctx, clear); err != nil {
					return errors.WithStack(err)
				}

				updated := model.NewItem(first.ID(), 1, true, model.FormatEPUB, "1_encrypted.epub", model.WithLendableCopies(5))
				saved, err := store.SaveItem(ctx, updated)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := int64(5), saved.LendableCopies(); e != g {
					t.Errorf("saved.LendableCopies(): expected %v, got %v", e, g)
				}

				return nil
			},
		},
		{
			Name: "QueryAndDelete",
			Run: func(t *testing.T, ctx context.Context, store port.ItemStore) error {
				ids := make([]model.ItemID, 0)
				for edition := model.Edition(10); edition < 15; edition++ {
					item := model.NewItem(model.NewItemID(), edition, false, model.FormatPDF, model.ObjectKey(edition, false, ".pdf"))
					if _, err := store.SaveItem(ctx, item); err != nil {
						return errors.WithStack(err)
					}
					ids = append(ids, item.ID())
				}

				offset, limit := 1, 2
				items, total, err := store.QueryItems(ctx, port.QueryItemsOptions{Offset: &offset, Limit: &limit})
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := int64(5), total; e != g {
					t.Errorf("total: expected %v, got %v", e, g)
				}

				if e, g := 2, len(items); e != g {
					t.Fatalf("len(items): expected %v, got %v", e, g)
				}

				if e, g := ids[1], items[0].ID(); e != g {
					t.Errorf("items[0].ID(): expected %v, got %v", e, g)
				}

				if err := store.DeleteItem(ctx, ids[0]); err != nil {
					return errors.WithStack(err)
				}

				if _, err := store.GetItemByID(ctx, ids[0]); !errors.Is(err, port.ErrNotFound) {
					t.Errorf("GetItemByID(deleted): expected port.ErrNotFound, got %+v", err)
				}

				if err := store.DeleteItem(ctx, ids[0]); !errors.Is(err, port.ErrNotFound) {
					t.Errorf("DeleteItem(deleted): expected port.ErrNotFound, got %+v", err)
				}

				count, err := store.CountItems(ctx)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := int64(4), count; e != g {
					t.Errorf("count: expected %v, got %v", e, g)
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

			if err := tc.Run(t, t.Context(), store); err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}
		})
	}
}
