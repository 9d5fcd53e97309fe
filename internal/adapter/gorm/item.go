package gorm

import (
	"time"

	"github.com/archivelabs/lenny/internal/core/model"
)

type Item struct {
	ID string `gorm:"primaryKey;autoIncrement:false"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Edition   int64 `gorm:"index:item_edition_index,unique"`
	Encrypted bool  `gorm:"index:item_edition_index,unique"`

	Formats   string
	ObjectKey string

	LendableCopies int64
	Lendable       bool
	Waitlistable   bool
	PrintDisabled  bool
	LoginRequired  bool

	Loans []*Loan `gorm:"constraint:OnDelete:CASCADE;"`
}

type wrappedItem struct {
	i *Item
}

// CreatedAt implements model.PersistedItem.
func (w *wrappedItem) CreatedAt() time.Time {
	return w.i.CreatedAt
}

// UpdatedAt implements model.PersistedItem.
func (w *wrappedItem) UpdatedAt() time.Time {
	return w.i.UpdatedAt
}

// Edition implements model.PersistedItem.
func (w *wrappedItem) Edition() model.Edition {
	return model.Edition(w.i.Edition)
}

// Encrypted implements model.PersistedItem.
func (w *wrappedItem) Encrypted() bool {
	return w.i.Encrypted
}

// Formats implements model.PersistedItem.
func (w *wrappedItem) Formats() model.Format {
	return model.Format(w.i.Formats)
}

// ID implements model.PersistedItem.
func (w *wrappedItem) ID() model.ItemID {
	return model.ItemID(w.i.ID)
}

// LendableCopies implements model.PersistedItem.
func (w *wrappedItem) LendableCopies() int64 {
	return w.i.LendableCopies
}

// Lendable implements model.PersistedItem.
func (w *wrappedItem) Lendable() bool {
	return w.i.Lendable
}

// LoginRequired implements model.PersistedItem.
func (w *wrappedItem) LoginRequired() bool {
	return w.i.LoginRequired
}

// ObjectKey implements model.PersistedItem.
func (w *wrappedItem) ObjectKey() string {
	return w.i.ObjectKey
}

// PrintDisabled implements model.PersistedItem.
func (w *wrappedItem) PrintDisabled() bool {
	return w.i.PrintDisabled
}

// Waitlistable implements model.PersistedItem.
func (w *wrappedItem) Waitlistable() bool {
	return w.i.Waitlistable
}

var _ model.PersistedItem = &wrappedItem{}

func fromItem(i model.Item) *Item {
	item := &Item{
		ID:             string(i.ID()),
		Edition:        int64(i.Edition()),
		Encrypted:      i.Encrypted(),
		Formats:        string(i.Formats()),
		ObjectKey:      i.ObjectKey(),
		LendableCopies: i.LendableCopies(),
		Lendable:       i.Lendable(),
		Waitlistable:   i.Waitlistable(),
		PrintDisabled:  i.PrintDisabled(),
		LoginRequired:  i.LoginRequired(),
	}

	if persisted, ok := i.(model.PersistedItem); ok {
		item.CreatedAt = persisted.CreatedAt()
	}

	return item
}
