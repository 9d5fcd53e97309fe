package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/xid"
)

type ItemID string

func NewItemID() ItemID {
	return ItemID(xid.New().String())
}

type Format string

const (
	FormatEPUB Format = "EPUB"
	FormatPDF  Format = "PDF"
)

// Edition is the numeric part of an Open Library edition identifier,
// i.e. 123 for "OL123M".
type Edition int64

// OLID returns the Open Library identifier of the edition.
func (e Edition) OLID() string {
	return fmt.Sprintf("OL%dM", e)
}

func ParseEdition(raw string) (Edition, error) {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(raw), "OL"), "M")

	value, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid open library edition '%s'", raw)
	}

	if value <= 0 {
		return 0, errors.Errorf("invalid open library edition '%s'", raw)
	}

	return Edition(value), nil
}

type Item interface {
	WithID[ItemID]

	Edition() Edition
	Encrypted() bool
	Formats() Format
	ObjectKey() string

	LendableCopies() int64
	Lendable() bool
	Waitlistable() bool
	PrintDisabled() bool
	LoginRequired() bool
}

type PersistedItem interface {
	Item
	WithLifecycle
}

type BaseItem struct {
	id             ItemID
	edition        Edition
	encrypted      bool
	formats        Format
	objectKey      string
	lendableCopies int64
	lendable       bool
	waitlistable   bool
	printDisabled  bool
	loginRequired  bool
}

// Edition implements Item.
func (i *BaseItem) Edition() Edition {
	return i.edition
}

// Encrypted implements Item.
func (i *BaseItem) Encrypted() bool {
	return i.encrypted
}

// Formats implements Item.
func (i *BaseItem) Formats() Format {
	return i.formats
}

// ID implements Item.
func (i *BaseItem) ID() ItemID {
	return i.id
}

// LendableCopies implements Item.
func (i *BaseItem) LendableCopies() int64 {
	return i.lendableCopies
}

// Lendable implements Item.
func (i *BaseItem) Lendable() bool {
	return i.lendable
}

// LoginRequired implements Item.
func (i *BaseItem) LoginRequired() bool {
	return i.loginRequired
}

// ObjectKey implements Item.
func (i *BaseItem) ObjectKey() string {
	return i.objectKey
}

// PrintDisabled implements Item.
func (i *BaseItem) PrintDisabled() bool {
	return i.printDisabled
}

// Waitlistable implements Item.
func (i *BaseItem) Waitlistable() bool {
	return i.waitlistable
}

var _ Item = &BaseItem{}

type ItemOptions struct {
	LendableCopies int64
	Lendable       bool
	Waitlistable   bool
	PrintDisabled  bool
	LoginRequired  bool
}

type ItemOptionFunc func(opts *ItemOptions)

func WithLendableCopies(copies int64) ItemOptionFunc {
	return func(opts *ItemOptions) {
		opts.LendableCopies = copies
	}
}

func WithLendable(lendable bool) ItemOptionFunc {
	return func(opts *ItemOptions) {
		opts.Lendable = lendable
	}
}

func WithLoginRequired(required bool) ItemOptionFunc {
	return func(opts *ItemOptions) {
		opts.LoginRequired = required
	}
}

func NewItem(id ItemID, edition Edition, encrypted bool, formats Format, objectKey string, funcs ...ItemOptionFunc) *BaseItem {
	opts := &ItemOptions{
		LendableCopies: 1,
		Lendable:       true,
	}
	for _, fn := range funcs {
		fn(opts)
	}

	return &BaseItem{
		id:             id,
		edition:        edition,
		encrypted:      encrypted,
		formats:        formats,
		objectKey:      objectKey,
		lendableCopies: opts.LendableCopies,
		lendable:       opts.Lendable,
		waitlistable:   opts.Waitlistable,
		printDisabled:  opts.PrintDisabled,
		loginRequired:  opts.LoginRequired,
	}
}

// ObjectKey returns the bookshelf key of the item file for the given edition.
func ObjectKey(edition Edition, encrypted bool, ext string) string {
	var sb strings.Builder

	sb.WriteString(strconv.FormatInt(int64(edition), 10))
	if encrypted {
		sb.WriteString("_encrypted")
	}
	sb.WriteString(strings.ToLower(ext))

	return sb.String()
}
