package openlibrary

import (
	"fmt"
	"path"
	"strings"

	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/pkg/errors"
)

// Record is a work returned by the search endpoint, with its matching
// editions.
type Record struct {
	Key        string   `json:"key"`
	Title      string   `json:"title"`
	AuthorKey  []string `json:"author_key"`
	AuthorName []string `json:"author_name"`
	Editions   struct {
		NumFound int              `json:"numFound"`
		Docs     []*EditionRecord `json:"docs"`
	} `json:"editions"`
}

type EditionRecord struct {
	Key      string   `json:"key"`
	Title    string   `json:"title"`
	CoverI   int64    `json:"cover_i"`
	Language []string `json:"language"`
}

// Edition returns the first edition of the record, or nil.
func (r *Record) Edition() *EditionRecord {
	if len(r.Editions.Docs) == 0 {
		return nil
	}

	return r.Editions.Docs[0]
}

// OLID returns the identifier of the record edition, i.e. "OL123M".
func (r *Record) OLID() string {
	edition := r.Edition()
	if edition == nil {
		return ""
	}

	return path.Base(edition.Key)
}

func (r *Record) EditionNumber() (model.Edition, error) {
	olid := r.OLID()
	if olid == "" {
		return 0, errors.New("record has no edition")
	}

	return model.ParseEdition(olid)
}

// CoverURL returns the medium sized cover of the record edition, or an empty
// string.
func (r *Record) CoverURL(coversURL string) string {
	edition := r.Edition()
	if edition == nil || edition.CoverI == 0 {
		return ""
	}

	return fmt.Sprintf("%s/b/id/%d-M.jpg", strings.TrimSuffix(coversURL, "/"), edition.CoverI)
}

func (r *Record) DisplayTitle() string {
	if edition := r.Edition(); edition != nil && edition.Title != "" {
		return edition.Title
	}

	return r.Title
}
