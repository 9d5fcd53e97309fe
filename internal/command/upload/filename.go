package upload

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/pkg/errors"
)

var filenameRegExp = regexp.MustCompile(`^(?i)(OL[0-9]+M)(_encrypted)?\.(epub|pdf)$`)

// ParseFilename extracts the edition and the encryption flag from a
// publication file name such as "OL123M_encrypted.epub".
func ParseFilename(path string) (model.Edition, bool, error) {
	name := filepath.Base(path)

	matches := filenameRegExp.FindStringSubmatch(name)
	if matches == nil {
		return 0, false, errors.Errorf("unexpected file name '%s', expected 'OL<n>M[_encrypted].epub' or '.pdf'", name)
	}

	edition, err := model.ParseEdition(strings.ToUpper(matches[1]))
	if err != nil {
		return 0, false, errors.WithStack(err)
	}

	return edition, matches[2] != "", nil
}
