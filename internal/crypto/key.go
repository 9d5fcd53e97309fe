package crypto

import (
	"crypto/sha256"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"
)

// DeriveKey derives a size bytes key from the instance seed. Distinct info
// values yield independent keys.
func DeriveKey(seed []byte, info string, size int) ([]byte, error) {
	key := make([]byte, size)

	reader := hkdf.New(sha256.New, seed, nil, []byte(info))
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, errors.WithStack(err)
	}

	return key, nil
}
