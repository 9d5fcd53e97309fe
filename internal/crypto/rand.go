package crypto

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/pkg/errors"
)

func RandomBytes(size int) ([]byte, error) {
	data := make([]byte, size)

	read, err := rand.Read(data)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if read != size {
		return nil, errors.New("unexpected number of read bytes")
	}

	return data, nil
}

// GenerateSecureToken generates a cryptographically secure url-safe token
// from size random bytes
func GenerateSecureToken(size int) (string, error) {
	bytes, err := RandomBytes(size)
	if err != nil {
		return "", errors.WithStack(err)
	}

	token := base64.RawURLEncoding.EncodeToString(bytes)
	return token, nil
}
