package crypto

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
)

var ErrUnsealFailed = errors.New("could not unseal data")

// Sealer encrypts small values (i.e. patron emails) at rest with a key
// derived from the instance seed.
type Sealer struct {
	key []byte
}

func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	nonce, err := RandomBytes(aead.NonceSize())
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *Sealer) Unseal(sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if len(sealed) < aead.NonceSize() {
		return nil, errors.WithStack(ErrUnsealFailed)
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.WithStack(ErrUnsealFailed)
	}

	return plaintext, nil
}

func NewSealer(seed []byte) (*Sealer, error) {
	key, err := DeriveKey(seed, "lenny-sealer", chacha20poly1305.KeySize)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &Sealer{key: key}, nil
}
