package model

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// PatronHash is the only persisted form of a patron identity.
type PatronHash string

type Patron struct {
	Email string
	IP    string
}

func (p *Patron) Hash(seed []byte) PatronHash {
	return HashEmail(seed, p.Email)
}

func HashEmail(seed []byte, email string) PatronHash {
	mac := hmac.New(sha256.New, seed)
	mac.Write([]byte(NormalizeEmail(email)))
	return PatronHash(hex.EncodeToString(mac.Sum(nil)))
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
