package model

import (
	"slices"
	"time"

	"github.com/rs/xid"
)

type ClientID string

func NewClientID() ClientID {
	return ClientID(xid.New().String())
}

// Client is an OAuth client application (i.e. an OPDS reader) allowed to
// request patron authorizations.
type Client interface {
	WithID[ClientID]

	Name() string
	RedirectURIs() []string
}

// ValidRedirectURI returns true if the redirect uri exactly matches one of the
// registered ones.
func ValidRedirectURI(c Client, redirectURI string) bool {
	return slices.Contains(c.RedirectURIs(), redirectURI)
}

type BaseClient struct {
	id           ClientID
	name         string
	redirectURIs []string
}

// ID implements Client.
func (c *BaseClient) ID() ClientID {
	return c.id
}

// Name implements Client.
func (c *BaseClient) Name() string {
	return c.name
}

// RedirectURIs implements Client.
func (c *BaseClient) RedirectURIs() []string {
	return c.redirectURIs
}

var _ Client = &BaseClient{}

func NewClient(id ClientID, name string, redirectURIs ...string) *BaseClient {
	return &BaseClient{
		id:           id,
		name:         name,
		redirectURIs: redirectURIs,
	}
}

type AuthorizationCode struct {
	Code                string
	ClientID            ClientID
	RedirectURI         string
	SealedEmail         []byte
	State               string
	Scope               string
	CodeChallenge       string
	CodeChallengeMethod string
	ExpiresAt           time.Time
	Used                bool
}

type RefreshToken struct {
	Token       string
	ClientID    ClientID
	SealedEmail []byte
	Scope       string
	ExpiresAt   time.Time
	Revoked     bool
}
