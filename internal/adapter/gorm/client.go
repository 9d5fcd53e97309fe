package gorm

import (
	"time"

	"github.com/archivelabs/lenny/internal/core/model"
)

type Client struct {
	ID string `gorm:"primaryKey;autoIncrement:false"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Name         string
	RedirectURIs []*ClientRedirectURI `gorm:"constraint:OnDelete:CASCADE;"`
}

type ClientRedirectURI struct {
	ID uint `gorm:"primaryKey"`

	ClientID string `gorm:"index"`

	URI string
}

type wrappedClient struct {
	c *Client
}

// ID implements model.Client.
func (w *wrappedClient) ID() model.ClientID {
	return model.ClientID(w.c.ID)
}

// Name implements model.Client.
func (w *wrappedClient) Name() string {
	return w.c.Name
}

// RedirectURIs implements model.Client.
func (w *wrappedClient) RedirectURIs() []string {
	uris := make([]string, 0, len(w.c.RedirectURIs))
	for _, u := range w.c.RedirectURIs {
		uris = append(uris, u.URI)
	}
	return uris
}

var _ model.Client = &wrappedClient{}

type AuthorizationCode struct {
	Code string `gorm:"primaryKey;autoIncrement:false"`

	CreatedAt time.Time

	Client   *Client
	ClientID string `gorm:"index"`

	RedirectURI         string
	SealedEmail         []byte
	State               string
	Scope               string
	CodeChallenge       string
	CodeChallengeMethod string
	ExpiresAt           time.Time
	Used                bool
}

func (c *AuthorizationCode) toModel() *model.AuthorizationCode {
	return &model.AuthorizationCode{
		Code:                c.Code,
		ClientID:            model.ClientID(c.ClientID),
		RedirectURI:         c.RedirectURI,
		SealedEmail:         c.SealedEmail,
		State:               c.State,
		Scope:               c.Scope,
		CodeChallenge:       c.CodeChallenge,
		CodeChallengeMethod: c.CodeChallengeMethod,
		ExpiresAt:           c.ExpiresAt,
		Used:                c.Used,
	}
}

type RefreshToken struct {
	Token string `gorm:"primaryKey;autoIncrement:false"`

	CreatedAt time.Time

	Client   *Client
	ClientID string `gorm:"index"`

	SealedEmail []byte
	Scope       string
	ExpiresAt   time.Time
	Revoked     bool
}

func (t *RefreshToken) toModel() *model.RefreshToken {
	return &model.RefreshToken{
		Token:       t.Token,
		ClientID:    model.ClientID(t.ClientID),
		SealedEmail: t.SealedEmail,
		Scope:       t.Scope,
		ExpiresAt:   t.ExpiresAt,
		Revoked:     t.Revoked,
	}
}
