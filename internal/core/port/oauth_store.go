package port

import (
	"context"

	"github.com/archivelabs/lenny/internal/core/model"
)

type ClientStore interface {
	// GetClientByID returns the client with the given id, or ErrNotFound
	GetClientByID(ctx context.Context, id model.ClientID) (model.Client, error)

	// SaveClient creates or updates a client
	SaveClient(ctx context.Context, client model.Client) error

	// QueryClients returns all the registered clients
	QueryClients(ctx context.Context) ([]model.Client, error)
}

type GrantStore interface {
	CreateAuthorizationCode(ctx context.Context, code *model.AuthorizationCode) error

	// GetAuthorizationCode returns the code record, or ErrNotFound
	GetAuthorizationCode(ctx context.Context, code string) (*model.AuthorizationCode, error)

	// MarkAuthorizationCodeUsed flags an unused code as used and returns false
	// if the code does not exist or was already used
	MarkAuthorizationCodeUsed(ctx context.Context, code string) (bool, error)

	CreateRefreshToken(ctx context.Context, token *model.RefreshToken) error

	// GetRefreshToken returns the token record, or ErrNotFound
	GetRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error)

	// RevokeRefreshToken revokes a non revoked token and returns false if the
	// token does not exist or was already revoked
	RevokeRefreshToken(ctx context.Context, token string) (bool, error)
}
