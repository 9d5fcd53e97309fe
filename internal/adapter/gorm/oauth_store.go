package gorm

import (
	"context"

	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetClientByID implements port.ClientStore.
func (s *Store) GetClientByID(ctx context.Context, id model.ClientID) (model.Client, error) {
	var client Client

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		if err := db.Preload("RedirectURIs").First(&client, "id = ?", string(id)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.WithStack(port.ErrNotFound)
			}

			return errors.WithStack(err)
		}

		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &wrappedClient{&client}, nil
}

// SaveClient implements port.ClientStore.
func (s *Store) SaveClient(ctx context.Context, client model.Client) error {
	gormClient := &Client{
		ID:   string(client.ID()),
		Name: client.Name(),
	}

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		err := db.Omit("RedirectURIs").Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"updated_at", "name"}),
		}).Create(gormClient).Error
		if err != nil {
			return errors.WithStack(err)
		}

		if err := db.Delete(&ClientRedirectURI{}, "client_id = ?", gormClient.ID).Error; err != nil {
			return errors.WithStack(err)
		}

		uris := client.RedirectURIs()
		if len(uris) == 0 {
			return nil
		}

		redirectURIs := make([]*ClientRedirectURI, 0, len(uris))
		for _, u := range uris {
			redirectURIs = append(redirectURIs, &ClientRedirectURI{
				ClientID: gormClient.ID,
				URI:      u,
			})
		}

		if err := db.Create(redirectURIs).Error; err != nil {
			return errors.WithStack(err)
		}

		return nil
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// QueryClients implements port.ClientStore.
func (s *Store) QueryClients(ctx context.Context) ([]model.Client, error) {
	var clients []*Client

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		if err := db.Preload("RedirectURIs").Order("name ASC").Find(&clients).Error; err != nil {
			return errors.WithStack(err)
		}

		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	wrappedClients := make([]model.Client, 0, len(clients))
	for _, c := range clients {
		wrappedClients = append(wrappedClients, &wrappedClient{c})
	}

	return wrappedClients, nil
}

// CreateAuthorizationCode implements port.GrantStore.
func (s *Store) CreateAuthorizationCode(ctx context.Context, code *model.AuthorizationCode) error {
	gormCode := &AuthorizationCode{
		Code:                code.Code,
		ClientID:            string(code.ClientID),
		RedirectURI:         code.RedirectURI,
		SealedEmail:         code.SealedEmail,
		State:               code.State,
		Scope:               code.Scope,
		CodeChallenge:       code.CodeChallenge,
		CodeChallengeMethod: code.CodeChallengeMethod,
		ExpiresAt:           code.ExpiresAt,
		Used:                code.Used,
	}

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		if err := db.Omit("Client").Create(gormCode).Error; err != nil {
			if isUniqueConstraintErr(err) {
				return errors.WithStack(port.ErrAlreadyExists)
			}

			return errors.WithStack(err)
		}

		return nil
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// GetAuthorizationCode implements port.GrantStore.
func (s *Store) GetAuthorizationCode(ctx context.Context, code string) (*model.AuthorizationCode, error) {
	var gormCode AuthorizationCode

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		if err := db.First(&gormCode, "code = ?", code).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.WithStack(port.ErrNotFound)
			}

			return errors.WithStack(err)
		}

		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return gormCode.toModel(), nil
}

// MarkAuthorizationCodeUsed implements port.GrantStore.
func (s *Store) MarkAuthorizationCodeUsed(ctx context.Context, code string) (bool, error) {
	var marked bool

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		result := db.Model(&AuthorizationCode{}).
			Where("code = ? AND used = ?", code, false).
			Update("used", true)
		if result.Error != nil {
			return errors.WithStack(result.Error)
		}

		marked = result.RowsAffected == 1

		return nil
	})
	if err != nil {
		return false, errors.WithStack(err)
	}

	return marked, nil
}

// CreateRefreshToken implements port.GrantStore.
func (s *Store) CreateRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	gormToken := &RefreshToken{
		Token:       token.Token,
		ClientID:    string(token.ClientID),
		SealedEmail: token.SealedEmail,
		Scope:       token.Scope,
		ExpiresAt:   token.ExpiresAt,
		Revoked:     token.Revoked,
	}

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		if err := db.Omit("Client").Create(gormToken).Error; err != nil {
			if isUniqueConstraintErr(err) {
				return errors.WithStack(port.ErrAlreadyExists)
			}

			return errors.WithStack(err)
		}

		return nil
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// GetRefreshToken implements port.GrantStore.
func (s *Store) GetRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	var gormToken RefreshToken

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		if err := db.First(&gormToken, "token = ?", token).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.WithStack(port.ErrNotFound)
			}

			return errors.WithStack(err)
		}

		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return gormToken.toModel(), nil
}

// RevokeRefreshToken implements port.GrantStore.
func (s *Store) RevokeRefreshToken(ctx context.Context, token string) (bool, error) {
	var revoked bool

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		result := db.Model(&RefreshToken{}).
			Where("token = ? AND revoked = ?", token, false).
			Update("revoked", true)
		if result.Error != nil {
			return errors.WithStack(result.Error)
		}

		revoked = result.RowsAffected == 1

		return nil
	})
	if err != nil {
		return false, errors.WithStack(err)
	}

	return revoked, nil
}
