package testsuite

import (
	"context"
	"testing"
	"time"

	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/pkg/errors"
)

type OAuthStore interface {
	port.ClientStore
	port.GrantStore
}

func TestOAuthStore(t *testing.T, factory func(t *testing.T) (OAuthStore, error)) {
	type testCase struct {
		Name string
		Run  func(t *testing.T, ctx context.Context, store OAuthStore) error
	}

	var testCases []testCase = []testCase{
		{
			Name: "SaveClient",
			Run: func(t *testing.T, ctx context.Context, store OAuthStore) error {
				client := model.NewClient(model.NewClientID(), "Thorium", "opds://authorize", "https://reader.example.net/callback")
				if err := store.SaveClient(ctx, client); err != nil {
					return errors.WithStack(err)
				}

				found, err := store.GetClientByID(ctx, client.ID())
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := 2, len(found.RedirectURIs()); e != g {
					t.Fatalf("len(found.RedirectURIs()): expected %v, got %v", e, g)
				}

				if !model.ValidRedirectURI(found, "opds://authorize") {
					t.Errorf("ValidRedirectURI: expected 'opds://authorize' to be valid")
				}

				updated := model.NewClient(client.ID(), "Thorium Reader", "opds://authorize")
				if err := store.SaveClient(ctx, updated); err != nil {
					return errors.WithStack(err)
				}

				clients, err := store.QueryClients(ctx)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := 1, len(clients); e != g {
					t.Fatalf("len(clients): expected %v, got %v", e, g)
				}

				if e, g := "Thorium Reader", clients[0].Name(); e != g {
					t.Errorf("clients[0].Name(): expected %v, got %v", e, g)
				}

				if e, g := 1, len(clients[0].RedirectURIs()); e != g {
					t.Errorf("len(clients[0].RedirectURIs()): expected %v, got %v", e, g)
				}

				if _, err := store.GetClientByID(ctx, "unknown"); !errors.Is(err, port.ErrNotFound) {
					t.Errorf("GetClientByID(unknown): expected port.ErrNotFound, got %+v", err)
				}

				return nil
			},
		},
		{
			Name: "AuthorizationCodeSingleUse",
			Run: func(t *testing.T, ctx context.Context, store OAuthStore) error {
				client := model.NewClient(model.NewClientID(), "Reader", "opds://authorize")
				if err := store.SaveClient(ctx, client); err != nil {
					return errors.WithStack(err)
				}

				code := &model.AuthorizationCode{
					Code:                "code",
					ClientID:            client.ID(),
					RedirectURI:         "opds://authorize",
					SealedEmail:         []byte("sealed"),
					CodeChallenge:       "challenge",
					CodeChallengeMethod: "S256",
					ExpiresAt:           time.Now().Add(time.Minute),
				}

				if err := store.CreateAuthorizationCode(ctx, code); err != nil {
					return errors.WithStack(err)
				}

				marked, err := store.MarkAuthorizationCodeUsed(ctx, "code")
				if err != nil {
					return errors.WithStack(err)
				}

				if !marked {
					t.Errorf("marked: expected true on first use")
				}

				marked, err = store.MarkAuthorizationCodeUsed(ctx, "code")
				if err != nil {
					return errors.WithStack(err)
				}

				if marked {
					t.Errorf("marked: expected false on replay")
				}

				found, err := store.GetAuthorizationCode(ctx, "code")
				if err != nil {
					return errors.WithStack(err)
				}

				if !found.Used {
					t.Errorf("found.Used: expected true")
				}

				if e, g := "sealed", string(found.SealedEmail); e != g {
					t.Errorf("found.SealedEmail: expected %v, got %v", e, g)
				}

				return nil
			},
		},
		{
			Name: "RefreshTokenRotation",
			Run: func(t *testing.T, ctx context.Context, store OAuthStore) error {
				client := model.NewClient(model.NewClientID(), "Reader", "opds://authorize")
				if err := store.SaveClient(ctx, client); err != nil {
					return errors.WithStack(err)
				}

				token := &model.RefreshToken{
					Token:       "refresh",
					ClientID:    client.ID(),
					SealedEmail: []byte("sealed"),
					Scope:       "openid",
					ExpiresAt:   time.Now().Add(time.Hour),
				}

				if err := store.CreateRefreshToken(ctx, token); err != nil {
					return errors.WithStack(err)
				}

				if err := store.CreateRefreshToken(ctx, token); !errors.Is(err, port.ErrAlreadyExists) {
					t.Errorf("CreateRefreshToken(duplicate): expected port.ErrAlreadyExists, got %+v", err)
				}

				revoked, err := store.RevokeRefreshToken(ctx, "refresh")
				if err != nil {
					return errors.WithStack(err)
				}

				if !revoked {
					t.Errorf("revoked: expected true on first revocation")
				}

				revoked, err = store.RevokeRefreshToken(ctx, "refresh")
				if err != nil {
					return errors.WithStack(err)
				}

				if revoked {
					t.Errorf("revoked: expected false on second revocation")
				}

				if _, err := store.GetRefreshToken(ctx, "unknown"); !errors.Is(err, port.ErrNotFound) {
					t.Errorf("GetRefreshToken(unknown): expected port.ErrNotFound, got %+v", err)
				}

				return nil
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			store, err := factory(t)
			if err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			if err := tc.Run(t, t.Context(), store); err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}
		})
	}
}
