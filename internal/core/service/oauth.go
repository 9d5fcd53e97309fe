package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/archivelabs/lenny/internal/crypto"
	"github.com/archivelabs/lenny/internal/metrics"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	TokenIssuer              = "lenny-auth-server"
	TokenAudience            = "lenny-api"
	TokenTypeBearer          = "Bearer"
	CodeChallengeMethodS256  = "S256"
	GrantTypeCode            = "authorization_code"
	GrantTypeRefreshToken    = "refresh_token"
	authorizationCodeSize    = 64
	refreshTokenSize         = 48
	signingKeySize           = 32
	signingKeyInfo           = "lenny-access-token"
	redirectSchemeOPDS       = "opds"
	OAuthErrInvalidRequest   = "invalid_request"
	OAuthErrInvalidClient    = "invalid_client"
	OAuthErrInvalidGrant     = "invalid_grant"
	OAuthErrUnsupportedGrant = "unsupported_grant_type"
)

// OAuthError is an error as defined by RFC 6749.
type OAuthError struct {
	Code        string   `json:"error"`
	Description string   `json:"error_description,omitempty"`
	Missing     []string `json:"missing,omitempty"`
}

func (e *OAuthError) Error() string {
	if e.Description == "" {
		return e.Code
	}

	return e.Code + ": " + e.Description
}

func newOAuthError(code string, description string) *OAuthError {
	return &OAuthError{Code: code, Description: description}
}

type OAuthOptions struct {
	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	AuthorizationCodeTTL time.Duration
	Now                  func() time.Time
}

type OAuthOptionFunc func(opts *OAuthOptions)

func WithAccessTokenTTL(ttl time.Duration) OAuthOptionFunc {
	return func(opts *OAuthOptions) {
		opts.AccessTokenTTL = ttl
	}
}

func WithRefreshTokenTTL(ttl time.Duration) OAuthOptionFunc {
	return func(opts *OAuthOptions) {
		opts.RefreshTokenTTL = ttl
	}
}

func WithAuthorizationCodeTTL(ttl time.Duration) OAuthOptionFunc {
	return func(opts *OAuthOptions) {
		opts.AuthorizationCodeTTL = ttl
	}
}

func WithOAuthClock(now func() time.Time) OAuthOptionFunc {
	return func(opts *OAuthOptions) {
		opts.Now = now
	}
}

func NewOAuthOptions(funcs ...OAuthOptionFunc) *OAuthOptions {
	opts := &OAuthOptions{
		AccessTokenTTL:       time.Hour,
		RefreshTokenTTL:      30 * 24 * time.Hour,
		AuthorizationCodeTTL: 5 * time.Minute,
		Now:                  time.Now,
	}
	for _, fn := range funcs {
		fn(opts)
	}
	return opts
}

// OAuth implements the authorization code grant with mandatory PKCE used by
// OPDS readers.
type OAuth struct {
	clients    port.ClientStore
	grants     port.GrantStore
	sealer     *crypto.Sealer
	signingKey []byte

	accessTokenTTL       time.Duration
	refreshTokenTTL      time.Duration
	authorizationCodeTTL time.Duration
	now                  func() time.Time
}

type AuthorizeRequest struct {
	ResponseType        string
	ClientID            string
	RedirectURI         string
	State               string
	Scope               string
	CodeChallenge       string
	CodeChallengeMethod string
}

func ParseAuthorizeRequest(values url.Values) AuthorizeRequest {
	return AuthorizeRequest{
		ResponseType:        values.Get("response_type"),
		ClientID:            values.Get("client_id"),
		RedirectURI:         values.Get("redirect_uri"),
		State:               values.Get("state"),
		Scope:               values.Get("scope"),
		CodeChallenge:       values.Get("code_challenge"),
		CodeChallengeMethod: values.Get("code_challenge_method"),
	}
}

// Values returns the request parameters, i.e. to post the login form back to
// the authorization endpoint.
func (r AuthorizeRequest) Values() url.Values {
	values := url.Values{}
	set := func(key, value string) {
		if value != "" {
			values.Set(key, value)
		}
	}

	set("response_type", r.ResponseType)
	set("client_id", r.ClientID)
	set("redirect_uri", r.RedirectURI)
	set("state", r.State)
	set("scope", r.Scope)
	set("code_challenge", r.CodeChallenge)
	set("code_challenge_method", r.CodeChallengeMethod)

	return values
}

// ValidateAuthorize checks the authorization request and returns the
// requesting client.
func (o *OAuth) ValidateAuthorize(ctx context.Context, req AuthorizeRequest) (model.Client, error) {
	missing := make([]string, 0)
	for _, p := range []struct {
		Name  string
		Value string
	}{
		{"client_id", req.ClientID},
		{"redirect_uri", req.RedirectURI},
		{"state", req.State},
		{"code_challenge", req.CodeChallenge},
	} {
		if p.Value == "" {
			missing = append(missing, p.Name)
		}
	}

	if len(missing) > 0 {
		return nil, &OAuthError{
			Code:        OAuthErrInvalidRequest,
			Description: "missing required parameters: " + strings.Join(missing, ", "),
			Missing:     missing,
		}
	}

	if req.ResponseType != "" && req.ResponseType != "code" {
		return nil, newOAuthError(OAuthErrInvalidRequest, "response_type must be code")
	}

	method := req.CodeChallengeMethod
	if method == "" {
		method = CodeChallengeMethodS256
	}

	if method != CodeChallengeMethodS256 {
		return nil, newOAuthError(OAuthErrInvalidRequest, "code_challenge_method must be S256")
	}

	redirectURI, err := url.Parse(req.RedirectURI)
	if err != nil || redirectURI.Scheme == "" || redirectURI.Fragment != "" || strings.Contains(req.RedirectURI, "#") {
		return nil, newOAuthError(OAuthErrInvalidRequest, "invalid redirect_uri")
	}

	client, err := o.clients.GetClientByID(ctx, model.ClientID(req.ClientID))
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return nil, newOAuthError(OAuthErrInvalidClient, "unknown client")
		}

		return nil, errors.WithStack(err)
	}

	if !model.ValidRedirectURI(client, req.RedirectURI) {
		return nil, newOAuthError(OAuthErrInvalidRequest, "redirect_uri is not registered for this client")
	}

	return client, nil
}

// Authorize issues an authorization code for the authenticated patron and
// returns it.
func (o *OAuth) Authorize(ctx context.Context, req AuthorizeRequest, email string) (string, error) {
	if _, err := o.ValidateAuthorize(ctx, req); err != nil {
		return "", errors.WithStack(err)
	}

	code, err := crypto.GenerateSecureToken(authorizationCodeSize)
	if err != nil {
		return "", errors.WithStack(err)
	}

	sealedEmail, err := o.sealer.Seal([]byte(model.NormalizeEmail(email)))
	if err != nil {
		return "", errors.WithStack(err)
	}

	err = o.grants.CreateAuthorizationCode(ctx, &model.AuthorizationCode{
		Code:                code,
		ClientID:            model.ClientID(req.ClientID),
		RedirectURI:         req.RedirectURI,
		SealedEmail:         sealedEmail,
		State:               req.State,
		Scope:               req.Scope,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: CodeChallengeMethodS256,
		ExpiresAt:           o.now().Add(o.authorizationCodeTTL),
	})
	if err != nil {
		return "", errors.WithStack(err)
	}

	slog.InfoContext(ctx, "authorization code issued", slog.String("clientID", req.ClientID))

	return code, nil
}

// IsAppRedirect returns true if the redirect uri targets an OPDS reader
// application, which is given the code on a page rather than by redirection.
func IsAppRedirect(redirectURI string) bool {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return false
	}

	return u.Scheme == redirectSchemeOPDS
}

// RedirectURL appends the code and state to the redirect uri.
func RedirectURL(redirectURI string, code string, state string) string {
	params := url.Values{}
	params.Set("code", code)
	params.Set("state", state)

	separator := "?"
	if strings.Contains(redirectURI, "?") {
		separator = "&"
	}

	return redirectURI + separator + params.Encode()
}

type TokenRequest struct {
	GrantType    string
	Code         string
	RedirectURI  string
	ClientID     string
	CodeVerifier string
	RefreshToken string
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`
}

// Token handles the token endpoint requests for both supported grant types.
func (o *OAuth) Token(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	switch req.GrantType {
	case GrantTypeCode:
		return o.Exchange(ctx, req)
	case GrantTypeRefreshToken:
		return o.Refresh(ctx, req.RefreshToken, model.ClientID(req.ClientID))
	default:
		return nil, newOAuthError(OAuthErrUnsupportedGrant, "grant_type must be authorization_code or refresh_token")
	}
}

// Exchange redeems an authorization code.
func (o *OAuth) Exchange(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	if req.Code == "" || req.CodeVerifier == "" || req.ClientID == "" || req.RedirectURI == "" {
		return nil, newOAuthError(OAuthErrInvalidRequest, "code, code_verifier, client_id and redirect_uri are required")
	}

	code, err := o.grants.GetAuthorizationCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return nil, newOAuthError(OAuthErrInvalidGrant, "invalid authorization code")
		}

		return nil, errors.WithStack(err)
	}

	if code.Used {
		return nil, newOAuthError(OAuthErrInvalidGrant, "authorization code already used")
	}

	if !o.now().Before(code.ExpiresAt) {
		return nil, newOAuthError(OAuthErrInvalidGrant, "authorization code expired")
	}

	if string(code.ClientID) != req.ClientID {
		return nil, newOAuthError(OAuthErrInvalidGrant, "client_id mismatch")
	}

	if code.RedirectURI != req.RedirectURI {
		return nil, newOAuthError(OAuthErrInvalidGrant, "redirect_uri mismatch")
	}

	if !ValidatePKCE(req.CodeVerifier, code.CodeChallenge) {
		return nil, newOAuthError(OAuthErrInvalidGrant, "PKCE verification failed")
	}

	marked, err := o.grants.MarkAuthorizationCodeUsed(ctx, req.Code)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if !marked {
		return nil, newOAuthError(OAuthErrInvalidGrant, "authorization code already used")
	}

	email, err := o.sealer.Unseal(code.SealedEmail)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	res, err := o.issueTokens(ctx, code.ClientID, string(email), code.Scope)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	metrics.IssuedTokens.With(prometheus.Labels{metrics.LabelGrant: GrantTypeCode}).Inc()

	return res, nil
}

// Refresh rotates a refresh token and issues a new token pair.
func (o *OAuth) Refresh(ctx context.Context, refreshToken string, clientID model.ClientID) (*TokenResponse, error) {
	if refreshToken == "" {
		return nil, newOAuthError(OAuthErrInvalidRequest, "refresh_token is required")
	}

	token, err := o.grants.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return nil, newOAuthError(OAuthErrInvalidGrant, "invalid refresh token")
		}

		return nil, errors.WithStack(err)
	}

	if token.Revoked {
		return nil, newOAuthError(OAuthErrInvalidGrant, "refresh token revoked")
	}

	if !o.now().Before(token.ExpiresAt) {
		return nil, newOAuthError(OAuthErrInvalidGrant, "refresh token expired")
	}

	if clientID != "" && clientID != token.ClientID {
		return nil, newOAuthError(OAuthErrInvalidGrant, "client_id mismatch")
	}

	revoked, err := o.grants.RevokeRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if !revoked {
		return nil, newOAuthError(OAuthErrInvalidGrant, "refresh token revoked")
	}

	email, err := o.sealer.Unseal(token.SealedEmail)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	res, err := o.issueTokens(ctx, token.ClientID, string(email), token.Scope)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	metrics.IssuedTokens.With(prometheus.Labels{metrics.LabelGrant: GrantTypeRefreshToken}).Inc()

	return res, nil
}

type AccessTokenClaims struct {
	jwt.RegisteredClaims
	AuthorizedParty string `json:"azp"`
	Scope           string `json:"scope,omitempty"`
}

func (o *OAuth) issueTokens(ctx context.Context, clientID model.ClientID, email string, scope string) (*TokenResponse, error) {
	now := o.now()

	claims := AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Subject:   email,
			Audience:  jwt.ClaimStrings{TokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(o.accessTokenTTL)),
		},
		AuthorizedParty: string(clientID),
		Scope:           scope,
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(o.signingKey)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	refreshToken, err := crypto.GenerateSecureToken(refreshTokenSize)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	sealedEmail, err := o.sealer.Seal([]byte(email))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	err = o.grants.CreateRefreshToken(ctx, &model.RefreshToken{
		Token:       refreshToken,
		ClientID:    clientID,
		SealedEmail: sealedEmail,
		Scope:       scope,
		ExpiresAt:   now.Add(o.refreshTokenTTL),
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    int64(o.accessTokenTTL.Seconds()),
		Scope:        scope,
	}, nil
}

// ValidateAccessToken verifies the access token and returns the email of the
// patron it was issued to.
func (o *OAuth) ValidateAccessToken(raw string) (string, error) {
	var claims AccessTokenClaims

	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		return o.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(o.now),
	)
	if err != nil {
		return "", errors.WithStack(err)
	}

	if claims.Subject == "" {
		return "", errors.New("access token has no subject")
	}

	return claims.Subject, nil
}

// ComputeS256Challenge returns the S256 code challenge of a verifier.
func ComputeS256Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func ValidatePKCE(verifier string, challenge string) bool {
	if verifier == "" || challenge == "" {
		return false
	}

	computed := ComputeS256Challenge(verifier)

	return subtle.ConstantTimeCompare([]byte(computed), []byte(challenge)) == 1
}

func NewOAuth(clients port.ClientStore, grants port.GrantStore, seed []byte, funcs ...OAuthOptionFunc) (*OAuth, error) {
	opts := NewOAuthOptions(funcs...)

	sealer, err := crypto.NewSealer(seed)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	signingKey, err := crypto.DeriveKey(seed, signingKeyInfo, signingKeySize)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &OAuth{
		clients:              clients,
		grants:               grants,
		sealer:               sealer,
		signingKey:           signingKey,
		accessTokenTTL:       opts.AccessTokenTTL,
		refreshTokenTTL:      opts.RefreshTokenTTL,
		authorizationCodeTTL: opts.AuthorizationCodeTTL,
		now:                  opts.Now,
	}, nil
}
