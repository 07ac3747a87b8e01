package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-authcore/authcore/internal/config"
	"github.com/go-authcore/authcore/internal/metrics"
	"github.com/go-authcore/authcore/internal/models"
	"github.com/go-authcore/authcore/internal/pkce"
	"github.com/go-authcore/authcore/internal/store"
	"github.com/go-authcore/authcore/internal/token"
	"github.com/go-authcore/authcore/internal/util"

	"github.com/google/uuid"
)

// Supported grant types at the token endpoint
const (
	GrantAuthorizationCode = "authorization_code"
	GrantRefreshToken      = "refresh_token"
)

// TokenRequest carries the form parameters of a token endpoint request
type TokenRequest struct {
	GrantType    string
	Code         string
	RedirectURI  string
	ClientID     string
	CodeVerifier string
	RefreshToken string
}

// TokenResponse is the JSON body of a successful token grant
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// TokenService redeems grants for tokens
type TokenService struct {
	store   *store.Store
	cfg     *config.Config
	signer  *token.Signer
	audit   *AuditService
	metrics metrics.Recorder
}

// NewTokenService creates a new token service
func NewTokenService(
	s *store.Store,
	cfg *config.Config,
	signer *token.Signer,
	audit *AuditService,
	rec metrics.Recorder,
) *TokenService {
	return &TokenService{store: s, cfg: cfg, signer: signer, audit: audit, metrics: rec}
}

// Exchange dispatches a token endpoint request by grant type
func (t *TokenService) Exchange(ctx context.Context, req TokenRequest, auth *ClientAuth) (*TokenResponse, error) {
	switch req.GrantType {
	case GrantAuthorizationCode:
		return t.redeemAuthorizationCode(ctx, req, auth)
	case GrantRefreshToken:
		return t.redeemRefreshToken(ctx, req, auth)
	case "":
		return nil, invalidRequest("grant_type is required")
	default:
		return nil, &OAuthError{
			Code:        ErrCodeUnsupportedGrantType,
			Description: fmt.Sprintf("unsupported grant type: %s", req.GrantType),
		}
	}
}

// resolveClientID prefers the authenticated identity over the body
// parameter; a body client_id never overrides credentials
func resolveClientID(req TokenRequest, auth *ClientAuth) string {
	if auth != nil && auth.ClientID != "" {
		return auth.ClientID
	}
	return req.ClientID
}

// redeemAuthorizationCode validates every binding of the code before
// consuming it, so a failed exchange leaves the code redeemable only by
// its rightful holder. Consumption happens last and is conditional, which
// makes double redemption lose cleanly.
func (t *TokenService) redeemAuthorizationCode(ctx context.Context, req TokenRequest, auth *ClientAuth) (*TokenResponse, error) {
	if req.Code == "" {
		return nil, invalidRequest("code is required")
	}
	clientID := resolveClientID(req, auth)
	if clientID == "" {
		return nil, invalidRequest("client_id is required")
	}

	code, err := t.store.GetAuthorizationCodeByHash(util.SHA256Hex(req.Code))
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, invalidGrant("invalid or expired authorization code")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load authorization code: %w", err)
	}

	if code.ClientID != clientID {
		// Do not disclose that the code exists for another client
		return nil, invalidGrant("invalid or expired authorization code")
	}

	if auth != nil && auth.Client != nil && !auth.Client.SupportsGrantType(GrantAuthorizationCode) {
		return nil, &OAuthError{
			Code:        ErrCodeUnauthorizedClient,
			Description: "client is not authorized for the authorization_code grant",
		}
	}

	// redirect_uri is checked only when the client resends it; the code
	// already carries the binding from the authorization request
	if req.RedirectURI != "" && !util.RedirectURIMatches(req.RedirectURI, []string{code.RedirectURI}) {
		return nil, invalidGrant("redirect_uri does not match the authorization request")
	}

	if oauthErr := t.verifyPKCE(ctx, code, req.CodeVerifier, auth); oauthErr != nil {
		return nil, oauthErr
	}

	// Consume last: everything above must pass before the single-use
	// token is spent
	if err := t.store.ConsumeAuthorizationCode(code.CodeHash); err != nil {
		if errors.Is(err, store.ErrCodeConsumed) {
			return nil, invalidGrant("invalid or expired authorization code")
		}
		return nil, fmt.Errorf("failed to consume authorization code: %w", err)
	}

	return t.issueTokens(ctx, issueParams{
		userID:    code.UserID,
		clientID:  clientID,
		scope:     code.Scope,
		grantType: GrantAuthorizationCode,
		family:    uuid.New().String(),
	})
}

// verifyPKCE enforces the possession proof. Clients that did not
// authenticate must have bound a challenge at authorization time;
// authenticated clients verify only when a challenge was bound.
func (t *TokenService) verifyPKCE(ctx context.Context, code *models.AuthorizationCode, verifier string, auth *ClientAuth) *OAuthError {
	authenticated := auth != nil && auth.Authenticated

	if !code.HasPKCE() {
		if !authenticated {
			t.auditInvalidPKCE(ctx, code, "code_challenge required for unauthenticated clients")
			return invalidGrant("PKCE is required for this client")
		}
		if verifier != "" {
			t.auditInvalidPKCE(ctx, code, "code_verifier sent without code_challenge")
			return invalidGrant("code_verifier provided but no code_challenge was bound")
		}
		return nil
	}

	if verifier == "" {
		// A missing parameter is a malformed request; only a failed
		// possession proof is invalid_grant
		t.auditInvalidPKCE(ctx, code, "missing code_verifier")
		return invalidRequest("code_verifier is required")
	}
	if err := pkce.Verify(verifier, code.CodeChallenge, code.CodeChallengeMethod); err != nil {
		t.auditInvalidPKCE(ctx, code, err.Error())
		return invalidGrant("PKCE verification failed")
	}
	return nil
}

func (t *TokenService) auditInvalidPKCE(ctx context.Context, code *models.AuthorizationCode, reason string) {
	t.audit.Log(ctx, AuditEntry{
		EventType: models.EventInvalidPKCE,
		ClientID:  code.ClientID,
		UserID:    code.UserID,
		Details:   models.AuditDetails{"reason": reason},
	})
}

// redeemRefreshToken rotates the presented token on every use. The
// conditional update inside RotateRefreshToken guarantees a replayed
// token cannot mint a second successor; on replay the whole family is
// revoked as a defense against stolen tokens.
func (t *TokenService) redeemRefreshToken(ctx context.Context, req TokenRequest, auth *ClientAuth) (*TokenResponse, error) {
	if req.RefreshToken == "" {
		return nil, invalidRequest("refresh_token is required")
	}

	if _, err := t.signer.Verify(req.RefreshToken, token.TypeRefresh); err != nil {
		t.metrics.RecordTokenRefresh(false)
		return nil, invalidGrant("invalid refresh token")
	}

	oldHash := util.SHA256Hex(req.RefreshToken)
	current, err := t.store.GetRefreshTokenByHash(oldHash)
	if errors.Is(err, store.ErrRecordNotFound) {
		t.metrics.RecordTokenRefresh(false)
		return nil, invalidGrant("refresh token is not active")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load refresh token: %w", err)
	}

	if current.Status == models.TokenStatusRevoked {
		// A validly signed token that was already rotated away is the
		// replay signal; cut the whole family so a thief holding any
		// descendant loses access too.
		t.revokeFamilyOnReplay(current.Family)
		t.metrics.RecordTokenRefresh(false)
		return nil, invalidGrant("refresh token is not active")
	}
	if !current.IsActive() {
		t.metrics.RecordTokenRefresh(false)
		return nil, invalidGrant("refresh token is not active")
	}

	clientID := resolveClientID(req, auth)
	if auth != nil && auth.Authenticated && current.ClientID != clientID {
		t.metrics.RecordTokenRefresh(false)
		return nil, invalidGrant("refresh token was issued to a different client")
	}
	if auth != nil && auth.Client != nil && !auth.Client.SupportsGrantType(GrantRefreshToken) {
		t.metrics.RecordTokenRefresh(false)
		return nil, &OAuthError{
			Code:        ErrCodeUnauthorizedClient,
			Description: "client is not authorized for the refresh_token grant",
		}
	}

	resp, err := t.issueTokens(ctx, issueParams{
		userID:      current.UserID,
		clientID:    current.ClientID,
		scope:       current.Scope,
		grantType:   GrantRefreshToken,
		family:      current.Family,
		rotatedFrom: oldHash,
	})
	if err != nil {
		var oauthErr *OAuthError
		if errors.As(err, &oauthErr) && oauthErr.Code == ErrCodeInvalidGrant {
			// Lost the rotation race: the token was spent concurrently.
			// Treat as replay and cut the whole family.
			t.revokeFamilyOnReplay(current.Family)
		}
		t.metrics.RecordTokenRefresh(false)
		return nil, err
	}

	t.metrics.RecordTokenRefresh(true)
	return resp, nil
}

func (t *TokenService) revokeFamilyOnReplay(family string) {
	if revoked, err := t.store.RevokeRefreshTokenFamily(family); err != nil {
		log.Printf("[Tokens] failed to revoke refresh token family %s: %v", family, err)
	} else if revoked > 0 {
		log.Printf("[Tokens] refresh token replay detected, revoked family %s (%d tokens)", family, revoked)
	}
}

type issueParams struct {
	userID      string
	clientID    string
	scope       string
	grantType   string
	family      string
	rotatedFrom string // hash of the refresh token being rotated, empty for fresh grants
}

// issueTokens signs an access and refresh token pair and persists their
// server-side state in the store
func (t *TokenService) issueTokens(ctx context.Context, p issueParams) (*TokenResponse, error) {
	start := time.Now()

	accessJWT, accessClaims, err := t.signer.Sign(p.userID, token.TypeAccess, t.cfg.AccessTokenExpiration)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refreshJWT, refreshClaims, err := t.signer.Sign(p.userID, token.TypeRefresh, t.cfg.RefreshTokenExpiration)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	next := &models.RefreshToken{
		TokenHash: util.SHA256Hex(refreshJWT),
		UserID:    p.userID,
		ClientID:  p.clientID,
		Scope:     p.scope,
		Family:    p.family,
		Status:    models.TokenStatusActive,
		ExpiresAt: refreshClaims.ExpiresAt,
	}

	if p.rotatedFrom != "" {
		if err := t.store.RotateRefreshToken(p.rotatedFrom, next); err != nil {
			if errors.Is(err, store.ErrRefreshTokenNotActive) {
				return nil, invalidGrant("refresh token is not active")
			}
			return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
		}
	} else {
		if err := t.store.CreateRefreshToken(next); err != nil {
			return nil, fmt.Errorf("failed to persist refresh token: %w", err)
		}
	}

	accessRecord := &models.AccessToken{
		TokenHash: util.SHA256Hex(accessJWT),
		JTI:       accessClaims.JTI,
		UserID:    p.userID,
		ClientID:  p.clientID,
		Scope:     p.scope,
		Status:    models.TokenStatusActive,
		ExpiresAt: accessClaims.ExpiresAt,
	}
	if err := t.store.CreateAccessToken(accessRecord); err != nil {
		return nil, fmt.Errorf("failed to persist access token: %w", err)
	}

	if _, err := t.store.UpsertUser(p.userID, "", ""); err != nil {
		log.Printf("[Tokens] failed to record user login for %s: %v", p.userID, err)
	}

	t.audit.Log(ctx, AuditEntry{
		EventType: models.EventTokenIssued,
		ClientID:  p.clientID,
		UserID:    p.userID,
		Details: models.AuditDetails{
			"grant_type":   p.grantType,
			"scope":        p.scope,
			"access_token": accessJWT,
		},
	})
	t.metrics.RecordTokenIssued(token.TypeAccess, p.grantType, time.Since(start))
	t.metrics.RecordTokenIssued(token.TypeRefresh, p.grantType, time.Since(start))

	return &TokenResponse{
		AccessToken:  accessJWT,
		TokenType:    token.TokenTypeBearer,
		ExpiresIn:    int64(time.Until(accessClaims.ExpiresAt).Seconds()),
		RefreshToken: refreshJWT,
		Scope:        p.scope,
	}, nil
}
