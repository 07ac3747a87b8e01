package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/go-authcore/authcore/internal/config"
	"github.com/go-authcore/authcore/internal/metrics"
	"github.com/go-authcore/authcore/internal/models"
	"github.com/go-authcore/authcore/internal/pkce"
	"github.com/go-authcore/authcore/internal/store"
	"github.com/go-authcore/authcore/internal/util"
)

// AuthorizeRequest carries the parameters of an authorization request
// together with the resource owner who approved it
type AuthorizeRequest struct {
	ClientID            string
	RedirectURI         string
	ResponseType        string
	Scope               string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string

	UserID    string
	UserEmail string
	UserName  string
}

// AuthorizeResult is the issued code and the redirect to deliver it
type AuthorizeResult struct {
	Code        string
	RedirectURL string
}

// AuthorizationEngine issues authorization codes
type AuthorizationEngine struct {
	store   *store.Store
	cfg     *config.Config
	audit   *AuditService
	metrics metrics.Recorder
}

// NewAuthorizationEngine creates a new authorization engine
func NewAuthorizationEngine(
	s *store.Store,
	cfg *config.Config,
	audit *AuditService,
	rec metrics.Recorder,
) *AuthorizationEngine {
	return &AuthorizationEngine{store: s, cfg: cfg, audit: audit, metrics: rec}
}

// ValidateRequest checks the client and redirect URI before any consent UI
// is shown. Errors here must never be delivered via redirect because the
// redirect target is not yet trusted.
func (e *AuthorizationEngine) ValidateRequest(req AuthorizeRequest) (*models.OAuthClient, *OAuthError) {
	client, err := e.store.GetClient(req.ClientID)
	if err != nil {
		e.metrics.RecordAuthorizationRequest("invalid_client")
		return nil, invalidClient("unknown client")
	}

	if !util.RedirectURIMatches(req.RedirectURI, client.RedirectURIs) {
		e.metrics.RecordAuthorizationRequest("invalid_redirect")
		return nil, invalidRequest("redirect_uri does not match any registered URI")
	}

	if req.ResponseType != "code" {
		return nil, &OAuthError{
			Code:        ErrCodeUnsupportedResponseType,
			Description: "only the code response type is supported",
		}
	}

	if req.CodeChallengeMethod != "" && req.CodeChallengeMethod != pkce.MethodS256 {
		return nil, invalidRequest("unsupported code_challenge_method, only S256 is supported")
	}
	if req.CodeChallengeMethod != "" && req.CodeChallenge == "" {
		return nil, invalidRequest("code_challenge_method given without code_challenge")
	}

	return client, nil
}

// Authorize records the resource owner's approval and issues a single-use
// authorization code bound to the request parameters
func (e *AuthorizationEngine) Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResult, error) {
	client, oauthErr := e.ValidateRequest(req)
	if oauthErr != nil {
		return nil, oauthErr
	}

	code, err := util.RandomBase64URL(32)
	if err != nil {
		e.metrics.RecordAuthorizationRequest("error")
		return nil, fmt.Errorf("failed to generate authorization code: %w", err)
	}

	scope := req.Scope
	if scope == "" {
		scope = client.Scope
	}
	if scope == "" {
		scope = "default"
	}

	method := req.CodeChallengeMethod
	if req.CodeChallenge != "" && method == "" {
		method = pkce.MethodS256
	}

	record := &models.AuthorizationCode{
		CodeHash:            util.SHA256Hex(code),
		ClientID:            client.ClientID,
		UserID:              req.UserID,
		RedirectURI:         req.RedirectURI,
		Scope:               scope,
		State:               req.State,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: method,
		ExpiresAt:           nowFunc().Add(e.cfg.AuthCodeExpiration),
	}
	if err := e.store.CreateAuthorizationCode(record); err != nil {
		e.metrics.RecordAuthorizationRequest("error")
		return nil, fmt.Errorf("failed to persist authorization code: %w", err)
	}

	if _, err := e.store.UpsertUser(req.UserID, req.UserEmail, req.UserName); err != nil {
		e.metrics.RecordAuthorizationRequest("error")
		return nil, fmt.Errorf("failed to record user login: %w", err)
	}

	redirectURL, err := buildRedirectURL(req.RedirectURI, code, req.State)
	if err != nil {
		return nil, err
	}

	e.audit.Log(ctx, AuditEntry{
		EventType: models.EventAuthorizationGranted,
		ClientID:  client.ClientID,
		UserID:    req.UserID,
		Details: models.AuditDetails{
			"scope": scope,
			"pkce":  req.CodeChallenge != "",
			"code":  code,
		},
	})
	e.metrics.RecordAuthorizationRequest("granted")

	return &AuthorizeResult{Code: code, RedirectURL: redirectURL}, nil
}

// buildRedirectURL appends code and state to the redirect URI. The state
// parameter is always present, empty when the client sent none, so
// clients can bind the response unambiguously.
func buildRedirectURL(redirectURI, code, state string) (string, error) {
	parsed, err := url.Parse(redirectURI)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URI: %w", err)
	}
	query := parsed.Query()
	query.Set("code", code)
	query.Set("state", state)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
