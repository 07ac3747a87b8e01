package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/go-authcore/authcore/internal/metrics"
	"github.com/go-authcore/authcore/internal/models"
	"github.com/go-authcore/authcore/internal/store"
	"github.com/go-authcore/authcore/internal/token"
	"github.com/go-authcore/authcore/internal/util"
)

// IntrospectionResult is the RFC 7662 response body. Inactive tokens
// produce only {"active": false}; claims are omitted entirely.
type IntrospectionResult struct {
	Active    bool   `json:"active"`
	Scope     string `json:"scope,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	Username  string `json:"username,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	Exp       int64  `json:"exp,omitempty"`
	Iat       int64  `json:"iat,omitempty"`
	Sub       string `json:"sub,omitempty"`
}

// IntrospectionService answers token introspection and revocation requests
type IntrospectionService struct {
	store   *store.Store
	audit   *AuditService
	metrics metrics.Recorder
}

// NewIntrospectionService creates a new introspection service
func NewIntrospectionService(s *store.Store, audit *AuditService, rec metrics.Recorder) *IntrospectionService {
	return &IntrospectionService{store: s, audit: audit, metrics: rec}
}

var inactive = &IntrospectionResult{Active: false}

// Introspect reports the state of a token to its owning client. Any
// token that is unknown, expired, revoked, or owned by a different
// client is reported as inactive; the caller learns nothing else.
// Introspection never fails: bad input is just an inactive token.
func (i *IntrospectionService) Introspect(ctx context.Context, tokenString string, auth *ClientAuth) *IntrospectionResult {
	if tokenString == "" || auth == nil || !auth.Authenticated {
		i.metrics.RecordIntrospection(false)
		return inactive
	}

	hash := util.SHA256Hex(tokenString)

	if at, err := i.store.GetAccessTokenByHash(hash); err == nil {
		return i.describeAccessToken(at, auth)
	}

	if rt, err := i.store.GetActiveRefreshToken(hash); err == nil {
		return i.describeRefreshToken(rt, auth)
	}

	i.metrics.RecordIntrospection(false)
	return inactive
}

func (i *IntrospectionService) describeAccessToken(at *models.AccessToken, auth *ClientAuth) *IntrospectionResult {
	if !at.IsActive() || at.ClientID != auth.ClientID {
		i.metrics.RecordIntrospection(false)
		return inactive
	}

	i.metrics.RecordIntrospection(true)
	return &IntrospectionResult{
		Active:    true,
		Scope:     at.Scope,
		ClientID:  at.ClientID,
		Username:  i.lookupUsername(at.UserID),
		TokenType: token.TokenTypeBearer,
		Exp:       at.ExpiresAt.Unix(),
		Iat:       at.CreatedAt.Unix(),
		Sub:       at.UserID,
	}
}

func (i *IntrospectionService) describeRefreshToken(rt *models.RefreshToken, auth *ClientAuth) *IntrospectionResult {
	if !rt.IsActive() || rt.ClientID != auth.ClientID {
		i.metrics.RecordIntrospection(false)
		return inactive
	}

	i.metrics.RecordIntrospection(true)
	return &IntrospectionResult{
		Active:    true,
		Scope:     rt.Scope,
		ClientID:  rt.ClientID,
		Username:  i.lookupUsername(rt.UserID),
		TokenType: token.TokenTypeBearer,
		Exp:       rt.ExpiresAt.Unix(),
		Iat:       rt.CreatedAt.Unix(),
		Sub:       rt.UserID,
	}
}

func (i *IntrospectionService) lookupUsername(userID string) string {
	user, err := i.store.GetUserByID(userID)
	if err != nil {
		return ""
	}
	if user.Name != "" {
		return user.Name
	}
	return user.Email
}

// Revoke invalidates a token presented by its owning client. Unknown
// tokens, tokens owned by other clients, and storage failures all look
// the same to the caller: revocation is best effort and never fails.
// The attempt is audited whether or not a token matched.
func (i *IntrospectionService) Revoke(ctx context.Context, tokenString string, auth *ClientAuth) {
	if tokenString == "" || auth == nil || !auth.Authenticated {
		return
	}

	hash := util.SHA256Hex(tokenString)
	var revokedTypes []string

	if rt, err := i.store.GetRefreshTokenByHash(hash); err == nil {
		if rt.ClientID == auth.ClientID {
			if err := i.store.RevokeRefreshTokenByHash(hash); err != nil {
				log.Printf("[Introspection] failed to revoke refresh token: %v", err)
			} else {
				revokedTypes = append(revokedTypes, token.TypeRefresh)
				i.metrics.RecordTokenRevoked(token.TypeRefresh)
			}
		}
	} else if !errors.Is(err, store.ErrRecordNotFound) {
		log.Printf("[Introspection] refresh token lookup failed during revocation: %v", err)
	}

	// The access token attempt proceeds independently of the refresh
	// token outcome
	if at, err := i.store.GetAccessTokenByHash(hash); err == nil {
		if at.ClientID == auth.ClientID {
			if err := i.store.RevokeAccessTokenByHash(hash); err != nil {
				log.Printf("[Introspection] failed to revoke access token: %v", err)
			} else {
				revokedTypes = append(revokedTypes, token.TypeAccess)
				i.metrics.RecordTokenRevoked(token.TypeAccess)
			}
		}
	} else if !errors.Is(err, store.ErrRecordNotFound) {
		log.Printf("[Introspection] access token lookup failed during revocation: %v", err)
	}

	i.audit.Log(ctx, AuditEntry{
		EventType: models.EventTokenRevoked,
		ClientID:  auth.ClientID,
		Details: models.AuditDetails{
			"token":   tokenString,
			"revoked": strings.Join(revokedTypes, ","),
		},
	})
}
