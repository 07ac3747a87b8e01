package services

import (
	"context"
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/go-authcore/authcore/internal/metrics"
	"github.com/go-authcore/authcore/internal/models"
	"github.com/go-authcore/authcore/internal/store"
)

// Credentials are client credentials extracted from a token endpoint
// request, either from the Basic authorization header or the form body.
// When the header is present, body credentials are ignored.
type Credentials struct {
	ClientID     string
	ClientSecret string
	FromHeader   bool
}

// ClientAuth is the outcome of client authentication for one request.
// Authenticated is false for requests that presented no credentials at
// all; such requests proceed as public clients and PKCE carries the
// proof of possession.
type ClientAuth struct {
	Authenticated bool
	Method        string
	ClientID      string
	Client        *models.OAuthClient
}

// ClientAuthenticator validates client credentials at protected endpoints
type ClientAuthenticator struct {
	store   *store.Store
	audit   *AuditService
	metrics metrics.Recorder
}

// NewClientAuthenticator creates a new client authenticator
func NewClientAuthenticator(s *store.Store, audit *AuditService, rec metrics.Recorder) *ClientAuthenticator {
	return &ClientAuthenticator{store: s, audit: audit, metrics: rec}
}

// ParseBasicAuth extracts credentials from a Basic authorization header.
// Both components are URL-decoded per RFC 6749 appendix B. Returns false
// for anything that is not a well-formed Basic header.
func ParseBasicAuth(header string) (clientID, clientSecret string, ok bool) {
	const prefix = "Basic "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}
	id, secret, found := strings.Cut(string(decoded), ":")
	if !found {
		return "", "", false
	}
	if unescaped, err := url.QueryUnescape(id); err == nil {
		id = unescaped
	}
	if unescaped, err := url.QueryUnescape(secret); err == nil {
		secret = unescaped
	}
	return id, secret, true
}

// Authenticate resolves the client for a token endpoint request.
//
// A request with no client_id anywhere is permitted through
// unauthenticated; downstream grant handling decides whether that is
// acceptable (public clients must then prove possession with PKCE).
// A request that names a client must authenticate according to the
// client's registered method, except public clients which never have a
// secret to present.
func (a *ClientAuthenticator) Authenticate(ctx context.Context, creds Credentials) (*ClientAuth, *OAuthError) {
	if creds.ClientID == "" {
		return &ClientAuth{Authenticated: false}, nil
	}

	method := models.AuthMethodSecretPost
	if creds.FromHeader {
		method = models.AuthMethodSecretBasic
	}

	client, err := a.store.GetClient(creds.ClientID)
	if err != nil {
		a.fail(ctx, creds.ClientID, method, "unknown client")
		return nil, invalidClient("client authentication failed")
	}

	if client.IsPublic() {
		if creds.ClientSecret != "" {
			a.fail(ctx, creds.ClientID, method, "secret presented for public client")
			return nil, invalidClient("client authentication failed")
		}
		// Identified but not authenticated; possession is proven via PKCE
		return &ClientAuth{
			Authenticated: false,
			Method:        models.AuthMethodNone,
			ClientID:      client.ClientID,
			Client:        client,
		}, nil
	}

	if creds.ClientSecret == "" {
		a.fail(ctx, creds.ClientID, method, "missing client secret")
		return nil, invalidClient("client authentication failed")
	}

	if !client.ValidateClientSecret(creds.ClientSecret) {
		a.fail(ctx, creds.ClientID, method, "invalid client secret")
		return nil, invalidClient("client authentication failed")
	}

	a.audit.Log(ctx, AuditEntry{
		EventType: models.EventClientAuthSuccess,
		ClientID:  client.ClientID,
		Details:   models.AuditDetails{"method": method},
	})
	a.metrics.RecordClientAuth(method, true)

	return &ClientAuth{
		Authenticated: true,
		Method:        method,
		ClientID:      client.ClientID,
		Client:        client,
	}, nil
}

func (a *ClientAuthenticator) fail(ctx context.Context, clientID, method, reason string) {
	a.audit.Log(ctx, AuditEntry{
		EventType: models.EventClientAuthFailed,
		ClientID:  clientID,
		Details:   models.AuditDetails{"method": method, "reason": reason},
	})
	a.metrics.RecordClientAuth(method, false)
}
