package services

import (
	"context"
	"testing"
	"time"

	"github.com/go-authcore/authcore/internal/metrics"
	"github.com/go-authcore/authcore/internal/models"
	"github.com/go-authcore/authcore/internal/store"
	"github.com/go-authcore/authcore/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// issueGrant runs the full code flow and returns the token response
func issueGrant(t *testing.T, env *testEnv, client *models.OAuthClient) *TokenResponse {
	code := authorizeCode(t, env, client, false)
	resp, err := env.tokens.Exchange(context.Background(), TokenRequest{
		GrantType:   GrantAuthorizationCode,
		Code:        code,
		RedirectURI: testRedirectURI,
	}, confidentialAuth(client))
	require.NoError(t, err)
	return resp
}

func TestIntrospect_ActiveAccessToken(t *testing.T) {
	env := newTestEnv(t)
	client := createConfidentialClient(t, env.store)
	grant := issueGrant(t, env, client)

	result := env.introspection.Introspect(context.Background(), grant.AccessToken, confidentialAuth(client))
	require.True(t, result.Active)
	assert.Equal(t, "read write", result.Scope)
	assert.Equal(t, client.ClientID, result.ClientID)
	assert.Equal(t, "Bearer", result.TokenType)
	assert.Equal(t, "user-1", result.Sub)
	assert.Greater(t, result.Exp, result.Iat)
}

func TestIntrospect_RefreshToken(t *testing.T) {
	env := newTestEnv(t)
	client := createConfidentialClient(t, env.store)
	grant := issueGrant(t, env, client)

	result := env.introspection.Introspect(context.Background(), grant.RefreshToken, confidentialAuth(client))
	require.True(t, result.Active)
	assert.Equal(t, client.ClientID, result.ClientID)
}

func TestIntrospect_ForeignClientSeesInactive(t *testing.T) {
	env := newTestEnv(t)
	owner := createConfidentialClient(t, env.store)
	grant := issueGrant(t, env, owner)

	other := &models.OAuthClient{
		ClientID:     "client_other",
		ClientSecret: "hash",
		Name:         "Other",
		RedirectURIs: models.StringArray{testRedirectURI},
		IsActive:     true,
	}
	require.NoError(t, env.store.CreateClient(other))

	result := env.introspection.Introspect(context.Background(), grant.AccessToken, confidentialAuth(other))
	assert.False(t, result.Active)
	// Nothing but the activity flag leaks
	assert.Empty(t, result.ClientID)
	assert.Empty(t, result.Scope)
	assert.Empty(t, result.Sub)
}

func TestIntrospect_NeverErrors(t *testing.T) {
	env := newTestEnv(t)
	client := createConfidentialClient(t, env.store)

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		result := env.introspection.Introspect(context.Background(), tok, confidentialAuth(client))
		assert.False(t, result.Active)
	}

	// Unauthenticated callers always see inactive
	result := env.introspection.Introspect(context.Background(), "anything", &ClientAuth{Authenticated: false})
	assert.False(t, result.Active)
}

func TestIntrospect_RevokedTokenInactive(t *testing.T) {
	env := newTestEnv(t)
	client := createConfidentialClient(t, env.store)
	grant := issueGrant(t, env, client)

	require.NoError(t, env.store.RevokeAccessTokenByHash(util.SHA256Hex(grant.AccessToken)))

	result := env.introspection.Introspect(context.Background(), grant.AccessToken, confidentialAuth(client))
	assert.False(t, result.Active)
}

func TestRevoke_AccessToken(t *testing.T) {
	env := newTestEnv(t)
	client := createConfidentialClient(t, env.store)
	grant := issueGrant(t, env, client)

	env.introspection.Revoke(context.Background(), grant.AccessToken, confidentialAuth(client))

	at, err := env.store.GetAccessTokenByHash(util.SHA256Hex(grant.AccessToken))
	require.NoError(t, err)
	assert.Equal(t, models.TokenStatusRevoked, at.Status)
}

func TestRevoke_RefreshToken(t *testing.T) {
	env := newTestEnv(t)
	client := createConfidentialClient(t, env.store)
	grant := issueGrant(t, env, client)

	env.introspection.Revoke(context.Background(), grant.RefreshToken, confidentialAuth(client))

	_, err := env.store.GetActiveRefreshToken(util.SHA256Hex(grant.RefreshToken))
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}

func TestRevoke_ForeignTokenSilentNoop(t *testing.T) {
	env := newTestEnv(t)
	owner := createConfidentialClient(t, env.store)
	grant := issueGrant(t, env, owner)

	other := &models.OAuthClient{
		ClientID:     "client_other",
		ClientSecret: "hash",
		Name:         "Other",
		RedirectURIs: models.StringArray{testRedirectURI},
		IsActive:     true,
	}
	require.NoError(t, env.store.CreateClient(other))

	// Succeeds without doing anything
	env.introspection.Revoke(context.Background(), grant.RefreshToken, confidentialAuth(other))

	_, err := env.store.GetActiveRefreshToken(util.SHA256Hex(grant.RefreshToken))
	assert.NoError(t, err, "token of another client must stay active")
}

func TestRevoke_UnknownTokenSucceeds(t *testing.T) {
	env := newTestEnv(t)
	client := createConfidentialClient(t, env.store)

	env.introspection.Revoke(context.Background(), "never-issued", confidentialAuth(client))
	env.introspection.Revoke(context.Background(), "", confidentialAuth(client))
}

func TestRevoke_AuditsAttemptWithoutMatch(t *testing.T) {
	env := newTestEnv(t)
	client := createConfidentialClient(t, env.store)

	audit := NewAuditService(env.store, true, 10)
	svc := NewIntrospectionService(env.store, audit, metrics.NewNoopMetrics())

	svc.Revoke(context.Background(), "never-issued-token", confidentialAuth(client))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, audit.Shutdown(ctx))

	logs, err := env.store.ListAuditLogs(client.ClientID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.EventTokenRevoked, logs[0].EventType)
	assert.Equal(t, "", logs[0].Details["revoked"])
}

func TestRevoke_BothTokenTypesAttempted(t *testing.T) {
	env := newTestEnv(t)
	client := createConfidentialClient(t, env.store)
	grant := issueGrant(t, env, client)

	// Revoking the access token must not be skipped when the refresh
	// token lookup finds nothing for the same hash
	env.introspection.Revoke(context.Background(), grant.AccessToken, confidentialAuth(client))

	at, err := env.store.GetAccessTokenByHash(util.SHA256Hex(grant.AccessToken))
	require.NoError(t, err)
	assert.Equal(t, models.TokenStatusRevoked, at.Status)

	_, err = env.store.GetActiveRefreshToken(util.SHA256Hex(grant.RefreshToken))
	assert.NoError(t, err, "refresh token must stay active")
}
