package services

import (
	"context"
	"net/url"
	"testing"

	"github.com/go-authcore/authcore/internal/pkce"
	"github.com/go-authcore/authcore/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorize_IssuesCode(t *testing.T) {
	env := newTestEnv(t)
	client := createConfidentialClient(t, env.store)

	result, err := env.authorization.Authorize(context.Background(), AuthorizeRequest{
		ClientID:     client.ClientID,
		RedirectURI:  testRedirectURI,
		ResponseType: "code",
		Scope:        "read",
		State:        "opaque-state",
		UserID:       "user-1",
		UserEmail:    "u@example.com",
	})
	require.NoError(t, err)

	// 32 random bytes as unpadded base64url
	assert.Len(t, result.Code, 43)

	parsed, err := url.Parse(result.RedirectURL)
	require.NoError(t, err)
	assert.Equal(t, result.Code, parsed.Query().Get("code"))
	assert.Equal(t, "opaque-state", parsed.Query().Get("state"))

	// Only the hash is stored
	record, err := env.store.GetAuthorizationCodeByHash(util.SHA256Hex(result.Code))
	require.NoError(t, err)
	assert.Equal(t, client.ClientID, record.ClientID)
	assert.Equal(t, "read", record.Scope)

	// The authorizing user is recorded
	user, err := env.store.GetUserByID("user-1")
	require.NoError(t, err)
	assert.Equal(t, "u@example.com", user.Email)
}

func TestAuthorize_StateAlwaysPresent(t *testing.T) {
	env := newTestEnv(t)
	client := createConfidentialClient(t, env.store)

	result, err := env.authorization.Authorize(context.Background(), AuthorizeRequest{
		ClientID:     client.ClientID,
		RedirectURI:  testRedirectURI,
		ResponseType: "code",
		UserID:       "user-1",
	})
	require.NoError(t, err)

	parsed, err := url.Parse(result.RedirectURL)
	require.NoError(t, err)
	// state is present and empty when the client sent none
	values, ok := parsed.Query()["state"]
	require.True(t, ok)
	assert.Equal(t, []string{""}, values)
}

func TestAuthorize_ScopeFallback(t *testing.T) {
	env := newTestEnv(t)
	client := createConfidentialClient(t, env.store)

	result, err := env.authorization.Authorize(context.Background(), AuthorizeRequest{
		ClientID:     client.ClientID,
		RedirectURI:  testRedirectURI,
		ResponseType: "code",
		UserID:       "user-1",
	})
	require.NoError(t, err)

	record, err := env.store.GetAuthorizationCodeByHash(util.SHA256Hex(result.Code))
	require.NoError(t, err)
	// Falls back to the client's registered scope
	assert.Equal(t, "read write", record.Scope)
}

func TestAuthorize_RedirectURIVariants(t *testing.T) {
	env := newTestEnv(t)
	client := createConfidentialClient(t, env.store)

	// Trailing slash matches the registered URI after normalization
	_, err := env.authorization.Authorize(context.Background(), AuthorizeRequest{
		ClientID:     client.ClientID,
		RedirectURI:  testRedirectURI + "/",
		ResponseType: "code",
		UserID:       "user-1",
	})
	assert.NoError(t, err)

	// An unregistered URI is rejected outright
	_, err = env.authorization.Authorize(context.Background(), AuthorizeRequest{
		ClientID:     client.ClientID,
		RedirectURI:  "https://evil.example.com/callback",
		ResponseType: "code",
		UserID:       "user-1",
	})
	var oauthErr *OAuthError
	require.ErrorAs(t, err, &oauthErr)
	assert.Equal(t, ErrCodeInvalidRequest, oauthErr.Code)
}

func TestAuthorize_UnknownClient(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.authorization.Authorize(context.Background(), AuthorizeRequest{
		ClientID:     "nope",
		RedirectURI:  testRedirectURI,
		ResponseType: "code",
		UserID:       "user-1",
	})
	var oauthErr *OAuthError
	require.ErrorAs(t, err, &oauthErr)
	assert.Equal(t, ErrCodeInvalidClient, oauthErr.Code)
}

func TestAuthorize_UnsupportedResponseType(t *testing.T) {
	env := newTestEnv(t)
	client := createConfidentialClient(t, env.store)

	_, err := env.authorization.Authorize(context.Background(), AuthorizeRequest{
		ClientID:     client.ClientID,
		RedirectURI:  testRedirectURI,
		ResponseType: "token",
		UserID:       "user-1",
	})
	var oauthErr *OAuthError
	require.ErrorAs(t, err, &oauthErr)
	assert.Equal(t, ErrCodeUnsupportedResponseType, oauthErr.Code)
}

func TestAuthorize_PKCEMethodDefaults(t *testing.T) {
	env := newTestEnv(t)
	client := createConfidentialClient(t, env.store)

	challenge := pkce.ComputeChallenge(testVerifier)
	result, err := env.authorization.Authorize(context.Background(), AuthorizeRequest{
		ClientID:      client.ClientID,
		RedirectURI:   testRedirectURI,
		ResponseType:  "code",
		UserID:        "user-1",
		CodeChallenge: challenge,
	})
	require.NoError(t, err)

	record, err := env.store.GetAuthorizationCodeByHash(util.SHA256Hex(result.Code))
	require.NoError(t, err)
	assert.Equal(t, challenge, record.CodeChallenge)
	// Method defaults to S256 when a challenge is present
	assert.Equal(t, pkce.MethodS256, record.CodeChallengeMethod)
}

func TestAuthorize_RejectsPlainMethod(t *testing.T) {
	env := newTestEnv(t)
	client := createConfidentialClient(t, env.store)

	_, err := env.authorization.Authorize(context.Background(), AuthorizeRequest{
		ClientID:            client.ClientID,
		RedirectURI:         testRedirectURI,
		ResponseType:        "code",
		UserID:              "user-1",
		CodeChallenge:       pkce.ComputeChallenge(testVerifier),
		CodeChallengeMethod: "plain",
	})
	var oauthErr *OAuthError
	require.ErrorAs(t, err, &oauthErr)
	assert.Equal(t, ErrCodeInvalidRequest, oauthErr.Code)
}
