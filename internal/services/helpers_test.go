package services

import (
	"context"
	"testing"
	"time"

	"github.com/go-authcore/authcore/internal/config"
	"github.com/go-authcore/authcore/internal/metrics"
	"github.com/go-authcore/authcore/internal/models"
	"github.com/go-authcore/authcore/internal/pkce"
	"github.com/go-authcore/authcore/internal/store"
	"github.com/go-authcore/authcore/internal/token"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testClientSecret = "super-secret-value"
	testVerifier     = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	testRedirectURI  = "https://app.example.com/callback"
)

func setupTestStore(t *testing.T) *store.Store {
	// Use in-memory SQLite database for testing
	s, err := store.New("sqlite", ":memory:")
	require.NoError(t, err)
	return s
}

func testConfig() *config.Config {
	return &config.Config{
		BaseURL:                "http://localhost:8080",
		JWTSecret:              "test-secret",
		AuthCodeExpiration:     10 * time.Minute,
		AccessTokenExpiration:  time.Hour,
		RefreshTokenExpiration: 720 * time.Hour,
	}
}

// testEnv bundles the full service stack over one in-memory store
type testEnv struct {
	store         *store.Store
	cfg           *config.Config
	signer        *token.Signer
	audit         *AuditService
	registry      *ClientRegistry
	authenticator *ClientAuthenticator
	authorization *AuthorizationEngine
	tokens        *TokenService
	introspection *IntrospectionService
}

func newTestEnv(t *testing.T) *testEnv {
	s := setupTestStore(t)
	cfg := testConfig()
	signer := token.NewSigner(cfg.JWTSecret, cfg.BaseURL)
	rec := metrics.NewNoopMetrics()
	// Disabled audit service writes nothing and starts no worker
	audit := NewAuditService(s, false, 0)

	return &testEnv{
		store:         s,
		cfg:           cfg,
		signer:        signer,
		audit:         audit,
		registry:      NewClientRegistry(s, audit, rec),
		authenticator: NewClientAuthenticator(s, audit, rec),
		authorization: NewAuthorizationEngine(s, cfg, audit, rec),
		tokens:        NewTokenService(s, cfg, signer, audit, rec),
		introspection: NewIntrospectionService(s, audit, rec),
	}
}

// createConfidentialClient registers a confidential client whose secret
// is testClientSecret
func createConfidentialClient(t *testing.T, s *store.Store) *models.OAuthClient {
	hash, err := bcrypt.GenerateFromPassword([]byte(testClientSecret), bcrypt.DefaultCost)
	require.NoError(t, err)

	client := &models.OAuthClient{
		ClientID:                "client_confidential_" + t.Name(),
		ClientSecret:            string(hash),
		Name:                    "Confidential Test Client",
		RedirectURIs:            models.StringArray{testRedirectURI},
		GrantTypes:              models.StringArray{"authorization_code", "refresh_token"},
		ResponseTypes:           models.StringArray{"code"},
		Scope:                   "read write",
		TokenEndpointAuthMethod: models.AuthMethodSecretBasic,
		IsActive:                true,
	}
	require.NoError(t, s.CreateClient(client))
	return client
}

func createPublicClient(t *testing.T, s *store.Store) *models.OAuthClient {
	client := &models.OAuthClient{
		ClientID:                "client_public_" + t.Name(),
		Name:                    "Public Test Client",
		RedirectURIs:            models.StringArray{testRedirectURI},
		GrantTypes:              models.StringArray{"authorization_code", "refresh_token"},
		ResponseTypes:           models.StringArray{"code"},
		Scope:                   "read",
		TokenEndpointAuthMethod: models.AuthMethodNone,
		IsActive:                true,
	}
	require.NoError(t, s.CreateClient(client))
	return client
}

// authorizeCode runs the authorization flow and returns the issued code
func authorizeCode(t *testing.T, env *testEnv, client *models.OAuthClient, withPKCE bool) string {
	req := AuthorizeRequest{
		ClientID:     client.ClientID,
		RedirectURI:  testRedirectURI,
		ResponseType: "code",
		State:        "xyz",
		UserID:       "user-1",
	}
	if withPKCE {
		req.CodeChallenge = pkce.ComputeChallenge(testVerifier)
		req.CodeChallengeMethod = pkce.MethodS256
	}

	result, err := env.authorization.Authorize(context.Background(), req)
	require.NoError(t, err)
	return result.Code
}

func confidentialAuth(client *models.OAuthClient) *ClientAuth {
	return &ClientAuth{
		Authenticated: true,
		Method:        models.AuthMethodSecretBasic,
		ClientID:      client.ClientID,
		Client:        client,
	}
}

func publicAuth(client *models.OAuthClient) *ClientAuth {
	return &ClientAuth{
		Authenticated: false,
		Method:        models.AuthMethodNone,
		ClientID:      client.ClientID,
		Client:        client,
	}
}
