package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-authcore/authcore/internal/config"
	"github.com/go-authcore/authcore/internal/metrics"
	"github.com/go-authcore/authcore/internal/middleware"
	"github.com/go-authcore/authcore/internal/models"
	"github.com/go-authcore/authcore/internal/services"
	"github.com/go-authcore/authcore/internal/store"
	"github.com/go-authcore/authcore/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testClientSecret = "super-secret-value"
	testVerifier     = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	testChallenge    = "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
	testRedirectURI  = "https://app.example.com/callback"
)

// testServer wires the handlers into a gin router the same way the
// bootstrap package does
type testServer struct {
	store  *store.Store
	cfg    *config.Config
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)

	s, err := store.New("sqlite", ":memory:")
	require.NoError(t, err)

	cfg := &config.Config{
		BaseURL:                "http://localhost:8080",
		JWTSecret:              "test-secret",
		AuthCodeExpiration:     10 * time.Minute,
		AccessTokenExpiration:  time.Hour,
		RefreshTokenExpiration: 720 * time.Hour,
	}

	signer := token.NewSigner(cfg.JWTSecret, cfg.BaseURL)
	rec := metrics.NewNoopMetrics()
	audit := services.NewAuditService(s, false, 0)

	registry := services.NewClientRegistry(s, audit, rec)
	authenticator := services.NewClientAuthenticator(s, audit, rec)
	engine := services.NewAuthorizationEngine(s, cfg, audit, rec)
	tokens := services.NewTokenService(s, cfg, signer, audit, rec)
	introspection := services.NewIntrospectionService(s, audit, rec)

	register := NewRegisterHandler(registry)
	authorization := NewAuthorizationHandler(engine)
	tokenHandler := NewTokenHandler(tokens)
	introspect := NewIntrospectionHandler(introspection)
	wellKnown := NewWellKnownHandler(cfg)

	r := gin.New()
	r.GET("/.well-known/oauth-authorization-server", wellKnown.Metadata)

	oauth := r.Group("/oauth")
	oauth.POST("/register", register.Register)
	oauth.GET("/authorize", authorization.ShowConsent)
	oauth.POST("/authorize", authorization.Authorize)
	oauth.POST("/token", middleware.ClientAuth(authenticator, false), tokenHandler.Token)
	oauth.POST("/introspect", middleware.ClientAuth(authenticator, true), introspect.Introspect)
	oauth.POST("/revoke", middleware.ClientAuth(authenticator, true), introspect.Revoke)

	return &testServer{store: s, cfg: cfg, router: r}
}

func (ts *testServer) createConfidentialClient(t *testing.T) *models.OAuthClient {
	return ts.createConfidentialClientWithID(t, "client_confidential_"+t.Name())
}

func (ts *testServer) createConfidentialClientWithID(t *testing.T, clientID string) *models.OAuthClient {
	hash, err := bcrypt.GenerateFromPassword([]byte(testClientSecret), bcrypt.DefaultCost)
	require.NoError(t, err)

	client := &models.OAuthClient{
		ClientID:                clientID,
		ClientSecret:            string(hash),
		Name:                    "Confidential Test Client",
		RedirectURIs:            models.StringArray{testRedirectURI},
		GrantTypes:              models.StringArray{"authorization_code", "refresh_token"},
		ResponseTypes:           models.StringArray{"code"},
		Scope:                   "read write",
		TokenEndpointAuthMethod: models.AuthMethodSecretBasic,
		IsActive:                true,
	}
	require.NoError(t, ts.store.CreateClient(client))
	return client
}

func (ts *testServer) createPublicClient(t *testing.T) *models.OAuthClient {
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
	require.NoError(t, ts.store.CreateClient(client))
	return client
}

// postForm sends a form-encoded POST and returns the recorded response
func (ts *testServer) postForm(path string, form url.Values, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, fn := range mutate {
		fn(req)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) get(path string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, fn := range mutate {
		fn(req)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func withBasicAuth(clientID, secret string) func(*http.Request) {
	return func(req *http.Request) {
		req.SetBasicAuth(clientID, secret)
	}
}

func withUserHeader(userID string) func(*http.Request) {
	return func(req *http.Request) {
		req.Header.Set("X-Authenticated-User", userID)
	}
}

// obtainCode drives the authorization endpoint through the router and
// extracts the issued code from the redirect
func (ts *testServer) obtainCode(t *testing.T, client *models.OAuthClient, challenge string) string {
	form := url.Values{
		"client_id":     {client.ClientID},
		"redirect_uri":  {testRedirectURI},
		"response_type": {"code"},
		"state":         {"xyz"},
		"action":        {"approve"},
	}
	if challenge != "" {
		form.Set("code_challenge", challenge)
		form.Set("code_challenge_method", "S256")
	}

	w := ts.postForm("/oauth/authorize", form, withUserHeader("user-1"))
	require.Equal(t, http.StatusFound, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	code := location.Query().Get("code")
	require.NotEmpty(t, code)
	return code
}
