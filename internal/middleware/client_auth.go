package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-authcore/authcore/internal/services"

	"github.com/gin-gonic/gin"
)

// clientAuthKey is the context key under which the resolved ClientAuth
// is stored for handlers
const clientAuthKey = "client_auth"

// ClientAuth authenticates the calling client for token endpoint style
// requests. Credentials come from the Basic authorization header or the
// form body; when the header is present the body credentials are
// discarded so a client cannot mix the two.
//
// requireAuth makes unauthenticated requests fail outright; the token
// endpoint leaves it false because public clients redeem codes with
// PKCE instead of a secret.
func ClientAuth(authenticator *services.ClientAuthenticator, requireAuth bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		creds := extractCredentials(c)

		auth, oauthErr := authenticator.Authenticate(c, creds)
		if oauthErr != nil {
			unauthorized(c, oauthErr)
			return
		}

		if requireAuth && !auth.Authenticated {
			unauthorized(c, services.NewOAuthError("invalid_client", "client authentication required"))
			return
		}

		c.Set(clientAuthKey, auth)
		c.Next()
	}
}

func extractCredentials(c *gin.Context) services.Credentials {
	if id, secret, ok := services.ParseBasicAuth(c.GetHeader("Authorization")); ok {
		return services.Credentials{ClientID: id, ClientSecret: secret, FromHeader: true}
	}
	return services.Credentials{
		ClientID:     c.PostForm("client_id"),
		ClientSecret: c.PostForm("client_secret"),
	}
}

func unauthorized(c *gin.Context, oauthErr *services.OAuthError) {
	c.Header("WWW-Authenticate", fmt.Sprintf(
		`Basic realm="OAuth2", error=%q, error_description=%q`,
		oauthErr.Code, oauthErr.Description,
	))
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":             oauthErr.Code,
		"error_description": oauthErr.Description,
	})
}

// GetClientAuth retrieves the ClientAuth stored by the middleware.
// Handlers behind ClientAuth can rely on it being present.
func GetClientAuth(c *gin.Context) (*services.ClientAuth, error) {
	val, exists := c.Get(clientAuthKey)
	if !exists {
		return nil, errors.New("client auth not present in context")
	}
	auth, ok := val.(*services.ClientAuth)
	if !ok {
		return nil, errors.New("unexpected client auth type in context")
	}
	return auth, nil
}
