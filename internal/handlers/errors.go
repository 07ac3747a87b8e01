package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-authcore/authcore/internal/services"

	"github.com/gin-gonic/gin"
)

// writeOAuthError renders a protocol error as the standard RFC 6749 JSON
// body. invalid_client maps to 401 with a WWW-Authenticate challenge,
// every other protocol error to 400. Anything that is not an OAuthError
// is an internal failure and becomes an opaque server_error.
func writeOAuthError(c *gin.Context, err error) {
	var oauthErr *services.OAuthError
	if !errors.As(err, &oauthErr) {
		log.Printf("[HTTP] internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             services.ErrCodeServerError,
			"error_description": "internal server error",
		})
		return
	}

	status := http.StatusBadRequest
	if oauthErr.Code == services.ErrCodeInvalidClient {
		status = http.StatusUnauthorized
		c.Header("WWW-Authenticate", `Basic realm="OAuth2"`)
	}
	c.JSON(status, gin.H{
		"error":             oauthErr.Code,
		"error_description": oauthErr.Description,
	})
}
