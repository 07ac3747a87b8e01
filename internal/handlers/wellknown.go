package handlers

import (
	"net/http"

	"github.com/go-authcore/authcore/internal/config"

	"github.com/gin-gonic/gin"
)

type WellKnownHandler struct {
	cfg *config.Config
}

func NewWellKnownHandler(cfg *config.Config) *WellKnownHandler {
	return &WellKnownHandler{cfg: cfg}
}

// Metadata serves RFC 8414 authorization server metadata
// (GET /.well-known/oauth-authorization-server). Only capabilities the
// server actually implements are advertised.
func (h *WellKnownHandler) Metadata(c *gin.Context) {
	base := h.cfg.BaseURL

	c.Header("Cache-Control", "public, max-age=3600")
	c.JSON(http.StatusOK, gin.H{
		"issuer":                 base,
		"authorization_endpoint": base + "/oauth/authorize",
		"token_endpoint":         base + "/oauth/token",
		"registration_endpoint":  base + "/oauth/register",
		"introspection_endpoint": base + "/oauth/introspect",
		"revocation_endpoint":    base + "/oauth/revoke",
		"response_types_supported": []string{
			"code",
		},
		"grant_types_supported": []string{
			"authorization_code",
			"refresh_token",
		},
		"code_challenge_methods_supported": []string{
			"S256",
		},
		"token_endpoint_auth_methods_supported": []string{
			"client_secret_basic",
			"client_secret_post",
			"none",
		},
		"introspection_endpoint_auth_methods_supported": []string{
			"client_secret_basic",
			"client_secret_post",
		},
		"revocation_endpoint_auth_methods_supported": []string{
			"client_secret_basic",
			"client_secret_post",
		},
	})
}
