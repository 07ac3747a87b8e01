package handlers

import (
	"net/http"

	"github.com/go-authcore/authcore/internal/services"

	"github.com/gin-gonic/gin"
)

type RegisterHandler struct {
	registry *services.ClientRegistry
}

func NewRegisterHandler(registry *services.ClientRegistry) *RegisterHandler {
	return &RegisterHandler{registry: registry}
}

// Register handles dynamic client registration (POST /oauth/register).
// The client_secret in the response is shown exactly once; only its hash
// is stored.
func (h *RegisterHandler) Register(c *gin.Context) {
	var req services.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": err.Error(),
		})
		return
	}

	result, err := h.registry.Register(c, req)
	if err != nil {
		writeOAuthError(c, err)
		return
	}

	client := result.Client
	resp := gin.H{
		"client_id":                  client.ClientID,
		"client_name":                client.Name,
		"redirect_uris":              client.RedirectURIs,
		"grant_types":                client.GrantTypes,
		"response_types":             client.ResponseTypes,
		"scope":                      client.Scope,
		"token_endpoint_auth_method": client.TokenEndpointAuthMethod,
		"client_id_issued_at":        client.CreatedAt.Unix(),
	}
	if result.ClientSecret != "" {
		resp["client_secret"] = result.ClientSecret
	}

	c.JSON(http.StatusCreated, resp)
}
