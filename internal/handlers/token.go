package handlers

import (
	"net/http"

	"github.com/go-authcore/authcore/internal/middleware"
	"github.com/go-authcore/authcore/internal/services"

	"github.com/gin-gonic/gin"
)

type TokenHandler struct {
	tokens *services.TokenService
}

func NewTokenHandler(tokens *services.TokenService) *TokenHandler {
	return &TokenHandler{tokens: tokens}
}

// Token handles the token endpoint (POST /oauth/token) for the
// authorization_code and refresh_token grants. Client authentication
// has already been resolved by the ClientAuth middleware.
func (h *TokenHandler) Token(c *gin.Context) {
	auth, err := middleware.GetClientAuth(c)
	if err != nil {
		writeOAuthError(c, err)
		return
	}

	req := services.TokenRequest{
		GrantType:    c.PostForm("grant_type"),
		Code:         c.PostForm("code"),
		RedirectURI:  c.PostForm("redirect_uri"),
		ClientID:     c.PostForm("client_id"),
		CodeVerifier: c.PostForm("code_verifier"),
		RefreshToken: c.PostForm("refresh_token"),
	}

	resp, err := h.tokens.Exchange(c, req, auth)
	if err != nil {
		writeOAuthError(c, err)
		return
	}

	// Token responses carry credentials and must never be cached
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(http.StatusOK, resp)
}
