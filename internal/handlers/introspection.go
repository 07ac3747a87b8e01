package handlers

import (
	"net/http"

	"github.com/go-authcore/authcore/internal/middleware"
	"github.com/go-authcore/authcore/internal/services"

	"github.com/gin-gonic/gin"
)

type IntrospectionHandler struct {
	introspection *services.IntrospectionService
}

func NewIntrospectionHandler(svc *services.IntrospectionService) *IntrospectionHandler {
	return &IntrospectionHandler{introspection: svc}
}

// Introspect handles RFC 7662 token introspection (POST /oauth/introspect).
// The response is always 200; anything other than a live token owned by
// the caller is just {"active": false}.
func (h *IntrospectionHandler) Introspect(c *gin.Context) {
	auth, err := middleware.GetClientAuth(c)
	if err != nil {
		writeOAuthError(c, err)
		return
	}

	result := h.introspection.Introspect(c, c.PostForm("token"), auth)
	c.JSON(http.StatusOK, result)
}

// Revoke handles RFC 7009 token revocation (POST /oauth/revoke).
// Unknown tokens, tokens owned by other clients, and storage failures
// are all silently ignored; the endpoint returns an empty 200 either way.
func (h *IntrospectionHandler) Revoke(c *gin.Context) {
	auth, err := middleware.GetClientAuth(c)
	if err != nil {
		writeOAuthError(c, err)
		return
	}

	h.introspection.Revoke(c, c.PostForm("token"), auth)
	c.Status(http.StatusOK)
}
