package handlers

import (
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-authcore/authcore/internal/services"

	"github.com/gin-gonic/gin"
)

//go:embed templates/consent.html
var templateFS embed.FS

var consentTemplate = template.Must(template.ParseFS(templateFS, "templates/consent.html"))

type AuthorizationHandler struct {
	engine *services.AuthorizationEngine
}

func NewAuthorizationHandler(engine *services.AuthorizationEngine) *AuthorizationHandler {
	return &AuthorizationHandler{engine: engine}
}

// consentPageData feeds the consent template; every request parameter is
// carried through hidden fields so the approval POST reproduces the
// original request exactly
type consentPageData struct {
	ClientName          string
	ClientID            string
	RedirectURI         string
	ResponseType        string
	Scope               string
	Scopes              []string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
	UserID              string
}

// requestFromParams collects authorization parameters from either the
// query string (GET) or the form body (POST)
func requestFromParams(get func(string) string, userID string) services.AuthorizeRequest {
	return services.AuthorizeRequest{
		ClientID:            get("client_id"),
		RedirectURI:         get("redirect_uri"),
		ResponseType:        get("response_type"),
		Scope:               get("scope"),
		State:               get("state"),
		CodeChallenge:       get("code_challenge"),
		CodeChallengeMethod: get("code_challenge_method"),
		UserID:              userID,
	}
}

// resolveUser returns the authenticated end user for the request.
// Resource owner login is delegated to the deployment (typically an
// authenticating reverse proxy); the identity arrives in a trusted
// header, with an explicit parameter accepted for development setups.
func resolveUser(c *gin.Context, get func(string) string) string {
	if user := c.GetHeader("X-Authenticated-User"); user != "" {
		return user
	}
	return get("user_id")
}

// ShowConsent validates the authorization request and renders the
// consent page (GET /oauth/authorize). Client and redirect URI problems
// are reported directly, never via redirect, because the redirect
// target is untrusted until validated.
func (h *AuthorizationHandler) ShowConsent(c *gin.Context) {
	user := resolveUser(c, c.Query)
	if user == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "access_denied",
			"error_description": "no authenticated user for this request",
		})
		return
	}

	req := requestFromParams(c.Query, user)
	client, oauthErr := h.engine.ValidateRequest(req)
	if oauthErr != nil {
		writeOAuthError(c, oauthErr)
		return
	}

	scope := req.Scope
	if scope == "" {
		scope = client.Scope
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	_ = consentTemplate.Execute(c.Writer, consentPageData{
		ClientName:          client.Name,
		ClientID:            req.ClientID,
		RedirectURI:         req.RedirectURI,
		ResponseType:        req.ResponseType,
		Scope:               req.Scope,
		Scopes:              strings.Fields(scope),
		State:               req.State,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: req.CodeChallengeMethod,
		UserID:              user,
	})
}

// Authorize handles the consent decision (POST /oauth/authorize).
// Approval issues an authorization code and redirects back to the
// client; denial redirects with error=access_denied.
func (h *AuthorizationHandler) Authorize(c *gin.Context) {
	user := resolveUser(c, c.PostForm)
	if user == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "access_denied",
			"error_description": "no authenticated user for this request",
		})
		return
	}

	req := requestFromParams(c.PostForm, user)

	if c.PostForm("action") == "deny" {
		// Only redirect after the target has been validated
		if _, oauthErr := h.engine.ValidateRequest(req); oauthErr != nil {
			writeOAuthError(c, oauthErr)
			return
		}
		c.Redirect(http.StatusFound, errorRedirect(req.RedirectURI, "access_denied", req.State))
		return
	}

	result, err := h.engine.Authorize(c, req)
	if err != nil {
		writeOAuthError(c, err)
		return
	}

	c.Redirect(http.StatusFound, result.RedirectURL)
}

func errorRedirect(redirectURI, errCode, state string) string {
	parsed, err := url.Parse(redirectURI)
	if err != nil {
		return redirectURI
	}
	query := parsed.Query()
	query.Set("error", errCode)
	query.Set("state", state)
	parsed.RawQuery = query.Encode()
	return parsed.String()
}
