package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/go-authcore/authcore/internal/metrics"
	"github.com/go-authcore/authcore/internal/models"
	"github.com/go-authcore/authcore/internal/store"
)

// RegistrationRequest carries the dynamic client registration input
type RegistrationRequest struct {
	Name                    string   `json:"client_name" binding:"required"`
	RedirectURIs            []string `json:"redirect_uris" binding:"required"`
	GrantTypes              []string `json:"grant_types"`
	ResponseTypes           []string `json:"response_types"`
	Scope                   string   `json:"scope"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
}

// RegistrationResult is returned once; ClientSecret is never recoverable
// after this response
type RegistrationResult struct {
	Client       *models.OAuthClient
	ClientSecret string
}

// ClientRegistry handles dynamic client registration and lookups
type ClientRegistry struct {
	store   *store.Store
	audit   *AuditService
	metrics metrics.Recorder
}

// NewClientRegistry creates a new client registry
func NewClientRegistry(s *store.Store, audit *AuditService, rec metrics.Recorder) *ClientRegistry {
	return &ClientRegistry{store: s, audit: audit, metrics: rec}
}

var supportedAuthMethods = map[string]bool{
	models.AuthMethodSecretBasic: true,
	models.AuthMethodSecretPost:  true,
	models.AuthMethodNone:        true,
}

var supportedGrantTypes = map[string]bool{
	"authorization_code": true,
	"refresh_token":      true,
}

// Register creates a new client. Confidential clients get a generated
// secret whose plaintext appears only in the returned result.
func (r *ClientRegistry) Register(ctx context.Context, req RegistrationRequest) (*RegistrationResult, error) {
	if err := models.ValidateRedirectURIs(req.RedirectURIs); err != nil {
		r.metrics.RecordClientRegistered(false)
		return nil, invalidRequest(err.Error())
	}

	authMethod := req.TokenEndpointAuthMethod
	if authMethod == "" {
		authMethod = models.AuthMethodSecretBasic
	}
	if !supportedAuthMethods[authMethod] {
		r.metrics.RecordClientRegistered(false)
		return nil, invalidRequest(fmt.Sprintf("unsupported token_endpoint_auth_method: %s", authMethod))
	}

	for _, gt := range req.GrantTypes {
		if !supportedGrantTypes[gt] {
			r.metrics.RecordClientRegistered(false)
			return nil, invalidRequest(fmt.Sprintf("unsupported grant type: %s", gt))
		}
	}

	public := authMethod == models.AuthMethodNone
	clientID, plainSecret, secretHash, err := models.GenerateClientCredentials(public)
	if err != nil {
		r.metrics.RecordClientRegistered(false)
		return nil, fmt.Errorf("failed to generate client credentials: %w", err)
	}

	scope := req.Scope
	if scope == "" {
		scope = "default"
	}
	responseTypes := req.ResponseTypes
	if len(responseTypes) == 0 {
		responseTypes = []string{"code"}
	}
	grantTypes := req.GrantTypes
	if len(grantTypes) == 0 {
		grantTypes = []string{"authorization_code", "refresh_token"}
	}

	client := &models.OAuthClient{
		ClientID:                clientID,
		ClientSecret:            secretHash,
		Name:                    req.Name,
		RedirectURIs:            models.StringArray(req.RedirectURIs),
		GrantTypes:              models.StringArray(grantTypes),
		ResponseTypes:           models.StringArray(responseTypes),
		Scope:                   scope,
		TokenEndpointAuthMethod: authMethod,
		IsActive:                true,
	}

	if err := r.store.CreateClient(client); err != nil {
		r.metrics.RecordClientRegistered(false)
		if errors.Is(err, store.ErrClientConflict) {
			return nil, invalidRequest("client already exists")
		}
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	r.audit.Log(ctx, AuditEntry{
		EventType: models.EventClientRegistered,
		ClientID:  client.ClientID,
		Details: models.AuditDetails{
			"client_name":                client.Name,
			"token_endpoint_auth_method": authMethod,
			"redirect_uris":              req.RedirectURIs,
		},
	})
	r.metrics.RecordClientRegistered(true)
	log.Printf("[Clients] registered client %s (%s)", client.ClientID, client.Name)

	return &RegistrationResult{Client: client, ClientSecret: plainSecret}, nil
}

// Get loads an active client by its client_id
func (r *ClientRegistry) Get(clientID string) (*models.OAuthClient, error) {
	client, err := r.store.GetClient(clientID)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, invalidClient("unknown client")
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}
