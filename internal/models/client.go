package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-authcore/authcore/internal/util"

	"golang.org/x/crypto/bcrypt"
)

// Client auth methods accepted at the token endpoint
const (
	AuthMethodSecretBasic = "client_secret_basic"
	AuthMethodSecretPost  = "client_secret_post"
	AuthMethodNone        = "none"
)

// StringArray stores a []string as a JSON column
type StringArray []string

// Scan implements sql.Scanner
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("unsupported type for StringArray: %T", value)
	}
}

// Value implements driver.Valuer
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

// Contains reports whether the array holds s
func (a StringArray) Contains(s string) bool {
	for _, v := range a {
		if v == s {
			return true
		}
	}
	return false
}

// OAuthClient is a registered OAuth 2.0 client application.
// ClientSecret holds a bcrypt hash; it is empty for public clients.
type OAuthClient struct {
	ID                      int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	ClientID                string      `gorm:"uniqueIndex;size:64;not null" json:"client_id"`
	ClientSecret            string      `gorm:"size:255" json:"-"`
	Name                    string      `gorm:"size:255;not null" json:"name"`
	RedirectURIs            StringArray `gorm:"type:text;not null" json:"redirect_uris"`
	GrantTypes              StringArray `gorm:"type:text" json:"grant_types"`
	ResponseTypes           StringArray `gorm:"type:text" json:"response_types"`
	Scope                   string      `gorm:"size:512" json:"scope"`
	TokenEndpointAuthMethod string      `gorm:"size:32;default:client_secret_basic" json:"token_endpoint_auth_method"`
	IsActive                bool        `gorm:"default:true" json:"is_active"`
	CreatedAt               time.Time   `json:"created_at"`
	UpdatedAt               time.Time   `json:"updated_at"`
}

// TableName specifies the table name
func (OAuthClient) TableName() string {
	return "oauth_clients"
}

// IsPublic reports whether the client authenticates without a secret
func (c *OAuthClient) IsPublic() bool {
	return c.TokenEndpointAuthMethod == AuthMethodNone || c.ClientSecret == ""
}

// ValidateClientSecret checks a plaintext secret against the stored hash
func (c *OAuthClient) ValidateClientSecret(secret string) bool {
	if c.ClientSecret == "" || secret == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(c.ClientSecret), []byte(secret)) == nil
}

// SupportsGrantType reports whether the client may use the given grant.
// An empty registration defaults to the authorization code grant plus
// refresh tokens.
func (c *OAuthClient) SupportsGrantType(grantType string) bool {
	if len(c.GrantTypes) == 0 {
		return grantType == "authorization_code" || grantType == "refresh_token"
	}
	return c.GrantTypes.Contains(grantType)
}

// GenerateClientCredentials creates a new client identifier and, for
// confidential clients, a plaintext secret. The secret is returned once;
// only its bcrypt hash is stored.
func GenerateClientCredentials(public bool) (clientID, plainSecret, secretHash string, err error) {
	suffix, err := util.RandomHex(16)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to generate client id: %w", err)
	}
	clientID = fmt.Sprintf("client_%d_%s", time.Now().UnixMilli(), suffix)

	if public {
		return clientID, "", "", nil
	}

	plainSecret, err = util.RandomHex(64)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to generate client secret: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plainSecret), bcrypt.DefaultCost)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to hash client secret: %w", err)
	}
	return clientID, plainSecret, string(hash), nil
}

// ValidateRedirectURIs rejects registrations without at least one
// well-formed absolute redirect URI
func ValidateRedirectURIs(uris []string) error {
	if len(uris) == 0 {
		return errors.New("at least one redirect URI is required")
	}
	for _, uri := range uris {
		if _, err := util.NormalizeRedirectURI(uri); err != nil {
			return fmt.Errorf("invalid redirect URI %q: %w", uri, err)
		}
	}
	return nil
}
