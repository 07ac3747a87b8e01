package services

import "fmt"

// RFC 6749 error codes
const (
	ErrCodeInvalidRequest          = "invalid_request"
	ErrCodeInvalidClient           = "invalid_client"
	ErrCodeInvalidGrant            = "invalid_grant"
	ErrCodeUnauthorizedClient      = "unauthorized_client"
	ErrCodeUnsupportedGrantType    = "unsupported_grant_type"
	ErrCodeUnsupportedResponseType = "unsupported_response_type"
	ErrCodeInvalidScope            = "invalid_scope"
	ErrCodeServerError             = "server_error"
)

// OAuthError is a protocol-level error carrying an RFC 6749 error code.
// Handlers render it as the standard {error, error_description} JSON body.
type OAuthError struct {
	Code        string
	Description string
}

func (e *OAuthError) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// NewOAuthError creates a protocol error with the given code and description
func NewOAuthError(code, description string) *OAuthError {
	return &OAuthError{Code: code, Description: description}
}

func invalidRequest(description string) *OAuthError {
	return &OAuthError{Code: ErrCodeInvalidRequest, Description: description}
}

func invalidClient(description string) *OAuthError {
	return &OAuthError{Code: ErrCodeInvalidClient, Description: description}
}

func invalidGrant(description string) *OAuthError {
	return &OAuthError{Code: ErrCodeInvalidGrant, Description: description}
}
