package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Audit event types emitted by the server
const (
	EventClientRegistered     = "client_registered"
	EventAuthorizationGranted = "authorization_granted"
	EventTokenIssued          = "token_issued"
	EventTokenRevoked         = "token_revoked"
	EventInvalidPKCE          = "invalid_pkce"
	EventClientAuthSuccess    = "client_auth_success"
	EventClientAuthFailed     = "client_auth_failed"
)

// AuditDetails stores structured event metadata as a JSON column
type AuditDetails map[string]interface{}

// Value implements driver.Valuer
func (d AuditDetails) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner
func (d *AuditDetails) Scan(value interface{}) error {
	if value == nil {
		*d = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("unsupported type for AuditDetails: %T", value)
	}
}

// AuditLog is an append-only record of a security-relevant event
type AuditLog struct {
	ID        string       `gorm:"primaryKey;size:36" json:"id"`
	EventType string       `gorm:"index;size:64;not null" json:"event_type"`
	ClientID  string       `gorm:"index;size:64" json:"client_id"`
	UserID    string       `gorm:"index;size:64" json:"user_id"`
	IPAddress string       `gorm:"size:45" json:"ip_address"`
	UserAgent string       `gorm:"size:512" json:"user_agent"`
	Details   AuditDetails `gorm:"type:text" json:"details"`
	CreatedAt time.Time    `gorm:"index" json:"created_at"`
}

// TableName specifies the table name
func (AuditLog) TableName() string {
	return "audit_logs"
}
