package models

import "time"

// AuthorizationCode is a single-use grant issued by the authorize endpoint.
// Only the SHA-256 hash of the code is stored; the plaintext value is
// returned to the client exactly once via the redirect.
type AuthorizationCode struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement"`
	CodeHash            string    `gorm:"uniqueIndex;size:64;not null"`
	ClientID            string    `gorm:"index;size:64;not null"`
	UserID              string    `gorm:"size:64;not null"`
	RedirectURI         string    `gorm:"size:512;not null"`
	Scope               string    `gorm:"size:512"`
	State               string    `gorm:"size:512"`
	CodeChallenge       string    `gorm:"size:128"`
	CodeChallengeMethod string    `gorm:"size:16"`
	ExpiresAt           time.Time `gorm:"index;not null"`
	CreatedAt           time.Time
}

// TableName specifies the table name
func (AuthorizationCode) TableName() string {
	return "auth_codes"
}

// IsExpired reports whether the code is past its expiry
func (c *AuthorizationCode) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// HasPKCE reports whether a code challenge was bound at issuance
func (c *AuthorizationCode) HasPKCE() bool {
	return c.CodeChallenge != ""
}
