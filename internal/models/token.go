package models

import "time"

// Token lifecycle states
const (
	TokenStatusActive  = "active"
	TokenStatusRevoked = "revoked"
	TokenStatusExpired = "expired"
)

// RefreshToken is a stored refresh token. Tokens sharing a Family descend
// from the same initial grant; rotation revokes the old row and inserts a
// replacement in the same family.
type RefreshToken struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	TokenHash string    `gorm:"uniqueIndex;size:64;not null"`
	UserID    string    `gorm:"index;size:64;not null"`
	ClientID  string    `gorm:"index;size:64;not null"`
	Scope     string    `gorm:"size:512"`
	Family    string    `gorm:"index;size:36;not null"`
	Status    string    `gorm:"size:16;not null;default:active"`
	ExpiresAt time.Time `gorm:"index;not null"`
	RevokedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// IsExpired reports whether the token is past its expiry
func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsActive reports whether the token may still be redeemed
func (t *RefreshToken) IsActive() bool {
	return t.Status == TokenStatusActive && !t.IsExpired()
}

// AccessToken records an issued access token by hash so it can be
// introspected and revoked server-side without parsing the JWT.
type AccessToken struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	TokenHash string    `gorm:"uniqueIndex;size:64;not null"`
	JTI       string    `gorm:"size:36"`
	UserID    string    `gorm:"index;size:64;not null"`
	ClientID  string    `gorm:"index;size:64;not null"`
	Scope     string    `gorm:"size:512"`
	Status    string    `gorm:"size:16;not null;default:active"`
	ExpiresAt time.Time `gorm:"index;not null"`
	RevokedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name
func (AccessToken) TableName() string {
	return "access_tokens"
}

// IsExpired reports whether the token is past its expiry
func (t *AccessToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsActive reports whether the token is still good for introspection
func (t *AccessToken) IsActive() bool {
	return t.Status == TokenStatusActive && !t.IsExpired()
}
