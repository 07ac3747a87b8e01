package models

import "time"

// User is a resource owner known to the server. Rows are upserted when a
// user completes an authorization; LastLoginAt is bumped on every grant.
type User struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	Email       string    `gorm:"size:255" json:"email"`
	Name        string    `gorm:"size:255" json:"name"`
	LastLoginAt time.Time `json:"last_login_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}
