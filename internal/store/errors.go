package store

import "errors"

var (
	// ErrRecordNotFound wraps GORM's not found error for consistency
	ErrRecordNotFound = errors.New("record not found")

	// ErrClientConflict is returned when a client_id already exists
	ErrClientConflict = errors.New("client already exists")

	// ErrCodeConsumed is returned by ConsumeAuthorizationCode when the code
	// was already redeemed by a concurrent request (0 rows deleted).
	ErrCodeConsumed = errors.New("authorization code already consumed")

	// ErrRefreshTokenNotActive is returned by RotateRefreshToken when the
	// presented token is no longer in active state (0 rows updated). This is
	// the replay signal for rotated tokens.
	ErrRefreshTokenNotActive = errors.New("refresh token is not active")
)
