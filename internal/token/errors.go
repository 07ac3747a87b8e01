package token

import "errors"

var (
	// ErrTokenGeneration indicates signing failed
	ErrTokenGeneration = errors.New("failed to generate token")
	// ErrInvalidToken indicates a malformed or badly signed token
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken indicates a token past its expiry
	ErrExpiredToken = errors.New("token has expired")
	// ErrWrongTokenType indicates a token whose type claim does not match
	ErrWrongTokenType = errors.New("unexpected token type")
)
