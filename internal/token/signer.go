// Package token signs and verifies the JWTs issued by the token endpoint.
// Tokens are HS256-signed with a shared secret; server-side state (status,
// revocation) lives in the store, keyed by token hash.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token type claim values
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// TokenTypeBearer is the token_type reported in token responses
const TokenTypeBearer = "Bearer"

// Claims is the verified content of an issued JWT
type Claims struct {
	Subject   string
	Type      string
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Signer issues and verifies HS256 JWTs
type Signer struct {
	secret []byte
	issuer string
}

// NewSigner creates a Signer with the given shared secret and issuer URL
func NewSigner(secret, issuer string) *Signer {
	return &Signer{secret: []byte(secret), issuer: issuer}
}

// Sign creates a signed JWT for the subject with the given type and lifetime
func (s *Signer) Sign(subject, tokenType string, ttl time.Duration) (string, *Claims, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	jti := uuid.New().String()

	claims := jwt.MapClaims{
		"sub":  subject,
		"type": tokenType,
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
		"iss":  s.issuer,
		"jti":  jti,
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	return signed, &Claims{
		Subject:   subject,
		Type:      tokenType,
		JTI:       jti,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify parses a JWT and checks its signature, expiry and type claim
func (s *Signer) Verify(tokenString, wantType string) (*Claims, error) {
	tok, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !tok.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	tokenType, _ := claims["type"].(string)
	if wantType != "" && tokenType != wantType {
		return nil, ErrWrongTokenType
	}

	subject, _ := claims["sub"].(string)
	jti, _ := claims["jti"].(string)

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}
	iat, _ := claims["iat"].(float64)

	return &Claims{
		Subject:   subject,
		Type:      tokenType,
		JTI:       jti,
		IssuedAt:  time.Unix(int64(iat), 0),
		ExpiresAt: time.Unix(int64(exp), 0),
	}, nil
}
