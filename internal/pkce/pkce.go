// Package pkce implements the Proof Key for Code Exchange S256 transform
// and verifier checks used by the authorization code grant.
package pkce

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
)

// MethodS256 is the only supported code challenge method
const MethodS256 = "S256"

var (
	// ErrUnsupportedMethod indicates a challenge method other than S256
	ErrUnsupportedMethod = errors.New("unsupported code challenge method")
	// ErrVerifierLength indicates a verifier outside the 43..128 char range
	ErrVerifierLength = errors.New("code verifier length must be between 43 and 128 characters")
	// ErrVerificationFailed indicates a verifier that does not match the challenge
	ErrVerificationFailed = errors.New("code verifier does not match code challenge")
)

// ComputeChallenge derives the S256 code challenge for a verifier:
// the unpadded base64url encoding of its SHA-256 digest.
func ComputeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// ValidateVerifier enforces the verifier length bounds from RFC 7636
func ValidateVerifier(verifier string) error {
	if len(verifier) < 43 || len(verifier) > 128 {
		return ErrVerifierLength
	}
	return nil
}

// Verify checks a code verifier against the stored challenge.
// Comparison is constant-time.
func Verify(verifier, challenge, method string) error {
	if method != "" && method != MethodS256 {
		return ErrUnsupportedMethod
	}
	if err := ValidateVerifier(verifier); err != nil {
		return err
	}
	computed := ComputeChallenge(verifier)
	if subtle.ConstantTimeCompare([]byte(computed), []byte(challenge)) != 1 {
		return ErrVerificationFailed
	}
	return nil
}
