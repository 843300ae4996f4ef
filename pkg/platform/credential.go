package platform

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	pkgerrors "github.com/fitpulse/checkout-gateway/pkg/errors"
)

// Credential is an opaque bearer capability for the platform API. It is
// passed explicitly to every call instead of living in ambient storage.
type Credential struct {
	token string
}

// NewCredential wraps a raw bearer token.
func NewCredential(token string) (Credential, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Credential{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return Credential{token: token}, nil
}

// CredentialFromHeader extracts a bearer token from an Authorization header.
// A bare scheme word with nothing after it counts as missing credentials.
func CredentialFromHeader(header string) (Credential, error) {
	raw := strings.TrimSpace(header)
	lower := strings.ToLower(raw)
	switch {
	case lower == "bearer":
		return Credential{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	case strings.HasPrefix(lower, "bearer "):
		raw = strings.TrimSpace(raw[7:])
	}
	return NewCredential(raw)
}

// Empty reports whether the credential carries no token.
func (c Credential) Empty() bool {
	return c.token == ""
}

// Fingerprint returns a stable non-reversible identifier for the credential,
// usable as a cache or idempotency scope. Never the token itself.
func (c Credential) Fingerprint() string {
	if c.token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(c.token))
	return hex.EncodeToString(sum[:8])
}

func (c Credential) bearer() string {
	return c.token
}
