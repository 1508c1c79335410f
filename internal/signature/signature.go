// Package signature implements HMAC-SHA256 authentication of raw webhook
// bodies against the shared secret.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var (
	// ErrInvalidSignature means the provided signature does not match the
	// body. Maps to HTTP 401.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrNotConfigured means the verifier has no secret. This is an
	// internal fault, not an authentication failure. Maps to HTTP 500.
	ErrNotConfigured = errors.New("signature secret not configured")
)

// Verifier authenticates webhook payloads signed with a shared secret.
// It is stateless and safe for concurrent use.
type Verifier struct {
	secret []byte
}

// New creates a Verifier for the given shared secret.
func New(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Compute returns the hex-encoded HMAC-SHA256 of body under the secret.
// This is the value a sender places in X-Webhook-Signature.
func (v *Verifier) Compute(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks provided against the expected signature of body.
//
// It must be called with the raw request bytes, never a re-serialized
// form. Comparison is constant-time; a provided value that is not valid
// hex of the right length is an authentication failure, not a fault.
func (v *Verifier) Verify(body []byte, provided string) error {
	if len(v.secret) == 0 {
		return ErrNotConfigured
	}

	providedMAC, err := hex.DecodeString(provided)
	if err != nil {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	if !hmac.Equal(providedMAC, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}
