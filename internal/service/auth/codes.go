package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"
)

// CodeIssuer generates one-time credentials: numeric email verification
// codes and opaque password-reset tokens. Both come from crypto/rand; the
// reset token must be unguessable, the verification code only needs to
// resist casual guessing within its validity window.
type CodeIssuer struct {
	ttl      time.Duration
	timeFunc func() time.Time
}

// NewCodeIssuer creates a CodeIssuer whose credentials expire after ttl.
func NewCodeIssuer(ttl time.Duration) *CodeIssuer {
	return &CodeIssuer{
		ttl:      ttl,
		timeFunc: time.Now,
	}
}

// NewTestCodeIssuer creates a CodeIssuer with a controllable clock.
// For use in tests only.
func NewTestCodeIssuer(ttl time.Duration, timeFunc func() time.Time) *CodeIssuer {
	return &CodeIssuer{ttl: ttl, timeFunc: timeFunc}
}

// resetTokenBytes is the entropy of a reset credential (32 bytes = 256 bits).
const resetTokenBytes = 32

// IssueVerificationCode returns a 6-digit code in [100000, 999999] together
// with its absolute expiry.
func (c *CodeIssuer) IssueVerificationCode() (int, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to generate verification code: %w", err)
	}

	code := int(n.Int64()) + 100000
	return code, c.timeFunc().Add(c.ttl).UTC(), nil
}

// IssueResetCredential returns a high-entropy opaque token, the SHA-256 hex
// digest to persist in its place, and the absolute expiry. The plaintext is
// returned exactly once, for emailing to the account owner.
func (c *CodeIssuer) IssueResetCredential() (plaintext, digest string, expiresAt time.Time, err error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", time.Time{}, fmt.Errorf("failed to generate reset credential: %w", err)
	}

	plaintext = hex.EncodeToString(buf)
	return plaintext, HashResetCredential(plaintext), c.timeFunc().Add(c.ttl).UTC(), nil
}

// HashResetCredential produces the stored form of a reset credential.
func HashResetCredential(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// VerifyResetCredential compares a presented credential against a stored
// digest in constant time.
func VerifyResetCredential(plaintext, storedDigest string) bool {
	presented := HashResetCredential(plaintext)
	return subtle.ConstantTimeCompare([]byte(presented), []byte(storedDigest)) == 1
}
