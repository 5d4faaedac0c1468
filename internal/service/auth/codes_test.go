package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueVerificationCode(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewTestCodeIssuer(time.Hour, func() time.Time { return now })

	// Codes come from crypto/rand, so sample a few to cover the range
	// boundaries statistically rather than exactly.
	for i := 0; i < 50; i++ {
		code, expiresAt, err := issuer.IssueVerificationCode()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, code, 100000)
		assert.LessOrEqual(t, code, 999999)
		assert.Equal(t, now.Add(time.Hour), expiresAt)
	}
}

func TestIssueResetCredential(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewTestCodeIssuer(time.Hour, func() time.Time { return now })

	plaintext, digest, expiresAt, err := issuer.IssueResetCredential()
	require.NoError(t, err)

	// 32 random bytes hex-encoded.
	assert.Len(t, plaintext, 64)
	assert.Equal(t, HashResetCredential(plaintext), digest)
	assert.NotEqual(t, plaintext, digest)
	assert.Equal(t, now.Add(time.Hour), expiresAt)
}

func TestIssueResetCredentialIsUnique(t *testing.T) {
	issuer := NewCodeIssuer(time.Hour)

	a, _, _, err := issuer.IssueResetCredential()
	require.NoError(t, err)
	b, _, _, err := issuer.IssueResetCredential()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestVerifyResetCredential(t *testing.T) {
	issuer := NewCodeIssuer(time.Hour)
	plaintext, digest, _, err := issuer.IssueResetCredential()
	require.NoError(t, err)

	assert.True(t, VerifyResetCredential(plaintext, digest))
	assert.False(t, VerifyResetCredential("wrong-credential", digest))
	assert.False(t, VerifyResetCredential("", digest))
	assert.False(t, VerifyResetCredential(plaintext, HashResetCredential("other")))
}
