package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher defines the interface for producing password hashes.
type PasswordHasher interface {
	// Hash produces a salted one-way hash of the plaintext password.
	// The work factor makes this CPU-bound; implementations bound their
	// own concurrency so hashing cannot starve request handling.
	Hash(ctx context.Context, password string) (string, error)
}

// PasswordVerifier defines the interface for comparing passwords.
type PasswordVerifier interface {
	// Compare compares a hashed password with its possible plaintext
	// equivalent. Returns nil on success, or an error on mismatch.
	Compare(hashedPassword, password string) error
}

// BcryptHasher implements PasswordHasher using bcrypt with a configurable
// cost. A buffered channel acts as a semaphore capping how many hashes run
// at once.
type BcryptHasher struct {
	cost  int
	slots chan struct{}
}

// NewBcryptHasher creates a BcryptHasher with the given cost and at most
// maxConcurrent hashes in flight. Zero or negative arguments fall back to
// bcrypt.DefaultCost and a limit of 4.
func NewBcryptHasher(cost, maxConcurrent int) *BcryptHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &BcryptHasher{
		cost:  cost,
		slots: make(chan struct{}, maxConcurrent),
	}
}

// Hash implements PasswordHasher. It waits for a free slot, honoring
// context cancellation while queued.
func (h *BcryptHasher) Hash(ctx context.Context, password string) (string, error) {
	select {
	case h.slots <- struct{}{}:
		defer func() { <-h.slots }()
	case <-ctx.Done():
		return "", fmt.Errorf("password hashing canceled: %w", ctx.Err())
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// BcryptVerifier implements PasswordVerifier using bcrypt.
type BcryptVerifier struct{}

// NewBcryptVerifier creates a new BcryptVerifier.
func NewBcryptVerifier() *BcryptVerifier {
	return &BcryptVerifier{}
}

// Compare implements the PasswordVerifier interface using bcrypt's own
// constant-time comparison.
func (v *BcryptVerifier) Compare(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
