package auth

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHashAndCompare(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost, 2)
	verifier := NewBcryptVerifier()
	ctx := context.Background()

	hashed, err := hasher.Hash(ctx, "Secure!123")
	require.NoError(t, err)
	assert.NotEqual(t, "Secure!123", hashed)

	assert.NoError(t, verifier.Compare(hashed, "Secure!123"))
	assert.Error(t, verifier.Compare(hashed, "Wrong!123"))
}

func TestBcryptHashProducesDistinctSalts(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost, 2)
	ctx := context.Background()

	a, err := hasher.Hash(ctx, "Secure!123")
	require.NoError(t, err)
	b, err := hasher.Hash(ctx, "Secure!123")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestBcryptHashHonorsCancellationWhileQueued(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost, 1)

	// Occupy the only slot so the next call has to queue.
	hasher.slots <- struct{}{}
	defer func() { <-hasher.slots }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := hasher.Hash(ctx, "Secure!123")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBcryptHashBoundsConcurrency(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost, 2)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := hasher.Hash(ctx, "Secure!123")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
