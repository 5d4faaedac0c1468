package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenService defines operations for issuing and verifying the signed,
// stateless session tokens. Two kinds exist: short-lived access tokens
// presented on every authorized request, and long-lived refresh tokens used
// solely to mint new access tokens. No token is ever revoked server-side.
type TokenService interface {
	// GenerateAccessToken creates a signed access token bound to the user.
	GenerateAccessToken(ctx context.Context, userID uuid.UUID) (string, error)

	// GenerateRefreshToken creates a signed refresh token bound to the user.
	GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateAccessToken checks the token in order: signature, expiry,
	// token type, then subject equality against expectedSubject. It returns
	// the claims on success, or one of ErrInvalidToken, ErrExpiredToken,
	// ErrWrongTokenType, ErrSubjectMismatch.
	//
	// expectedSubject is derived from the request's target resource (the
	// {userID} path segment); pass uuid.Nil to skip the subject check.
	ValidateAccessToken(ctx context.Context, tokenString string, expectedSubject uuid.UUID) (*Claims, error)

	// ValidateRefreshToken is the refresh-token counterpart of
	// ValidateAccessToken, returning ErrInvalidRefreshToken /
	// ErrExpiredRefreshToken / ErrWrongTokenType / ErrSubjectMismatch.
	ValidateRefreshToken(ctx context.Context, tokenString string, expectedSubject uuid.UUID) (*Claims, error)
}

// Claims represents the verified content of a session token.
type Claims struct {
	// UserID is the subject the token was issued for.
	UserID uuid.UUID `json:"uid,omitempty"`

	// TokenType is "access" or "refresh". Prevents a long-lived refresh
	// token from being replayed as an access credential.
	TokenType string `json:"type,omitempty"`

	// Standard registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
