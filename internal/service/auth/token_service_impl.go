package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskdeck-api/internal/config"
	"github.com/phrazzld/taskdeck-api/internal/platform/logger"
)

// hmacTokenService implements TokenService using HMAC-SHA256 signing with a
// single process-wide secret injected from configuration.
type hmacTokenService struct {
	signingKey           []byte
	accessTokenLifetime  time.Duration
	refreshTokenLifetime time.Duration
	timeFunc             func() time.Time // Injectable for testing
	clockSkew            time.Duration    // Allowed drift when validating time claims
}

// tokenCustomClaims defines the JWT claims layout on the wire.
type tokenCustomClaims struct {
	UserID    uuid.UUID `json:"uid"`
	TokenType string    `json:"type"`
	jwt.RegisteredClaims
}

var _ TokenService = (*hmacTokenService)(nil)

// NewTokenService creates a TokenService from the auth configuration.
// It fails if the signing secret is shorter than 32 bytes, which the caller
// must treat as fatal at startup.
func NewTokenService(cfg config.AuthConfig) (TokenService, error) {
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters")
	}

	return &hmacTokenService{
		signingKey:           []byte(cfg.JWTSecret),
		accessTokenLifetime:  time.Duration(cfg.TokenLifetimeMinutes) * time.Minute,
		refreshTokenLifetime: time.Duration(cfg.RefreshTokenLifetimeMinutes) * time.Minute,
		timeFunc:             time.Now,
		clockSkew:            2 * time.Minute,
	}, nil
}

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// GenerateAccessToken creates a signed access token bound to the user.
func (s *hmacTokenService) GenerateAccessToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.generate(ctx, userID, tokenTypeAccess, s.accessTokenLifetime)
}

// GenerateRefreshToken creates a signed refresh token bound to the user.
func (s *hmacTokenService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.generate(ctx, userID, tokenTypeRefresh, s.refreshTokenLifetime)
}

func (s *hmacTokenService) generate(
	ctx context.Context,
	userID uuid.UUID,
	tokenType string,
	lifetime time.Duration,
) (string, error) {
	log := logger.FromContext(ctx)
	now := s.timeFunc()

	claims := tokenCustomClaims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.signingKey)
	if err != nil {
		log.Error("failed to sign session token",
			"error", err,
			"user_id", userID,
			"token_type", tokenType,
			"signing_method", jwt.SigningMethodHS256.Name)
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}

	return signedToken, nil
}

// ValidateAccessToken implements TokenService.ValidateAccessToken.
func (s *hmacTokenService) ValidateAccessToken(
	ctx context.Context,
	tokenString string,
	expectedSubject uuid.UUID,
) (*Claims, error) {
	return s.validate(ctx, tokenString, tokenTypeAccess, expectedSubject,
		ErrInvalidToken, ErrExpiredToken)
}

// ValidateRefreshToken implements TokenService.ValidateRefreshToken.
func (s *hmacTokenService) ValidateRefreshToken(
	ctx context.Context,
	tokenString string,
	expectedSubject uuid.UUID,
) (*Claims, error) {
	return s.validate(ctx, tokenString, tokenTypeRefresh, expectedSubject,
		ErrInvalidRefreshToken, ErrExpiredRefreshToken)
}

// validate parses and checks a token. The check order is load-bearing:
// signature and structure are verified by the parser before any claim is
// inspected, expiry is rejected next, and only a token that is otherwise
// valid can produce ErrSubjectMismatch.
func (s *hmacTokenService) validate(
	ctx context.Context,
	tokenString string,
	wantType string,
	expectedSubject uuid.UUID,
	errInvalid, errExpired error,
) (*Claims, error) {
	log := logger.FromContext(ctx)
	now := s.timeFunc()

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(s.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&tokenCustomClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		parserOpts...)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			log.Debug("token validation failed: token expired",
				"token_type", wantType)
			return nil, errExpired
		case errors.Is(err, jwt.ErrTokenMalformed),
			errors.Is(err, jwt.ErrTokenSignatureInvalid):
			log.Debug("token validation failed: malformed or bad signature",
				"token_type", wantType)
			return nil, errInvalid
		default:
			log.Debug("token validation failed",
				"token_type", wantType,
				"error_type", fmt.Sprintf("%T", err))
			return nil, errInvalid
		}
	}

	claims, ok := token.Claims.(*tokenCustomClaims)
	if !ok || !token.Valid {
		log.Debug("token validation failed: invalid claims", "token_type", wantType)
		return nil, errInvalid
	}

	if claims.TokenType != wantType {
		log.Debug("token validation failed: wrong token type",
			"expected", wantType,
			"actual", claims.TokenType)
		return nil, ErrWrongTokenType
	}

	if expectedSubject != uuid.Nil && claims.UserID != expectedSubject {
		log.Debug("token validation failed: subject mismatch",
			"token_type", wantType,
			"subject", claims.UserID,
			"expected_subject", expectedSubject)
		return nil, ErrSubjectMismatch
	}

	return &Claims{
		UserID:    claims.UserID,
		TokenType: claims.TokenType,
		Subject:   claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
		ID:        claims.ID,
	}, nil
}
