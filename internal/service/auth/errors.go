package auth

import "errors"

// Common authentication service errors
var (
	// ErrInvalidToken indicates the token is malformed or its signature
	// does not verify against the configured secret.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the access token has expired.
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrInvalidRefreshToken indicates the refresh token is malformed or
	// its signature does not verify.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrExpiredRefreshToken indicates the refresh token has expired and
	// the client must authenticate again.
	ErrExpiredRefreshToken = errors.New("refresh token has expired")

	// ErrWrongTokenType indicates a token was presented in the wrong role,
	// e.g. a refresh token offered as an access token.
	ErrWrongTokenType = errors.New("wrong token type")

	// ErrSubjectMismatch indicates a structurally valid, unexpired token
	// whose subject is not the owner of the targeted resource. Kept
	// distinct from the errors above so callers can answer 403 rather
	// than 401.
	ErrSubjectMismatch = errors.New("token subject does not match resource owner")
)
