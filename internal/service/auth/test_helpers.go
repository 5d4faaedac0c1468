package auth

import "time"

// NewTestTokenService builds a TokenService with an arbitrary secret,
// explicit lifetimes, a controllable clock, and no clock-skew leeway.
// For use in tests only.
func NewTestTokenService(
	secret string,
	accessLifetime, refreshLifetime time.Duration,
	timeFunc func() time.Time,
) TokenService {
	return &hmacTokenService{
		signingKey:           []byte(secret),
		accessTokenLifetime:  accessLifetime,
		refreshTokenLifetime: refreshLifetime,
		timeFunc:             timeFunc,
		clockSkew:            0,
	}
}
