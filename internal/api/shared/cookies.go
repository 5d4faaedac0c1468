package shared

import (
	"net/http"
	"time"
)

// Cookie names for the two session credentials.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// sessionCookie builds a same-site, HTTP-only cookie so the credentials
// are never exposed to client script.
func sessionCookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

// SetSessionCookies attaches both session credentials to the response.
func SetSessionCookies(w http.ResponseWriter, accessToken, refreshToken string, accessTTL, refreshTTL time.Duration) {
	http.SetCookie(w, sessionCookie(AccessTokenCookie, accessToken, accessTTL))
	http.SetCookie(w, sessionCookie(RefreshTokenCookie, refreshToken, refreshTTL))
}

// SetAccessCookie replaces only the access credential, used when a fresh
// access token is rotated in during an authorized request.
func SetAccessCookie(w http.ResponseWriter, accessToken string, accessTTL time.Duration) {
	http.SetCookie(w, sessionCookie(AccessTokenCookie, accessToken, accessTTL))
}

// ClearSessionCookies instructs the client to discard both credentials.
// Logout is purely client-side: tokens are stateless and never revoked.
func ClearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, sessionCookie(AccessTokenCookie, "", -time.Second))
	http.SetCookie(w, sessionCookie(RefreshTokenCookie, "", -time.Second))
}
