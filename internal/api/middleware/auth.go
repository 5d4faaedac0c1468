package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskdeck-api/internal/api/shared"
	"github.com/phrazzld/taskdeck-api/internal/platform/logger"
	"github.com/phrazzld/taskdeck-api/internal/redact"
	"github.com/phrazzld/taskdeck-api/internal/service/auth"
)

// AuthMiddleware is the per-request session authority. It validates the
// cookie-borne access token against the resource owner named in the URL,
// transparently rotates a fresh access token when only the access token
// has expired, and enforces that the token subject owns the targeted
// resource.
type AuthMiddleware struct {
	tokenService auth.TokenService
	accessTTL    time.Duration
}

// NewAuthMiddleware creates an AuthMiddleware. accessTTL sets the MaxAge
// of rotated access-token cookies.
func NewAuthMiddleware(tokenService auth.TokenService, accessTTL time.Duration) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
		accessTTL:    accessTTL,
	}
}

// RequireOwner authorizes requests against the {userID} path segment.
//
// The request walks a small state machine: both cookies must be present;
// the access token is checked first, and only an expired (otherwise valid)
// access token falls through to the refresh check. A subject mismatch on
// either token is terminal 403 — a fresh token would not make someone
// else's resource yours — while malformed tokens and an expired refresh
// token are 401, telling the client to authenticate again.
func (m *AuthMiddleware) RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		ownerID, err := uuid.Parse(chi.URLParam(r, "userID"))
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid user ID")
			return
		}

		accessCookie, err := r.Cookie(shared.AccessTokenCookie)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
			return
		}
		refreshCookie, err := r.Cookie(shared.RefreshTokenCookie)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
			return
		}

		claims, err := m.tokenService.ValidateAccessToken(r.Context(), accessCookie.Value, ownerID)
		switch {
		case err == nil:
			m.authorized(w, r, next, claims.UserID)
			return

		case errors.Is(err, auth.ErrSubjectMismatch):
			shared.RespondWithError(w, r, http.StatusForbidden, "Forbidden")
			return

		case errors.Is(err, auth.ErrExpiredToken):
			// Fall through to the refresh check below.

		default:
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			return
		}

		refreshClaims, err := m.tokenService.ValidateRefreshToken(r.Context(), refreshCookie.Value, ownerID)
		switch {
		case err == nil:
			// Rotate: mint a replacement access token for the same subject
			// and attach it as the outgoing session credential. Reissue is
			// idempotent, so concurrent rotations need no coordination.
			newAccess, genErr := m.tokenService.GenerateAccessToken(r.Context(), refreshClaims.UserID)
			if genErr != nil {
				log.Error("failed to rotate access token",
					"error", redact.Error(genErr),
					"user_id", refreshClaims.UserID)
				shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
				return
			}
			shared.SetAccessCookie(w, newAccess, m.accessTTL)
			log.Debug("access token rotated", "user_id", refreshClaims.UserID)
			m.authorized(w, r, next, refreshClaims.UserID)

		case errors.Is(err, auth.ErrSubjectMismatch):
			shared.RespondWithError(w, r, http.StatusForbidden, "Forbidden")

		case errors.Is(err, auth.ErrExpiredRefreshToken):
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Session expired")

		default:
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
		}
	})
}

// authorized injects the authenticated user ID and continues the chain.
func (m *AuthMiddleware) authorized(w http.ResponseWriter, r *http.Request, next http.Handler, userID uuid.UUID) {
	ctx := context.WithValue(r.Context(), shared.UserIDContextKey, userID)
	next.ServeHTTP(w, r.WithContext(ctx))
}

// GetUserID extracts the authenticated user ID from the request context.
// Returns the user ID and a boolean indicating if it was found.
func GetUserID(r *http.Request) (uuid.UUID, bool) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	return userID, ok
}
