package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/taskdeck-api/internal/api/shared"
	"github.com/phrazzld/taskdeck-api/internal/platform/logger"
	"github.com/phrazzld/taskdeck-api/internal/service"
)

// AuthHandler serves the unauthenticated account endpoints: signup,
// verification, login, logout, and the password reset flow.
type AuthHandler struct {
	accounts   *service.AccountService
	validator  *validator.Validate
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewAuthHandler creates an AuthHandler. The TTLs set the MaxAge of the
// session cookies issued on verification and login.
func NewAuthHandler(
	accounts *service.AccountService,
	accessTTL, refreshTTL time.Duration,
) *AuthHandler {
	return &AuthHandler{
		accounts:   accounts,
		validator:  validator.New(),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// SignUp handles POST /api/users. It creates an unverified account and
// emails a verification code. A mail failure after the account was
// created still reports an error; the resend endpoint is the recovery
// path.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid email or password format")
		return
	}

	user, err := h.accounts.SignUp(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Info("account created",
		"user_id", user.ID)
	shared.RespondWithJSON(w, r, http.StatusCreated, NewUserResponse(user))
}

// Verify handles POST /api/users/verify. On success the account becomes
// verified and both session cookies are set, so verification doubles as
// the first login.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid email or verification code")
		return
	}

	user, pair, err := h.accounts.Verify(r.Context(), req.Email, req.Code)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	shared.SetSessionCookies(w, pair.AccessToken, pair.RefreshToken, h.accessTTL, h.refreshTTL)
	logger.FromContext(r.Context()).Info("account verified",
		"user_id", user.ID)
	shared.RespondWithJSON(w, r, http.StatusOK, NewUserResponse(user))
}

// ResendVerification handles POST /api/users/resend-verification. It
// replaces any outstanding code, so the previous one stops working.
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req ResendVerificationRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid email format")
		return
	}

	if err := h.accounts.ResendVerification(r.Context(), req.Email); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK,
		MessageResponse{Message: "Verification code sent"})
}

// Login handles POST /api/login, setting both session cookies on success.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid email or password format")
		return
	}

	user, pair, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	shared.SetSessionCookies(w, pair.AccessToken, pair.RefreshToken, h.accessTTL, h.refreshTTL)
	logger.FromContext(r.Context()).Info("login succeeded",
		"user_id", user.ID)
	shared.RespondWithJSON(w, r, http.StatusOK, NewUserResponse(user))
}

// Logout handles GET /api/logout. Tokens are stateless, so logout only
// clears the cookies; previously issued tokens remain valid until expiry.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	shared.ClearSessionCookies(w)
	shared.RespondWithJSON(w, r, http.StatusOK,
		MessageResponse{Message: "Logged out"})
}

// RequestPasswordReset handles POST /api/password/reset, emailing a
// one-time reset credential to a registered address.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid email format")
		return
	}

	if err := h.accounts.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK,
		MessageResponse{Message: "Password reset email sent"})
}

// FulfillPasswordReset handles POST /api/password/update, exchanging the
// emailed credential for a new password.
func (h *AuthHandler) FulfillPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordUpdateRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request fields")
		return
	}

	if err := h.accounts.FulfillPasswordReset(r.Context(), req.Email, req.ResetToken, req.NewPassword); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK,
		MessageResponse{Message: "Password updated"})
}

// handleServiceError maps a service error onto the HTTP response,
// logging internal failures with their details redacted.
func (h *AuthHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)

	if status >= http.StatusInternalServerError || errors.Is(err, service.ErrMailDelivery) {
		shared.RespondWithErrorAndLog(w, r, status, message, err)
		return
	}
	shared.RespondWithError(w, r, status, message)
}
