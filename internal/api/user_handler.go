package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/taskdeck-api/internal/api/middleware"
	"github.com/phrazzld/taskdeck-api/internal/api/shared"
	"github.com/phrazzld/taskdeck-api/internal/platform/logger"
	"github.com/phrazzld/taskdeck-api/internal/service"
)

// UserHandler serves the owner-scoped account endpoints. Ownership is
// already established by the session middleware; handlers read the
// authenticated user ID from the request context.
type UserHandler struct {
	accounts  *service.AccountService
	validator *validator.Validate
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(accounts *service.AccountService) *UserHandler {
	return &UserHandler{
		accounts:  accounts,
		validator: validator.New(),
	}
}

// GetAccount handles GET /api/users/{userID}.
func (h *UserHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.accounts.GetAccount(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewUserResponse(user))
}

// UpdateProfile handles PATCH /api/users/{userID}.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req UpdateProfileRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request fields")
		return
	}

	user, err := h.accounts.UpdateDisplayName(r.Context(), userID, req.DisplayName)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewUserResponse(user))
}

// ChangePassword handles PATCH /api/users/{userID}/password. The current
// password is re-checked even though the caller holds a valid session.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req ChangePasswordRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request fields")
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Info("password changed",
		"user_id", userID)
	shared.RespondWithJSON(w, r, http.StatusOK,
		MessageResponse{Message: "Password updated"})
}

// DeleteAccount handles DELETE /api/users/{userID}. The account and its
// tasks are removed in one transaction, then the session cookies are
// cleared.
func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.accounts.DeleteAccount(r.Context(), userID); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	shared.ClearSessionCookies(w)
	logger.FromContext(r.Context()).Info("account deleted",
		"user_id", userID)
	shared.RespondWithJSON(w, r, http.StatusOK,
		MessageResponse{Message: "Account deleted"})
}

func (h *UserHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)

	if status >= http.StatusInternalServerError {
		shared.RespondWithErrorAndLog(w, r, status, message, err)
		return
	}
	shared.RespondWithError(w, r, status, message)
}
