package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/taskdeck-api/internal/domain"
	"github.com/phrazzld/taskdeck-api/internal/service"
	"github.com/phrazzld/taskdeck-api/internal/store"
)

// MapErrorToStatusCode translates service and domain errors into HTTP
// status codes. Unrecognized errors map to 500.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, service.ErrEmailInUse):
		return http.StatusConflict
	case errors.Is(err, service.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrIncorrectPassword):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotVerified):
		return http.StatusForbidden
	case errors.Is(err, service.ErrCodeMismatch),
		errors.Is(err, service.ErrCodeExpired):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrResetTokenInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrResetTokenExpired):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrMailDelivery):
		return http.StatusInternalServerError
	case isDomainValidationError(err):
		return http.StatusBadRequest
	case store.IsNotFoundError(err):
		return http.StatusNotFound
	case store.IsDuplicateError(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err. Internal
// errors collapse to a generic message; validation and flow errors keep
// enough detail to act on.
func GetSafeErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrEmailInUse):
		return "Email address is already registered"
	case errors.Is(err, service.ErrAccountNotFound):
		return "Account not found"
	case errors.Is(err, service.ErrIncorrectPassword):
		return "Incorrect password"
	case errors.Is(err, service.ErrNotVerified):
		return "Account email is not verified"
	case errors.Is(err, service.ErrCodeMismatch):
		return "Incorrect verification code"
	case errors.Is(err, service.ErrCodeExpired):
		return "Verification code has expired"
	case errors.Is(err, service.ErrResetTokenInvalid):
		return "Invalid reset token"
	case errors.Is(err, service.ErrResetTokenExpired):
		return "Reset token has expired"
	case errors.Is(err, service.ErrMailDelivery):
		return "Failed to send email"
	case isDomainValidationError(err):
		return err.Error()
	case store.IsNotFoundError(err):
		return "Resource not found"
	case store.IsDuplicateError(err):
		return "Resource already exists"
	default:
		return "An internal error occurred"
	}
}

// isDomainValidationError reports whether err is one of the field-level
// validation errors whose text is safe to show to clients.
func isDomainValidationError(err error) bool {
	return errors.Is(err, domain.ErrPasswordTooShort) ||
		errors.Is(err, domain.ErrPasswordTooLong) ||
		errors.Is(err, domain.ErrPasswordNoUppercase) ||
		errors.Is(err, domain.ErrPasswordNoLowercase) ||
		errors.Is(err, domain.ErrPasswordNoDigit) ||
		errors.Is(err, domain.ErrPasswordNoSpecial) ||
		errors.Is(err, domain.ErrInvalidEmail) ||
		errors.Is(err, domain.ErrEmptyEmail) ||
		errors.Is(err, domain.ErrEmptyPassword)
}
