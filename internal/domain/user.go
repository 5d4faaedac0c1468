package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrEmptyUserID          = errors.New("user ID cannot be empty")
	ErrEmptyEmail           = errors.New("email cannot be empty")
	ErrInvalidEmail         = errors.New("invalid email format")
	ErrEmptyPassword        = errors.New("password cannot be empty")
	ErrPasswordTooShort     = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong      = errors.New("password must be at most 72 characters long")
	ErrPasswordNoUppercase  = errors.New("password must contain at least one uppercase letter")
	ErrPasswordNoLowercase  = errors.New("password must contain at least one lowercase letter")
	ErrPasswordNoDigit      = errors.New("password must contain at least one number")
	ErrPasswordNoSpecial    = errors.New("password must contain at least one special character")
	ErrEmptyHashedPassword  = errors.New("hashed password cannot be empty")
	ErrInconsistentResetKey = errors.New("reset token hash and expiry must be set together")
)

// emailRegex matches a non-empty local part, an @, and a domain containing
// at least one dot. Mirrors the validation the web client applies.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// passwordSpecialChars is the set of characters accepted as "special"
// for password complexity purposes.
const passwordSpecialChars = "!@#$%^&*"

// User represents a registered account of the Taskdeck application.
// It carries authentication state (verification code, reset credential
// hash) alongside profile fields.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Password       string    `json:"-"` // Plaintext password, held only during registration/updates
	HashedPassword string    `json:"-"` // Never expose the password hash in JSON
	DisplayName    string    `json:"display_name"`
	Verified       bool      `json:"verified"`

	// VerificationCode is the 6-digit email-ownership code, valid until
	// CodeExpiresAt. Zero values mean no code is outstanding. Stored in
	// plaintext: at 6 digits of entropy a hash would add nothing, and the
	// expiry window is the real defense.
	VerificationCode int       `json:"-"`
	CodeExpiresAt    time.Time `json:"-"`

	// ResetTokenHash is the SHA-256 digest of an in-flight password-reset
	// credential; the plaintext is never persisted. Both fields are set
	// together and cleared together.
	ResetTokenHash      string    `json:"-"`
	ResetTokenExpiresAt time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser creates an unverified User with the given email and plaintext
// password. It generates a new UUID and sets the timestamps. The caller is
// responsible for hashing the password before the user is stored.
func NewUser(email, password string) (*User, error) {
	user := &User{
		ID:        uuid.New(),
		Email:     email,
		Password:  password,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks that the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}

	if u.Email == "" {
		return ErrEmptyEmail
	}
	if !emailRegex.MatchString(u.Email) {
		return ErrInvalidEmail
	}

	if u.Password != "" {
		if err := ValidatePasswordComplexity(u.Password); err != nil {
			return err
		}
	} else if u.HashedPassword == "" {
		// Users loaded from the store carry only the hash.
		return ErrEmptyPassword
	}

	// Reset credential fields are mutually set or mutually absent.
	if (u.ResetTokenHash == "") != u.ResetTokenExpiresAt.IsZero() {
		return ErrInconsistentResetKey
	}

	return nil
}

// HasVerificationCode reports whether a verification code is outstanding.
func (u *User) HasVerificationCode() bool {
	return u.VerificationCode != 0 && !u.CodeExpiresAt.IsZero()
}

// HasResetCredential reports whether a password reset is in flight.
func (u *User) HasResetCredential() bool {
	return u.ResetTokenHash != ""
}

// ValidatePasswordComplexity enforces the password policy: 8-72 characters
// with at least one uppercase letter, one lowercase letter, one digit, and
// one special character. The upper bound is bcrypt's input limit.
func ValidatePasswordComplexity(password string) error {
	if len(password) < 8 {
		return ErrPasswordTooShort
	}
	if len(password) > 72 {
		return ErrPasswordTooLong
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(passwordSpecialChars, r):
			hasSpecial = true
		}
	}

	switch {
	case !hasUpper:
		return ErrPasswordNoUppercase
	case !hasLower:
		return ErrPasswordNoLowercase
	case !hasDigit:
		return ErrPasswordNoDigit
	case !hasSpecial:
		return ErrPasswordNoSpecial
	}

	return nil
}

// ValidateEmailFormat reports whether the email has a plausible shape.
func ValidateEmailFormat(email string) bool {
	return emailRegex.MatchString(email)
}
