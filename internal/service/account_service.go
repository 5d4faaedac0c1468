package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskdeck-api/internal/domain"
	"github.com/phrazzld/taskdeck-api/internal/platform/mailer"
	"github.com/phrazzld/taskdeck-api/internal/service/auth"
	"github.com/phrazzld/taskdeck-api/internal/store"
)

// TokenPair carries the two session credentials issued together for one
// login event. Both are bound to the same subject.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AccountService orchestrates the account lifecycle: signup with email
// verification, login, password recovery, password change, and deletion.
// It composes the credential, code, and token services with the user store
// and the mail sender.
type AccountService struct {
	db       *sql.DB
	users    store.UserStore
	tasks    store.TaskStore
	hasher   auth.PasswordHasher
	verifier auth.PasswordVerifier
	codes    *auth.CodeIssuer
	tokens   auth.TokenService
	mail     mailer.Mailer
	logger   *slog.Logger
	timeFunc func() time.Time
}

// NewAccountService creates an AccountService. All dependencies are
// required; a nil dependency is a programming error surfaced at startup.
func NewAccountService(
	db *sql.DB,
	users store.UserStore,
	tasks store.TaskStore,
	hasher auth.PasswordHasher,
	verifier auth.PasswordVerifier,
	codes *auth.CodeIssuer,
	tokens auth.TokenService,
	mail mailer.Mailer,
	logger *slog.Logger,
) (*AccountService, error) {
	switch {
	case users == nil:
		return nil, fmt.Errorf("user store is required")
	case tasks == nil:
		return nil, fmt.Errorf("task store is required")
	case hasher == nil:
		return nil, fmt.Errorf("password hasher is required")
	case verifier == nil:
		return nil, fmt.Errorf("password verifier is required")
	case codes == nil:
		return nil, fmt.Errorf("code issuer is required")
	case tokens == nil:
		return nil, fmt.Errorf("token service is required")
	case mail == nil:
		return nil, fmt.Errorf("mailer is required")
	case logger == nil:
		return nil, fmt.Errorf("logger is required")
	}

	return &AccountService{
		db:       db,
		users:    users,
		tasks:    tasks,
		hasher:   hasher,
		verifier: verifier,
		codes:    codes,
		tokens:   tokens,
		mail:     mail,
		logger:   logger,
		timeFunc: time.Now,
	}, nil
}

// SignUp validates the email and password, creates an unverified account
// with a fresh verification code, and emails the code to the new address.
// Validation happens before any hashing or persistence. If the mail send
// fails the account still exists unverified and ErrMailDelivery is
// returned alongside the created user; ResendVerification is the recovery
// path.
func (s *AccountService) SignUp(
	ctx context.Context,
	email, password, displayName string,
) (*domain.User, error) {
	user, err := domain.NewUser(email, password)
	if err != nil {
		return nil, err
	}
	user.DisplayName = displayName

	code, codeExpiry, err := s.codes.IssueVerificationCode()
	if err != nil {
		return nil, fmt.Errorf("failed to issue verification code: %w", err)
	}
	user.VerificationCode = code
	user.CodeExpiresAt = codeExpiry

	user.HashedPassword, err = s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = ""

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return nil, ErrEmailInUse
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	// State first, mail second. A failed send leaves the account in place.
	if err := s.mail.Send(ctx, user.Email, mailer.VerificationSubject, mailer.VerificationBody(code)); err != nil {
		s.logger.Error("verification mail failed after signup",
			"error", err, "user_id", user.ID)
		return user, ErrMailDelivery
	}

	return user, nil
}

// Verify checks the submitted code against the outstanding one and, on
// success, flips the verified flag and issues both session tokens.
// A wrong code is reported as a mismatch regardless of expiry; only the
// correct code past its window reports ErrCodeExpired.
func (s *AccountService) Verify(
	ctx context.Context,
	email string,
	code int,
) (*domain.User, *TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, nil, ErrAccountNotFound
		}
		return nil, nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if !user.HasVerificationCode() || user.VerificationCode != code {
		return nil, nil, ErrCodeMismatch
	}
	if s.timeFunc().After(user.CodeExpiresAt) {
		return nil, nil, ErrCodeExpired
	}

	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return nil, nil, fmt.Errorf("failed to mark account verified: %w", err)
	}
	user.Verified = true
	user.VerificationCode = 0
	user.CodeExpiresAt = time.Time{}

	pair, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

// ResendVerification issues a fresh code and expiry, invalidating any
// previous code, and emails it.
func (s *AccountService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to look up account: %w", err)
	}

	code, expiry, err := s.codes.IssueVerificationCode()
	if err != nil {
		return fmt.Errorf("failed to issue verification code: %w", err)
	}

	if err := s.users.SetVerificationCode(ctx, user.ID, code, expiry); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	if err := s.mail.Send(ctx, user.Email, mailer.VerificationSubject, mailer.VerificationBody(code)); err != nil {
		s.logger.Error("verification mail failed on resend",
			"error", err, "user_id", user.ID)
		return ErrMailDelivery
	}

	return nil
}

// Login checks existence, then the password, then the verified flag, in
// that order, so an unverified account with a correct password is told to
// verify rather than being denied outright. On success it issues both
// session tokens.
func (s *AccountService) Login(
	ctx context.Context,
	email, password string,
) (*domain.User, *TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, nil, ErrAccountNotFound
		}
		return nil, nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		return nil, nil, ErrIncorrectPassword
	}

	if !user.Verified {
		return nil, nil, ErrNotVerified
	}

	pair, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

// RequestPasswordReset generates a one-time reset credential, persists only
// its digest with an expiry, and emails the plaintext to the account owner.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to look up account: %w", err)
	}

	plaintext, digest, expiry, err := s.codes.IssueResetCredential()
	if err != nil {
		return fmt.Errorf("failed to issue reset credential: %w", err)
	}

	if err := s.users.SetResetCredential(ctx, user.ID, digest, expiry); err != nil {
		return fmt.Errorf("failed to store reset credential: %w", err)
	}

	if err := s.mail.Send(ctx, user.Email, mailer.PasswordResetSubject, mailer.PasswordResetBody(plaintext)); err != nil {
		s.logger.Error("password reset mail failed",
			"error", err, "user_id", user.ID)
		return ErrMailDelivery
	}

	return nil
}

// FulfillPasswordReset verifies the presented credential against the
// stored digest, enforces complexity on the new password, then replaces
// the password hash and clears the reset fields in one store operation.
// A never-issued credential reports ErrResetTokenInvalid; the correct
// credential past its window reports ErrResetTokenExpired.
func (s *AccountService) FulfillPasswordReset(
	ctx context.Context,
	email, credential, newPassword string,
) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to look up account: %w", err)
	}

	if !user.HasResetCredential() || !auth.VerifyResetCredential(credential, user.ResetTokenHash) {
		return ErrResetTokenInvalid
	}
	if s.timeFunc().After(user.ResetTokenExpiresAt) {
		return ErrResetTokenExpired
	}

	if err := domain.ValidatePasswordComplexity(newPassword); err != nil {
		return err
	}

	hashed, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hashed); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// ChangePassword re-checks the current password before replacing it, even
// though the caller already holds a valid session.
func (s *AccountService) ChangePassword(
	ctx context.Context,
	userID uuid.UUID,
	currentPassword, newPassword string,
) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to look up account: %w", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, currentPassword); err != nil {
		return ErrIncorrectPassword
	}

	if err := domain.ValidatePasswordComplexity(newPassword); err != nil {
		return err
	}

	hashed, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hashed); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// UpdateDisplayName changes the profile display name and returns the
// updated account.
func (s *AccountService) UpdateDisplayName(
	ctx context.Context,
	userID uuid.UUID,
	displayName string,
) (*domain.User, error) {
	if err := s.users.UpdateDisplayName(ctx, userID, displayName); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to update display name: %w", err)
	}
	return s.GetAccount(ctx, userID)
}

// GetAccount returns the account for an already-authorized caller.
func (s *AccountService) GetAccount(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	return user, nil
}

// DeleteAccount removes the account and every task it owns in a single
// transaction. Session tokens remain unrevoked (stateless) but become
// useless once the subject row is gone.
func (s *AccountService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	if s.db == nil {
		// No transactional store available (tests with fakes): fall back
		// to sequential deletes against the plain stores.
		if _, err := s.tasks.DeleteByOwner(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete tasks: %w", err)
		}
		return s.deleteUser(ctx, s.users, userID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrTransactionFailed, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := s.tasks.WithTx(tx).DeleteByOwner(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete tasks: %w", err)
	}
	if err := s.deleteUser(ctx, s.users.WithTx(tx), userID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrTransactionFailed, err)
	}

	s.logger.Info("account deleted", "user_id", userID)
	return nil
}

func (s *AccountService) deleteUser(ctx context.Context, users store.UserStore, userID uuid.UUID) error {
	if err := users.Delete(ctx, userID); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

// issueTokens mints the access and refresh tokens for one login event in
// the same request/response cycle.
func (s *AccountService) issueTokens(ctx context.Context, userID uuid.UUID) (*TokenPair, error) {
	access, err := s.tokens.GenerateAccessToken(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
