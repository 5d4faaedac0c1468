package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskdeck-api/internal/domain"
	"github.com/phrazzld/taskdeck-api/internal/service/auth"
	"github.com/phrazzld/taskdeck-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fakeUserStore is an in-memory UserStore mirroring the semantics of the
// SQL implementation: narrow atomic mutations keyed by user ID.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*domain.User)}
}

func (s *fakeUserStore) Create(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *fakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *fakeUserStore) SetVerificationCode(
	ctx context.Context,
	id uuid.UUID,
	code int,
	expiresAt time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	user.VerificationCode = code
	user.CodeExpiresAt = expiresAt
	return nil
}

func (s *fakeUserStore) MarkVerified(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	user.Verified = true
	user.VerificationCode = 0
	user.CodeExpiresAt = time.Time{}
	return nil
}

func (s *fakeUserStore) SetResetCredential(
	ctx context.Context,
	id uuid.UUID,
	tokenHash string,
	expiresAt time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	user.ResetTokenHash = tokenHash
	user.ResetTokenExpiresAt = expiresAt
	return nil
}

func (s *fakeUserStore) UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	user.HashedPassword = hashedPassword
	user.ResetTokenHash = ""
	user.ResetTokenExpiresAt = time.Time{}
	return nil
}

func (s *fakeUserStore) UpdateDisplayName(ctx context.Context, id uuid.UUID, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	user.DisplayName = displayName
	return nil
}

func (s *fakeUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *fakeUserStore) WithTx(tx *sql.Tx) store.UserStore { return s }

// mutate edits the stored user directly, for arranging expiry scenarios.
func (s *fakeUserStore) mutate(id uuid.UUID, fn func(*domain.User)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[id]; ok {
		fn(user)
	}
}

// fakeTaskStore is an in-memory TaskStore.
type fakeTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

func (s *fakeTaskStore) Create(ctx context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *task
	s.tasks[task.ID] = &clone
	return nil
}

func (s *fakeTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	clone := *task
	return &clone, nil
}

func (s *fakeTaskStore) ListByOwner(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Task
	for _, task := range s.tasks {
		if task.UserID == userID {
			clone := *task
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *fakeTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *fakeTaskStore) DeleteByOwner(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, task := range s.tasks {
		if task.UserID == userID {
			delete(s.tasks, id)
			n++
		}
	}
	return n, nil
}

func (s *fakeTaskStore) WithTx(tx *sql.Tx) store.TaskStore { return s }

// fakeMailer records sends and can be told to fail.
type fakeMailer struct {
	mu    sync.Mutex
	sends []sentMail
	fail  bool
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp connection refused")
	}
	m.sends = append(m.sends, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (m *fakeMailer) sent() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentMail, len(m.sends))
	copy(out, m.sends)
	return out
}

// accountFixture bundles a service with its fakes.
type accountFixture struct {
	svc   *AccountService
	users *fakeUserStore
	tasks *fakeTaskStore
	mail  *fakeMailer
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()

	users := newFakeUserStore()
	tasks := newFakeTaskStore()
	mail := &fakeMailer{}

	tokens := auth.NewTestTokenService(
		"test-signing-secret-0123456789abcdef",
		time.Hour,
		30*24*time.Hour,
		time.Now,
	)

	svc, err := NewAccountService(
		nil,
		users,
		tasks,
		auth.NewBcryptHasher(bcrypt.MinCost, 2),
		auth.NewBcryptVerifier(),
		auth.NewCodeIssuer(time.Hour),
		tokens,
		mail,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	require.NoError(t, err)

	return &accountFixture{svc: svc, users: users, tasks: tasks, mail: mail}
}

const (
	testEmail    = "alice@example.com"
	testPassword = "Secure!123"
)

// signUpVerified creates and verifies an account, returning its ID.
func (f *accountFixture) signUpVerified(t *testing.T) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	user, err := f.svc.SignUp(ctx, testEmail, testPassword, "Alice")
	require.NoError(t, err)

	stored, err := f.users.GetByEmail(ctx, testEmail)
	require.NoError(t, err)

	_, _, err = f.svc.Verify(ctx, testEmail, stored.VerificationCode)
	require.NoError(t, err)

	return user.ID
}

func TestSignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("creates unverified account and mails the code", func(t *testing.T) {
		f := newAccountFixture(t)

		user, err := f.svc.SignUp(ctx, testEmail, testPassword, "Alice")
		require.NoError(t, err)

		assert.False(t, user.Verified)
		assert.Equal(t, "Alice", user.DisplayName)
		assert.Empty(t, user.Password)
		assert.NotEmpty(t, user.HashedPassword)
		assert.NotEqual(t, testPassword, user.HashedPassword)
		assert.True(t, user.HasVerificationCode())

		sends := f.mail.sent()
		require.Len(t, sends, 1)
		assert.Equal(t, testEmail, sends[0].to)
		assert.Contains(t, sends[0].body, "verification code")
	})

	t.Run("duplicate email reports conflict", func(t *testing.T) {
		f := newAccountFixture(t)

		_, err := f.svc.SignUp(ctx, testEmail, testPassword, "")
		require.NoError(t, err)

		_, err = f.svc.SignUp(ctx, testEmail, "Other!456", "")
		assert.ErrorIs(t, err, ErrEmailInUse)
	})

	t.Run("weak password rejected before persistence", func(t *testing.T) {
		f := newAccountFixture(t)

		_, err := f.svc.SignUp(ctx, testEmail, "weakpass", "")
		assert.ErrorIs(t, err, domain.ErrPasswordNoUppercase)

		_, getErr := f.users.GetByEmail(ctx, testEmail)
		assert.ErrorIs(t, getErr, store.ErrUserNotFound)
		assert.Empty(t, f.mail.sent())
	})

	t.Run("mail failure leaves account in place", func(t *testing.T) {
		f := newAccountFixture(t)
		f.mail.fail = true

		user, err := f.svc.SignUp(ctx, testEmail, testPassword, "")
		assert.ErrorIs(t, err, ErrMailDelivery)
		require.NotNil(t, user)

		stored, getErr := f.users.GetByEmail(ctx, testEmail)
		require.NoError(t, getErr)
		assert.False(t, stored.Verified)
		assert.True(t, stored.HasVerificationCode())
	})
}

func TestVerify(t *testing.T) {
	ctx := context.Background()

	t.Run("correct code verifies and issues both tokens", func(t *testing.T) {
		f := newAccountFixture(t)
		_, err := f.svc.SignUp(ctx, testEmail, testPassword, "")
		require.NoError(t, err)

		stored, err := f.users.GetByEmail(ctx, testEmail)
		require.NoError(t, err)

		user, pair, err := f.svc.Verify(ctx, testEmail, stored.VerificationCode)
		require.NoError(t, err)
		assert.True(t, user.Verified)
		assert.False(t, user.HasVerificationCode())
		require.NotNil(t, pair)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	})

	t.Run("wrong code reports mismatch", func(t *testing.T) {
		f := newAccountFixture(t)
		_, err := f.svc.SignUp(ctx, testEmail, testPassword, "")
		require.NoError(t, err)

		stored, err := f.users.GetByEmail(ctx, testEmail)
		require.NoError(t, err)

		wrong := stored.VerificationCode + 1
		if wrong > 999999 {
			wrong = 100000
		}
		_, _, err = f.svc.Verify(ctx, testEmail, wrong)
		assert.ErrorIs(t, err, ErrCodeMismatch)
	})

	t.Run("correct code past its window reports expiry", func(t *testing.T) {
		f := newAccountFixture(t)
		user, err := f.svc.SignUp(ctx, testEmail, testPassword, "")
		require.NoError(t, err)

		f.users.mutate(user.ID, func(u *domain.User) {
			u.CodeExpiresAt = time.Now().Add(-time.Minute)
		})

		stored, err := f.users.GetByEmail(ctx, testEmail)
		require.NoError(t, err)

		_, _, err = f.svc.Verify(ctx, testEmail, stored.VerificationCode)
		assert.ErrorIs(t, err, ErrCodeExpired)
	})

	t.Run("stale code after resend reports mismatch", func(t *testing.T) {
		f := newAccountFixture(t)
		_, err := f.svc.SignUp(ctx, testEmail, testPassword, "")
		require.NoError(t, err)

		first, err := f.users.GetByEmail(ctx, testEmail)
		require.NoError(t, err)
		firstCode := first.VerificationCode

		require.NoError(t, f.svc.ResendVerification(ctx, testEmail))

		second, err := f.users.GetByEmail(ctx, testEmail)
		require.NoError(t, err)
		if second.VerificationCode == firstCode {
			t.Skip("resend produced the same code by chance")
		}

		_, _, err = f.svc.Verify(ctx, testEmail, firstCode)
		assert.ErrorIs(t, err, ErrCodeMismatch)
	})

	t.Run("unknown email reports not found", func(t *testing.T) {
		f := newAccountFixture(t)
		_, _, err := f.svc.Verify(ctx, "nobody@example.com", 123456)
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown account checked before password", func(t *testing.T) {
		f := newAccountFixture(t)
		_, _, err := f.svc.Login(ctx, "nobody@example.com", testPassword)
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		f := newAccountFixture(t)
		f.signUpVerified(t)

		_, _, err := f.svc.Login(ctx, testEmail, "Wrong!123")
		assert.ErrorIs(t, err, ErrIncorrectPassword)
	})

	t.Run("correct password on unverified account reports verification needed", func(t *testing.T) {
		f := newAccountFixture(t)
		_, err := f.svc.SignUp(ctx, testEmail, testPassword, "")
		require.NoError(t, err)

		_, _, err = f.svc.Login(ctx, testEmail, testPassword)
		assert.ErrorIs(t, err, ErrNotVerified)
	})

	t.Run("verified account receives both tokens", func(t *testing.T) {
		f := newAccountFixture(t)
		userID := f.signUpVerified(t)

		user, pair, err := f.svc.Login(ctx, testEmail, testPassword)
		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
	})
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()

	// resetCredential requests a reset and extracts the emailed plaintext.
	resetCredential := func(t *testing.T, f *accountFixture) string {
		t.Helper()
		before := len(f.mail.sent())
		require.NoError(t, f.svc.RequestPasswordReset(ctx, testEmail))
		sends := f.mail.sent()
		require.Len(t, sends, before+1)

		body := sends[len(sends)-1].body
		// The credential is the only 64-character hex run in the body.
		for _, field := range strings.Fields(body) {
			if len(field) == 64 {
				return field
			}
		}
		t.Fatal("no reset credential found in mail body")
		return ""
	}

	t.Run("request stores digest not plaintext", func(t *testing.T) {
		f := newAccountFixture(t)
		f.signUpVerified(t)

		plaintext := resetCredential(t, f)

		stored, err := f.users.GetByEmail(ctx, testEmail)
		require.NoError(t, err)
		assert.True(t, stored.HasResetCredential())
		assert.NotEqual(t, plaintext, stored.ResetTokenHash)
		assert.Equal(t, auth.HashResetCredential(plaintext), stored.ResetTokenHash)
	})

	t.Run("request for unknown email reports not found", func(t *testing.T) {
		f := newAccountFixture(t)
		err := f.svc.RequestPasswordReset(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("fulfill replaces password and clears reset fields", func(t *testing.T) {
		f := newAccountFixture(t)
		f.signUpVerified(t)
		plaintext := resetCredential(t, f)

		const newPassword = "Changed!456"
		require.NoError(t, f.svc.FulfillPasswordReset(ctx, testEmail, plaintext, newPassword))

		stored, err := f.users.GetByEmail(ctx, testEmail)
		require.NoError(t, err)
		assert.False(t, stored.HasResetCredential())

		_, _, err = f.svc.Login(ctx, testEmail, testPassword)
		assert.ErrorIs(t, err, ErrIncorrectPassword)
		_, _, err = f.svc.Login(ctx, testEmail, newPassword)
		assert.NoError(t, err)
	})

	t.Run("never-issued credential reports invalid", func(t *testing.T) {
		f := newAccountFixture(t)
		f.signUpVerified(t)

		err := f.svc.FulfillPasswordReset(ctx, testEmail, "bogus-credential", "Changed!456")
		assert.ErrorIs(t, err, ErrResetTokenInvalid)
	})

	t.Run("wrong credential while one is in flight reports invalid", func(t *testing.T) {
		f := newAccountFixture(t)
		f.signUpVerified(t)
		resetCredential(t, f)

		err := f.svc.FulfillPasswordReset(ctx, testEmail, "bogus-credential", "Changed!456")
		assert.ErrorIs(t, err, ErrResetTokenInvalid)
	})

	t.Run("correct credential past its window reports expiry", func(t *testing.T) {
		f := newAccountFixture(t)
		userID := f.signUpVerified(t)
		plaintext := resetCredential(t, f)

		f.users.mutate(userID, func(u *domain.User) {
			u.ResetTokenExpiresAt = time.Now().Add(-time.Minute)
		})

		err := f.svc.FulfillPasswordReset(ctx, testEmail, plaintext, "Changed!456")
		assert.ErrorIs(t, err, ErrResetTokenExpired)
	})

	t.Run("weak replacement password rejected", func(t *testing.T) {
		f := newAccountFixture(t)
		f.signUpVerified(t)
		plaintext := resetCredential(t, f)

		err := f.svc.FulfillPasswordReset(ctx, testEmail, plaintext, "weakpass")
		assert.ErrorIs(t, err, domain.ErrPasswordNoUppercase)

		// The credential survives a failed attempt.
		stored, getErr := f.users.GetByEmail(ctx, testEmail)
		require.NoError(t, getErr)
		assert.True(t, stored.HasResetCredential())
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong current password rejected", func(t *testing.T) {
		f := newAccountFixture(t)
		userID := f.signUpVerified(t)

		err := f.svc.ChangePassword(ctx, userID, "Wrong!123", "Changed!456")
		assert.ErrorIs(t, err, ErrIncorrectPassword)
	})

	t.Run("correct current password replaces the hash", func(t *testing.T) {
		f := newAccountFixture(t)
		userID := f.signUpVerified(t)

		require.NoError(t, f.svc.ChangePassword(ctx, userID, testPassword, "Changed!456"))

		_, _, err := f.svc.Login(ctx, testEmail, "Changed!456")
		assert.NoError(t, err)
	})

	t.Run("weak replacement password rejected", func(t *testing.T) {
		f := newAccountFixture(t)
		userID := f.signUpVerified(t)

		err := f.svc.ChangePassword(ctx, userID, testPassword, "weakpass")
		assert.ErrorIs(t, err, domain.ErrPasswordNoUppercase)
	})
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the account and its tasks", func(t *testing.T) {
		f := newAccountFixture(t)
		userID := f.signUpVerified(t)

		for _, title := range []string{"one", "two", "three"} {
			task, err := domain.NewTask(userID, title)
			require.NoError(t, err)
			require.NoError(t, f.tasks.Create(ctx, task))
		}
		// A task owned by someone else survives.
		otherTask, err := domain.NewTask(uuid.New(), "keep")
		require.NoError(t, err)
		require.NoError(t, f.tasks.Create(ctx, otherTask))

		require.NoError(t, f.svc.DeleteAccount(ctx, userID))

		_, err = f.users.GetByID(ctx, userID)
		assert.ErrorIs(t, err, store.ErrUserNotFound)

		remaining, err := f.tasks.ListByOwner(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, remaining)

		_, err = f.tasks.GetByID(ctx, otherTask.ID)
		assert.NoError(t, err)
	})

	t.Run("unknown account reports not found", func(t *testing.T) {
		f := newAccountFixture(t)
		err := f.svc.DeleteAccount(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestUpdateDisplayName(t *testing.T) {
	ctx := context.Background()

	f := newAccountFixture(t)
	userID := f.signUpVerified(t)

	user, err := f.svc.UpdateDisplayName(ctx, userID, "Alice B.")
	require.NoError(t, err)
	assert.Equal(t, "Alice B.", user.DisplayName)

	_, err = f.svc.UpdateDisplayName(ctx, uuid.New(), "Nobody")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestGetAccount(t *testing.T) {
	ctx := context.Background()

	f := newAccountFixture(t)
	userID := f.signUpVerified(t)

	user, err := f.svc.GetAccount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, testEmail, user.Email)

	_, err = f.svc.GetAccount(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
