package auth

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"user-portal/internal/observability"
	"user-portal/internal/user"
)

type fakeStore struct {
	mu    sync.Mutex
	users map[string]user.User
}

func newFakeStore(users ...user.User) *fakeStore {
	s := &fakeStore{users: make(map[string]user.User)}
	for _, u := range users {
		s.users[u.Username] = u
	}
	return s
}

func (s *fakeStore) FindByUsername(_ context.Context, username string) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (s *fakeStore) Update(_ context.Context, u user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[u.Username] = u
	return nil
}

func (s *fakeStore) get(username string) user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[username]
}

// fakeHasher treats the stored digest as the plaintext and counts calls so
// tests can assert the password is never checked for locked accounts.
type fakeHasher struct {
	mu    sync.Mutex
	calls int
}

func (h *fakeHasher) Hash(plaintext string) (string, error) {
	return plaintext, nil
}

func (h *fakeHasher) Verify(plaintext, digest string) bool {
	h.mu.Lock()
	h.calls++
	h.mu.Unlock()
	return plaintext == digest
}

func (h *fakeHasher) verifyCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

func newTestService(store *fakeStore, hasher *fakeHasher) (*Service, *AttemptTracker, *TokenProvider) {
	tracker := NewAttemptTracker(3, 15*time.Minute, 100)
	tokens := NewTokenProvider(testSecret, 24*time.Hour)
	logger := observability.NewLoggerTo(io.Discard)

	return NewService(store, hasher, tracker, tokens, logger), tracker, tokens
}

func activeUser(username, password string) user.User {
	return user.User{
		ID:           "id-" + username,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: password,
		Role:         user.RoleUser,
		Active:       true,
	}
}

func TestLoginSuccess(t *testing.T) {
	t.Parallel()

	store := newFakeStore(activeUser("alice", "s3cret"))
	service, _, tokens := newTestService(store, &fakeHasher{})

	profile, token, err := service.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	require.Equal(t, "alice", profile.Username)

	claims, err := tokens.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
	require.Equal(t, []string{"user:read"}, claims.Authorities)
}

func TestLoginUnknownUsername(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	service, _, _ := newTestService(store, &fakeHasher{})

	_, _, err := service.Login(context.Background(), "ghost", "whatever")
	require.ErrorIs(t, err, ErrBadCredentials)
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()

	store := newFakeStore(activeUser("alice", "s3cret"))
	service, _, _ := newTestService(store, &fakeHasher{})

	_, _, err := service.Login(context.Background(), "alice", "nope")
	require.ErrorIs(t, err, ErrBadCredentials)
	require.False(t, store.get("alice").Locked)
}

func TestLoginThirdFailureLocksAccount(t *testing.T) {
	t.Parallel()

	store := newFakeStore(activeUser("alice", "s3cret"))
	hasher := &fakeHasher{}
	service, _, _ := newTestService(store, hasher)

	for i := 0; i < 3; i++ {
		_, _, err := service.Login(context.Background(), "alice", "nope")
		require.ErrorIs(t, err, ErrBadCredentials)
	}
	require.True(t, store.get("alice").Locked)

	// The fourth attempt is rejected before the password is consulted.
	callsBefore := hasher.verifyCalls()
	_, _, err := service.Login(context.Background(), "alice", "s3cret")
	require.ErrorIs(t, err, ErrAccountLocked)
	require.Equal(t, callsBefore, hasher.verifyCalls())
}

func TestLoginLockedAccountResetsCounter(t *testing.T) {
	t.Parallel()

	locked := activeUser("alice", "s3cret")
	locked.Locked = true
	store := newFakeStore(locked)
	service, tracker, _ := newTestService(store, &fakeHasher{})

	tracker.RecordFailure("alice")
	tracker.RecordFailure("alice")

	_, _, err := service.Login(context.Background(), "alice", "s3cret")
	require.ErrorIs(t, err, ErrAccountLocked)

	// The counter starts fresh after an administrative unlock.
	require.Equal(t, 1, tracker.RecordFailure("alice"))
}

func TestLoginSuccessResetsAttemptCounter(t *testing.T) {
	t.Parallel()

	store := newFakeStore(activeUser("alice", "s3cret"))
	service, tracker, _ := newTestService(store, &fakeHasher{})

	for i := 0; i < 2; i++ {
		_, _, err := service.Login(context.Background(), "alice", "nope")
		require.ErrorIs(t, err, ErrBadCredentials)
	}

	_, _, err := service.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	require.False(t, tracker.ExceededThreshold("alice"))

	// The next failure counts from one, so the account is not locked.
	_, _, err = service.Login(context.Background(), "alice", "nope")
	require.ErrorIs(t, err, ErrBadCredentials)
	require.False(t, store.get("alice").Locked)
	require.Equal(t, 2, tracker.RecordFailure("alice"))
}

func TestLoginDisabledAccount(t *testing.T) {
	t.Parallel()

	disabled := activeUser("alice", "s3cret")
	disabled.Active = false
	store := newFakeStore(disabled)
	service, _, _ := newTestService(store, &fakeHasher{})

	_, _, err := service.Login(context.Background(), "alice", "s3cret")
	require.ErrorIs(t, err, ErrAccountDisabled)
}

func TestLoginStampsLoginTimestamps(t *testing.T) {
	t.Parallel()

	previous := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	account := activeUser("alice", "s3cret")
	account.LastLoginAt = &previous
	store := newFakeStore(account)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	service, _, _ := newTestService(store, &fakeHasher{})
	service.WithClock(func() time.Time { return now })

	profile, _, err := service.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	require.NotNil(t, profile.LastLoginDisplayAt)
	require.Equal(t, previous, *profile.LastLoginDisplayAt)
	require.NotNil(t, profile.LastLoginAt)
	require.Equal(t, now, *profile.LastLoginAt)
}
