package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"user-portal/internal/observability"
	"user-portal/internal/user"
)

// AccountStore is the slice of the user store the orchestrator needs.
type AccountStore interface {
	FindByUsername(ctx context.Context, username string) (user.User, error)
	Update(ctx context.Context, u user.User) error
}

// Service orchestrates a login attempt: lock check, credential
// verification, attempt tracking and lock-policy evaluation, token issue.
type Service struct {
	store   AccountStore
	hasher  PasswordHasher
	tracker *AttemptTracker
	tokens  *TokenProvider
	logger  *observability.Logger
	now     func() time.Time
}

func NewService(store AccountStore, hasher PasswordHasher, tracker *AttemptTracker, tokens *TokenProvider, logger *observability.Logger) *Service {
	return &Service{
		store:   store,
		hasher:  hasher,
		tracker: tracker,
		tokens:  tokens,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock replaces the service's time source. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Login authenticates the credentials and returns the account's profile
// plus a freshly issued token. Unknown usernames and wrong passwords both
// surface as ErrBadCredentials; the distinction is logged internally only.
func (s *Service) Login(ctx context.Context, username, password string) (user.User, string, error) {
	username = strings.TrimSpace(username)

	account, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.logger.Info("login_unknown_username", map[string]any{"username": username})
			return user.User{}, "", ErrBadCredentials
		}
		return user.User{}, "", err
	}

	if account.Locked {
		// The password is deliberately not checked against a locked
		// account. Clearing the counter here means an administrative
		// unlock starts attempt counting from zero.
		s.tracker.Reset(username)
		return user.User{}, "", ErrAccountLocked
	}

	if !account.Active {
		return user.User{}, "", ErrAccountDisabled
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		attempts := s.tracker.RecordFailure(username)
		if EvaluateLock(account.Locked, attempts, s.tracker.MaxAttempts()) {
			account.Locked = true
			if err := s.store.Update(ctx, account); err != nil {
				return user.User{}, "", fmt.Errorf("persist lock flag: %w", err)
			}
			s.logger.Warn("account_locked", map[string]any{
				"username": username,
				"attempts": attempts,
			})
		}
		return user.User{}, "", ErrBadCredentials
	}

	s.tracker.Reset(username)

	now := s.now().UTC()
	account.LastLoginDisplayAt = account.LastLoginAt
	account.LastLoginAt = &now
	if err := s.store.Update(ctx, account); err != nil {
		return user.User{}, "", fmt.Errorf("persist login timestamps: %w", err)
	}

	token, err := s.tokens.Issue(account.Username, account.Authorities())
	if err != nil {
		return user.User{}, "", fmt.Errorf("issue token: %w", err)
	}

	return account, token, nil
}
