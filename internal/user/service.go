package user

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"user-portal/internal/observability"
)

var (
	ErrUsernameExists = errors.New("username already exists")
	ErrEmailExists    = errors.New("email already exists")
	ErrEmailNotFound  = errors.New("no user found for email")
)

// Store is the persistence surface the service consumes.
type Store interface {
	FindByUsername(ctx context.Context, username string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, u User) error
	Update(ctx context.Context, u User) error
	DeleteByID(ctx context.Context, id string) error
}

// PasswordHasher is the credential-hashing collaborator.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// MailSender delivers a generated password. Fire and forget: the service
// logs delivery failures and never retries.
type MailSender interface {
	SendNewPassword(ctx context.Context, email, firstName, username, password string) error
}

// ImageStore persists profile images and returns their public URL path.
type ImageStore interface {
	Save(username string, data []byte) (string, error)
}

type Service struct {
	store  Store
	hasher PasswordHasher
	mail   MailSender
	images ImageStore
	logger *observability.Logger
	now    func() time.Time
}

func NewService(store Store, hasher PasswordHasher, mail MailSender, images ImageStore, logger *observability.Logger) *Service {
	return &Service{
		store:  store,
		hasher: hasher,
		mail:   mail,
		images: images,
		logger: logger,
		now:    time.Now,
	}
}

// Register self-registers a new account with the USER role. The generated
// password is only ever delivered by email.
func (s *Service) Register(ctx context.Context, firstName, lastName, username, email string) (User, error) {
	if err := s.checkUnique(ctx, username, email, ""); err != nil {
		return User{}, err
	}

	u, password, err := s.newUser(firstName, lastName, username, email, RoleUser, true, false)
	if err != nil {
		return User{}, err
	}
	if err := s.store.Create(ctx, u); err != nil {
		return User{}, err
	}

	s.deliverPassword(ctx, u, password)
	return u, nil
}

type AddUserInput struct {
	FirstName    string
	LastName     string
	Username     string
	Email        string
	Role         Role
	Active       bool
	Locked       bool
	ProfileImage []byte
}

// AddUser creates an account on behalf of an administrator.
func (s *Service) AddUser(ctx context.Context, input AddUserInput) (User, error) {
	if err := s.checkUnique(ctx, input.Username, input.Email, ""); err != nil {
		return User{}, err
	}

	u, password, err := s.newUser(input.FirstName, input.LastName, input.Username, input.Email, input.Role, input.Active, input.Locked)
	if err != nil {
		return User{}, err
	}
	if err := s.store.Create(ctx, u); err != nil {
		return User{}, err
	}

	if len(input.ProfileImage) > 0 {
		if u, err = s.attachImage(ctx, u, input.ProfileImage); err != nil {
			return User{}, err
		}
	}

	s.deliverPassword(ctx, u, password)
	return u, nil
}

type UpdateUserInput struct {
	FirstName    string
	LastName     string
	Username     string
	Email        string
	Role         Role
	Active       bool
	Locked       bool
	ProfileImage []byte
}

// UpdateUser rewrites the mutable profile fields of an existing account,
// including the lock flag, which is how an administrator unlocks it.
func (s *Service) UpdateUser(ctx context.Context, currentUsername string, input UpdateUserInput) (User, error) {
	u, err := s.store.FindByUsername(ctx, currentUsername)
	if err != nil {
		return User{}, err
	}

	if err := s.checkUnique(ctx, input.Username, input.Email, currentUsername); err != nil {
		return User{}, err
	}

	u.FirstName = input.FirstName
	u.LastName = input.LastName
	u.Username = input.Username
	u.Email = input.Email
	u.Role = input.Role
	u.Active = input.Active
	u.Locked = input.Locked
	if err := s.store.Update(ctx, u); err != nil {
		return User{}, err
	}

	if len(input.ProfileImage) > 0 {
		if u, err = s.attachImage(ctx, u, input.ProfileImage); err != nil {
			return User{}, err
		}
	}

	return u, nil
}

// ResetPassword issues a fresh password for the account owning email,
// clearing any lockout so the owner can sign in again.
func (s *Service) ResetPassword(ctx context.Context, email string) error {
	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrEmailNotFound
		}
		return err
	}

	password, err := generatePassword(generatedPasswordLength)
	if err != nil {
		return err
	}
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	u.PasswordHash = digest
	u.Locked = false
	if err := s.store.Update(ctx, u); err != nil {
		return err
	}

	s.deliverPassword(ctx, u, password)
	return nil
}

// UpdateProfileImage stores a new profile image and records its URL.
func (s *Service) UpdateProfileImage(ctx context.Context, username string, data []byte) (User, error) {
	u, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		return User{}, err
	}

	return s.attachImage(ctx, u, data)
}

func (s *Service) FindByUsername(ctx context.Context, username string) (User, error) {
	return s.store.FindByUsername(ctx, username)
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.store.List(ctx)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteByID(ctx, id)
}

const generatedPasswordLength = 10

func (s *Service) newUser(firstName, lastName, username, email string, role Role, active, locked bool) (User, string, error) {
	password, err := generatePassword(generatedPasswordLength)
	if err != nil {
		return User{}, "", err
	}
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return User{}, "", err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return User{}, "", fmt.Errorf("generate uuid v7: %w", err)
	}

	return User{
		ID:           id.String(),
		FirstName:    firstName,
		LastName:     lastName,
		Username:     username,
		Email:        email,
		PasswordHash: digest,
		JoinedAt:     s.now().UTC(),
		Role:         role,
		Active:       active,
		Locked:       locked,
	}, password, nil
}

func (s *Service) attachImage(ctx context.Context, u User, data []byte) (User, error) {
	url, err := s.images.Save(u.Username, data)
	if err != nil {
		return User{}, fmt.Errorf("save profile image: %w", err)
	}

	u.ProfileImageURL = url
	if err := s.store.Update(ctx, u); err != nil {
		return User{}, err
	}

	return u, nil
}

func (s *Service) checkUnique(ctx context.Context, username, email, allowUsername string) error {
	if existing, err := s.store.FindByUsername(ctx, username); err == nil {
		if existing.Username != allowUsername {
			return ErrUsernameExists
		}
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	if existing, err := s.store.FindByEmail(ctx, email); err == nil {
		if allowUsername == "" || existing.Username != allowUsername {
			return ErrEmailExists
		}
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	return nil
}

func (s *Service) deliverPassword(ctx context.Context, u User, password string) {
	if err := s.mail.SendNewPassword(ctx, u.Email, u.FirstName, u.Username, password); err != nil {
		s.logger.Error("password_email_failed", map[string]any{
			"username": u.Username,
			"error":    err.Error(),
		})
	}
}

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generatePassword(length int) (string, error) {
	out := make([]byte, length)
	limit := big.NewInt(int64(len(passwordAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		out[i] = passwordAlphabet[n.Int64()]
	}

	return string(out), nil
}
