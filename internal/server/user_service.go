package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jonathan/resume-matcher/internal/config"
	"github.com/jonathan/resume-matcher/internal/db"
	"github.com/jonathan/resume-matcher/internal/types"
)

// AccountStore is the subset of *db.DB used for accounts.
type AccountStore interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (uuid.UUID, error)
	GetUser(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	CheckEmailExists(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// UserService registers accounts and checks credentials. Each account owns
// one remote resume slot.
type UserService struct {
	store     AccountStore
	passwords *config.PasswordConfig

	// decoy is compared against when the email is unknown so that a failed
	// login costs one bcrypt comparison either way.
	decoyOnce sync.Once
	decoy     string
}

// NewUserService creates a UserService.
func NewUserService(store AccountStore, passwords *config.PasswordConfig) *UserService {
	return &UserService{store: store, passwords: passwords}
}

func publicUser(u *db.User) *types.User {
	if u == nil {
		return nil
	}
	return &types.User{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account. Emails are unique case-insensitively.
func (s *UserService) Register(ctx context.Context, req *types.RegisterRequest) (*types.User, error) {
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &ErrValidation{Field: "name", Message: "required"}
	}

	taken, err := s.store.CheckEmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if taken {
		return nil, &ErrEmailAlreadyExists{Email: email}
	}

	hash, err := s.hash("password", req.Password)
	if err != nil {
		return nil, err
	}
	id, err := s.store.CreateUser(ctx, name, email, hash)
	switch {
	case errors.Is(err, db.ErrDuplicateEmail):
		// lost a race with a concurrent registration
		return nil, &ErrEmailAlreadyExists{Email: email}
	case err != nil:
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return s.Get(ctx, id)
}

// Login checks credentials. Unknown emails and wrong passwords produce the
// same error.
func (s *UserService) Login(ctx context.Context, req *types.LoginRequest) (*types.User, error) {
	u, err := s.store.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	if u == nil {
		s.passwords.VerifyPassword(req.Password, s.decoyHash())
		return nil, &ErrInvalidCredentials{}
	}
	if !s.passwords.VerifyPassword(req.Password, u.PasswordHash) {
		return nil, &ErrInvalidCredentials{}
	}
	if s.passwords.NeedsRehash(u.PasswordHash) {
		// cost changed since the hash was stored; upgrading is best effort
		if hash, err := s.passwords.HashPassword(req.Password); err == nil {
			_ = s.store.UpdatePassword(ctx, u.ID, hash)
		}
	}
	return publicUser(u), nil
}

func (s *UserService) decoyHash() string {
	s.decoyOnce.Do(func() {
		s.decoy, _ = s.passwords.HashPassword(uuid.NewString())
	})
	return s.decoy
}

func (s *UserService) hash(field, pw string) (string, error) {
	hash, err := s.passwords.HashPassword(pw)
	if errors.Is(err, config.ErrPasswordTooLong) {
		return "", &ErrValidation{Field: field, Message: "too long"}
	}
	return hash, err
}

// Get returns the public view of a user.
func (s *UserService) Get(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	u, err := s.lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	return publicUser(u), nil
}

func (s *UserService) lookup(ctx context.Context, userID uuid.UUID) (*db.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u == nil {
		return nil, &ErrUserNotFound{UserID: userID}
	}
	return u, nil
}

// UpdatePassword replaces the password after checking the current one.
func (s *UserService) UpdatePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	if current == next {
		return &ErrValidation{Field: "new_password", Message: "must differ from the current password"}
	}
	u, err := s.lookup(ctx, userID)
	if err != nil {
		return err
	}
	if !s.passwords.VerifyPassword(current, u.PasswordHash) {
		return &ErrPasswordMismatch{}
	}

	hash, err := s.hash("new_password", next)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}
