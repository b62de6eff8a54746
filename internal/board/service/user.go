package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/classdesk/classboard/internal/board/domain"
	"github.com/classdesk/classboard/internal/board/store"
	"github.com/classdesk/classboard/pkg/cryptox"
	"github.com/classdesk/classboard/pkg/idx"
)

var (
	ErrUsernameTaken = errors.New("username already exists")
	ErrEmailTaken    = errors.New("a user with that email already exists")
	ErrInvalidInput  = errors.New("all fields are required")
	ErrInvalidRole   = errors.New(`role must be "admin" or "student"`)
)

// UserService manages accounts. Only administrators create users; there is
// no self-service registration.
type UserService struct {
	Store store.Store
}

// CreateUser provisions an account with the given role.
func (s *UserService) CreateUser(ctx context.Context, actor domain.User, username, password, email, role string) (domain.User, error) {
	if !actor.Privileged {
		return domain.User{}, ErrForbidden
	}
	if username == "" || password == "" || email == "" {
		return domain.User{}, ErrInvalidInput
	}
	if role != "admin" && role != "student" {
		return domain.User{}, ErrInvalidRole
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Privileged:   role == "admin",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Uniqueness checks and insert run in one transaction so two
	// concurrent creates cannot both pass the checks.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Users().GetUserByUsername(ctx, username); err == nil {
			return ErrUsernameTaken
		} else if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("failed to check username: %w", err)
		}
		if _, err := tx.Users().GetUserByEmail(ctx, email); err == nil {
			return ErrEmailTaken
		} else if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrUsernameTaken
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Students returns non-privileged accounts, for the invite picker.
func (s *UserService) Students(ctx context.Context, actor domain.User) ([]domain.User, error) {
	if !actor.Privileged {
		return nil, ErrForbidden
	}

	users, err := s.Store.Users().ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	students := users[:0]
	for _, u := range users {
		if !u.Privileged {
			students = append(students, u)
		}
	}
	return students, nil
}

// EnsureAdmin creates the initial administrator account if the username is
// absent. Called once at startup from config; a no-op when it exists.
func (s *UserService) EnsureAdmin(ctx context.Context, logger *slog.Logger, username, password, email string) error {
	if username == "" || password == "" {
		return nil
	}

	_, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to check admin account: %w", err)
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	now := time.Now().UTC()
	admin := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Privileged:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Users().CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	logger.Info("created initial admin account", slog.String("username", username))
	return nil
}
