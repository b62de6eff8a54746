package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/classdesk/classboard/internal/board/domain"
	"github.com/classdesk/classboard/internal/board/store"
	"github.com/classdesk/classboard/pkg/idx"
)

var (
	// ErrAlreadyInvited means an invitation already exists for this pair.
	ErrAlreadyInvited = errors.New("student already invited")

	// ErrInvitationNotFound covers unknown ids and invitations addressed
	// to someone else.
	ErrInvitationNotFound = errors.New("invitation not found")
)

// InvitationService manages admin-to-student shared board invitations.
type InvitationService struct {
	Store store.Store
}

// Invite creates an invitation from an administrator to a student account.
func (s *InvitationService) Invite(ctx context.Context, admin domain.User, studentUsername string) (domain.Invitation, error) {
	if !admin.Privileged {
		return domain.Invitation{}, ErrForbidden
	}

	student, err := s.Store.Users().GetUserByUsername(ctx, studentUsername)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Invitation{}, ErrInvitationNotFound
		}
		return domain.Invitation{}, fmt.Errorf("failed to look up student: %w", err)
	}
	if student.Privileged {
		// Administrators are already on the shared board.
		return domain.Invitation{}, ErrForbidden
	}

	now := time.Now().UTC()
	inv := domain.Invitation{
		ID:        idx.New().String(),
		AdminID:   admin.ID,
		StudentID: student.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Invitations().CreateInvitation(ctx, inv); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Invitation{}, ErrAlreadyInvited
		}
		return domain.Invitation{}, fmt.Errorf("failed to create invitation: %w", err)
	}
	return inv, nil
}

// Accept marks an invitation accepted. Only the addressed student may
// accept, and administrators have nothing to accept.
func (s *InvitationService) Accept(ctx context.Context, user domain.User, invitationID string) (domain.Invitation, error) {
	if user.Privileged {
		return domain.Invitation{}, ErrForbidden
	}

	inv, err := s.addressed(ctx, user, invitationID)
	if err != nil {
		return domain.Invitation{}, err
	}

	if err := s.Store.Invitations().SetInvitationAccepted(ctx, inv.ID); err != nil {
		return domain.Invitation{}, fmt.Errorf("failed to accept invitation: %w", err)
	}
	inv.Accepted = true
	return inv, nil
}

// Reject deletes an invitation. Only the addressed student may reject.
func (s *InvitationService) Reject(ctx context.Context, user domain.User, invitationID string) error {
	if user.Privileged {
		return ErrForbidden
	}

	inv, err := s.addressed(ctx, user, invitationID)
	if err != nil {
		return err
	}

	if err := s.Store.Invitations().DeleteInvitation(ctx, inv.ID); err != nil {
		return fmt.Errorf("failed to delete invitation: %w", err)
	}
	return nil
}

// Pending lists a student's invitations, newest first.
func (s *InvitationService) Pending(ctx context.Context, user domain.User) ([]domain.Invitation, error) {
	invs, err := s.Store.Invitations().ListInvitationsByStudent(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invs, nil
}

func (s *InvitationService) addressed(ctx context.Context, user domain.User, invitationID string) (domain.Invitation, error) {
	inv, err := s.Store.Invitations().GetInvitationByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Invitation{}, ErrInvitationNotFound
		}
		return domain.Invitation{}, fmt.Errorf("failed to load invitation: %w", err)
	}
	if inv.StudentID != user.ID {
		return domain.Invitation{}, ErrInvitationNotFound
	}
	return inv, nil
}
