package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInviteAcceptGrantsSharedBoard(t *testing.T) {
	st := newTestStore(t)
	svc := &InvitationService{Store: st}
	ctx := context.Background()

	admin := createUser(t, st, "teach", true)
	student := createUser(t, st, "sam", false)

	inv, err := svc.Invite(ctx, admin, "sam")
	require.NoError(t, err)
	require.False(t, inv.Accepted)

	accepted, err := st.Invitations().HasAcceptedInvitation(ctx, student.ID)
	require.NoError(t, err)
	require.False(t, accepted)

	inv, err = svc.Accept(ctx, student, inv.ID)
	require.NoError(t, err)
	require.True(t, inv.Accepted)

	accepted, err = st.Invitations().HasAcceptedInvitation(ctx, student.ID)
	require.NoError(t, err)
	require.True(t, accepted)
}

func TestInviteRules(t *testing.T) {
	st := newTestStore(t)
	svc := &InvitationService{Store: st}
	ctx := context.Background()

	admin := createUser(t, st, "teach", true)
	other := createUser(t, st, "prof", true)
	student := createUser(t, st, "sam", false)

	_, err := svc.Invite(ctx, student, "sam")
	require.ErrorIs(t, err, ErrForbidden) // students cannot invite

	_, err = svc.Invite(ctx, admin, "prof")
	require.ErrorIs(t, err, ErrForbidden) // admins need no invitation

	_, err = svc.Invite(ctx, admin, "ghost")
	require.ErrorIs(t, err, ErrInvitationNotFound)

	_, err = svc.Invite(ctx, admin, "sam")
	require.NoError(t, err)
	_, err = svc.Invite(ctx, admin, "sam")
	require.ErrorIs(t, err, ErrAlreadyInvited)

	// A different admin can still invite the same student.
	_, err = svc.Invite(ctx, other, "sam")
	require.NoError(t, err)
}

func TestAcceptRules(t *testing.T) {
	st := newTestStore(t)
	svc := &InvitationService{Store: st}
	ctx := context.Background()

	admin := createUser(t, st, "teach", true)
	student := createUser(t, st, "sam", false)
	bystander := createUser(t, st, "lee", false)

	inv, err := svc.Invite(ctx, admin, "sam")
	require.NoError(t, err)

	_, err = svc.Accept(ctx, bystander, inv.ID)
	require.ErrorIs(t, err, ErrInvitationNotFound) // not the addressee

	_, err = svc.Accept(ctx, admin, inv.ID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Accept(ctx, student, inv.ID)
	require.NoError(t, err)
}

func TestRejectDeletesInvitation(t *testing.T) {
	st := newTestStore(t)
	svc := &InvitationService{Store: st}
	ctx := context.Background()

	admin := createUser(t, st, "teach", true)
	student := createUser(t, st, "sam", false)

	inv, err := svc.Invite(ctx, admin, "sam")
	require.NoError(t, err)

	require.NoError(t, svc.Reject(ctx, student, inv.ID))

	pending, err := svc.Pending(ctx, student)
	require.NoError(t, err)
	require.Empty(t, pending)

	// Rejecting again reads as gone.
	require.ErrorIs(t, svc.Reject(ctx, student, inv.ID), ErrInvitationNotFound)
}
