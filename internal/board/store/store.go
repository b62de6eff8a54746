package store

import (
	"context"
	"errors"
	"time"

	"github.com/classdesk/classboard/internal/board/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Repos groups the sub-repositories shared by the root store and a
// transaction-scoped store.
type Repos interface {
	Users() Users
	Sessions() Sessions
	TwoFactor() TwoFactor
	Invitations() Invitations
	Lists() Lists
	Tasks() Tasks
	Subtasks() Subtasks
	Attachments() Attachments
	Activities() Activities
}

// Store is the root data access interface. Concrete drivers (sqlite)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Repos

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It exposes the same repos bound to a single
// transaction, plus Commit/Rollback.
type Tx interface {
	Repos
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is used during the password step of login.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// GetUserByEmail resolves reminder recipients.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// ListUsers returns all users ordered by username.
	ListUsers(ctx context.Context) ([]domain.User, error)
}

type Sessions interface {
	// CreateSession stores a new browser session keyed by token fingerprint.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByTokenHash returns a not-yet-expired session by fingerprint.
	GetSessionByTokenHash(ctx context.Context, hash string) (domain.Session, error)

	// UpdateSessionUser promotes a session to authenticated and clears any
	// pending challenge in the same write.
	UpdateSessionUser(ctx context.Context, sessionID, userID string) error

	// UpdateSessionPending replaces the session's pending challenge; nil
	// clears it.
	UpdateSessionPending(ctx context.Context, sessionID string, pending *domain.PendingAuthChallenge) error

	// DeleteSession removes a session (logout).
	DeleteSession(ctx context.Context, sessionID string) error

	// DeleteExpiredSessions is housekeeping.
	DeleteExpiredSessions(ctx context.Context) error
}

type TwoFactor interface {
	// GetCredential returns a user's TOTP credential.
	GetCredential(ctx context.Context, userID string) (domain.TwoFactorCredential, error)

	// CreateCredential inserts a fresh credential (disabled, with secret).
	CreateCredential(ctx context.Context, c domain.TwoFactorCredential) error

	// ReplaceSecret swaps in a new secret and disables the credential until
	// the owner verifies a code from the new secret.
	ReplaceSecret(ctx context.Context, userID, secret string) error

	// SetEnabled flips the enabled flag. The secret is retained either way.
	SetEnabled(ctx context.Context, userID string, enabled bool) error
}

type Invitations interface {
	// CreateInvitation writes a new admin-to-student invitation.
	CreateInvitation(ctx context.Context, inv domain.Invitation) error

	// GetInvitationByID fetches an invitation.
	GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error)

	// HasAcceptedInvitation reports whether the student currently holds an
	// accepted invitation to the shared board.
	HasAcceptedInvitation(ctx context.Context, studentID string) (bool, error)

	// SetInvitationAccepted marks an invitation accepted.
	SetInvitationAccepted(ctx context.Context, id string) error

	// DeleteInvitation removes an invitation (reject or revoke).
	DeleteInvitation(ctx context.Context, id string) error

	// ListInvitationsByStudent returns invitations addressed to a student,
	// newest first.
	ListInvitationsByStudent(ctx context.Context, studentID string) ([]domain.Invitation, error)
}

type Lists interface {
	CreateList(ctx context.Context, l domain.List) error
	GetListByID(ctx context.Context, id string) (domain.List, error)

	// ListListsByOwner returns a board's columns ordered by position.
	ListListsByOwner(ctx context.Context, ownerID string) ([]domain.List, error)

	UpdateListColor(ctx context.Context, id, color string) error

	// DeleteList cascades to tasks; activity references null out (per schema).
	DeleteList(ctx context.Context, id string) error
}

type Tasks interface {
	CreateTask(ctx context.Context, t domain.Task) error
	GetTaskByID(ctx context.Context, id string) (domain.Task, error)
	ListTasksByList(ctx context.Context, listID string) ([]domain.Task, error)

	// UpdateTask mutates title and due date.
	UpdateTask(ctx context.Context, id, title string, dueDate time.Time) error

	// MoveTask reassigns the task to a list at a position.
	MoveTask(ctx context.Context, id, listID string, order int) error

	DeleteTask(ctx context.Context, id string) error

	// ListDueTasks returns tasks due on or before the horizon that have not
	// had a reminder sent yet.
	ListDueTasks(ctx context.Context, dueBefore time.Time) ([]domain.Task, error)

	// MarkReminderSent flags a task so it is not reminded twice.
	MarkReminderSent(ctx context.Context, id string) error
}

type Subtasks interface {
	CreateSubtask(ctx context.Context, s domain.Subtask) error
	GetSubtaskByID(ctx context.Context, id string) (domain.Subtask, error)
	ListSubtasksByTask(ctx context.Context, taskID string) ([]domain.Subtask, error)
	UpdateSubtask(ctx context.Context, id, title string, dueDate time.Time) error

	// ToggleSubtask flips completion and returns the new state.
	ToggleSubtask(ctx context.Context, id string) (bool, error)

	DeleteSubtask(ctx context.Context, id string) error
}

type Attachments interface {
	CreateAttachment(ctx context.Context, a domain.Attachment) error
	GetAttachmentByID(ctx context.Context, id string) (domain.Attachment, error)
	ListAttachmentsByTask(ctx context.Context, taskID string) ([]domain.Attachment, error)
	ListAttachmentsBySubtask(ctx context.Context, subtaskID string) ([]domain.Attachment, error)
	DeleteAttachment(ctx context.Context, id string) error
}

type Activities interface {
	// CreateActivity persists an immutable audit record.
	CreateActivity(ctx context.Context, a domain.Activity) error

	// GetActivityByID fetches a single activity (without comments).
	GetActivityByID(ctx context.Context, id string) (domain.Activity, error)

	// ListRecentActivities returns activities newest first, without
	// comments.
	ListRecentActivities(ctx context.Context, limit int) ([]domain.Activity, error)

	// CountActivities returns the total number of recorded activities.
	CountActivities(ctx context.Context) (int, error)

	// CreateActivityComment appends an admin comment.
	CreateActivityComment(ctx context.Context, c domain.ActivityComment) error

	// ListActivityComments returns an activity's comments oldest first.
	ListActivityComments(ctx context.Context, activityID string) ([]domain.ActivityComment, error)
}
