package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/classdesk/classboard/internal/board/domain"
	"github.com/classdesk/classboard/internal/board/realtime"
	"github.com/classdesk/classboard/internal/board/store"
	"github.com/classdesk/classboard/pkg/idx"
)

// ErrUnknownActivityKind rejects recordings with a kind outside the
// enumerated set.
var ErrUnknownActivityKind = errors.New("unknown activity kind")

// Publisher is the slice of the broadcast hub the recorder needs. A nil
// Publisher means the real-time transport is not provisioned.
type Publisher interface {
	Publish(group string, e realtime.Event)
}

// Recorder persists activity audit records and broadcasts them to the live
// feed. The durable write is authoritative; broadcasting is best-effort and
// never fails the triggering action.
type Recorder struct {
	Store  store.Store
	Hub    Publisher
	Logger *slog.Logger
}

// Refs are the weak references an activity may carry. Any of them may be
// deleted at any point after the action without invalidating the record.
type Refs struct {
	TaskID    *string
	ListID    *string
	SubtaskID *string
}

// Record writes an activity for the actor's action and pushes it to the
// feed. Actions by students without an accepted invitation are suppressed
// entirely and return (nil, nil).
func (r *Recorder) Record(ctx context.Context, actor domain.User, kind domain.ActivityKind, description string, refs Refs) (*domain.Activity, error) {
	if !kind.Valid() {
		return nil, ErrUnknownActivityKind
	}

	eligible, err := r.eligible(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, nil
	}

	// Snapshot referenced titles now; any reference that no longer
	// resolves is treated as absent, not an error.
	refs, titles := r.snapshot(ctx, refs)

	activity := domain.Activity{
		ID:          idx.New().String(),
		UserID:      actor.ID,
		Username:    actor.Username,
		Kind:        kind,
		Description: description,
		TaskID:      refs.TaskID,
		ListID:      refs.ListID,
		SubtaskID:   refs.SubtaskID,
		CreatedAt:   time.Now().UTC(),
	}

	if err := r.Store.Activities().CreateActivity(ctx, activity); err != nil {
		return nil, fmt.Errorf("failed to record activity: %w", err)
	}

	r.broadcast(activity, titles)

	return &activity, nil
}

// eligible mirrors who can see the shared board: privileged users always,
// students only with an accepted invitation.
func (r *Recorder) eligible(ctx context.Context, actor domain.User) (bool, error) {
	if actor.Privileged {
		return true, nil
	}
	accepted, err := r.Store.Invitations().HasAcceptedInvitation(ctx, actor.ID)
	if err != nil {
		return false, fmt.Errorf("failed to check invitation: %w", err)
	}
	return accepted, nil
}

// refTitles are the display snapshots captured alongside the references.
type refTitles struct {
	task    *string
	subtask *string
	list    *string
}

// snapshot resolves each reference, capturing its title for the broadcast
// and dropping references whose entity is already gone.
func (r *Recorder) snapshot(ctx context.Context, refs Refs) (Refs, refTitles) {
	var titles refTitles

	if refs.TaskID != nil {
		if task, err := r.Store.Tasks().GetTaskByID(ctx, *refs.TaskID); err == nil {
			titles.task = &task.Title
		} else {
			if !errors.Is(err, store.ErrNotFound) {
				r.Logger.Warn("failed to snapshot task", slogErr(err))
			}
			refs.TaskID = nil
		}
	}
	if refs.SubtaskID != nil {
		if sub, err := r.Store.Subtasks().GetSubtaskByID(ctx, *refs.SubtaskID); err == nil {
			titles.subtask = &sub.Title
		} else {
			if !errors.Is(err, store.ErrNotFound) {
				r.Logger.Warn("failed to snapshot subtask", slogErr(err))
			}
			refs.SubtaskID = nil
		}
	}
	if refs.ListID != nil {
		if list, err := r.Store.Lists().GetListByID(ctx, *refs.ListID); err == nil {
			titles.list = &list.Name
		} else {
			if !errors.Is(err, store.ErrNotFound) {
				r.Logger.Warn("failed to snapshot list", slogErr(err))
			}
			refs.ListID = nil
		}
	}

	return refs, titles
}

// broadcast publishes the recorded activity. Every failure here is logged
// and swallowed: the activity is already durable.
func (r *Recorder) broadcast(activity domain.Activity, titles refTitles) {
	if r.Hub == nil {
		r.Logger.Warn("broadcast hub unavailable, feed will not update",
			slog.String("activity_id", activity.ID))
		return
	}

	r.Hub.Publish(realtime.GroupActivities,
		realtime.NewActivityEvent(activity, titles.task, titles.subtask, titles.list))

	r.Logger.Info("activity broadcast",
		slog.String("activity_id", activity.ID),
		slog.String("kind", string(activity.Kind)),
		slog.String("user", activity.Username))
}

func slogErr(err error) slog.Attr {
	return slog.String("error", err.Error())
}
