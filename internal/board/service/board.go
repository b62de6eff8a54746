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
	// ErrForbidden is the role-based 403: the action exists but not for
	// this user.
	ErrForbidden = errors.New("action not allowed for this user")

	// ErrNotOnBoard means the target entity is not on the caller's board.
	ErrNotOnBoard = errors.New("entity does not belong to your board")
)

// BoardService implements the Kanban operations. Every mutation resolves
// the caller's board first, enforces role rules, then records the matching
// activity.
type BoardService struct {
	Store    store.Store
	Recorder *Recorder
}

// Snapshot is the full board state the UI renders.
type Snapshot struct {
	OwnerID string     `json:"owner_id"`
	Shared  bool       `json:"shared"`
	Lists   []ListView `json:"lists"`
}

type ListView struct {
	domain.List
	Tasks []TaskView `json:"tasks"`
}

type TaskView struct {
	domain.Task
	Subtasks    []SubtaskView       `json:"subtasks"`
	Attachments []domain.Attachment `json:"attachments"`
}

type SubtaskView struct {
	domain.Subtask
	Attachments []domain.Attachment `json:"attachments"`
}

// Owner resolves which board the user sees: administrators and students
// with an accepted invitation share one classroom board; everyone else gets
// a private board keyed by their own id.
func (s *BoardService) Owner(ctx context.Context, user domain.User) (string, error) {
	if user.Privileged {
		return domain.SharedBoardUserID, nil
	}
	accepted, err := s.Store.Invitations().HasAcceptedInvitation(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to check invitation: %w", err)
	}
	if accepted {
		return domain.SharedBoardUserID, nil
	}
	return user.ID, nil
}

// Board loads the caller's full board.
func (s *BoardService) Board(ctx context.Context, user domain.User) (Snapshot, error) {
	ownerID, err := s.Owner(ctx, user)
	if err != nil {
		return Snapshot{}, err
	}

	lists, err := s.Store.Lists().ListListsByOwner(ctx, ownerID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load lists: %w", err)
	}

	snapshot := Snapshot{
		OwnerID: ownerID,
		Shared:  ownerID == domain.SharedBoardUserID,
		Lists:   make([]ListView, 0, len(lists)),
	}

	for _, list := range lists {
		lv := ListView{List: list}

		tasks, err := s.Store.Tasks().ListTasksByList(ctx, list.ID)
		if err != nil {
			return Snapshot{}, fmt.Errorf("failed to load tasks: %w", err)
		}
		for _, task := range tasks {
			tv := TaskView{Task: task}

			subtasks, err := s.Store.Subtasks().ListSubtasksByTask(ctx, task.ID)
			if err != nil {
				return Snapshot{}, fmt.Errorf("failed to load subtasks: %w", err)
			}
			for _, sub := range subtasks {
				sv := SubtaskView{Subtask: sub}
				sv.Attachments, err = s.Store.Attachments().ListAttachmentsBySubtask(ctx, sub.ID)
				if err != nil {
					return Snapshot{}, fmt.Errorf("failed to load attachments: %w", err)
				}
				tv.Subtasks = append(tv.Subtasks, sv)
			}

			tv.Attachments, err = s.Store.Attachments().ListAttachmentsByTask(ctx, task.ID)
			if err != nil {
				return Snapshot{}, fmt.Errorf("failed to load attachments: %w", err)
			}
			lv.Tasks = append(lv.Tasks, tv)
		}

		snapshot.Lists = append(snapshot.Lists, lv)
	}

	return snapshot, nil
}

// CreateList appends a new column to the caller's board.
func (s *BoardService) CreateList(ctx context.Context, user domain.User, name, color string) (domain.List, error) {
	ownerID, err := s.Owner(ctx, user)
	if err != nil {
		return domain.List{}, err
	}

	existing, err := s.Store.Lists().ListListsByOwner(ctx, ownerID)
	if err != nil {
		return domain.List{}, fmt.Errorf("failed to load lists: %w", err)
	}

	if color == "" {
		color = "yellow"
	}

	now := time.Now().UTC()
	list := domain.List{
		ID:        idx.New().String(),
		Name:      name,
		Order:     len(existing),
		Color:     color,
		OwnerID:   ownerID,
		CreatedBy: &user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Lists().CreateList(ctx, list); err != nil {
		return domain.List{}, fmt.Errorf("failed to create list: %w", err)
	}

	if _, err := s.Recorder.Record(ctx, user, domain.ActivityCreateList,
		fmt.Sprintf("created list %q", list.Name),
		Refs{ListID: &list.ID}); err != nil {
		return domain.List{}, err
	}
	return list, nil
}

// ChangeListColor recolors a column.
func (s *BoardService) ChangeListColor(ctx context.Context, user domain.User, listID, color string) (domain.List, error) {
	list, err := s.listOnBoard(ctx, user, listID)
	if err != nil {
		return domain.List{}, err
	}

	if err := s.Store.Lists().UpdateListColor(ctx, list.ID, color); err != nil {
		return domain.List{}, fmt.Errorf("failed to update list color: %w", err)
	}
	list.Color = color

	if _, err := s.Recorder.Record(ctx, user, domain.ActivityEditList,
		fmt.Sprintf("changed list %q color to %s", list.Name, color),
		Refs{ListID: &list.ID}); err != nil {
		return domain.List{}, err
	}
	return list, nil
}

// DeleteList removes a column and its tasks. Administrators only.
func (s *BoardService) DeleteList(ctx context.Context, user domain.User, listID string) error {
	if !user.Privileged {
		return ErrForbidden
	}
	list, err := s.listOnBoard(ctx, user, listID)
	if err != nil {
		return err
	}

	// Record first so the activity keeps the list name; the reference
	// nulls out when the row goes.
	if _, err := s.Recorder.Record(ctx, user, domain.ActivityDeleteList,
		fmt.Sprintf("deleted list %q", list.Name),
		Refs{ListID: &list.ID}); err != nil {
		return err
	}

	if err := s.Store.Lists().DeleteList(ctx, list.ID); err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}
	return nil
}

// CreateTask appends a card to a list on the caller's board.
func (s *BoardService) CreateTask(ctx context.Context, user domain.User, listID, title string, dueDate time.Time) (domain.Task, error) {
	list, err := s.listOnBoard(ctx, user, listID)
	if err != nil {
		return domain.Task{}, err
	}

	existing, err := s.Store.Tasks().ListTasksByList(ctx, list.ID)
	if err != nil {
		return domain.Task{}, fmt.Errorf("failed to load tasks: %w", err)
	}

	now := time.Now().UTC()
	task := domain.Task{
		ID:        idx.New().String(),
		Title:     title,
		ListID:    list.ID,
		Order:     len(existing),
		DueDate:   dueDate,
		CreatedBy: &user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Tasks().CreateTask(ctx, task); err != nil {
		return domain.Task{}, fmt.Errorf("failed to create task: %w", err)
	}

	if _, err := s.Recorder.Record(ctx, user, domain.ActivityCreateTask,
		fmt.Sprintf("created task %q in list %q", task.Title, list.Name),
		Refs{TaskID: &task.ID, ListID: &list.ID}); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// UpdateTask edits a card's title and due date.
func (s *BoardService) UpdateTask(ctx context.Context, user domain.User, taskID, title string, dueDate time.Time) (domain.Task, error) {
	task, _, err := s.taskOnBoard(ctx, user, taskID)
	if err != nil {
		return domain.Task{}, err
	}

	if err := s.Store.Tasks().UpdateTask(ctx, task.ID, title, dueDate); err != nil {
		return domain.Task{}, fmt.Errorf("failed to update task: %w", err)
	}
	task.Title = title
	task.DueDate = dueDate
	task.ReminderSent = false

	if _, err := s.Recorder.Record(ctx, user, domain.ActivityEditTask,
		fmt.Sprintf("edited task %q", task.Title),
		Refs{TaskID: &task.ID, ListID: &task.ListID}); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// MoveTask drags a card to a (possibly different) list at a position.
func (s *BoardService) MoveTask(ctx context.Context, user domain.User, taskID, targetListID string, order int) (domain.Task, error) {
	task, _, err := s.taskOnBoard(ctx, user, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	target, err := s.listOnBoard(ctx, user, targetListID)
	if err != nil {
		return domain.Task{}, err
	}

	if err := s.Store.Tasks().MoveTask(ctx, task.ID, target.ID, order); err != nil {
		return domain.Task{}, fmt.Errorf("failed to move task: %w", err)
	}
	task.ListID = target.ID
	task.Order = order

	if _, err := s.Recorder.Record(ctx, user, domain.ActivityMoveTask,
		fmt.Sprintf("moved task %q to list %q", task.Title, target.Name),
		Refs{TaskID: &task.ID, ListID: &target.ID}); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// DeleteTask removes a card. Administrators only.
func (s *BoardService) DeleteTask(ctx context.Context, user domain.User, taskID string) error {
	if !user.Privileged {
		return ErrForbidden
	}
	task, _, err := s.taskOnBoard(ctx, user, taskID)
	if err != nil {
		return err
	}

	if _, err := s.Recorder.Record(ctx, user, domain.ActivityDeleteTask,
		fmt.Sprintf("deleted task %q", task.Title),
		Refs{TaskID: &task.ID, ListID: &task.ListID}); err != nil {
		return err
	}

	if err := s.Store.Tasks().DeleteTask(ctx, task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// CreateSubtask appends a checklist entry to a task.
func (s *BoardService) CreateSubtask(ctx context.Context, user domain.User, taskID, title string, dueDate time.Time) (domain.Subtask, error) {
	task, _, err := s.taskOnBoard(ctx, user, taskID)
	if err != nil {
		return domain.Subtask{}, err
	}

	existing, err := s.Store.Subtasks().ListSubtasksByTask(ctx, task.ID)
	if err != nil {
		return domain.Subtask{}, fmt.Errorf("failed to load subtasks: %w", err)
	}

	now := time.Now().UTC()
	sub := domain.Subtask{
		ID:        idx.New().String(),
		Title:     title,
		TaskID:    task.ID,
		Order:     len(existing),
		DueDate:   dueDate,
		CreatedBy: &user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Subtasks().CreateSubtask(ctx, sub); err != nil {
		return domain.Subtask{}, fmt.Errorf("failed to create subtask: %w", err)
	}

	if _, err := s.Recorder.Record(ctx, user, domain.ActivityCreateSubtask,
		fmt.Sprintf("created subtask %q in task %q", sub.Title, task.Title),
		Refs{TaskID: &task.ID, SubtaskID: &sub.ID}); err != nil {
		return domain.Subtask{}, err
	}
	return sub, nil
}

// UpdateSubtask edits a checklist entry.
func (s *BoardService) UpdateSubtask(ctx context.Context, user domain.User, subtaskID, title string, dueDate time.Time) (domain.Subtask, error) {
	sub, task, err := s.subtaskOnBoard(ctx, user, subtaskID)
	if err != nil {
		return domain.Subtask{}, err
	}

	if err := s.Store.Subtasks().UpdateSubtask(ctx, sub.ID, title, dueDate); err != nil {
		return domain.Subtask{}, fmt.Errorf("failed to update subtask: %w", err)
	}
	sub.Title = title
	sub.DueDate = dueDate

	if _, err := s.Recorder.Record(ctx, user, domain.ActivityEditSubtask,
		fmt.Sprintf("edited subtask %q in task %q", sub.Title, task.Title),
		Refs{TaskID: &task.ID, SubtaskID: &sub.ID}); err != nil {
		return domain.Subtask{}, err
	}
	return sub, nil
}

// ToggleSubtask flips completion and reports the new state.
func (s *BoardService) ToggleSubtask(ctx context.Context, user domain.User, subtaskID string) (domain.Subtask, error) {
	sub, task, err := s.subtaskOnBoard(ctx, user, subtaskID)
	if err != nil {
		return domain.Subtask{}, err
	}

	completed, err := s.Store.Subtasks().ToggleSubtask(ctx, sub.ID)
	if err != nil {
		return domain.Subtask{}, fmt.Errorf("failed to toggle subtask: %w", err)
	}
	sub.Completed = completed

	state := "pending"
	if completed {
		state = "completed"
	}
	if _, err := s.Recorder.Record(ctx, user, domain.ActivityToggleSubtask,
		fmt.Sprintf("marked subtask %q as %s", sub.Title, state),
		Refs{TaskID: &task.ID, SubtaskID: &sub.ID}); err != nil {
		return domain.Subtask{}, err
	}
	return sub, nil
}

// DeleteSubtask removes a checklist entry. Administrators only.
func (s *BoardService) DeleteSubtask(ctx context.Context, user domain.User, subtaskID string) error {
	if !user.Privileged {
		return ErrForbidden
	}
	sub, task, err := s.subtaskOnBoard(ctx, user, subtaskID)
	if err != nil {
		return err
	}

	if _, err := s.Recorder.Record(ctx, user, domain.ActivityDeleteSubtask,
		fmt.Sprintf("deleted subtask %q from task %q", sub.Title, task.Title),
		Refs{TaskID: &task.ID, SubtaskID: &sub.ID}); err != nil {
		return err
	}

	if err := s.Store.Subtasks().DeleteSubtask(ctx, sub.ID); err != nil {
		return fmt.Errorf("failed to delete subtask: %w", err)
	}
	return nil
}

// AddAttachment hangs file metadata off a task or, when subtaskID is
// non-empty, a subtask.
func (s *BoardService) AddAttachment(ctx context.Context, user domain.User, taskID, subtaskID, filename string, sizeBytes int64) (domain.Attachment, error) {
	att := domain.Attachment{
		ID:         idx.New().String(),
		Filename:   filename,
		SizeBytes:  sizeBytes,
		UploadedBy: &user.ID,
		UploadedAt: time.Now().UTC(),
	}
	refs := Refs{}

	if subtaskID != "" {
		sub, task, err := s.subtaskOnBoard(ctx, user, subtaskID)
		if err != nil {
			return domain.Attachment{}, err
		}
		att.SubtaskID = &sub.ID
		refs.TaskID = &task.ID
		refs.SubtaskID = &sub.ID
	} else {
		task, _, err := s.taskOnBoard(ctx, user, taskID)
		if err != nil {
			return domain.Attachment{}, err
		}
		att.TaskID = &task.ID
		refs.TaskID = &task.ID
	}

	if err := s.Store.Attachments().CreateAttachment(ctx, att); err != nil {
		return domain.Attachment{}, fmt.Errorf("failed to create attachment: %w", err)
	}

	if _, err := s.Recorder.Record(ctx, user, domain.ActivityAddAttachment,
		fmt.Sprintf("attached %q", att.Filename), refs); err != nil {
		return domain.Attachment{}, err
	}
	return att, nil
}

// DeleteAttachment removes attachment metadata. Administrators only.
func (s *BoardService) DeleteAttachment(ctx context.Context, user domain.User, attachmentID string) error {
	if !user.Privileged {
		return ErrForbidden
	}

	att, err := s.Store.Attachments().GetAttachmentByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotOnBoard
		}
		return fmt.Errorf("failed to load attachment: %w", err)
	}

	refs := Refs{TaskID: att.TaskID, SubtaskID: att.SubtaskID}
	if _, err := s.Recorder.Record(ctx, user, domain.ActivityDeleteAttachment,
		fmt.Sprintf("removed attachment %q", att.Filename), refs); err != nil {
		return err
	}

	if err := s.Store.Attachments().DeleteAttachment(ctx, att.ID); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	return nil
}

// listOnBoard loads a list and checks it sits on the caller's board.
func (s *BoardService) listOnBoard(ctx context.Context, user domain.User, listID string) (domain.List, error) {
	ownerID, err := s.Owner(ctx, user)
	if err != nil {
		return domain.List{}, err
	}

	list, err := s.Store.Lists().GetListByID(ctx, listID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.List{}, ErrNotOnBoard
		}
		return domain.List{}, fmt.Errorf("failed to load list: %w", err)
	}
	if list.OwnerID != ownerID {
		return domain.List{}, ErrNotOnBoard
	}
	return list, nil
}

// taskOnBoard loads a task plus its list, with the same board check.
func (s *BoardService) taskOnBoard(ctx context.Context, user domain.User, taskID string) (domain.Task, domain.List, error) {
	task, err := s.Store.Tasks().GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Task{}, domain.List{}, ErrNotOnBoard
		}
		return domain.Task{}, domain.List{}, fmt.Errorf("failed to load task: %w", err)
	}

	list, err := s.listOnBoard(ctx, user, task.ListID)
	if err != nil {
		return domain.Task{}, domain.List{}, err
	}
	return task, list, nil
}

// subtaskOnBoard loads a subtask plus its task, with the same board check.
func (s *BoardService) subtaskOnBoard(ctx context.Context, user domain.User, subtaskID string) (domain.Subtask, domain.Task, error) {
	sub, err := s.Store.Subtasks().GetSubtaskByID(ctx, subtaskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Subtask{}, domain.Task{}, ErrNotOnBoard
		}
		return domain.Subtask{}, domain.Task{}, fmt.Errorf("failed to load subtask: %w", err)
	}

	task, _, err := s.taskOnBoard(ctx, user, sub.TaskID)
	if err != nil {
		return domain.Subtask{}, domain.Task{}, err
	}
	return sub, task, nil
}
