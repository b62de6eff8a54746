package domain

import "time"

// ActivityKind discriminates what a recorded action was.
type ActivityKind string

const (
	ActivityCreateList       ActivityKind = "create_list"
	ActivityEditList         ActivityKind = "edit_list"
	ActivityDeleteList       ActivityKind = "delete_list"
	ActivityCreateTask       ActivityKind = "create_task"
	ActivityEditTask         ActivityKind = "edit_task"
	ActivityDeleteTask       ActivityKind = "delete_task"
	ActivityMoveTask         ActivityKind = "move_task"
	ActivityCreateSubtask    ActivityKind = "create_subtask"
	ActivityEditSubtask      ActivityKind = "edit_subtask"
	ActivityDeleteSubtask    ActivityKind = "delete_subtask"
	ActivityToggleSubtask    ActivityKind = "toggle_subtask"
	ActivityAddAttachment    ActivityKind = "add_attachment"
	ActivityDeleteAttachment ActivityKind = "delete_attachment"
)

// activityKindLabels are the human-readable labels shown in the activity
// feed and in broadcast events.
var activityKindLabels = map[ActivityKind]string{
	ActivityCreateList:       "Create List",
	ActivityEditList:         "Edit List",
	ActivityDeleteList:       "Delete List",
	ActivityCreateTask:       "Create Task",
	ActivityEditTask:         "Edit Task",
	ActivityDeleteTask:       "Delete Task",
	ActivityMoveTask:         "Move Task",
	ActivityCreateSubtask:    "Create Subtask",
	ActivityEditSubtask:      "Edit Subtask",
	ActivityDeleteSubtask:    "Delete Subtask",
	ActivityToggleSubtask:    "Toggle Subtask",
	ActivityAddAttachment:    "Add Attachment",
	ActivityDeleteAttachment: "Delete Attachment",
}

// Label returns the display label for the kind, falling back to the raw
// value for unknown kinds.
func (k ActivityKind) Label() string {
	if label, ok := activityKindLabels[k]; ok {
		return label
	}
	return string(k)
}

// Valid reports whether the kind is one of the enumerated activity kinds.
func (k ActivityKind) Valid() bool {
	_, ok := activityKindLabels[k]
	return ok
}

// Activity is an immutable audit record of a user action. Task, list, and
// subtask references are weak: the referenced entity may be deleted later,
// in which case the reference nulls out but the activity survives.
type Activity struct {
	ID          string
	UserID      string
	Username    string // denormalised for display; loaded with the row
	Kind        ActivityKind
	Description string
	TaskID      *string
	ListID      *string
	SubtaskID   *string
	CreatedAt   time.Time

	Comments []ActivityComment
}

// ActivityComment is an administrator note appended to an activity.
// Comments are append-only and ordered by creation time.
type ActivityComment struct {
	ID         string
	ActivityID string
	AuthorID   string
	Author     string // denormalised username
	Body       string
	CreatedAt  time.Time
}
