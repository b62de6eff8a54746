// Package realtime is the in-process broadcast bus for the activity feed.
// A Hub owns group membership and fan-out; Clients wrap individual
// websocket connections.
package realtime

import (
	"time"

	"github.com/classdesk/classboard/internal/board/domain"
)

// GroupActivities is the group every authenticated feed connection joins.
const GroupActivities = "activities"

// createdAtLayout is the display format the feed renders directly.
const createdAtLayout = "02/01/2006 15:04:05"

// Event is the flat payload pushed to feed connections. Task, subtask, and
// list fields are independently nullable: the referenced entity may have
// been deleted between the action and the broadcast.
type Event struct {
	Type         string  `json:"type"`
	ActivityID   string  `json:"activity_id"`
	User         string  `json:"user"`
	ActivityType string  `json:"activity_type"`
	Description  string  `json:"description"`
	CreatedAt    string  `json:"created_at"`
	TaskID       *string `json:"task_id"`
	TaskTitle    *string `json:"task_title"`
	SubtaskID    *string `json:"subtask_id"`
	SubtaskTitle *string `json:"subtask_title"`
	ListID       *string `json:"list_id"`
	ListName     *string `json:"list_name"`
}

// NewActivityEvent builds the broadcast payload for a recorded activity.
// Titles are snapshots resolved by the recorder; nil references stay nil.
func NewActivityEvent(a domain.Activity, taskTitle, subtaskTitle, listName *string) Event {
	return Event{
		Type:         "activity",
		ActivityID:   a.ID,
		User:         a.Username,
		ActivityType: a.Kind.Label(),
		Description:  a.Description,
		CreatedAt:    a.CreatedAt.Format(createdAtLayout),
		TaskID:       a.TaskID,
		TaskTitle:    taskTitle,
		SubtaskID:    a.SubtaskID,
		SubtaskTitle: subtaskTitle,
		ListID:       a.ListID,
		ListName:     listName,
	}
}

// FormatCreatedAt renders a timestamp the way feed events do, for the REST
// feed to stay consistent with the live one.
func FormatCreatedAt(t time.Time) string {
	return t.Format(createdAtLayout)
}
