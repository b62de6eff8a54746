package domain

import "time"

// List is a column on a Kanban board. OwnerID identifies which board the
// list belongs to: the shared classroom board is the board of the seeded
// shared admin account.
type List struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Order     int       `json:"order"`
	Color     string    `json:"color"`
	OwnerID   string    `json:"owner_id"`
	CreatedBy *string   `json:"created_by"` // nulls out if the creator is deleted
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Task is a card within a list.
type Task struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ListID       string    `json:"list_id"`
	Order        int       `json:"order"`
	DueDate      time.Time `json:"due_date"`
	ReminderSent bool      `json:"reminder_sent"`
	CreatedBy    *string   `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Subtask is a checklist entry within a task.
type Subtask struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	TaskID    string    `json:"task_id"`
	Completed bool      `json:"completed"`
	Order     int       `json:"order"`
	DueDate   time.Time `json:"due_date"`
	CreatedBy *string   `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Attachment is file metadata hung off a task or a subtask (exactly one of
// TaskID/SubtaskID is set). Blob storage is external; only the name and
// size are kept here.
type Attachment struct {
	ID         string    `json:"id"`
	TaskID     *string   `json:"task_id"`
	SubtaskID  *string   `json:"subtask_id"`
	Filename   string    `json:"filename"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedBy *string   `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Invitation is an admin inviting a student onto the shared board. Accepted
// invitations grant the student the shared board and make their actions
// eligible for activity recording.
type Invitation struct {
	ID        string    `json:"id"`
	AdminID   string    `json:"admin_id"`
	StudentID string    `json:"student_id"`
	Accepted  bool      `json:"accepted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
