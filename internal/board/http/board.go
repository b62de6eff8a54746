package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/classdesk/classboard/internal/board/service"
	"github.com/classdesk/classboard/pkg/httpx"
	"github.com/classdesk/classboard/pkg/slogx"
)

// BoardHandler serves the Kanban CRUD surface. Every mutation records its
// activity inside the service; handlers only translate HTTP.
type BoardHandler struct {
	Board *service.BoardService
}

func writeBoardError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotOnBoard):
		httpx.WriteError(w, http.StatusNotFound, err.Error())
	default:
		slogx.FromContext(r.Context()).Error("board operation failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "operation failed")
	}
}

// HandleBoard handles GET /api/board.
func (h *BoardHandler) HandleBoard(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	snapshot, err := h.Board.Board(r.Context(), user)
	if err != nil {
		writeBoardError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"shared":  snapshot.Shared,
		"lists":   snapshot.Lists,
	})
}

type createListRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// HandleCreateList handles POST /api/lists.
func (h *BoardHandler) HandleCreateList(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req createListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		httpx.WriteError(w, http.StatusBadRequest, "list name is required")
		return
	}

	list, err := h.Board.CreateList(r.Context(), user, req.Name, req.Color)
	if err != nil {
		writeBoardError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"success": true, "list": list})
}

type changeColorRequest struct {
	Color string `json:"color"`
}

// HandleChangeListColor handles PATCH /api/lists/{id}/color.
func (h *BoardHandler) HandleChangeListColor(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req changeColorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Color == "" {
		httpx.WriteError(w, http.StatusBadRequest, "color is required")
		return
	}

	list, err := h.Board.ChangeListColor(r.Context(), user, r.PathValue("id"), req.Color)
	if err != nil {
		writeBoardError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "list": list})
}

// HandleDeleteList handles DELETE /api/lists/{id}.
func (h *BoardHandler) HandleDeleteList(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.Board.DeleteList(r.Context(), user, r.PathValue("id")); err != nil {
		writeBoardError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type createTaskRequest struct {
	ListID  string    `json:"list_id"`
	Title   string    `json:"title"`
	DueDate time.Time `json:"due_date"`
}

// HandleCreateTask handles POST /api/tasks.
func (h *BoardHandler) HandleCreateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" || req.ListID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "list_id and title are required")
		return
	}

	task, err := h.Board.CreateTask(r.Context(), user, req.ListID, req.Title, req.DueDate)
	if err != nil {
		writeBoardError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"success": true, "task": task})
}

type updateTaskRequest struct {
	Title   string    `json:"title"`
	DueDate time.Time `json:"due_date"`
}

// HandleUpdateTask handles PATCH /api/tasks/{id}.
func (h *BoardHandler) HandleUpdateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		httpx.WriteError(w, http.StatusBadRequest, "title is required")
		return
	}

	task, err := h.Board.UpdateTask(r.Context(), user, r.PathValue("id"), req.Title, req.DueDate)
	if err != nil {
		writeBoardError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "task": task})
}

type moveTaskRequest struct {
	ListID string `json:"list_id"`
	Order  int    `json:"order"`
}

// HandleMoveTask handles POST /api/tasks/{id}/move.
func (h *BoardHandler) HandleMoveTask(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req moveTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ListID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "list_id is required")
		return
	}

	task, err := h.Board.MoveTask(r.Context(), user, r.PathValue("id"), req.ListID, req.Order)
	if err != nil {
		writeBoardError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "task": task})
}

// HandleDeleteTask handles DELETE /api/tasks/{id}.
func (h *BoardHandler) HandleDeleteTask(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.Board.DeleteTask(r.Context(), user, r.PathValue("id")); err != nil {
		writeBoardError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type createSubtaskRequest struct {
	Title   string    `json:"title"`
	DueDate time.Time `json:"due_date"`
}

// HandleCreateSubtask handles POST /api/tasks/{id}/subtasks.
func (h *BoardHandler) HandleCreateSubtask(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req createSubtaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		httpx.WriteError(w, http.StatusBadRequest, "title is required")
		return
	}

	sub, err := h.Board.CreateSubtask(r.Context(), user, r.PathValue("id"), req.Title, req.DueDate)
	if err != nil {
		writeBoardError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"success": true, "subtask": sub})
}

// HandleUpdateSubtask handles PATCH /api/subtasks/{id}.
func (h *BoardHandler) HandleUpdateSubtask(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req createSubtaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		httpx.WriteError(w, http.StatusBadRequest, "title is required")
		return
	}

	sub, err := h.Board.UpdateSubtask(r.Context(), user, r.PathValue("id"), req.Title, req.DueDate)
	if err != nil {
		writeBoardError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "subtask": sub})
}

// HandleToggleSubtask handles POST /api/subtasks/{id}/toggle.
func (h *BoardHandler) HandleToggleSubtask(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	sub, err := h.Board.ToggleSubtask(r.Context(), user, r.PathValue("id"))
	if err != nil {
		writeBoardError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "subtask": sub})
}

// HandleDeleteSubtask handles DELETE /api/subtasks/{id}.
func (h *BoardHandler) HandleDeleteSubtask(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.Board.DeleteSubtask(r.Context(), user, r.PathValue("id")); err != nil {
		writeBoardError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type addAttachmentRequest struct {
	TaskID    string `json:"task_id"`
	SubtaskID string `json:"subtask_id"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
}

// HandleAddAttachment handles POST /api/attachments.
func (h *BoardHandler) HandleAddAttachment(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req addAttachmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Filename == "" {
		httpx.WriteError(w, http.StatusBadRequest, "filename is required")
		return
	}
	if (req.TaskID == "") == (req.SubtaskID == "") {
		httpx.WriteError(w, http.StatusBadRequest, "exactly one of task_id or subtask_id is required")
		return
	}

	att, err := h.Board.AddAttachment(r.Context(), user, req.TaskID, req.SubtaskID, req.Filename, req.SizeBytes)
	if err != nil {
		writeBoardError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"success": true, "attachment": att})
}

// HandleDeleteAttachment handles DELETE /api/attachments/{id}.
func (h *BoardHandler) HandleDeleteAttachment(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.Board.DeleteAttachment(r.Context(), user, r.PathValue("id")); err != nil {
		writeBoardError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
