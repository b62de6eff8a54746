package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/classdesk/classboard/internal/board/domain"
	"github.com/classdesk/classboard/internal/board/realtime"
	"github.com/classdesk/classboard/internal/board/service"
	"github.com/classdesk/classboard/pkg/httpx"
	"github.com/classdesk/classboard/pkg/slogx"
)

// FeedHandler serves the historical activity feed for administrators.
type FeedHandler struct {
	Feed *service.FeedService
}

type activityPayload struct {
	ID          string           `json:"id"`
	User        string           `json:"user"`
	Kind        string           `json:"kind"`
	KindLabel   string           `json:"kind_label"`
	Description string           `json:"description"`
	TaskID      *string          `json:"task_id"`
	ListID      *string          `json:"list_id"`
	SubtaskID   *string          `json:"subtask_id"`
	CreatedAt   string           `json:"created_at"`
	Comments    []commentPayload `json:"comments"`
}

type commentPayload struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

func newActivityPayload(a domain.Activity) activityPayload {
	p := activityPayload{
		ID:          a.ID,
		User:        a.Username,
		Kind:        string(a.Kind),
		KindLabel:   a.Kind.Label(),
		Description: a.Description,
		TaskID:      a.TaskID,
		ListID:      a.ListID,
		SubtaskID:   a.SubtaskID,
		CreatedAt:   realtime.FormatCreatedAt(a.CreatedAt),
		Comments:    make([]commentPayload, 0, len(a.Comments)),
	}
	for _, c := range a.Comments {
		p.Comments = append(p.Comments, commentPayload{
			ID:        c.ID,
			Author:    c.Author,
			Body:      c.Body,
			CreatedAt: realtime.FormatCreatedAt(c.CreatedAt),
		})
	}
	return p
}

// HandleRecent handles GET /api/activities?limit=N.
func (h *FeedHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	activities, err := h.Feed.Recent(r.Context(), user, limit)
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			httpx.WriteError(w, http.StatusForbidden, err.Error())
			return
		}
		slogx.FromContext(r.Context()).Error("failed to load activities", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "could not load activities")
		return
	}

	payload := make([]activityPayload, 0, len(activities))
	for _, a := range activities {
		payload = append(payload, newActivityPayload(a))
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "activities": payload})
}

type commentRequest struct {
	Body string `json:"body"`
}

// HandleComment handles POST /api/activities/{id}/comments.
func (h *FeedHandler) HandleComment(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Body == "" {
		httpx.WriteError(w, http.StatusBadRequest, "comment body is required")
		return
	}

	comment, err := h.Feed.Comment(r.Context(), user, r.PathValue("id"), req.Body)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			httpx.WriteError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrActivityNotFound):
			httpx.WriteError(w, http.StatusNotFound, err.Error())
		default:
			slogx.FromContext(r.Context()).Error("failed to add comment", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "could not add comment")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"comment": commentPayload{
			ID:        comment.ID,
			Author:    comment.Author,
			Body:      comment.Body,
			CreatedAt: realtime.FormatCreatedAt(comment.CreatedAt),
		},
	})
}
