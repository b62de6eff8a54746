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

const defaultFeedLimit = 50

// ErrActivityNotFound covers unknown activity ids.
var ErrActivityNotFound = errors.New("activity not found")

// FeedService serves the historical activity feed and its admin comments.
// The live counterpart is the realtime hub; this is the catch-up view.
type FeedService struct {
	Store store.Store
}

// Recent returns the newest activities with their comments attached.
// Administrators only: the feed reveals the whole classroom's actions.
func (s *FeedService) Recent(ctx context.Context, user domain.User, limit int) ([]domain.Activity, error) {
	if !user.Privileged {
		return nil, ErrForbidden
	}
	if limit <= 0 {
		limit = defaultFeedLimit
	}

	activities, err := s.Store.Activities().ListRecentActivities(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	for i := range activities {
		comments, err := s.Store.Activities().ListActivityComments(ctx, activities[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list activity comments: %w", err)
		}
		activities[i].Comments = comments
	}
	return activities, nil
}

// Comment appends an admin note to an activity.
func (s *FeedService) Comment(ctx context.Context, author domain.User, activityID, body string) (domain.ActivityComment, error) {
	if !author.Privileged {
		return domain.ActivityComment{}, ErrForbidden
	}

	if _, err := s.Store.Activities().GetActivityByID(ctx, activityID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ActivityComment{}, ErrActivityNotFound
		}
		return domain.ActivityComment{}, fmt.Errorf("failed to load activity: %w", err)
	}

	comment := domain.ActivityComment{
		ID:         idx.New().String(),
		ActivityID: activityID,
		AuthorID:   author.ID,
		Author:     author.Username,
		Body:       body,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Store.Activities().CreateActivityComment(ctx, comment); err != nil {
		return domain.ActivityComment{}, fmt.Errorf("failed to create comment: %w", err)
	}
	return comment, nil
}
