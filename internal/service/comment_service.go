package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"liber/internal/models"
	"liber/internal/observability"
	"liber/internal/realtime"
	"liber/internal/repository"
)

// CreateCommentInput carries the data needed to create a comment.
type CreateCommentInput struct {
	UserID  uint
	PostID  uint
	Content string
}

// CommentService handles comment creation and the counter and
// notification effects that follow.
type CommentService struct {
	comments      repository.CommentRepository
	engagements   repository.EngagementRepository
	users         repository.UserRepository
	notifications repository.NotificationRepository
	notifier      *realtime.Notifier
}

// NewCommentService creates a new comment service.
func NewCommentService(
	comments repository.CommentRepository,
	engagements repository.EngagementRepository,
	users repository.UserRepository,
	notifications repository.NotificationRepository,
	notifier *realtime.Notifier,
) *CommentService {
	return &CommentService{
		comments:      comments,
		engagements:   engagements,
		users:         users,
		notifications: notifications,
		notifier:      notifier,
	}
}

// Create validates and persists a comment, then runs the secondary
// effects: commenter lifetime total, author notification, realtime push.
func (s *CommentService) Create(ctx context.Context, input CreateCommentInput) (*models.Comment, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, models.NewValidationError("comment content is required")
	}
	if len(content) > 2000 {
		return nil, models.NewValidationError("comment content exceeds 2000 characters")
	}

	authorID, exists, err := s.engagements.PostExists(ctx, input.PostID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !exists {
		return nil, models.NewNotFoundError("post", input.PostID)
	}

	comment := &models.Comment{
		Content: content,
		UserID:  input.UserID,
		PostID:  input.PostID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}

	if err := s.users.AdjustTotals(ctx, input.UserID, models.TotalsDelta{Comments: 1}); err != nil {
		observability.SecondaryUpdateFailures.WithLabelValues("commenter_totals").Inc()
		slog.Warn("commenter totals update failed", "user_id", input.UserID, "error", err)
	}

	if input.UserID != authorID {
		s.notifyComment(ctx, input.UserID, authorID, input.PostID, content)
	}

	if s.notifier != nil {
		s.notifier.Broadcast(ctx, realtime.Event{
			Type: realtime.EventComment,
			Payload: map[string]interface{}{
				"post_id":    input.PostID,
				"comment_id": comment.ID,
				"user_id":    input.UserID,
			},
		})
	}

	return s.loadWithUser(ctx, comment)
}

// ListByPost returns a page of a post's comments, oldest first.
func (s *CommentService) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	_, exists, err := s.engagements.PostExists(ctx, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !exists {
		return nil, models.NewNotFoundError("post", postID)
	}

	comments, err := s.comments.GetByPostID(ctx, postID, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// ListByUser returns a user's most recent comments.
func (s *CommentService) ListByUser(ctx context.Context, userID uint, limit int) ([]*models.Comment, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	comments, err := s.comments.GetByUserID(ctx, userID, limit)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// Delete removes a comment owned by userID and rolls the commenter's
// lifetime total back by one.
func (s *CommentService) Delete(ctx context.Context, userID, commentID uint) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("comment", commentID)
		}
		return models.NewInternalError(err)
	}
	if comment.UserID != userID {
		return models.NewUnauthorizedError("cannot delete another user's comment")
	}

	if err := s.comments.Delete(ctx, commentID); err != nil {
		return models.NewInternalError(err)
	}

	if err := s.users.AdjustTotals(ctx, userID, models.TotalsDelta{Comments: -1}); err != nil {
		observability.SecondaryUpdateFailures.WithLabelValues("commenter_totals").Inc()
		slog.Warn("commenter totals rollback failed", "user_id", userID, "error", err)
	}

	return nil
}

func (s *CommentService) notifyComment(ctx context.Context, actorID, authorID, postID uint, content string) {
	pid := postID
	preview := content
	if len(preview) > 120 {
		preview = preview[:120]
	}
	n := &models.Notification{
		UserID:     authorID,
		Kind:       models.NotificationComment,
		FromUserID: actorID,
		PostID:     &pid,
		Content:    preview,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		observability.SecondaryUpdateFailures.WithLabelValues("notification").Inc()
		slog.Warn("comment notification persist failed",
			"author_id", authorID, "post_id", postID, "error", err)
		return
	}
	if s.notifier != nil {
		s.notifier.NotifyUser(ctx, authorID, realtime.Event{
			Type:    realtime.EventNotification,
			Payload: n,
		})
	}
}

func (s *CommentService) loadWithUser(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	loaded, err := s.comments.GetByID(ctx, comment.ID)
	if err != nil {
		// The comment exists; return it without the preload.
		return comment, nil
	}
	return loaded, nil
}
