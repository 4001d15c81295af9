package service

import (
	"context"

	"liber/internal/models"
	"liber/internal/repository"
)

// stubUserRepo lets tests override individual methods; everything else
// is a no-op.
type stubUserRepo struct {
	repository.UserRepository
	adjustTotalsFn func(ctx context.Context, userID uint, deltas models.TotalsDelta) error
	getByIDFn      func(ctx context.Context, id uint) (*models.User, error)
}

func (s *stubUserRepo) AdjustTotals(ctx context.Context, userID uint, deltas models.TotalsDelta) error {
	if s.adjustTotalsFn != nil {
		return s.adjustTotalsFn(ctx, userID, deltas)
	}
	return nil
}

func (s *stubUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id)
	}
	return &models.User{ID: id}, nil
}

// stubNotificationRepo records created notifications.
type stubNotificationRepo struct {
	repository.NotificationRepository
	createFn func(ctx context.Context, n *models.Notification) error
	created  []*models.Notification
}

func (s *stubNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	if s.createFn != nil {
		return s.createFn(ctx, n)
	}
	s.created = append(s.created, n)
	return nil
}

// stubCommentRepo overrides the grouped count query.
type stubCommentRepo struct {
	repository.CommentRepository
	countByPostIDsFn func(ctx context.Context, postIDs []uint) (map[uint]int64, error)
}

func (s *stubCommentRepo) CountByPostIDs(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	if s.countByPostIDsFn != nil {
		return s.countByPostIDsFn(ctx, postIDs)
	}
	return map[uint]int64{}, nil
}

// stubPostRepo serves a fixed recent-post window.
type stubPostRepo struct {
	repository.PostRepository
	listRecentFn func(ctx context.Context, limit int) ([]*models.Post, error)
}

func (s *stubPostRepo) ListRecent(ctx context.Context, limit int) ([]*models.Post, error) {
	if s.listRecentFn != nil {
		return s.listRecentFn(ctx, limit)
	}
	return nil, nil
}
