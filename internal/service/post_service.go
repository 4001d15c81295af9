package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"liber/internal/models"
	"liber/internal/observability"
	"liber/internal/repository"
)

// CreatePostInput carries the data needed to create a post.
type CreatePostInput struct {
	UserID     uint
	Title      string
	Content    string
	ImageURL   string
	NftTokenID string
	IpfsHash   string
}

// UpdatePostInput carries the editable fields of a post.
type UpdatePostInput struct {
	Title   *string
	Content *string
}

// PostService handles post CRUD and listing.
type PostService struct {
	posts repository.PostRepository
	users repository.UserRepository
}

// NewPostService creates a new post service.
func NewPostService(posts repository.PostRepository, users repository.UserRepository) *PostService {
	return &PostService{posts: posts, users: users}
}

// Create validates and persists a post and bumps the author's lifetime
// post total.
func (s *PostService) Create(ctx context.Context, input CreatePostInput) (*models.Post, error) {
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if title == "" {
		return nil, models.NewValidationError("post title is required")
	}
	if len(title) > 300 {
		return nil, models.NewValidationError("post title exceeds 300 characters")
	}
	if content == "" {
		return nil, models.NewValidationError("post content is required")
	}

	post := &models.Post{
		Title:      title,
		Content:    content,
		ImageURL:   input.ImageURL,
		UserID:     input.UserID,
		NftTokenID: input.NftTokenID,
		IpfsHash:   input.IpfsHash,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}

	if err := s.users.AdjustTotals(ctx, input.UserID, models.TotalsDelta{Posts: 1}); err != nil {
		observability.SecondaryUpdateFailures.WithLabelValues("author_totals").Inc()
		slog.Warn("author post total update failed", "user_id", input.UserID, "error", err)
	}

	return s.posts.GetByID(ctx, post.ID, input.UserID)
}

// Get returns one post enriched for the viewer.
func (s *PostService) Get(ctx context.Context, postID, viewerID uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID, viewerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("post", postID)
		}
		return nil, models.NewInternalError(err)
	}
	return post, nil
}

// List returns a page of posts, newest first.
func (s *PostService) List(ctx context.Context, limit, offset int, viewerID uint) ([]*models.Post, error) {
	limit = clampLimit(limit)
	posts, err := s.posts.List(ctx, limit, offset, viewerID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// ByUser returns a page of one user's posts.
func (s *PostService) ByUser(ctx context.Context, userID uint, limit, offset int, viewerID uint) ([]*models.Post, error) {
	limit = clampLimit(limit)
	posts, err := s.posts.GetByUserID(ctx, userID, limit, offset, viewerID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// Feed returns posts from users the viewer follows.
func (s *PostService) Feed(ctx context.Context, viewerID uint, limit, offset int) ([]*models.Post, error) {
	limit = clampLimit(limit)
	posts, err := s.posts.Feed(ctx, viewerID, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// Update edits a post owned by userID.
func (s *PostService) Update(ctx context.Context, userID, postID uint, input UpdatePostInput) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("post", postID)
		}
		return nil, models.NewInternalError(err)
	}
	if post.UserID != userID {
		return nil, models.NewUnauthorizedError("cannot edit another user's post")
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, models.NewValidationError("post title is required")
		}
		post.Title = title
	}
	if input.Content != nil {
		content := strings.TrimSpace(*input.Content)
		if content == "" {
			return nil, models.NewValidationError("post content is required")
		}
		post.Content = content
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}
	return post, nil
}

// Delete removes a post owned by userID and rolls back the author's
// lifetime post total.
func (s *PostService) Delete(ctx context.Context, userID, postID uint) error {
	post, err := s.posts.GetByID(ctx, postID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("post", postID)
		}
		return models.NewInternalError(err)
	}
	if post.UserID != userID {
		return models.NewUnauthorizedError("cannot delete another user's post")
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		return models.NewInternalError(err)
	}

	if err := s.users.AdjustTotals(ctx, userID, models.TotalsDelta{Posts: -1}); err != nil {
		observability.SecondaryUpdateFailures.WithLabelValues("author_totals").Inc()
		slog.Warn("author post total rollback failed", "user_id", userID, "error", err)
	}

	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}
