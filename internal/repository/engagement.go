package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"liber/internal/cache"
	"liber/internal/models"
)

// EngagementRepository persists vote rows and the denormalized counters
// they drive. The vote state machine lives in the service layer; this
// layer only offers the primitives it composes inside a transaction.
type EngagementRepository interface {
	// WithinTransaction runs fn with a repository bound to one database
	// transaction. The vote transition's row change and counter updates
	// commit or roll back together.
	WithinTransaction(ctx context.Context, fn func(tx EngagementRepository) error) error

	GetVote(ctx context.Context, userID, postID uint) (*models.PostVote, error)
	CreateVote(ctx context.Context, vote *models.PostVote) error
	UpdateVoteDirection(ctx context.Context, voteID uint, direction string) error
	DeleteVote(ctx context.Context, voteID uint) error

	// AdjustPostCounters applies signed deltas to a post's vote counters,
	// flooring each at zero.
	AdjustPostCounters(ctx context.Context, postID uint, upDelta, downDelta int) error

	// IncrementShares bumps the share counter. Shares only grow.
	IncrementShares(ctx context.Context, postID uint) error

	PostExists(ctx context.Context, postID uint) (uint, bool, error)

	// ReadCounters fetches a post's current counter values.
	ReadCounters(ctx context.Context, postID uint) (*models.Post, error)
}

type engagementRepository struct {
	db *gorm.DB
}

// NewEngagementRepository creates a new engagement repository
func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &engagementRepository{db: db}
}

func (r *engagementRepository) WithinTransaction(ctx context.Context, fn func(tx EngagementRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&engagementRepository{db: tx})
	})
}

func (r *engagementRepository) GetVote(ctx context.Context, userID, postID uint) (*models.PostVote, error) {
	var vote models.PostVote
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

func (r *engagementRepository) CreateVote(ctx context.Context, vote *models.PostVote) error {
	// The unique (user_id, post_id) index backstops concurrent first
	// votes; losers surface a constraint error the service retries as
	// a transition from the now-existing state.
	return r.db.WithContext(ctx).Create(vote).Error
}

func (r *engagementRepository) UpdateVoteDirection(ctx context.Context, voteID uint, direction string) error {
	result := r.db.WithContext(ctx).
		Model(&models.PostVote{}).
		Where("id = ?", voteID).
		Update("direction", direction)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *engagementRepository) DeleteVote(ctx context.Context, voteID uint) error {
	return r.db.WithContext(ctx).Delete(&models.PostVote{}, voteID).Error
}

func (r *engagementRepository) AdjustPostCounters(ctx context.Context, postID uint, upDelta, downDelta int) error {
	updates := map[string]interface{}{}
	if upDelta != 0 {
		updates["upvotes"] = gorm.Expr(
			"CASE WHEN upvotes + ? < 0 THEN 0 ELSE upvotes + ? END", upDelta, upDelta)
	}
	if downDelta != 0 {
		updates["downvotes"] = gorm.Expr(
			"CASE WHEN downvotes + ? < 0 THEN 0 ELSE downvotes + ? END", downDelta, downDelta)
	}
	if len(updates) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", postID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.Invalidate(ctx, cache.KeyPost(postID))
	return nil
}

func (r *engagementRepository) IncrementShares(ctx context.Context, postID uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", postID).
		Update("shares", gorm.Expr("shares + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.Invalidate(ctx, cache.KeyPost(postID))
	return nil
}

func (r *engagementRepository) ReadCounters(ctx context.Context, postID uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Select("id", "upvotes", "downvotes", "shares").
		First(&post, postID).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// PostExists returns the author ID of a live post, or false when the
// post is missing or soft deleted.
func (r *engagementRepository) PostExists(ctx context.Context, postID uint) (uint, bool, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Select("id", "user_id").
		First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return post.UserID, true, nil
}
