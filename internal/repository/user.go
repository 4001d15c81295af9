// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"liber/internal/cache"
	"liber/internal/models"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByWallet(ctx context.Context, walletAddress string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Search(ctx context.Context, query string, limit, offset int) ([]*models.User, error)
	TouchLastActive(ctx context.Context, userID uint) error

	// AdjustTotals applies signed deltas to the lifetime engagement
	// counters. Results are floored at zero.
	AdjustTotals(ctx context.Context, userID uint, deltas models.TotalsDelta) error

	TrendingAuthors(ctx context.Context, limit int) ([]*models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := cache.Aside(ctx, cache.KeyUserProfile(id), "user_profile", cache.TTLUserProfile,
		func(ctx context.Context) (models.User, error) {
			var u models.User
			err := r.db.WithContext(ctx).First(&u, id).Error
			return u, err
		})
	if err != nil {
		return nil, err
	}
	if err := r.attachFollowCounts(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByWallet(ctx context.Context, walletAddress string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("wallet_address = ?", walletAddress).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	if err := r.attachFollowCounts(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.KeyUserProfile(user.ID))
	return nil
}

func (r *userRepository) Search(ctx context.Context, query string, limit, offset int) ([]*models.User, error) {
	var users []*models.User
	like := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("LOWER(username) LIKE LOWER(?) OR LOWER(display_name) LIKE LOWER(?)", like, like).
		Order("total_posts DESC, created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	return users, err
}

func (r *userRepository) TouchLastActive(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_active", gorm.Expr("CURRENT_TIMESTAMP")).Error
}

func (r *userRepository) AdjustTotals(ctx context.Context, userID uint, deltas models.TotalsDelta) error {
	updates := map[string]interface{}{}
	apply := func(column string, delta int) {
		if delta == 0 {
			return
		}
		// Floored at zero; portable CASE instead of GREATEST.
		updates[column] = gorm.Expr(
			"CASE WHEN "+column+" + ? < 0 THEN 0 ELSE "+column+" + ? END",
			delta, delta,
		)
	}
	apply("total_posts", deltas.Posts)
	apply("total_comments", deltas.Comments)
	apply("total_upvotes", deltas.Upvotes)
	apply("total_downvotes", deltas.Downvotes)
	apply("total_shares", deltas.Shares)

	if len(updates) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("user not found for totals update")
	}
	cache.Invalidate(ctx, cache.KeyUserProfile(userID))
	return nil
}

func (r *userRepository) TrendingAuthors(ctx context.Context, limit int) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).
		Select("users.*, (SELECT COUNT(*) FROM follows WHERE follows.followee_id = users.id) as follower_count").
		Order("follower_count DESC, (total_upvotes + total_shares * 2) DESC, total_posts DESC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (r *userRepository) attachFollowCounts(ctx context.Context, user *models.User) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Follow{}).
		Where("followee_id = ?", user.ID).
		Count(&user.FollowerCount).Error; err != nil {
		return err
	}
	return db.Model(&models.Follow{}).
		Where("follower_id = ?", user.ID).
		Count(&user.FollowingCount).Error
}
