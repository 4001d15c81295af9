package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"liber/internal/models"
)

// MessageRepository defines the interface for direct message data operations
type MessageRepository interface {
	Create(ctx context.Context, m *models.Message) error
	Conversation(ctx context.Context, userA, userB uint, limit, offset int) ([]*models.Message, error)
	ConversationPartners(ctx context.Context, userID uint) ([]*models.User, error)
	MarkConversationRead(ctx context.Context, recipientID, senderID uint) error
	UnreadCount(ctx context.Context, userID uint) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, m *models.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// Conversation returns messages exchanged between two users, newest first.
func (r *messageRepository) Conversation(ctx context.Context, userA, userB uint, limit, offset int) ([]*models.Message, error) {
	var messages []*models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userA, userB, userB, userA).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	return messages, err
}

// ConversationPartners lists the distinct users this user has exchanged
// messages with, most recent conversation first.
func (r *messageRepository) ConversationPartners(ctx context.Context, userID uint) ([]*models.User, error) {
	var partnerIDs []uint
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Select("CASE WHEN sender_id = ? THEN recipient_id ELSE sender_id END as partner_id", userID).
		Where("sender_id = ? OR recipient_id = ?", userID, userID).
		Group("partner_id").
		Order("MAX(created_at) DESC").
		Pluck("partner_id", &partnerIDs).Error
	if err != nil {
		return nil, err
	}
	if len(partnerIDs) == 0 {
		return nil, nil
	}

	var users []*models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", partnerIDs).Find(&users).Error; err != nil {
		return nil, err
	}

	// Restore the recency ordering lost by the IN query.
	byID := make(map[uint]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	ordered := make([]*models.User, 0, len(users))
	for _, id := range partnerIDs {
		if u, ok := byID[id]; ok {
			ordered = append(ordered, u)
		}
	}
	return ordered, nil
}

func (r *messageRepository) MarkConversationRead(ctx context.Context, recipientID, senderID uint) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("recipient_id = ? AND sender_id = ? AND read = ?", recipientID, senderID, false).
		Updates(map[string]interface{}{"read": true, "read_at": now}).Error
}

func (r *messageRepository) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("recipient_id = ? AND read = ?", userID, false).
		Count(&count).Error
	return count, err
}
