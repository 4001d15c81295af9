package service

import (
	"context"
	"strings"

	"liber/internal/models"
	"liber/internal/realtime"
	"liber/internal/repository"
)

// SendMessageInput carries a direct message send.
type SendMessageInput struct {
	SenderID    uint
	RecipientID uint
	Content     string
}

// MessageService handles direct messages between users.
type MessageService struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	notifier *realtime.Notifier
}

// NewMessageService creates a new message service.
func NewMessageService(
	messages repository.MessageRepository,
	users repository.UserRepository,
	notifier *realtime.Notifier,
) *MessageService {
	return &MessageService{messages: messages, users: users, notifier: notifier}
}

// Send persists a message and pushes it to the recipient's DM channel.
func (s *MessageService) Send(ctx context.Context, input SendMessageInput) (*models.Message, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, models.NewValidationError("message content is required")
	}
	if len(content) > 5000 {
		return nil, models.NewValidationError("message content exceeds 5000 characters")
	}
	if input.SenderID == input.RecipientID {
		return nil, models.NewValidationError("cannot message yourself")
	}

	if _, err := s.users.GetByID(ctx, input.RecipientID); err != nil {
		return nil, models.NewNotFoundError("user", input.RecipientID)
	}

	message := &models.Message{
		SenderID:    input.SenderID,
		RecipientID: input.RecipientID,
		Content:     content,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, models.NewInternalError(err)
	}

	if s.notifier != nil {
		s.notifier.NotifyDM(ctx, input.RecipientID, realtime.Event{
			Type:    realtime.EventDM,
			Payload: message,
		})
	}

	return message, nil
}

// Conversation returns a page of messages between the caller and the
// other user, and marks the other side's messages read.
func (s *MessageService) Conversation(ctx context.Context, userID, otherID uint, limit, offset int) ([]*models.Message, error) {
	messages, err := s.messages.Conversation(ctx, userID, otherID, clampLimit(limit), offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.messages.MarkConversationRead(ctx, userID, otherID); err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

// Partners lists the users the caller has conversations with.
func (s *MessageService) Partners(ctx context.Context, userID uint) ([]*models.User, error) {
	partners, err := s.messages.ConversationPartners(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return partners, nil
}

// UnreadCount returns how many messages await the user.
func (s *MessageService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	count, err := s.messages.UnreadCount(ctx, userID)
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// Typing forwards a typing indicator to the recipient without persisting
// anything.
func (s *MessageService) Typing(ctx context.Context, senderID, recipientID uint, isTyping bool) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyDM(ctx, recipientID, realtime.Event{
		Type: realtime.EventTyping,
		Payload: map[string]interface{}{
			"user_id":       senderID,
			"is_typing":     isTyping,
			"expires_in_ms": 5000,
		},
	})
}
