package server

import (
	"github.com/gofiber/fiber/v2"

	"liber/internal/middleware"
	"liber/internal/models"
	"liber/internal/service"
)

type sendMessageRequest struct {
	RecipientID uint   `json:"recipient_id"`
	Content     string `json:"content"`
}

func (s *Server) handleSendMessage(c *fiber.Ctx) error {
	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, models.NewValidationError("invalid request body"))
	}

	message, err := s.messages.Send(c.UserContext(), service.SendMessageInput{
		SenderID:    middleware.UserID(c),
		RecipientID: req.RecipientID,
		Content:     req.Content,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}

func (s *Server) handleConversation(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	limit, offset := pagination(c)
	messages, err := s.messages.Conversation(c.UserContext(), middleware.UserID(c), id, limit, offset)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(messages)
}

func (s *Server) handleMessagePartners(c *fiber.Ctx) error {
	partners, err := s.messages.Partners(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(partners)
}

func (s *Server) handleMessageUnreadCount(c *fiber.Ctx) error {
	count, err := s.messages.UnreadCount(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"unread": count})
}
