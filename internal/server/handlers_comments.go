package server

import (
	"github.com/gofiber/fiber/v2"

	"liber/internal/middleware"
	"liber/internal/models"
	"liber/internal/service"
)

type createCommentRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleCreateComment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req createCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, models.NewValidationError("invalid request body"))
	}

	comment, err := s.comments.Create(c.UserContext(), service.CreateCommentInput{
		UserID:  middleware.UserID(c),
		PostID:  id,
		Content: req.Content,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

func (s *Server) handleListComments(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	limit, offset := pagination(c)
	comments, err := s.comments.ListByPost(c.UserContext(), id, limit, offset)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(comments)
}

func (s *Server) handleUserComments(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	comments, err := s.comments.ListByUser(c.UserContext(), id, c.QueryInt("limit", 50))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(comments)
}

func (s *Server) handleDeleteComment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if err := s.comments.Delete(c.UserContext(), middleware.UserID(c), id); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
