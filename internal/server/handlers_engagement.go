package server

import (
	"github.com/gofiber/fiber/v2"

	"liber/internal/middleware"
	"liber/internal/models"
)

type voteRequest struct {
	Direction string `json:"direction"`
}

func (s *Server) handleVote(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req voteRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, models.NewValidationError("invalid request body"))
	}

	result, err := s.engagements.Vote(c.UserContext(), middleware.UserID(c), id, req.Direction)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(result)
}

func (s *Server) handleShare(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	post, err := s.engagements.Share(c.UserContext(), middleware.UserID(c), id)
	if err != nil {
		return fail(c, err)
	}
	if post == nil {
		return c.SendStatus(fiber.StatusAccepted)
	}
	return c.JSON(fiber.Map{"post_id": post.ID, "shares": post.Shares})
}
