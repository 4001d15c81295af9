package server

import (
	"github.com/gofiber/fiber/v2"

	"liber/internal/middleware"
)

func (s *Server) handleExploreSearch(c *fiber.Ctx) error {
	results, err := s.explore.Search(c.UserContext(), c.Query("q"), c.QueryInt("limit", 20), middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(results)
}

func (s *Server) handleTrendingUsers(c *fiber.Ctx) error {
	users, err := s.explore.TrendingUsers(c.UserContext(), c.QueryInt("limit", 10))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(users)
}

func (s *Server) handleTrendingHashtags(c *fiber.Ctx) error {
	tags, err := s.explore.TrendingHashtags(c.UserContext(), c.QueryInt("limit", 10))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(tags)
}

func (s *Server) handleOnlineUsers(c *fiber.Ctx) error {
	if s.hub == nil {
		return c.JSON([]uint{})
	}
	ids := s.hub.Presence().OnlineUserIDs(c.UserContext())
	if ids == nil {
		ids = []uint{}
	}
	return c.JSON(ids)
}
