package server

import (
	"github.com/gofiber/fiber/v2"

	"liber/internal/cache"
)

// handleHealth reports process liveness plus dependency status. A down
// dependency degrades the report without failing the check; the process
// itself is still alive.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	dbStatus := "ok"
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil || sqlDB.PingContext(c.UserContext()) != nil {
			dbStatus = "down"
		}
	} else {
		dbStatus = "down"
	}

	redisStatus := "ok"
	if client := cache.GetClient(); client != nil {
		if err := client.Ping(c.UserContext()).Err(); err != nil {
			redisStatus = "down"
		}
	} else {
		redisStatus = "unconfigured"
	}

	return c.JSON(fiber.Map{
		"status": "ok",
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
	})
}
