package server

import (
	"github.com/gofiber/fiber/v2"

	"liber/internal/middleware"
)

func (s *Server) handleListNotifications(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	notifications, err := s.notifications.List(c.UserContext(), middleware.UserID(c), limit, offset)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(notifications)
}

func (s *Server) handleNotificationUnreadCount(c *fiber.Ctx) error {
	count, err := s.notifications.UnreadCount(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"unread": count})
}

func (s *Server) handleMarkNotificationRead(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if err := s.notifications.MarkRead(c.UserContext(), middleware.UserID(c), id); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleMarkNotificationUnread(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if err := s.notifications.MarkUnread(c.UserContext(), middleware.UserID(c), id); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleMarkAllNotificationsRead(c *fiber.Ctx) error {
	if err := s.notifications.MarkAllRead(c.UserContext(), middleware.UserID(c)); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleDeleteNotification(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if err := s.notifications.Delete(c.UserContext(), middleware.UserID(c), id); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
