package server

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"liber/internal/models"
)

// fail maps service errors onto HTTP statuses by AppError code.
func fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case "NOT_FOUND":
			status = fiber.StatusNotFound
		case "VALIDATION_ERROR":
			status = fiber.StatusBadRequest
		case "UNAUTHORIZED":
			status = fiber.StatusForbidden
		}
	}

	return models.RespondWithError(c, status, err)
}

// paramID parses a :name route parameter as an unsigned ID.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id64, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, models.NewValidationError("invalid " + name + " parameter")
	}
	return uint(id64), nil
}

// pagination reads limit/offset query parameters with defaults.
func pagination(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", 20)
	offset = c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
