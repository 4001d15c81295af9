package server

import (
	"github.com/gofiber/fiber/v2"

	"liber/internal/middleware"
	"liber/internal/models"
	"liber/internal/service"
)

type loginRequest struct {
	WalletAddress string `json:"wallet_address"`
	Username      string `json:"username"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
	New   bool         `json:"new"`
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, models.NewValidationError("invalid request body"))
	}

	user, created, err := s.users.Login(c.UserContext(), service.LoginInput{
		WalletAddress: req.WalletAddress,
		Username:      req.Username,
	})
	if err != nil {
		return fail(c, err)
	}

	token, err := s.issuer.Generate(user.ID, user.WalletAddress)
	if err != nil {
		return fail(c, models.NewInternalError(err))
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(loginResponse{Token: token, User: user, New: created})
}

func (s *Server) handleCurrentUser(c *fiber.Ctx) error {
	user, err := s.users.Get(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"user":               user,
		"profile_completion": user.ProfileCompletion(),
	})
}

type updateProfileRequest struct {
	Username    *string `json:"username"`
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	Avatar      *string `json:"avatar"`
	Banner      *string `json:"banner"`
	Location    *string `json:"location"`
	Website     *string `json:"website"`
}

func (s *Server) handleUpdateProfile(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, models.NewValidationError("invalid request body"))
	}

	user, err := s.users.UpdateProfile(c.UserContext(), middleware.UserID(c), service.UpdateProfileInput{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		Avatar:      req.Avatar,
		Banner:      req.Banner,
		Location:    req.Location,
		Website:     req.Website,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(user)
}

func (s *Server) handleGetUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	user, err := s.users.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(user)
}

func (s *Server) handleGetUserByUsername(c *fiber.Ctx) error {
	user, err := s.users.GetByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(user)
}

func (s *Server) handleFollow(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if err := s.users.Follow(c.UserContext(), middleware.UserID(c), id); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleUnfollow(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if err := s.users.Unfollow(c.UserContext(), middleware.UserID(c), id); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleFollowers(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	limit, offset := pagination(c)
	users, err := s.users.Followers(c.UserContext(), id, limit, offset)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(users)
}

func (s *Server) handleFollowing(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	limit, offset := pagination(c)
	users, err := s.users.Following(c.UserContext(), id, limit, offset)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(users)
}
