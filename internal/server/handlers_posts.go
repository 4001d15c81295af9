package server

import (
	"github.com/gofiber/fiber/v2"

	"liber/internal/middleware"
	"liber/internal/models"
	"liber/internal/service"
)

type createPostRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	ImageURL   string `json:"image_url"`
	NftTokenID string `json:"nft_token_id"`
	IpfsHash   string `json:"ipfs_hash"`
}

func (s *Server) handleCreatePost(c *fiber.Ctx) error {
	var req createPostRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, models.NewValidationError("invalid request body"))
	}

	post, err := s.posts.Create(c.UserContext(), service.CreatePostInput{
		UserID:     middleware.UserID(c),
		Title:      req.Title,
		Content:    req.Content,
		ImageURL:   req.ImageURL,
		NftTokenID: req.NftTokenID,
		IpfsHash:   req.IpfsHash,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

func (s *Server) handleListPosts(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	posts, err := s.posts.List(c.UserContext(), limit, offset, middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(posts)
}

func (s *Server) handleFeed(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	posts, err := s.posts.Feed(c.UserContext(), middleware.UserID(c), limit, offset)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(posts)
}

func (s *Server) handleTrending(c *fiber.Ctx) error {
	ranked, err := s.trending.Trending(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(ranked)
}

func (s *Server) handleGetPost(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	post, err := s.posts.Get(c.UserContext(), id, middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(post)
}

func (s *Server) handleUserPosts(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	limit, offset := pagination(c)
	posts, err := s.posts.ByUser(c.UserContext(), id, limit, offset, middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(posts)
}

type updatePostRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (s *Server) handleUpdatePost(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req updatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, models.NewValidationError("invalid request body"))
	}

	post, err := s.posts.Update(c.UserContext(), middleware.UserID(c), id, service.UpdatePostInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(post)
}

func (s *Server) handleDeletePost(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if err := s.posts.Delete(c.UserContext(), middleware.UserID(c), id); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
