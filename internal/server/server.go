// Package server wires the HTTP surface: middleware, routes and the
// websocket endpoint.
package server

import (
	"context"
	"log/slog"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"

	"liber/internal/config"
	"liber/internal/middleware"
	"liber/internal/realtime"
	"liber/internal/service"
)

// Server bundles the fiber app with the services behind it.
type Server struct {
	app    *fiber.App
	cfg    *config.Config
	db     *gorm.DB
	issuer *middleware.TokenIssuer

	users         *service.UserService
	posts         *service.PostService
	engagements   *service.EngagementService
	comments      *service.CommentService
	trending      *service.TrendingService
	messages      *service.MessageService
	notifications *service.NotificationService
	explore       *service.ExploreService

	hub      *realtime.Hub
	notifier *realtime.Notifier
}

// Deps collects everything New needs.
type Deps struct {
	Config        *config.Config
	DB            *gorm.DB
	Issuer        *middleware.TokenIssuer
	Users         *service.UserService
	Posts         *service.PostService
	Engagements   *service.EngagementService
	Comments      *service.CommentService
	Trending      *service.TrendingService
	Messages      *service.MessageService
	Notifications *service.NotificationService
	Explore       *service.ExploreService
	Hub           *realtime.Hub
	Notifier      *realtime.Notifier
}

// New builds the fiber app with middleware and routes installed.
func New(deps Deps) *Server {
	app := fiber.New(fiber.Config{
		AppName:      deps.Config.App.Name,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		ErrorHandler: errorHandler,
	})

	s := &Server{
		app:           app,
		cfg:           deps.Config,
		db:            deps.DB,
		issuer:        deps.Issuer,
		users:         deps.Users,
		posts:         deps.Posts,
		engagements:   deps.Engagements,
		comments:      deps.Comments,
		trending:      deps.Trending,
		messages:      deps.Messages,
		notifications: deps.Notifications,
		explore:       deps.Explore,
		hub:           deps.Hub,
		notifier:      deps.Notifier,
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// App exposes the fiber app. Tests drive it with app.Test.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) setupMiddleware() {
	s.app.Use(recover.New())
	s.app.Use(requestid.New())
	s.app.Use(helmet.New())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: s.cfg.Server.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	s.app.Use(middleware.RequestLogging())

	if s.cfg.Tracing.Enabled {
		s.app.Use(middleware.Tracing())
	}

	prometheus := fiberprometheus.New(s.cfg.App.Name)
	prometheus.RegisterAt(s.app, "/metrics")
	s.app.Use(prometheus.Middleware)

	if s.cfg.RateLimit.Enabled {
		s.app.Use(middleware.RateLimit(s.cfg.RateLimit.Requests, s.cfg.RateLimit.Window))
	}
}

func (s *Server) setupRoutes() {
	s.app.Get("/health", s.handleHealth)

	api := s.app.Group("/api/v1")

	// Auth. "connect" is the wallet-flow name clients use; "login" is an
	// alias for tooling.
	api.Post("/auth/connect", s.handleLogin)
	api.Post("/auth/login", s.handleLogin)

	auth := middleware.AuthRequired(s.issuer)

	// Users and follow graph.
	api.Get("/users/me", auth, s.handleCurrentUser)
	api.Put("/users/me", auth, s.handleUpdateProfile)
	api.Get("/users/:id", s.handleGetUser)
	api.Get("/users/by-username/:username", s.handleGetUserByUsername)
	api.Post("/users/:id/follow", auth, s.handleFollow)
	api.Delete("/users/:id/follow", auth, s.handleUnfollow)
	api.Get("/users/:id/followers", s.handleFollowers)
	api.Get("/users/:id/following", s.handleFollowing)
	api.Get("/users/:id/posts", s.optionalAuth, s.handleUserPosts)
	api.Get("/users/:id/comments", s.handleUserComments)

	// Posts.
	api.Post("/posts", auth, s.handleCreatePost)
	api.Get("/posts", s.optionalAuth, s.handleListPosts)
	api.Get("/posts/feed", auth, s.handleFeed)
	api.Get("/posts/trending", s.handleTrending)
	api.Get("/posts/:id", s.optionalAuth, s.handleGetPost)
	api.Put("/posts/:id", auth, s.handleUpdatePost)
	api.Delete("/posts/:id", auth, s.handleDeletePost)

	// Engagement.
	api.Post("/posts/:id/vote", auth, s.handleVote)
	api.Post("/posts/:id/share", auth, s.handleShare)

	// Comments.
	api.Post("/posts/:id/comments", auth, s.handleCreateComment)
	api.Get("/posts/:id/comments", s.handleListComments)
	api.Delete("/comments/:id", auth, s.handleDeleteComment)

	// Messages.
	api.Post("/messages", auth, s.handleSendMessage)
	api.Get("/messages/partners", auth, s.handleMessagePartners)
	api.Get("/messages/unread-count", auth, s.handleMessageUnreadCount)
	api.Get("/messages/with/:id", auth, s.handleConversation)

	// Notifications.
	api.Get("/notifications", auth, s.handleListNotifications)
	api.Get("/notifications/unread-count", auth, s.handleNotificationUnreadCount)
	api.Put("/notifications/read-all", auth, s.handleMarkAllNotificationsRead)
	api.Put("/notifications/:id/read", auth, s.handleMarkNotificationRead)
	api.Put("/notifications/:id/unread", auth, s.handleMarkNotificationUnread)
	api.Delete("/notifications/:id", auth, s.handleDeleteNotification)

	// Explore.
	api.Get("/explore/search", s.optionalAuth, s.handleExploreSearch)
	api.Get("/explore/users", s.handleTrendingUsers)
	api.Get("/explore/hashtags", s.handleTrendingHashtags)
	api.Get("/explore/online", s.handleOnlineUsers)

	// Websocket.
	s.registerWebsocket()
}

// optionalAuth populates user_id when a valid token is present but never
// rejects. List endpoints use it for viewer-specific enrichment.
func (s *Server) optionalAuth(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	token := c.Query("token")
	if len(header) > 7 && header[:7] == "Bearer " {
		token = header[7:]
	}
	if token != "" {
		if userID, err := s.issuer.Parse(token); err == nil {
			c.Locals("user_id", userID)
		}
	}
	return c.Next()
}

// Listen starts serving. Blocks until shutdown.
func (s *Server) Listen() error {
	slog.Info("http server listening", "addr", s.cfg.Addr())
	return s.app.Listen(s.cfg.Addr())
}

// Shutdown drains HTTP connections and closes the websocket hub.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			slog.Warn("hub shutdown failed", "error", err)
		}
	}
	return s.app.ShutdownWithContext(ctx)
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if e, ok := err.(*fiber.Error); ok {
		fiberErr = e
		code = e.Code
	}
	if fiberErr != nil {
		return c.Status(code).JSON(fiber.Map{"error": fiberErr.Message})
	}
	return c.Status(code).JSON(fiber.Map{"error": "internal server error"})
}
