// Command server runs the Liber API: REST surface, websocket fanout and
// the trending refresher.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"liber/internal/cache"
	"liber/internal/config"
	"liber/internal/database"
	"liber/internal/middleware"
	"liber/internal/observability"
	"liber/internal/realtime"
	"liber/internal/repository"
	"liber/internal/server"
	"liber/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration failed", "error", err)
		os.Exit(1)
	}

	observability.InitLogging(cfg.App.LogLevel, cfg.App.Environment)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingOptions{
		Enabled:      cfg.Tracing.Enabled,
		Exporter:     cfg.Tracing.Exporter,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRatio:  cfg.Tracing.SampleRatio,
		Environment:  cfg.App.Environment,
	})
	if err != nil {
		slog.Error("tracing init failed", "error", err)
		os.Exit(1)
	}

	// Redis is optional in development; the cache and realtime layers
	// degrade to single-instance behavior without it.
	if err := cache.InitRedis(cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		slog.Warn("redis unavailable, running without cache and pub/sub", "error", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	engagements := repository.NewEngagementRepository(db)
	comments := repository.NewCommentRepository(db)
	follows := repository.NewFollowRepository(db)
	notifications := repository.NewNotificationRepository(db)
	messages := repository.NewMessageRepository(db)

	notifier := realtime.NewNotifier(cache.GetClient())

	hub := realtime.NewHub(cache.GetClient(), realtime.PresenceConfig{
		LastSeenTTL:        cfg.Realtime.PresenceTTL,
		OfflineGracePeriod: cfg.Realtime.OfflineGrace,
		ReaperInterval:     cfg.Realtime.ReaperInterval,
	})
	hub.SetLimits(cfg.Realtime.MaxConnsPerUser, cfg.Realtime.MaxTotalConns)
	hub.Presence().SetCallbacks(
		func(userID uint) {
			notifier.Broadcast(ctx, realtime.Event{
				Type:    realtime.EventUserOnline,
				Payload: map[string]uint{"user_id": userID},
			})
		},
		func(userID uint) {
			notifier.Broadcast(ctx, realtime.Event{
				Type:    realtime.EventUserOffline,
				Payload: map[string]uint{"user_id": userID},
			})
		},
	)

	if err := hub.StartWiring(ctx, notifier); err != nil {
		slog.Warn("realtime subscriber not started", "error", err)
	}

	trending := service.NewTrendingService(posts, comments, notifier, service.TrendingConfig{
		WindowSize: cfg.Trending.WindowSize,
		ResultSize: cfg.Trending.ResultSize,
		DecayHours: cfg.Trending.DecayHours,
		MinDecay:   cfg.Trending.MinDecay,
		CacheTTL:   cfg.Trending.CacheTTL,
	})
	go trending.StartRefresher(ctx, cfg.Trending.RefreshEvery)

	srv := server.New(server.Deps{
		Config:        cfg,
		DB:            db,
		Issuer:        middleware.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer, cfg.Auth.Audience),
		Users:         service.NewUserService(users, follows, notifications, notifier),
		Posts:         service.NewPostService(posts, users),
		Engagements:   service.NewEngagementService(engagements, users, notifications, notifier),
		Comments:      service.NewCommentService(comments, engagements, users, notifications, notifier),
		Trending:      trending,
		Messages:      service.NewMessageService(messages, users, notifier),
		Notifications: service.NewNotificationService(notifications),
		Explore:       service.NewExploreService(users, posts),
		Hub:           hub,
		Notifier:      notifier,
	})

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down")
		shutdownCtx, done := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer done()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
		cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
		if err := cache.Close(); err != nil {
			slog.Warn("redis close failed", "error", err)
		}
	}()

	if err := srv.Listen(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
