package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"liber/internal/config"
	"liber/internal/database"
	"liber/internal/middleware"
	"liber/internal/realtime"
	"liber/internal/repository"
	"liber/internal/service"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_fk=1"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	cfg := &config.Config{
		App:    config.AppConfig{Name: "liber-test", Environment: "test"},
		Server: config.ServerConfig{Port: 8080, CORSOrigins: "*"},
		Auth: config.AuthConfig{
			JWTSecret: "test-secret-test-secret-test-secret",
			TokenTTL:  time.Hour,
			Issuer:    "liber-api",
			Audience:  "liber-client",
		},
		Trending: config.TrendingConfig{
			WindowSize: 50, ResultSize: 10, DecayHours: 24, MinDecay: 0.1, CacheTTL: time.Minute,
		},
	}

	issuer := middleware.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer, cfg.Auth.Audience)

	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	engagements := repository.NewEngagementRepository(db)
	comments := repository.NewCommentRepository(db)
	follows := repository.NewFollowRepository(db)
	notifications := repository.NewNotificationRepository(db)
	messages := repository.NewMessageRepository(db)

	hub := realtime.NewHub(nil, realtime.PresenceConfig{})
	t.Cleanup(func() { hub.Presence().Stop() })

	return New(Deps{
		Config:        cfg,
		DB:            db,
		Issuer:        issuer,
		Users:         service.NewUserService(users, follows, notifications, nil),
		Posts:         service.NewPostService(posts, users),
		Engagements:   service.NewEngagementService(engagements, users, notifications, nil),
		Comments:      service.NewCommentService(comments, engagements, users, notifications, nil),
		Trending:      service.NewTrendingService(posts, comments, nil, service.TrendingConfig{}),
		Messages:      service.NewMessageService(messages, users, nil),
		Notifications: service.NewNotificationService(notifications),
		Explore:       service.NewExploreService(users, posts),
		Hub:           hub,
	})
}

func doJSON(t *testing.T, s *Server, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, dest interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// login registers a wallet and returns the session token and user ID.
func login(t *testing.T, s *Server, wallet, username string) (string, uint) {
	t.Helper()

	resp := doJSON(t, s, "POST", "/api/v1/auth/login", "", map[string]string{
		"wallet_address": wallet,
		"username":       username,
	})
	require.Contains(t, []int{http.StatusOK, http.StatusCreated}, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	decode(t, resp, &body)
	require.NotEmpty(t, body.Token)
	return body.Token, body.User.ID
}

const (
	walletAlice = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	walletBob   = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
)
