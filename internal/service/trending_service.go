package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"liber/internal/cache"
	"liber/internal/models"
	"liber/internal/observability"
	"liber/internal/realtime"
	"liber/internal/repository"
)

// TrendingPost pairs a post with its computed score.
type TrendingPost struct {
	Post  *models.Post `json:"post"`
	Score float64      `json:"score"`
}

// TrendingConfig tunes the scoring window.
type TrendingConfig struct {
	// WindowSize is how many recent posts enter the ranking.
	WindowSize int
	// ResultSize is how many ranked posts come out.
	ResultSize int
	// DecayHours is the age at which a post's score reaches the decay floor.
	DecayHours float64
	// MinDecay floors the age multiplier so old posts in the window
	// never score exactly zero.
	MinDecay float64
	CacheTTL time.Duration
}

// TrendingService ranks the most recent posts by engagement with linear
// age decay. Comment counts come from a grouped query; when that query
// fails the ranking degrades to zero comment weight instead of failing.
type TrendingService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	notifier *realtime.Notifier
	cfg      TrendingConfig

	// now is injectable for tests.
	now func() time.Time
}

// NewTrendingService creates a new trending service.
func NewTrendingService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	notifier *realtime.Notifier,
	cfg TrendingConfig,
) *TrendingService {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 50
	}
	if cfg.ResultSize <= 0 {
		cfg.ResultSize = 10
	}
	if cfg.DecayHours <= 0 {
		cfg.DecayHours = 24
	}
	if cfg.MinDecay <= 0 {
		cfg.MinDecay = 0.1
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	return &TrendingService{
		posts:    posts,
		comments: comments,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

// SetClock replaces the time source. Tests use it to pin post ages.
func (s *TrendingService) SetClock(now func() time.Time) {
	s.now = now
}

// Trending returns the ranked list, serving from cache when fresh.
func (s *TrendingService) Trending(ctx context.Context) ([]TrendingPost, error) {
	return cache.Aside(ctx, cache.KeyTrendingPosts, "trending", s.cfg.CacheTTL,
		func(ctx context.Context) ([]TrendingPost, error) {
			return s.Compute(ctx)
		})
}

// Compute recomputes the ranking from the database.
func (s *TrendingService) Compute(ctx context.Context) ([]TrendingPost, error) {
	timer := observability.TrendingDuration
	start := time.Now()
	defer func() { timer.Observe(time.Since(start).Seconds()) }()

	posts, err := s.posts.ListRecent(ctx, s.cfg.WindowSize)
	if err != nil {
		observability.TrendingRefreshes.WithLabelValues("error").Inc()
		return nil, models.NewInternalError(err)
	}
	if len(posts) == 0 {
		observability.TrendingRefreshes.WithLabelValues("ok").Inc()
		return []TrendingPost{}, nil
	}

	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	outcome := "ok"
	counts, err := s.comments.CountByPostIDs(ctx, ids)
	if err != nil {
		// Comments drop out of the score rather than failing the feed.
		outcome = "degraded"
		slog.Warn("comment aggregation failed, ranking without comment weight", "error", err)
		counts = nil
	}

	now := s.now()
	ranked := make([]TrendingPost, 0, len(posts))
	for _, p := range posts {
		p.CommentsCount = counts[p.ID]
		ranked = append(ranked, TrendingPost{
			Post:  p,
			Score: s.score(p, counts[p.ID], now),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		// Equal scores rank the newer post first.
		return ranked[i].Post.CreatedAt.After(ranked[j].Post.CreatedAt)
	})

	if len(ranked) > s.cfg.ResultSize {
		ranked = ranked[:s.cfg.ResultSize]
	}

	observability.TrendingRefreshes.WithLabelValues(outcome).Inc()
	return ranked, nil
}

// score is engagement weight times linear age decay:
//
//	(upvotes - downvotes + 2*shares + comments) * max(minDecay, 1 - age/decayHours)
func (s *TrendingService) score(p *models.Post, comments int64, now time.Time) float64 {
	raw := float64(p.Upvotes-p.Downvotes) + 2*float64(p.Shares) + float64(comments)

	ageHours := now.Sub(p.CreatedAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	decay := 1 - ageHours/s.cfg.DecayHours
	if decay < s.cfg.MinDecay {
		decay = s.cfg.MinDecay
	}

	return raw * decay
}

// StartRefresher recomputes and re-caches the ranking on an interval,
// broadcasting the update to connected clients. It blocks until ctx is
// cancelled; run it in a goroutine.
func (s *TrendingService) StartRefresher(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ranked, err := s.Compute(ctx)
			if err != nil {
				slog.Warn("trending refresh failed", "error", err)
				continue
			}
			cache.SetJSON(ctx, cache.KeyTrendingPosts, ranked, s.cfg.CacheTTL)
			if s.notifier != nil {
				s.notifier.Broadcast(ctx, realtime.Event{
					Type:    realtime.EventTrending,
					Payload: ranked,
				})
			}
		}
	}
}
