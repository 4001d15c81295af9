package service

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"liber/internal/cache"
	"liber/internal/models"
	"liber/internal/repository"
)

// SearchResults bundles the mixed results of an explore search.
type SearchResults struct {
	Users []*models.User `json:"users"`
	Posts []*models.Post `json:"posts"`
}

// HashtagCount is one entry of the hashtag leaderboard.
type HashtagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// ExploreService powers discovery: search, trending authors and the
// hashtag leaderboard.
type ExploreService struct {
	users repository.UserRepository
	posts repository.PostRepository
}

// NewExploreService creates a new explore service.
func NewExploreService(users repository.UserRepository, posts repository.PostRepository) *ExploreService {
	return &ExploreService{users: users, posts: posts}
}

// Search looks up users and posts matching the query.
func (s *ExploreService) Search(ctx context.Context, query string, limit int, viewerID uint) (*SearchResults, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("search query is required")
	}
	limit = clampLimit(limit)

	users, err := s.users.Search(ctx, query, limit, 0)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	posts, err := s.posts.Search(ctx, query, limit, 0, viewerID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	return &SearchResults{Users: users, Posts: posts}, nil
}

// TrendingUsers returns authors ranked by follower count, breaking ties
// on lifetime engagement.
func (s *ExploreService) TrendingUsers(ctx context.Context, limit int) ([]*models.User, error) {
	users, err := s.users.TrendingAuthors(ctx, clampLimit(limit))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// TrendingHashtags extracts hashtags from the recent post window and
// returns the most frequent ones. The leaderboard is cached.
func (s *ExploreService) TrendingHashtags(ctx context.Context, limit int) ([]HashtagCount, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	tags, err := cache.Aside(ctx, cache.KeyTrendingHashtags, "explore", cache.TTLExplore,
		func(ctx context.Context) ([]HashtagCount, error) {
			posts, err := s.posts.ListRecent(ctx, 200)
			if err != nil {
				return nil, err
			}

			counts := map[string]int{}
			for _, p := range posts {
				for _, tag := range ExtractHashtags(p.Content) {
					counts[tag]++
				}
			}

			ranked := make([]HashtagCount, 0, len(counts))
			for tag, count := range counts {
				ranked = append(ranked, HashtagCount{Tag: tag, Count: count})
			}
			sort.Slice(ranked, func(i, j int) bool {
				if ranked[i].Count != ranked[j].Count {
					return ranked[i].Count > ranked[j].Count
				}
				return ranked[i].Tag < ranked[j].Tag
			})
			return ranked, nil
		})
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	if len(tags) > limit {
		tags = tags[:limit]
	}
	return tags, nil
}

// ExtractHashtags returns the lowercased hashtags found in text, without
// the leading '#', deduplicated in order of first appearance.
func ExtractHashtags(text string) []string {
	var tags []string
	seen := map[string]struct{}{}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '#' {
			continue
		}
		j := i + 1
		for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '_') {
			j++
		}
		if j == i+1 {
			continue
		}
		tag := strings.ToLower(string(runes[i+1 : j]))
		if _, dup := seen[tag]; !dup {
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
		i = j - 1
	}
	return tags
}
