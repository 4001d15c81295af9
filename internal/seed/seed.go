package seed

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"liber/internal/models"
)

// Options control the default seeding run.
type Options struct {
	NumUsers int
	NumPosts int
	// MaxDays spreads post timestamps back in time.
	MaxDays int
}

// Seeder orchestrates demo data creation. Vote and comment rows are
// written together with the matching post counters and author lifetime
// totals so the seeded database satisfies the same consistency the
// engagement service maintains at runtime.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	r       *rand.Rand
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB) *Seeder {
	// #nosec G404: weak randomness is fine for seeding
	return &Seeder{
		db:      db,
		factory: NewFactory(db),
		r:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAll deletes all seeded data. Child tables go first so foreign
// keys never dangle mid-wipe.
func (s *Seeder) ClearAll() error {
	slog.Info("clearing existing data")
	for _, table := range []string{
		"notifications", "messages", "comments", "post_votes",
		"follows", "posts", "users",
	} {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// SeedSocialMesh creates users and a follow graph among them. Each user
// follows roughly a quarter of the others.
func (s *Seeder) SeedSocialMesh(numUsers int) ([]*models.User, error) {
	users := make([]*models.User, 0, numUsers)
	for i := 0; i < numUsers; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, user)
	}
	slog.Info("seeded users", "count", len(users))

	follows := 0
	for _, follower := range users {
		for _, followee := range users {
			if follower.ID == followee.ID || s.r.Float32() >= 0.25 {
				continue
			}
			if err := s.factory.CreateFollow(follower, followee); err != nil {
				return nil, fmt.Errorf("create follow: %w", err)
			}
			follows++
		}
	}
	slog.Info("seeded follow graph", "edges", follows)

	return users, nil
}

// SeedEngagement creates posts with votes, shares and comments, keeping
// the denormalized counters in step with the rows.
func (s *Seeder) SeedEngagement(users []*models.User, numPosts int, maxDays int) ([]*models.Post, error) {
	if len(users) == 0 {
		return nil, fmt.Errorf("no users to attribute posts to")
	}

	posts := make([]*models.Post, 0, numPosts)
	for i := 0; i < numPosts; i++ {
		author := users[s.r.Intn(len(users))]
		posts = append(posts, s.factory.BuildPost(author, maxDays))
	}
	if err := s.factory.CreatePostsBatch(posts); err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	slog.Info("seeded posts", "count", len(posts))

	totals := make(map[uint]*models.TotalsDelta)
	delta := func(userID uint) *models.TotalsDelta {
		if totals[userID] == nil {
			totals[userID] = &models.TotalsDelta{}
		}
		return totals[userID]
	}
	for _, post := range posts {
		delta(post.UserID).Posts++
	}

	votes, comments := 0, 0
	for _, post := range posts {
		for _, voter := range users {
			if voter.ID == post.UserID || s.r.Float32() >= 0.3 {
				continue
			}
			direction := models.VoteUp
			if s.r.Float32() < 0.2 {
				direction = models.VoteDown
			}
			if err := s.factory.CreateVote(voter, post, direction); err != nil {
				return nil, fmt.Errorf("create vote: %w", err)
			}
			if direction == models.VoteUp {
				post.Upvotes++
				delta(post.UserID).Upvotes++
			} else {
				post.Downvotes++
				delta(post.UserID).Downvotes++
			}
			votes++
		}

		post.Shares = s.r.Intn(5)
		delta(post.UserID).Shares += post.Shares

		numComments := s.r.Intn(5)
		for i := 0; i < numComments; i++ {
			commenter := users[s.r.Intn(len(users))]
			if _, err := s.factory.CreateComment(commenter, post); err != nil {
				return nil, fmt.Errorf("create comment: %w", err)
			}
			delta(commenter.ID).Comments++
			comments++
		}

		err := s.db.Model(&models.Post{}).Where("id = ?", post.ID).Updates(map[string]interface{}{
			"upvotes":   post.Upvotes,
			"downvotes": post.Downvotes,
			"shares":    post.Shares,
		}).Error
		if err != nil {
			return nil, fmt.Errorf("update post counters: %w", err)
		}
	}
	slog.Info("seeded engagement", "votes", votes, "comments", comments)

	for userID, d := range totals {
		err := s.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
			"total_posts":     d.Posts,
			"total_comments":  d.Comments,
			"total_upvotes":   d.Upvotes,
			"total_downvotes": d.Downvotes,
			"total_shares":    d.Shares,
		}).Error
		if err != nil {
			return nil, fmt.Errorf("update user totals: %w", err)
		}
	}

	return posts, nil
}

// SeedConversations creates a few DM threads between random user pairs.
func (s *Seeder) SeedConversations(users []*models.User, numThreads int) error {
	if len(users) < 2 {
		return nil
	}
	for i := 0; i < numThreads; i++ {
		a := users[s.r.Intn(len(users))]
		b := users[s.r.Intn(len(users))]
		if a.ID == b.ID {
			continue
		}
		numMessages := s.r.Intn(8) + 2
		for j := 0; j < numMessages; j++ {
			sender, recipient := a, b
			if j%2 == 1 {
				sender, recipient = b, a
			}
			if _, err := s.factory.CreateMessage(sender, recipient); err != nil {
				return fmt.Errorf("create message: %w", err)
			}
		}
	}
	slog.Info("seeded conversations", "threads", numThreads)
	return nil
}

// Run executes a full default seeding pass.
func (s *Seeder) Run(opts Options) error {
	users, err := s.SeedSocialMesh(opts.NumUsers)
	if err != nil {
		return err
	}
	if _, err := s.SeedEngagement(users, opts.NumPosts, opts.MaxDays); err != nil {
		return err
	}
	return s.SeedConversations(users, opts.NumUsers/2)
}
