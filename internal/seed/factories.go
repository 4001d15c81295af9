// Package seed creates demo and test data. Development tooling only;
// nothing here runs in the serving path.
package seed

import (
	"encoding/hex"
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"

	"liber/internal/models"
	"liber/internal/wallet"
)

// Factory builds domain entities and persists them. Thin helper used by
// the seeder and by preset application.
type Factory struct {
	db *gorm.DB
	r  *rand.Rand
}

// NewFactory creates a Factory bound to db.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	// #nosec G404: weak randomness is fine for seeding
	return &Factory{db: db, r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// randomWallet generates a syntactically valid checksummed address.
// The keys behind these addresses do not exist; they only need to pass
// validation at login.
func (f *Factory) randomWallet() string {
	raw := make([]byte, 20)
	f.r.Read(raw)
	addr, err := wallet.Normalize("0x" + hex.EncodeToString(raw))
	if err != nil {
		// cannot happen for well-formed hex, but keep the seeder honest
		panic(fmt.Sprintf("seed: generated invalid wallet: %v", err))
	}
	return addr
}

// CreateUser constructs and persists a sample user. Optional override
// functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		WalletAddress: f.randomWallet(),
		Username:      fmt.Sprintf("%s%d", gofakeit.Username(), gofakeit.Number(100, 999)),
		DisplayName:   gofakeit.Name(),
		Bio:           gofakeit.Sentence(10),
		Avatar:        fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		LastActive:    time.Now(),
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// hashtagPool feeds generated post content so the explore hashtag
// leaderboard has something to rank.
var hashtagPool = []string{
	"#web3", "#gm", "#defi", "#nft", "#dao", "#onchain", "#buidl",
	"#crypto", "#eth", "#liber", "#decentralize", "#airdrop",
}

// BuildPost constructs a post without persisting it. The created_at is
// spread over maxDays back so trending decay has something to bite on.
func (f *Factory) BuildPost(user *models.User, maxDays int, overrides ...func(*models.Post)) *models.Post {
	if maxDays <= 0 {
		maxDays = 30
	}

	content := gofakeit.Paragraph(1, 3, 8, "\n")
	// roughly half the posts carry hashtags
	if f.r.Intn(2) == 0 {
		n := f.r.Intn(3) + 1
		for i := 0; i < n; i++ {
			content += " " + hashtagPool[f.r.Intn(len(hashtagPool))]
		}
	}

	post := &models.Post{
		Title:   gofakeit.Sentence(5),
		Content: content,
		UserID:  user.ID,
	}

	if f.r.Float32() < 0.3 {
		post.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/600", gofakeit.UUID())
	}
	if f.r.Float32() < 0.1 {
		post.NftTokenID = gofakeit.UUID()
		post.IpfsHash = "Qm" + gofakeit.LetterN(44)
	}

	back := time.Duration(f.r.Intn(maxDays*24*60)) * time.Minute
	post.CreatedAt = time.Now().Add(-back)

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists posts in one insert.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return f.db.Create(&posts).Error
}

// CreateComment persists a comment by user on post.
func (f *Factory) CreateComment(user *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		Content: gofakeit.Sentence(8),
		UserID:  user.ID,
		PostID:  post.ID,
	}

	for _, override := range overrides {
		override(comment)
	}

	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateVote persists a vote row. Counter maintenance is the seeder's
// job; the factory only writes the row.
func (f *Factory) CreateVote(user *models.User, post *models.Post, direction string) error {
	return f.db.Create(&models.PostVote{
		UserID:    user.ID,
		PostID:    post.ID,
		Direction: direction,
	}).Error
}

// CreateFollow persists a follow edge.
func (f *Factory) CreateFollow(follower, followee *models.User) error {
	return f.db.Create(&models.Follow{
		FollowerID: follower.ID,
		FolloweeID: followee.ID,
	}).Error
}

// CreateMessage persists a DM from sender to recipient.
func (f *Factory) CreateMessage(sender, recipient *models.User, overrides ...func(*models.Message)) (*models.Message, error) {
	message := &models.Message{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
		Content:     gofakeit.Sentence(10),
	}

	for _, override := range overrides {
		override(message)
	}

	if err := f.db.Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}
