package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"liber/internal/models"
	"liber/internal/repository"
)

// newEngagementService wires real sqlite-backed repositories so the
// state machine runs against actual rows, constraints and counters.
func newEngagementService(t *testing.T, db *gorm.DB) *EngagementService {
	t.Helper()
	return NewEngagementService(
		repository.NewEngagementRepository(db),
		repository.NewUserRepository(db),
		repository.NewNotificationRepository(db),
		nil,
	)
}

func postCounters(t *testing.T, db *gorm.DB, postID uint) (int, int, int) {
	t.Helper()
	var post models.Post
	require.NoError(t, db.First(&post, postID).Error)
	return post.Upvotes, post.Downvotes, post.Shares
}

func TestVoteFirstUpvote(t *testing.T) {
	db := testDB(t)
	svc := newEngagementService(t, db)
	voter := seedUser(t, db, "voter")
	post := seedPost(t, db, seedUser(t, db, "author"), "first")

	result, err := svc.Vote(ctxb(), voter.ID, post.ID, models.VoteUp)
	require.NoError(t, err)

	assert.Equal(t, models.VoteUp, result.MyVote)
	assert.Equal(t, 1, result.Upvotes)
	assert.Equal(t, 0, result.Downvotes)
}

func TestVoteToggleOff(t *testing.T) {
	db := testDB(t)
	svc := newEngagementService(t, db)
	voter := seedUser(t, db, "voter")
	post := seedPost(t, db, seedUser(t, db, "author"), "first")

	_, err := svc.Vote(ctxb(), voter.ID, post.ID, models.VoteUp)
	require.NoError(t, err)

	result, err := svc.Vote(ctxb(), voter.ID, post.ID, models.VoteUp)
	require.NoError(t, err)

	assert.Empty(t, result.MyVote, "same-direction vote removes the vote")
	assert.Equal(t, 0, result.Upvotes)

	up, down, _ := postCounters(t, db, post.ID)
	assert.Equal(t, 0, up)
	assert.Equal(t, 0, down)
}

func TestVoteSwitchDirection(t *testing.T) {
	db := testDB(t)
	svc := newEngagementService(t, db)
	voter := seedUser(t, db, "voter")
	post := seedPost(t, db, seedUser(t, db, "author"), "first")

	_, err := svc.Vote(ctxb(), voter.ID, post.ID, models.VoteUp)
	require.NoError(t, err)

	result, err := svc.Vote(ctxb(), voter.ID, post.ID, models.VoteDown)
	require.NoError(t, err)

	assert.Equal(t, models.VoteDown, result.MyVote)
	assert.Equal(t, 0, result.Upvotes, "switch removes the old direction")
	assert.Equal(t, 1, result.Downvotes, "and adds the new one in the same transition")
}

func TestVoteNeverDoubleCounts(t *testing.T) {
	db := testDB(t)
	svc := newEngagementService(t, db)
	voter := seedUser(t, db, "voter")
	post := seedPost(t, db, seedUser(t, db, "author"), "first")

	// A long sequence of flip-flops must leave exactly one vote.
	directions := []string{
		models.VoteUp, models.VoteDown, models.VoteUp,
		models.VoteDown, models.VoteDown, models.VoteDown,
	}
	for _, d := range directions {
		_, err := svc.Vote(ctxb(), voter.ID, post.ID, d)
		require.NoError(t, err)
	}

	up, down, _ := postCounters(t, db, post.ID)
	assert.Equal(t, 0, up)
	assert.Equal(t, 1, down)

	var votes int64
	require.NoError(t, db.Model(&models.PostVote{}).
		Where("user_id = ? AND post_id = ?", voter.ID, post.ID).
		Count(&votes).Error)
	assert.Equal(t, int64(1), votes)
}

func TestVoteInvalidDirection(t *testing.T) {
	db := testDB(t)
	svc := newEngagementService(t, db)
	voter := seedUser(t, db, "voter")
	post := seedPost(t, db, seedUser(t, db, "author"), "first")

	_, err := svc.Vote(ctxb(), voter.ID, post.ID, "sideways")
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestVoteMissingPost(t *testing.T) {
	db := testDB(t)
	svc := newEngagementService(t, db)
	voter := seedUser(t, db, "voter")

	_, err := svc.Vote(ctxb(), voter.ID, 9999, models.VoteUp)
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))
}

func TestVoteUpdatesAuthorLifetimeTotals(t *testing.T) {
	db := testDB(t)
	svc := newEngagementService(t, db)
	voter := seedUser(t, db, "voter")
	author := seedUser(t, db, "author")
	post := seedPost(t, db, author, "first")

	_, err := svc.Vote(ctxb(), voter.ID, post.ID, models.VoteUp)
	require.NoError(t, err)

	var got models.User
	require.NoError(t, db.First(&got, author.ID).Error)
	assert.Equal(t, 1, got.TotalUpvotes)

	// Toggle off rolls the lifetime total back down.
	_, err = svc.Vote(ctxb(), voter.ID, post.ID, models.VoteUp)
	require.NoError(t, err)
	require.NoError(t, db.First(&got, author.ID).Error)
	assert.Equal(t, 0, got.TotalUpvotes)
}

func TestVoteSurvivesAuthorTotalsFailure(t *testing.T) {
	db := testDB(t)
	svc := NewEngagementService(
		repository.NewEngagementRepository(db),
		&stubUserRepo{adjustTotalsFn: func(context.Context, uint, models.TotalsDelta) error {
			return assert.AnError
		}},
		repository.NewNotificationRepository(db),
		nil,
	)
	voter := seedUser(t, db, "voter")
	post := seedPost(t, db, seedUser(t, db, "author"), "first")

	result, err := svc.Vote(ctxb(), voter.ID, post.ID, models.VoteUp)
	require.NoError(t, err, "totals failure must not fail the vote")
	assert.Equal(t, 1, result.Upvotes)
}

func TestUpvoteNotifiesAuthor(t *testing.T) {
	db := testDB(t)
	svc := newEngagementService(t, db)
	voter := seedUser(t, db, "voter")
	author := seedUser(t, db, "author")
	post := seedPost(t, db, author, "first")

	_, err := svc.Vote(ctxb(), voter.ID, post.ID, models.VoteUp)
	require.NoError(t, err)

	var notifications []models.Notification
	require.NoError(t, db.Where("user_id = ?", author.ID).Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationLike, notifications[0].Kind)
	assert.Equal(t, voter.ID, notifications[0].FromUserID)
}

func TestSelfUpvoteDoesNotNotify(t *testing.T) {
	db := testDB(t)
	svc := newEngagementService(t, db)
	author := seedUser(t, db, "author")
	post := seedPost(t, db, author, "first")

	_, err := svc.Vote(ctxb(), author.ID, post.ID, models.VoteUp)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDownvoteDoesNotNotify(t *testing.T) {
	db := testDB(t)
	svc := newEngagementService(t, db)
	voter := seedUser(t, db, "voter")
	author := seedUser(t, db, "author")
	post := seedPost(t, db, author, "first")

	_, err := svc.Vote(ctxb(), voter.ID, post.ID, models.VoteDown)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestShareIsNotIdempotent(t *testing.T) {
	db := testDB(t)
	svc := newEngagementService(t, db)
	sharer := seedUser(t, db, "sharer")
	author := seedUser(t, db, "author")
	post := seedPost(t, db, author, "first")

	for i := 0; i < 3; i++ {
		_, err := svc.Share(ctxb(), sharer.ID, post.ID)
		require.NoError(t, err)
	}

	_, _, shares := postCounters(t, db, post.ID)
	assert.Equal(t, 3, shares, "every share counts, including repeats")

	var got models.User
	require.NoError(t, db.First(&got, author.ID).Error)
	assert.Equal(t, 3, got.TotalShares)
}

func TestShareMissingPost(t *testing.T) {
	db := testDB(t)
	svc := newEngagementService(t, db)
	sharer := seedUser(t, db, "sharer")

	_, err := svc.Share(ctxb(), sharer.ID, 9999)
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))
}

func TestVotesFromTwoUsersAreIndependent(t *testing.T) {
	db := testDB(t)
	svc := newEngagementService(t, db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	post := seedPost(t, db, seedUser(t, db, "author"), "first")

	_, err := svc.Vote(ctxb(), alice.ID, post.ID, models.VoteUp)
	require.NoError(t, err)
	_, err = svc.Vote(ctxb(), bob.ID, post.ID, models.VoteDown)
	require.NoError(t, err)

	up, down, _ := postCounters(t, db, post.ID)
	assert.Equal(t, 1, up)
	assert.Equal(t, 1, down)

	// Alice toggling off must not touch Bob's vote.
	_, err = svc.Vote(ctxb(), alice.ID, post.ID, models.VoteUp)
	require.NoError(t, err)
	up, down, _ = postCounters(t, db, post.ID)
	assert.Equal(t, 0, up)
	assert.Equal(t, 1, down)
}
