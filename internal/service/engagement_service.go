// Package service implements the application's business logic on top of
// the repository layer.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"liber/internal/models"
	"liber/internal/observability"
	"liber/internal/realtime"
	"liber/internal/repository"
)

// Vote transition kinds, used for metrics and the result payload.
const (
	transitionNew       = "new"
	transitionToggleOff = "toggle_off"
	transitionSwitch    = "switch"
)

// VoteResult describes the state after a vote transition.
type VoteResult struct {
	// MyVote is the caller's vote after the transition ("up", "down"
	// or empty after a toggle-off).
	MyVote    string `json:"my_vote"`
	Upvotes   int    `json:"upvotes"`
	Downvotes int    `json:"downvotes"`
}

// voteStripes bounds the per-post lock table. Transitions on the same
// post serialize; unrelated posts rarely contend.
const voteStripes = 64

// EngagementService owns vote and share transitions and the secondary
// effects they trigger (author lifetime totals, notifications, realtime
// fanout). The vote row change and the post counters commit atomically;
// everything after the commit degrades to a log line on failure.
type EngagementService struct {
	engagements   repository.EngagementRepository
	users         repository.UserRepository
	notifications repository.NotificationRepository
	notifier      *realtime.Notifier
	locks         [voteStripes]chan struct{}
}

// NewEngagementService creates a new engagement service. notifier may be
// nil in tests; fanout is then skipped.
func NewEngagementService(
	engagements repository.EngagementRepository,
	users repository.UserRepository,
	notifications repository.NotificationRepository,
	notifier *realtime.Notifier,
) *EngagementService {
	s := &EngagementService{
		engagements:   engagements,
		users:         users,
		notifications: notifications,
		notifier:      notifier,
	}
	for i := range s.locks {
		s.locks[i] = make(chan struct{}, 1)
	}
	return s
}

// lockPost serializes transitions per post stripe. Channel-based so the
// wait respects context cancellation.
func (s *EngagementService) lockPost(ctx context.Context, postID uint) (func(), error) {
	ch := s.locks[postID%voteStripes]
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Vote applies one vote action and returns the resulting state.
// Voting the current direction again removes the vote; voting the
// opposite direction switches it in a single transition.
func (s *EngagementService) Vote(ctx context.Context, userID, postID uint, direction string) (*VoteResult, error) {
	if !models.ValidVoteDirection(direction) {
		return nil, models.NewValidationError(fmt.Sprintf("invalid vote direction %q", direction))
	}

	unlock, err := s.lockPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	authorID, exists, err := s.engagements.PostExists(ctx, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !exists {
		return nil, models.NewNotFoundError("post", postID)
	}

	var (
		kind      string
		myVote    string
		upDelta   int
		downDelta int
	)

	err = s.engagements.WithinTransaction(ctx, func(tx repository.EngagementRepository) error {
		current, err := tx.GetVote(ctx, userID, postID)
		if err != nil {
			return err
		}

		switch {
		case current == nil:
			kind = transitionNew
			myVote = direction
			if err := tx.CreateVote(ctx, &models.PostVote{
				UserID:    userID,
				PostID:    postID,
				Direction: direction,
			}); err != nil {
				return err
			}
			upDelta, downDelta = deltaFor(direction, +1)

		case current.Direction == direction:
			kind = transitionToggleOff
			myVote = ""
			if err := tx.DeleteVote(ctx, current.ID); err != nil {
				return err
			}
			upDelta, downDelta = deltaFor(direction, -1)

		default:
			kind = transitionSwitch
			myVote = direction
			if err := tx.UpdateVoteDirection(ctx, current.ID, direction); err != nil {
				return err
			}
			oldUp, oldDown := deltaFor(current.Direction, -1)
			newUp, newDown := deltaFor(direction, +1)
			upDelta, downDelta = oldUp+newUp, oldDown+newDown
		}

		return tx.AdjustPostCounters(ctx, postID, upDelta, downDelta)
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	observability.VoteTransitions.WithLabelValues(direction, kind).Inc()

	// Author lifetime totals mirror the post counter deltas. A failure
	// here never unwinds the committed vote.
	if err := s.users.AdjustTotals(ctx, authorID, models.TotalsDelta{
		Upvotes:   upDelta,
		Downvotes: downDelta,
	}); err != nil {
		observability.SecondaryUpdateFailures.WithLabelValues("author_totals").Inc()
		slog.Warn("author totals update failed after vote",
			"author_id", authorID, "post_id", postID, "error", err)
	}

	if kind == transitionNew && direction == models.VoteUp && userID != authorID {
		s.notifyLike(ctx, userID, authorID, postID)
	}

	result := &VoteResult{MyVote: myVote}
	if post, err := s.currentCounters(ctx, postID); err == nil {
		result.Upvotes = post.Upvotes
		result.Downvotes = post.Downvotes
		s.broadcastEngagement(ctx, post)
	} else {
		slog.Warn("counter readback failed after vote", "post_id", postID, "error", err)
	}

	return result, nil
}

// Share records a share. Shares are not idempotent; every call counts.
func (s *EngagementService) Share(ctx context.Context, userID, postID uint) (*models.Post, error) {
	authorID, exists, err := s.engagements.PostExists(ctx, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !exists {
		return nil, models.NewNotFoundError("post", postID)
	}

	if err := s.engagements.IncrementShares(ctx, postID); err != nil {
		return nil, models.NewInternalError(err)
	}
	observability.SharesRecorded.Inc()

	if err := s.users.AdjustTotals(ctx, authorID, models.TotalsDelta{Shares: 1}); err != nil {
		observability.SecondaryUpdateFailures.WithLabelValues("author_totals").Inc()
		slog.Warn("author totals update failed after share",
			"author_id", authorID, "post_id", postID, "error", err)
	}

	slog.Debug("share recorded", "user_id", userID, "post_id", postID)

	post, err := s.currentCounters(ctx, postID)
	if err != nil {
		slog.Warn("counter readback failed after share", "post_id", postID, "error", err)
		return nil, nil
	}
	s.broadcastEngagement(ctx, post)
	return post, nil
}

// deltaFor maps a direction and sign onto (upDelta, downDelta).
func deltaFor(direction string, sign int) (int, int) {
	if direction == models.VoteUp {
		return sign, 0
	}
	return 0, sign
}

func (s *EngagementService) currentCounters(ctx context.Context, postID uint) (*models.Post, error) {
	return s.engagements.ReadCounters(ctx, postID)
}

// notifyLike persists the notification first and only then pushes it
// over the realtime channel.
func (s *EngagementService) notifyLike(ctx context.Context, actorID, authorID, postID uint) {
	pid := postID
	n := &models.Notification{
		UserID:     authorID,
		Kind:       models.NotificationLike,
		FromUserID: actorID,
		PostID:     &pid,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		observability.SecondaryUpdateFailures.WithLabelValues("notification").Inc()
		slog.Warn("like notification persist failed",
			"author_id", authorID, "post_id", postID, "error", err)
		return
	}
	if s.notifier != nil {
		s.notifier.NotifyUser(ctx, authorID, realtime.Event{
			Type:    realtime.EventNotification,
			Payload: n,
		})
	}
}

func (s *EngagementService) broadcastEngagement(ctx context.Context, post *models.Post) {
	if s.notifier == nil || post == nil {
		return
	}
	s.notifier.Broadcast(ctx, realtime.Event{
		Type: realtime.EventEngagement,
		Payload: map[string]interface{}{
			"post_id":   post.ID,
			"upvotes":   post.Upvotes,
			"downvotes": post.Downvotes,
			"shares":    post.Shares,
		},
	})
}
