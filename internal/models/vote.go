package models

import "time"

// Vote directions. A (user, post) pair has at most one PostVote row,
// so a user can never be counted in both directions at once.
const (
	VoteUp   = "up"
	VoteDown = "down"
)

// PostVote records a user's current vote on a post. It is the relational
// form of the upvotedBy/downvotedBy membership sets: presence of a row is
// membership, Direction says which set.
type PostVote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_vote_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_vote_user_post" json:"post_id"`
	Direction string    `gorm:"not null" json:"direction"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Post Post `gorm:"foreignKey:PostID" json:"post,omitempty"`
}

// ValidVoteDirection reports whether d is one of the two vote directions.
func ValidVoteDirection(d string) bool {
	return d == VoteUp || d == VoteDown
}
