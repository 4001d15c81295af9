package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is a piece of user content with engagement counters attached.
// Upvotes/Downvotes/Shares are persisted and only ever mutated through
// the engagement service's vote/share transitions; they never go below zero.
type Post struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Title    string `gorm:"not null" json:"title"`
	Content  string `gorm:"not null" json:"content"`
	ImageURL string `json:"image_url,omitempty"`
	UserID   uint   `gorm:"not null;index" json:"user_id"`
	User     User   `gorm:"foreignKey:UserID" json:"user"`

	Upvotes   int `gorm:"default:0" json:"upvotes"`
	Downvotes int `gorm:"default:0" json:"downvotes"`
	Shares    int `gorm:"default:0" json:"shares"`

	// Opaque on-chain references carried through from the client.
	NftTokenID string `json:"nft_token_id,omitempty"`
	IpfsHash   string `json:"ipfs_hash,omitempty"`

	// CommentsCount is not persisted; computed at query time
	CommentsCount int64 `gorm:"->" json:"comments_count"`
	// MyVote is the requesting user's current vote on this post
	// ("up", "down" or empty), computed at query time.
	MyVote string `gorm:"->" json:"my_vote,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
