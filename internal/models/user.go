// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a wallet-backed identity in Liber.
// WalletAddress is the EIP-55 checksummed form and is the login key;
// signature verification happens in the wallet provider, not here.
type User struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	WalletAddress string `gorm:"unique;not null" json:"wallet_address"`
	Username      string `gorm:"not null" json:"username"`
	DisplayName   string `json:"display_name"`
	Bio           string `json:"bio"`
	Avatar        string `json:"avatar"`
	Banner        string `json:"banner"`
	Location      string `json:"location"`
	Website       string `json:"website"`

	// Lifetime engagement totals. Maintained incrementally by the
	// engagement and comment services; never recomputed from scratch.
	TotalPosts     int `gorm:"default:0" json:"total_posts"`
	TotalComments  int `gorm:"default:0" json:"total_comments"`
	TotalUpvotes   int `gorm:"default:0" json:"total_upvotes"`
	TotalDownvotes int `gorm:"default:0" json:"total_downvotes"`
	TotalShares    int `gorm:"default:0" json:"total_shares"`

	// Opaque on-chain references; minting happens outside this service.
	NftTokenID  string `json:"nft_token_id,omitempty"`
	IsNFTMinted bool   `gorm:"default:false" json:"is_nft_minted"`

	// Computed at query time, not persisted.
	FollowerCount  int64 `gorm:"->" json:"follower_count"`
	FollowingCount int64 `gorm:"->" json:"following_count"`

	LastActive time.Time      `json:"last_active"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// ProfileCompletion returns a 0-100 score based on how many of the
// basic profile fields are filled in with non-placeholder values.
func (u *User) ProfileCompletion() int {
	completion := 0
	for _, field := range []string{u.Username, u.Bio, u.Avatar, u.Banner} {
		if field != "" && !containsPlaceholder(field) {
			completion += 25
		}
	}
	return completion
}

func containsPlaceholder(s string) bool {
	for i := 0; i+11 <= len(s); i++ {
		if s[i:i+11] == "placeholder" {
			return true
		}
	}
	return false
}
