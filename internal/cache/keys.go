package cache

import (
	"fmt"
	"time"
)

// Key inventory. Every cache key used by the service is built here so the
// namespace and TTLs stay in one place.
const (
	TTLTrending    = 1 * time.Minute
	TTLPost        = 5 * time.Minute
	TTLUserProfile = 10 * time.Minute
	TTLExplore     = 2 * time.Minute
	TTLPresence    = 5 * time.Minute
)

const (
	// KeyTrendingPosts holds the serialized trending window.
	KeyTrendingPosts = "trending:posts"

	// KeyOnlineUsers is the set of user IDs currently online.
	KeyOnlineUsers = "presence:online"
)

// KeyPost caches a single post by ID.
func KeyPost(postID uint) string {
	return fmt.Sprintf("post:%d", postID)
}

// KeyUserProfile caches a user profile by ID.
func KeyUserProfile(userID uint) string {
	return fmt.Sprintf("user:profile:%d", userID)
}

// KeyLastSeen holds a user's last activity timestamp with a TTL; its
// expiry is the presence reaper's signal that the user went stale.
func KeyLastSeen(userID uint) string {
	return fmt.Sprintf("presence:last_seen:%d", userID)
}

// KeyTrendingHashtags caches the hashtag leaderboard.
const KeyTrendingHashtags = "explore:hashtags"

// ChannelUser is the pub/sub channel carrying events for one user.
func ChannelUser(userID uint) string {
	return fmt.Sprintf("notify:user:%d", userID)
}

// ChannelBroadcast carries events fanned out to every connected client.
const ChannelBroadcast = "notify:broadcast"

// ChannelDM carries direct-message events for one recipient.
func ChannelDM(userID uint) string {
	return fmt.Sprintf("dm:user:%d", userID)
}

// PatternUserChannels matches all per-user notification channels.
const PatternUserChannels = "notify:user:*"

// PatternDMChannels matches all per-user DM channels.
const PatternDMChannels = "dm:user:*"
