package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification kinds.
const (
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationFollow  = "follow"
	NotificationRepost  = "repost"
)

// Notification is a persisted event addressed to one user. The triggering
// action creates it and then pushes it over the realtime channel
// (persist first, notify second); only the read flag mutates afterwards.
type Notification struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	UserID     uint   `gorm:"not null;index" json:"user_id"` // recipient
	Kind       string `gorm:"not null" json:"kind"`
	FromUserID uint   `gorm:"index" json:"from_user_id"` // actor
	FromUser   *User  `gorm:"foreignKey:FromUserID" json:"from_user,omitempty"`
	PostID     *uint  `json:"post_id,omitempty"`
	Post       *Post  `gorm:"foreignKey:PostID" json:"post,omitempty"`
	Content    string `json:"content"`
	Read       bool   `gorm:"default:false" json:"read"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ValidNotificationKind reports whether k is a known notification kind.
func ValidNotificationKind(k string) bool {
	switch k {
	case NotificationLike, NotificationComment, NotificationFollow, NotificationRepost:
		return true
	}
	return false
}
