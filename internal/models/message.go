package models

import (
	"time"

	"gorm.io/gorm"
)

// Message is a direct message between two users. There is no conversation
// entity; a conversation is the set of messages exchanged by a pair of
// users, reconstructed by query.
type Message struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	SenderID    uint       `gorm:"not null;index" json:"sender_id"`
	Sender      *User      `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	RecipientID uint       `gorm:"not null;index" json:"recipient_id"`
	Recipient   *User      `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	Read        bool       `gorm:"default:false" json:"read"`
	ReadAt      *time.Time `json:"read_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
