package model

import (
	"strings"
	"time"
)

// MessageStatus tracks whether a message still needs an answer
type MessageStatus string

const (
	MessageStatusAwaitingResponse MessageStatus = "awaiting_response"
	MessageStatusResponded        MessageStatus = "responded"
	MessageStatusSent             MessageStatus = "sent"
)

const (
	MessageTypeParentToMentor = "parent_to_mentor"
	MessageTypeMentorToParent = "mentor_to_parent"
)

// UnknownUserName is shown when a message counterpart no longer exists
const UnknownUserName = "Unknown"

// ReplyType inverts the direction tag for a reply. Tags other than the
// parent/mentor pair pass through unchanged.
func ReplyType(original string) string {
	switch {
	case strings.Contains(original, MessageTypeParentToMentor):
		return MessageTypeMentorToParent
	case strings.Contains(original, MessageTypeMentorToParent):
		return MessageTypeParentToMentor
	}
	return original
}

// Message is a directed note between two users. Replies point at the original
// through ParentMessageID, one level deep.
type Message struct {
	ID              string        `gorm:"type:uuid;primaryKey" json:"id"`
	FromID          string        `gorm:"type:uuid;not null;index" json:"from_id"`
	ToID            string        `gorm:"type:uuid;not null;index" json:"to_id"`
	Subject         string        `gorm:"not null" json:"subject"`
	Content         string        `gorm:"type:text;not null" json:"content"`
	Type            string        `gorm:"type:varchar(50);not null" json:"type"`
	Status          MessageStatus `gorm:"type:varchar(30);not null;default:'awaiting_response';index" json:"status"`
	WeekNumber      *int          `json:"week_number"`
	ParentMessageID *string       `gorm:"type:uuid;index" json:"parent_message_id"`
	Response        *string       `gorm:"type:text" json:"response"`
	RespondedAt     *time.Time    `json:"responded_at"`
	CreatedAt       time.Time     `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for Message
func (Message) TableName() string {
	return "messages"
}

// MessageResponse is a message with both counterpart names resolved
type MessageResponse struct {
	Message
	FromName string `json:"from_name"`
	ToName   string `json:"to_name"`
}
