package model

import (
	"time"
)

// NotificationType identifies what a derived notification points at
type NotificationType string

const (
	NotificationTypeApproval NotificationType = "approval"
	NotificationTypeMessage  NotificationType = "message"
)

// Notification is computed on demand from pending approvals and unanswered
// messages. It is never stored, so Read is always false.
type Notification struct {
	ID        string           `json:"id"` // id of the approval or message it was derived from
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"created_at"`
	Read      bool             `json:"read"`
}

// PendingItems groups the raw records behind a reviewer's notifications
type PendingItems struct {
	Approvals []WeekApproval `json:"approvals"`
	Messages  []Message      `json:"messages"`
}
