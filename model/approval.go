package model

import (
	"time"
)

// ApprovalStatus is the review state of a submitted week
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// ParseApprovalStatus validates a status filter value
func ParseApprovalStatus(s string) (ApprovalStatus, bool) {
	switch ApprovalStatus(s) {
	case ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusRejected:
		return ApprovalStatus(s), true
	}
	return "", false
}

// WeekApproval is a mentee's request for their mentor to sign off one curriculum week.
// There is at most one per (mentee_id, week_number).
type WeekApproval struct {
	ID              string         `gorm:"type:uuid;primaryKey" json:"id"`
	MenteeID        string         `gorm:"type:uuid;not null;index" json:"mentee_id"`
	MentorID        string         `gorm:"type:uuid;not null;index" json:"mentor_id"`
	WeekNumber      int            `gorm:"not null" json:"week_number"`
	Status          ApprovalStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	SubmittedAt     time.Time      `gorm:"not null" json:"submitted_at"`
	MenteeComment   *string        `gorm:"type:text" json:"mentee_comment"`
	MenteeCommentAt *time.Time     `json:"mentee_comment_at"`
	MentorFeedback  *string        `gorm:"type:text" json:"mentor_feedback"`
	ApprovedAt      *time.Time     `json:"approved_at"`
}

// TableName specifies the table name for WeekApproval
func (WeekApproval) TableName() string {
	return "week_approvals"
}

// IsPending reports whether the approval still awaits a decision
func (a *WeekApproval) IsPending() bool {
	return a.Status == ApprovalStatusPending
}
