package model

import (
	"sort"
	"time"

	"github.com/lib/pq"
)

// User represents any account in the directory. Role-specific columns stay empty for
// the other roles.
type User struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Name           string    `gorm:"not null" json:"name"`
	Email          string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash   string    `gorm:"column:password;not null" json:"-"` // Never expose password in JSON
	Role           Role      `gorm:"type:varchar(20);not null;index" json:"role"`
	ProfilePicture string    `json:"profile_picture"`

	// Mentee
	MenteeNumber   string        `gorm:"type:varchar(20)" json:"mentee_number"`
	CurrentWeek    int           `gorm:"default:0" json:"current_week"`
	CompletedWeeks pq.Int64Array `gorm:"type:integer[]" json:"completed_weeks"`
	MentorID       *string       `gorm:"type:uuid;index" json:"mentor_id"`
	ParentEmail    string        `gorm:"index" json:"parent_email"`
	ParentName     string        `json:"parent_name"`
	ParentPhone    string        `json:"parent_phone"`

	// Mentor
	MembershipNumber string         `gorm:"type:varchar(20)" json:"membership_number"`
	Specialization   string         `json:"specialization"`
	Bio              string         `gorm:"type:text" json:"bio"`
	AssignedMentees  pq.StringArray `gorm:"type:text[]" json:"assigned_mentees"`

	// Parent
	Phone    string         `json:"phone"`
	Children pq.StringArray `gorm:"type:text[]" json:"children"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// HasCompleted reports whether the week is already in completed_weeks
func (u *User) HasCompleted(week int) bool {
	for _, w := range u.CompletedWeeks {
		if int(w) == week {
			return true
		}
	}
	return false
}

// CompleteWeek records an approved week. completed_weeks keeps set semantics and
// current_week never moves backwards.
func (u *User) CompleteWeek(week int) {
	if !u.HasCompleted(week) {
		u.CompletedWeeks = append(u.CompletedWeeks, int64(week))
		sort.Slice(u.CompletedWeeks, func(i, j int) bool { return u.CompletedWeeks[i] < u.CompletedWeeks[j] })
	}
	if u.CurrentWeek < 1 {
		u.CurrentWeek = 1
	}
	if week+1 > u.CurrentWeek {
		u.CurrentWeek = week + 1
	}
}

// AddMentee appends a mentee id to assigned_mentees if absent
func (u *User) AddMentee(menteeID string) {
	for _, id := range u.AssignedMentees {
		if id == menteeID {
			return
		}
	}
	u.AssignedMentees = append(u.AssignedMentees, menteeID)
}

// RemoveMentee drops a mentee id from assigned_mentees
func (u *User) RemoveMentee(menteeID string) {
	kept := make(pq.StringArray, 0, len(u.AssignedMentees))
	for _, id := range u.AssignedMentees {
		if id != menteeID {
			kept = append(kept, id)
		}
	}
	u.AssignedMentees = kept
}

// ProgressPercent is the share of the 36-week curriculum the mentee has completed
func (u *User) ProgressPercent() int {
	if TotalWeeks == 0 {
		return 0
	}
	return int(float64(len(u.CompletedWeeks))/float64(TotalWeeks)*100 + 0.5)
}
