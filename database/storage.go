package database

import (
	"context"
	"errors"
	"time"

	"github.com/sahilchouksey/curriculum-tracker/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Storage defines the interface that all database implementations must satisfy
type Storage interface {
	// Lifecycle methods
	Init(ctx context.Context) error
	Close() error
	HealthCheck(ctx context.Context) error

	// Transaction runs fn against a store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(tx Storage) error) error

	UserRepository
	CurriculumRepository
	ApprovalRepository
	MessageRepository
	BlacklistRepository
}

// UserFilter narrows ListUsers. Zero values are ignored.
type UserFilter struct {
	Role        model.Role
	MentorID    string
	ParentEmail string
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context, filter UserFilter) ([]model.User, error)
	CountUsers(ctx context.Context, filter UserFilter) (int64, error)
}

type CurriculumRepository interface {
	// ListWeeks returns the catalog ordered by week. bloc 0 means every bloc.
	ListWeeks(ctx context.Context, bloc int) ([]model.WeekActivity, error)
	GetWeek(ctx context.Context, week int) (*model.WeekActivity, error)
	CreateWeek(ctx context.Context, activity *model.WeekActivity) error
	UpdateWeek(ctx context.Context, activity *model.WeekActivity) error
	DeleteWeek(ctx context.Context, week int) error
}

// ApprovalFilter narrows ListApprovals. Zero values are ignored.
type ApprovalFilter struct {
	MenteeID string
	MentorID string
	Status   model.ApprovalStatus
	// OrderByApprovedAt sorts by approved_at instead of submitted_at, newest first
	OrderByApprovedAt bool
	Limit             int
}

type ApprovalRepository interface {
	CreateApproval(ctx context.Context, approval *model.WeekApproval) error
	GetApproval(ctx context.Context, id string) (*model.WeekApproval, error)
	FindApproval(ctx context.Context, menteeID string, week int) (*model.WeekApproval, error)
	UpdateApproval(ctx context.Context, approval *model.WeekApproval) error
	ListApprovals(ctx context.Context, filter ApprovalFilter) ([]model.WeekApproval, error)
	CountApprovals(ctx context.Context, filter ApprovalFilter) (int64, error)
}

// MessageFilter narrows ListMessages. Participant matches either side of a message.
type MessageFilter struct {
	FromID      string
	ToID        string
	Participant string
	Status      model.MessageStatus
}

type MessageRepository interface {
	CreateMessage(ctx context.Context, message *model.Message) error
	GetMessage(ctx context.Context, id string) (*model.Message, error)
	UpdateMessage(ctx context.Context, message *model.Message) error
	// ListMessages returns matches newest first
	ListMessages(ctx context.Context, filter MessageFilter) ([]model.Message, error)
}

type BlacklistRepository interface {
	RevokeToken(ctx context.Context, entry *model.JWTTokenBlacklist) error
	IsTokenRevoked(ctx context.Context, tokenID string, now time.Time) (bool, error)
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}
