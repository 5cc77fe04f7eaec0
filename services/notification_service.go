package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/sahilchouksey/curriculum-tracker/database"
	"github.com/sahilchouksey/curriculum-tracker/model"
	"go.uber.org/zap"
)

// recentApprovalsLimit caps how many approved weeks a mentee is reminded of
const recentApprovalsLimit = 5

// NotificationService derives notifications from live approval and message state.
// Nothing is persisted.
type NotificationService struct {
	store database.Storage
	log   *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(store database.Storage, log *zap.Logger) *NotificationService {
	return &NotificationService{store: store, log: log}
}

// List builds the actor's notifications, newest first
func (s *NotificationService) List(ctx context.Context, actor *model.User) ([]model.Notification, error) {
	names := newNameResolver(s.store)
	notifications := []model.Notification{}

	switch actor.Role {
	case model.RoleMentor, model.RoleAdmin:
		approvalFilter := database.ApprovalFilter{Status: model.ApprovalStatusPending}
		messageFilter := database.MessageFilter{Status: model.MessageStatusAwaitingResponse}
		if !actor.Role.Can(model.ActionViewAllApprovals) {
			approvalFilter.MentorID = actor.ID
			messageFilter.ToID = actor.ID
		}

		pending, err := s.store.ListApprovals(ctx, approvalFilter)
		if err != nil {
			return nil, fmt.Errorf("failed to list pending approvals: %w", err)
		}
		for _, a := range pending {
			name, err := names.name(ctx, a.MenteeID)
			if err != nil {
				return nil, err
			}
			notifications = append(notifications, model.Notification{
				ID:        a.ID,
				Type:      model.NotificationTypeApproval,
				Title:     "Week approval pending",
				Message:   fmt.Sprintf("Week %d from %s needs approval", a.WeekNumber, name),
				CreatedAt: a.SubmittedAt,
			})
		}

		messages, err := s.unanswered(ctx, names, messageFilter)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, messages...)

	case model.RoleParent:
		messages, err := s.unanswered(ctx, names, database.MessageFilter{
			ToID:   actor.ID,
			Status: model.MessageStatusAwaitingResponse,
		})
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, messages...)

	case model.RoleMentee:
		approved, err := s.store.ListApprovals(ctx, database.ApprovalFilter{
			MenteeID:          actor.ID,
			Status:            model.ApprovalStatusApproved,
			OrderByApprovedAt: true,
			Limit:             recentApprovalsLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list approved weeks: %w", err)
		}
		for _, a := range approved {
			at := a.SubmittedAt
			if a.ApprovedAt != nil {
				at = *a.ApprovedAt
			}
			notifications = append(notifications, model.Notification{
				ID:        a.ID,
				Type:      model.NotificationTypeApproval,
				Title:     "Week approved",
				Message:   fmt.Sprintf("Week %d has been approved", a.WeekNumber),
				CreatedAt: at,
			})
		}
	}

	sort.SliceStable(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
	return notifications, nil
}

func (s *NotificationService) unanswered(ctx context.Context, names *nameResolver, filter database.MessageFilter) ([]model.Notification, error) {
	messages, err := s.store.ListMessages(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	out := make([]model.Notification, 0, len(messages))
	for _, m := range messages {
		name, err := names.name(ctx, m.FromID)
		if err != nil {
			return nil, err
		}
		out = append(out, model.Notification{
			ID:        m.ID,
			Type:      model.NotificationTypeMessage,
			Title:     "New message from " + name,
			Message:   m.Subject,
			CreatedAt: m.CreatedAt,
		})
	}
	return out, nil
}

// Pending returns the raw records a reviewer still has to act on. Mentors get their
// own, admins everything, other roles empty lists.
func (s *NotificationService) Pending(ctx context.Context, actor *model.User) (*model.PendingItems, error) {
	items := &model.PendingItems{Approvals: []model.WeekApproval{}, Messages: []model.Message{}}

	approvalFilter := database.ApprovalFilter{Status: model.ApprovalStatusPending}
	messageFilter := database.MessageFilter{Status: model.MessageStatusAwaitingResponse}
	switch {
	case actor.Role.Can(model.ActionViewAllApprovals):
	case actor.Role.Can(model.ActionReviewWeek):
		approvalFilter.MentorID = actor.ID
		messageFilter.ToID = actor.ID
	default:
		return items, nil
	}

	approvals, err := s.store.ListApprovals(ctx, approvalFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending approvals: %w", err)
	}
	messages, err := s.store.ListMessages(ctx, messageFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending messages: %w", err)
	}
	items.Approvals = append(items.Approvals, approvals...)
	items.Messages = append(items.Messages, messages...)
	return items, nil
}
