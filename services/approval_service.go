package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sahilchouksey/curriculum-tracker/database"
	"github.com/sahilchouksey/curriculum-tracker/model"
	"github.com/sahilchouksey/curriculum-tracker/utils/metrics"
	"go.uber.org/zap"
)

// ApprovalService runs the week sign-off workflow:
//
//	pending ──approve──▶ approved
//	   └─────reject───▶ rejected
//
// Both decisions are final. Approving also records the week on the mentee in the
// same transaction.
type ApprovalService struct {
	store     database.Storage
	dashboard *AnalyticsService
	log       *zap.Logger
	now       func() time.Time
}

func NewApprovalService(store database.Storage, log *zap.Logger) *ApprovalService {
	return &ApprovalService{store: store, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// InvalidatesDashboard makes approvals drop the cached analytics snapshot
func (s *ApprovalService) InvalidatesDashboard(a *AnalyticsService) {
	s.dashboard = a
}

// SubmitInput is a mentee's request to have a week signed off. MenteeID may be
// empty, in which case the caller is the mentee.
type SubmitInput struct {
	MenteeID   string
	WeekNumber int
	Comment    *string
}

// Submit creates a pending approval addressed to the mentee's current mentor
func (s *ApprovalService) Submit(ctx context.Context, actor *model.User, in SubmitInput) (*model.WeekApproval, error) {
	if !actor.Role.Can(model.ActionSubmitWeek) {
		return nil, forbidden("Not enough permissions")
	}
	menteeID := in.MenteeID
	if menteeID == "" {
		menteeID = actor.ID
	}
	if menteeID != actor.ID {
		return nil, forbidden("You can only submit approvals for yourself")
	}
	if !model.ValidWeek(in.WeekNumber) {
		return nil, invalid("Week number must be between 1 and %d", model.TotalWeeks)
	}

	mentee, err := s.store.GetUserByID(ctx, menteeID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("Mentee not found")
		}
		return nil, fmt.Errorf("failed to load mentee: %w", err)
	}
	if mentee.Role != model.RoleMentee {
		return nil, notFound("Mentee not found")
	}
	if mentee.MentorID == nil || *mentee.MentorID == "" {
		return nil, conflict("Mentee has no assigned mentor")
	}

	if _, err := s.store.FindApproval(ctx, menteeID, in.WeekNumber); err == nil {
		return nil, conflict("Approval for week %d already exists", in.WeekNumber)
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing approval: %w", err)
	}

	now := s.now()
	approval := &model.WeekApproval{
		MenteeID:    menteeID,
		MentorID:    *mentee.MentorID,
		WeekNumber:  in.WeekNumber,
		Status:      model.ApprovalStatusPending,
		SubmittedAt: now,
	}
	if in.Comment != nil && *in.Comment != "" {
		comment := *in.Comment
		approval.MenteeComment = &comment
		approval.MenteeCommentAt = &now
	}

	if err := s.store.CreateApproval(ctx, approval); err != nil {
		// the unique index catches a concurrent duplicate submission
		if errors.Is(err, database.ErrDuplicate) {
			return nil, conflict("Approval for week %d already exists", in.WeekNumber)
		}
		return nil, fmt.Errorf("failed to create approval: %w", err)
	}

	metrics.ObserveTransition(string(model.ApprovalStatusPending))
	s.log.Info("week submitted",
		zap.String("approval_id", approval.ID),
		zap.String("mentee_id", menteeID),
		zap.Int("week", in.WeekNumber))
	return approval, nil
}

// decide loads the approval inside tx and checks that actor may act on it
func (s *ApprovalService) decide(ctx context.Context, tx database.Storage, actor *model.User, id, verb string) (*model.WeekApproval, error) {
	if !actor.Role.Can(model.ActionReviewWeek) {
		return nil, forbidden("Not enough permissions")
	}
	approval, err := tx.GetApproval(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("Approval not found")
		}
		return nil, fmt.Errorf("failed to load approval: %w", err)
	}
	if approval.MentorID != actor.ID {
		return nil, forbidden("You can only %s your own mentees' weeks", verb)
	}
	if !approval.IsPending() {
		return nil, conflict("Approval is not pending")
	}
	return approval, nil
}

// Approve marks the approval approved and records the week on the mentee. Both
// writes commit together.
func (s *ApprovalService) Approve(ctx context.Context, actor *model.User, id string, feedback *string) (*model.WeekApproval, error) {
	var result *model.WeekApproval
	err := s.store.Transaction(ctx, func(tx database.Storage) error {
		approval, err := s.decide(ctx, tx, actor, id, "approve")
		if err != nil {
			return err
		}

		now := s.now()
		approval.Status = model.ApprovalStatusApproved
		approval.ApprovedAt = &now
		if feedback != nil {
			f := *feedback
			approval.MentorFeedback = &f
		}
		if err := tx.UpdateApproval(ctx, approval); err != nil {
			return fmt.Errorf("failed to update approval: %w", err)
		}

		mentee, err := tx.GetUserByID(ctx, approval.MenteeID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return notFound("Mentee not found")
			}
			return fmt.Errorf("failed to load mentee: %w", err)
		}
		mentee.CompleteWeek(approval.WeekNumber)
		if err := tx.UpdateUser(ctx, mentee); err != nil {
			return fmt.Errorf("failed to update mentee progress: %w", err)
		}

		result = approval
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dashboard.InvalidateDashboard(ctx)
	metrics.ObserveTransition(string(model.ApprovalStatusApproved))
	s.log.Info("week approved",
		zap.String("approval_id", result.ID),
		zap.String("mentee_id", result.MenteeID),
		zap.Int("week", result.WeekNumber))
	return result, nil
}

// Reject closes a pending approval without touching the mentee's progress
func (s *ApprovalService) Reject(ctx context.Context, actor *model.User, id string, feedback *string) (*model.WeekApproval, error) {
	var result *model.WeekApproval
	err := s.store.Transaction(ctx, func(tx database.Storage) error {
		approval, err := s.decide(ctx, tx, actor, id, "reject")
		if err != nil {
			return err
		}
		approval.Status = model.ApprovalStatusRejected
		if feedback != nil {
			f := *feedback
			approval.MentorFeedback = &f
		}
		if err := tx.UpdateApproval(ctx, approval); err != nil {
			return fmt.Errorf("failed to update approval: %w", err)
		}
		result = approval
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ObserveTransition(string(model.ApprovalStatusRejected))
	s.log.Info("week rejected",
		zap.String("approval_id", result.ID),
		zap.String("mentee_id", result.MenteeID),
		zap.Int("week", result.WeekNumber))
	return result, nil
}

// List returns the approvals visible to actor, newest submission first. Mentees see
// their own, mentors the ones addressed to them, admins everything. Parents see none.
func (s *ApprovalService) List(ctx context.Context, actor *model.User, status model.ApprovalStatus) ([]model.WeekApproval, error) {
	filter := database.ApprovalFilter{Status: status}
	switch {
	case actor.Role.Can(model.ActionViewAllApprovals):
	case actor.Role.Can(model.ActionReviewWeek):
		filter.MentorID = actor.ID
	case actor.Role.Can(model.ActionSubmitWeek):
		filter.MenteeID = actor.ID
	default:
		return []model.WeekApproval{}, nil
	}
	approvals, err := s.store.ListApprovals(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list approvals: %w", err)
	}
	return approvals, nil
}

// Pending lists the mentor's approvals still awaiting a decision
func (s *ApprovalService) Pending(ctx context.Context, actor *model.User) ([]model.WeekApproval, error) {
	if !actor.Role.Can(model.ActionReviewWeek) {
		return nil, forbidden("Not enough permissions")
	}
	approvals, err := s.store.ListApprovals(ctx, database.ApprovalFilter{
		MentorID: actor.ID,
		Status:   model.ApprovalStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending approvals: %w", err)
	}
	return approvals, nil
}

// Completed lists the mentor's approved weeks, most recently approved first
func (s *ApprovalService) Completed(ctx context.Context, actor *model.User) ([]model.WeekApproval, error) {
	if !actor.Role.Can(model.ActionReviewWeek) {
		return nil, forbidden("Not enough permissions")
	}
	approvals, err := s.store.ListApprovals(ctx, database.ApprovalFilter{
		MentorID:          actor.ID,
		Status:            model.ApprovalStatusApproved,
		OrderByApprovedAt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list completed approvals: %w", err)
	}
	return approvals, nil
}

// Get returns one approval to its mentee, its mentor or an admin
func (s *ApprovalService) Get(ctx context.Context, actor *model.User, id string) (*model.WeekApproval, error) {
	approval, err := s.store.GetApproval(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("Approval not found")
		}
		return nil, fmt.Errorf("failed to load approval: %w", err)
	}
	if !actor.Role.Can(model.ActionViewAllApprovals) &&
		approval.MenteeID != actor.ID && approval.MentorID != actor.ID {
		return nil, forbidden("Not enough permissions")
	}
	return approval, nil
}

// CountPending returns the system-wide pending backlog
func (s *ApprovalService) CountPending(ctx context.Context) (int64, error) {
	return s.store.CountApprovals(ctx, database.ApprovalFilter{Status: model.ApprovalStatusPending})
}
