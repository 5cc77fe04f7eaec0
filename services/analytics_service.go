package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sahilchouksey/curriculum-tracker/database"
	"github.com/sahilchouksey/curriculum-tracker/model"
	"go.uber.org/zap"
)

const dashboardCacheKey = "analytics:dashboard"

// JSONCache is the slice of the redis cache the dashboard snapshot needs
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// AnalyticsService handles analytics and reporting
type AnalyticsService struct {
	store    database.Storage
	cache    JSONCache
	cacheTTL time.Duration
	log      *zap.Logger
}

// NewAnalyticsService creates a new analytics service. cache may be nil.
func NewAnalyticsService(store database.Storage, cache JSONCache, cacheTTL time.Duration, log *zap.Logger) *AnalyticsService {
	return &AnalyticsService{store: store, cache: cache, cacheTTL: cacheTTL, log: log}
}

type BlocCompletion struct {
	Bloc      int    `json:"bloc"`
	Name      string `json:"name"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

type WeeklyProgress struct {
	Week        int `json:"week"`
	Completions int `json:"completions"`
}

// DashboardStats represents overall platform statistics
type DashboardStats struct {
	TotalUsers        int64            `json:"total_users"`
	Mentees           int64            `json:"mentees"`
	Mentors           int64            `json:"mentors"`
	Parents           int64            `json:"parents"`
	CompletedWeeks    int              `json:"completed_weeks"`
	BlocCompletion    []BlocCompletion `json:"bloc_completion"`
	WeeklyProgress    []WeeklyProgress `json:"weekly_progress"`
	MentorMenteeRatio float64          `json:"mentor_mentee_ratio"`
	AverageProgress   int              `json:"average_progress"`
}

// MentorStats summarises one mentor's caseload
type MentorStats struct {
	AssignedMentees     int   `json:"assigned_mentees"`
	PendingApprovals    int64 `json:"pending_approvals"`
	CompletedApprovals  int64 `json:"completed_approvals"`
	TotalCompletedWeeks int   `json:"total_completed_weeks"`
}

// Dashboard aggregates progress across every mentee
func (s *AnalyticsService) Dashboard(ctx context.Context, actor *model.User) (*DashboardStats, error) {
	if !actor.Role.Can(model.ActionViewDashboard) {
		return nil, forbidden("Not enough permissions")
	}

	if s.cache != nil {
		var cached DashboardStats
		if err := s.cache.GetJSON(ctx, dashboardCacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	stats, err := s.computeDashboard(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.SetJSON(ctx, dashboardCacheKey, stats, s.cacheTTL); err != nil {
			s.log.Warn("failed to cache dashboard", zap.Error(err))
		}
	}
	return stats, nil
}

// InvalidateDashboard drops the cached snapshot. Writers call it after committing
// changes to users or progress. Safe on a nil service.
func (s *AnalyticsService) InvalidateDashboard(ctx context.Context) {
	if s == nil || s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, dashboardCacheKey); err != nil {
		s.log.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

func (s *AnalyticsService) computeDashboard(ctx context.Context) (*DashboardStats, error) {
	total, err := s.store.CountUsers(ctx, database.UserFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	mentors, err := s.store.CountUsers(ctx, database.UserFilter{Role: model.RoleMentor})
	if err != nil {
		return nil, fmt.Errorf("failed to count mentors: %w", err)
	}
	parents, err := s.store.CountUsers(ctx, database.UserFilter{Role: model.RoleParent})
	if err != nil {
		return nil, fmt.Errorf("failed to count parents: %w", err)
	}
	mentees, err := s.store.ListUsers(ctx, database.UserFilter{Role: model.RoleMentee})
	if err != nil {
		return nil, fmt.Errorf("failed to list mentees: %w", err)
	}

	return BuildDashboard(total, int64(len(mentees)), mentors, parents, mentees), nil
}

// BuildDashboard computes the dashboard figures from the mentee records
func BuildDashboard(totalUsers, menteeCount, mentorCount, parentCount int64, mentees []model.User) *DashboardStats {
	stats := &DashboardStats{
		TotalUsers:     totalUsers,
		Mentees:        menteeCount,
		Mentors:        mentorCount,
		Parents:        parentCount,
		BlocCompletion: make([]BlocCompletion, 0, model.TotalBlocs),
		WeeklyProgress: make([]WeeklyProgress, 0, model.TotalWeeks),
	}

	perWeek := make([]int, model.TotalWeeks+1)
	perBloc := make([]int, model.TotalBlocs+1)
	for _, m := range mentees {
		for _, w := range m.CompletedWeeks {
			week := int(w)
			stats.CompletedWeeks++
			if model.ValidWeek(week) {
				perWeek[week]++
			}
			perBloc[model.BlocForWeek(week)]++
		}
	}

	for b := 1; b <= model.TotalBlocs; b++ {
		stats.BlocCompletion = append(stats.BlocCompletion, BlocCompletion{
			Bloc:      b,
			Name:      model.BlocName(b),
			Completed: perBloc[b],
			Total:     model.WeeksPerBloc,
		})
	}
	for w := 1; w <= model.TotalWeeks; w++ {
		stats.WeeklyProgress = append(stats.WeeklyProgress, WeeklyProgress{Week: w, Completions: perWeek[w]})
	}

	// half-way values round to even: 12.5% reports as 12
	if mentorCount > 0 {
		stats.MentorMenteeRatio = math.RoundToEven(float64(menteeCount)/float64(mentorCount)*100) / 100
	}
	if menteeCount > 0 {
		stats.AverageProgress = int(math.RoundToEven(
			float64(stats.CompletedWeeks) / float64(menteeCount*model.TotalWeeks) * 100))
	}
	return stats
}

// MentorStats reports the caller's mentees and review workload
func (s *AnalyticsService) MentorStats(ctx context.Context, actor *model.User) (*MentorStats, error) {
	if !actor.Role.Can(model.ActionViewMentorStats) {
		return nil, forbidden("Not enough permissions")
	}

	mentees, err := s.store.ListUsers(ctx, database.UserFilter{Role: model.RoleMentee, MentorID: actor.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to list mentees: %w", err)
	}
	pending, err := s.store.CountApprovals(ctx, database.ApprovalFilter{
		MentorID: actor.ID,
		Status:   model.ApprovalStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count pending approvals: %w", err)
	}
	approved, err := s.store.CountApprovals(ctx, database.ApprovalFilter{
		MentorID: actor.ID,
		Status:   model.ApprovalStatusApproved,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count approved weeks: %w", err)
	}

	stats := &MentorStats{
		AssignedMentees:    len(mentees),
		PendingApprovals:   pending,
		CompletedApprovals: approved,
	}
	for _, m := range mentees {
		stats.TotalCompletedWeeks += len(m.CompletedWeeks)
	}
	return stats, nil
}
