package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/sahilchouksey/curriculum-tracker/model"
	"github.com/sahilchouksey/curriculum-tracker/utils/logging"
)

func TestBuildDashboard(t *testing.T) {
	mentees := []model.User{
		{Role: model.RoleMentee, CompletedWeeks: pq.Int64Array{1, 2}},
		{Role: model.RoleMentee, CompletedWeeks: pq.Int64Array{}},
	}
	stats := BuildDashboard(3, 2, 1, 0, mentees)

	if stats.AverageProgress != 3 {
		t.Errorf("average_progress = %d, want 3", stats.AverageProgress)
	}
	if stats.MentorMenteeRatio != 2.0 {
		t.Errorf("mentor_mentee_ratio = %v, want 2.0", stats.MentorMenteeRatio)
	}
	if stats.CompletedWeeks != 2 {
		t.Errorf("completed_weeks = %d, want 2", stats.CompletedWeeks)
	}
	if stats.BlocCompletion[0].Completed != 2 || stats.BlocCompletion[0].Name != "Artistic Inclination" {
		t.Errorf("bloc 1 = %+v", stats.BlocCompletion[0])
	}
	if len(stats.WeeklyProgress) != model.TotalWeeks || stats.WeeklyProgress[0].Completions != 1 {
		t.Errorf("weekly progress = %+v", stats.WeeklyProgress[:2])
	}
}

func TestBuildDashboardRoundsHalfToEven(t *testing.T) {
	weeks := func(n int) pq.Int64Array {
		out := pq.Int64Array{}
		for w := 1; w <= n; w++ {
			out = append(out, int64(w))
		}
		return out
	}
	tests := []struct {
		name      string
		completed int
		want      int
	}{
		{"12.5 rounds down", 9, 12},
		{"37.5 rounds up", 27, 38},
		{"4.17 rounds down", 3, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mentees := []model.User{{CompletedWeeks: weeks(tt.completed)}, {CompletedWeeks: pq.Int64Array{}}}
			stats := BuildDashboard(3, 2, 1, 0, mentees)
			if stats.AverageProgress != tt.want {
				t.Fatalf("average_progress = %d, want %d", stats.AverageProgress, tt.want)
			}
		})
	}

	// 1 mentee over 8 mentors is 0.125
	if got := BuildDashboard(9, 1, 8, 0, nil).MentorMenteeRatio; got != 0.12 {
		t.Fatalf("mentor_mentee_ratio = %v, want 0.12", got)
	}
}

func TestBuildDashboardBlocHistogram(t *testing.T) {
	mentees := []model.User{
		{CompletedWeeks: pq.Int64Array{1, 12, 13, 24, 25, 36}},
		{CompletedWeeks: pq.Int64Array{6, 30}},
	}
	stats := BuildDashboard(2, 2, 0, 0, mentees)

	want := []int{3, 2, 3}
	sum := 0
	for i, b := range stats.BlocCompletion {
		if b.Completed != want[i] {
			t.Errorf("bloc %d completed = %d, want %d", b.Bloc, b.Completed, want[i])
		}
		if b.Total != model.WeeksPerBloc {
			t.Errorf("bloc %d total = %d", b.Bloc, b.Total)
		}
		sum += b.Completed
	}
	if sum != stats.CompletedWeeks {
		t.Errorf("bloc sum %d != completed weeks %d", sum, stats.CompletedWeeks)
	}
	if stats.MentorMenteeRatio != 0 {
		t.Errorf("ratio without mentors = %v", stats.MentorMenteeRatio)
	}
}

func TestBuildDashboardEmpty(t *testing.T) {
	stats := BuildDashboard(0, 0, 0, 0, nil)
	if stats.AverageProgress != 0 || stats.CompletedWeeks != 0 || len(stats.BlocCompletion) != model.TotalBlocs {
		t.Fatalf("unexpected empty dashboard %+v", stats)
	}
}

type fakeCache struct {
	stored  map[string]*DashboardStats
	sets    int
	deletes int
}

func (c *fakeCache) GetJSON(_ context.Context, key string, dest interface{}) error {
	v, ok := c.stored[key]
	if !ok {
		return errors.New("miss")
	}
	*dest.(*DashboardStats) = *v
	return nil
}

func (c *fakeCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.sets++
	c.stored[key] = value.(*DashboardStats)
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.deletes++
	for _, k := range keys {
		delete(c.stored, k)
	}
	return nil
}

func TestDashboardUsesCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.pair(t, "a@example.com", "b@example.com")

	cache := &fakeCache{stored: map[string]*DashboardStats{}}
	svc := NewAnalyticsService(f.store, cache, time.Minute, logging.Nop().Base)

	first, err := svc.Dashboard(ctx, f.admin)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if first.TotalUsers != 3 || first.Mentees != 1 || first.Mentors != 1 {
		t.Fatalf("unexpected counts %+v", first)
	}

	f.register(t, model.RoleParent, "late@example.com")
	second, err := svc.Dashboard(ctx, f.admin)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if second.TotalUsers != 3 || cache.sets != 1 {
		t.Fatalf("expected cached snapshot, got total=%d sets=%d", second.TotalUsers, cache.sets)
	}
}

func TestWritesInvalidateDashboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b := f.pair(t, "a@example.com", "b@example.com")

	cache := &fakeCache{stored: map[string]*DashboardStats{}}
	svc := NewAnalyticsService(f.store, cache, time.Minute, logging.Nop().Base)
	f.approvals.InvalidatesDashboard(svc)
	f.users.InvalidatesDashboard(svc)

	approval, err := f.approvals.Submit(ctx, a, SubmitInput{WeekNumber: 1})
	if err != nil {
		t.Fatal(err)
	}
	before, err := svc.Dashboard(ctx, f.admin)
	if err != nil {
		t.Fatal(err)
	}
	if before.CompletedWeeks != 0 {
		t.Fatalf("completed_weeks before approval = %d", before.CompletedWeeks)
	}

	if _, err := f.approvals.Approve(ctx, b, approval.ID, nil); err != nil {
		t.Fatal(err)
	}
	after, err := svc.Dashboard(ctx, f.admin)
	if err != nil {
		t.Fatal(err)
	}
	if after.CompletedWeeks != 1 || cache.sets != 2 {
		t.Fatalf("expected fresh snapshot after approval, got completed=%d sets=%d", after.CompletedWeeks, cache.sets)
	}

	f.register(t, model.RoleParent, "late@example.com")
	latest, err := svc.Dashboard(ctx, f.admin)
	if err != nil {
		t.Fatal(err)
	}
	if latest.Parents != 1 || cache.deletes != 2 {
		t.Fatalf("expected fresh snapshot after registration, got parents=%d deletes=%d", latest.Parents, cache.deletes)
	}
}

func TestDashboardForbiddenForMentor(t *testing.T) {
	f := newFixture(t)
	_, b := f.pair(t, "a@example.com", "b@example.com")
	_, err := f.analytics.Dashboard(context.Background(), b)
	expectKind(t, err, ErrForbidden)
}

func TestMentorStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b := f.pair(t, "a@example.com", "b@example.com")

	first, err := f.approvals.Submit(ctx, a, SubmitInput{WeekNumber: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.approvals.Submit(ctx, a, SubmitInput{WeekNumber: 2}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.approvals.Approve(ctx, b, first.ID, nil); err != nil {
		t.Fatal(err)
	}

	stats, err := f.analytics.MentorStats(ctx, b)
	if err != nil {
		t.Fatalf("mentor stats: %v", err)
	}
	want := MentorStats{AssignedMentees: 1, PendingApprovals: 1, CompletedApprovals: 1, TotalCompletedWeeks: 1}
	if *stats != want {
		t.Fatalf("got %+v, want %+v", *stats, want)
	}

	_, err = f.analytics.MentorStats(ctx, f.admin)
	expectKind(t, err, ErrForbidden)
}
