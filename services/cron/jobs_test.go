package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sahilchouksey/curriculum-tracker/utils/logging"
	"github.com/sahilchouksey/curriculum-tracker/utils/metrics"
)

type fakeCleaner struct {
	calls int
	err   error
}

func (f *fakeCleaner) CleanupExpiredTokens(context.Context) (int64, error) {
	f.calls++
	return 3, f.err
}

type fakeCounter struct{ n int64 }

func (f fakeCounter) CountPending(context.Context) (int64, error) { return f.n, nil }

func TestRefreshPendingApprovalsSetsGauge(t *testing.T) {
	m := NewCronManager(&fakeCleaner{}, fakeCounter{n: 7}, logging.Nop().Base)
	m.RefreshPendingApprovals()

	if got := testutil.ToFloat64(metrics.PendingApprovals); got != 7 {
		t.Fatalf("pending gauge = %v, want 7", got)
	}
}

func TestCleanupCountsErrors(t *testing.T) {
	cleaner := &fakeCleaner{err: errors.New("db down")}
	m := NewCronManager(cleaner, fakeCounter{}, logging.Nop().Base)

	before := testutil.ToFloat64(metrics.JobErrors.WithLabelValues(JobCleanupTokenBlacklist))
	m.CleanupTokenBlacklist()
	after := testutil.ToFloat64(metrics.JobErrors.WithLabelValues(JobCleanupTokenBlacklist))

	if cleaner.calls != 1 {
		t.Fatalf("cleaner called %d times", cleaner.calls)
	}
	if after-before != 1 {
		t.Fatalf("job errors grew by %v, want 1", after-before)
	}
}

func TestStartRegistersJobs(t *testing.T) {
	m := NewCronManager(&fakeCleaner{}, fakeCounter{}, logging.Nop().Base)
	if err := m.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	if got := len(m.cron.Entries()); got != 2 {
		t.Fatalf("registered %d jobs, want 2", got)
	}
}
