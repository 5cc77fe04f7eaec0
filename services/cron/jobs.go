package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/sahilchouksey/curriculum-tracker/utils/metrics"
	"go.uber.org/zap"
)

const jobTimeout = time.Minute

// CleanupTokenBlacklist removes revoked tokens that have expired on their own.
// Runs every hour.
func (m *CronManager) CleanupTokenBlacklist() {
	started := m.logJobStart(JobCleanupTokenBlacklist)

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	removed, err := m.tokens.CleanupExpiredTokens(ctx)
	if err != nil {
		m.logJobError(JobCleanupTokenBlacklist, fmt.Errorf("failed to delete expired tokens: %w", err))
		return
	}
	m.logJobComplete(JobCleanupTokenBlacklist, started, zap.Int64("removed", removed))
}

// RefreshPendingApprovals publishes the system-wide pending backlog.
// Runs every 5 minutes.
func (m *CronManager) RefreshPendingApprovals() {
	started := m.logJobStart(JobRefreshPendingGauge)

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	pending, err := m.approvals.CountPending(ctx)
	if err != nil {
		m.logJobError(JobRefreshPendingGauge, fmt.Errorf("failed to count pending approvals: %w", err))
		return
	}
	metrics.PendingApprovals.Set(float64(pending))
	m.logJobComplete(JobRefreshPendingGauge, started, zap.Int64("pending", pending))
}
