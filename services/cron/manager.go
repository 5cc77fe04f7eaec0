package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sahilchouksey/curriculum-tracker/utils/metrics"
	"go.uber.org/zap"
)

const (
	JobCleanupTokenBlacklist = "cleanup_token_blacklist"
	JobRefreshPendingGauge   = "refresh_pending_approvals"
)

// TokenCleaner drops blacklist entries whose tokens have expired
type TokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// PendingCounter reports the number of approvals awaiting a decision
type PendingCounter interface {
	CountPending(ctx context.Context) (int64, error)
}

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron      *cron.Cron
	tokens    TokenCleaner
	approvals PendingCounter
	log       *zap.Logger
}

// NewCronManager creates a new cron manager
func NewCronManager(tokens TokenCleaner, approvals PendingCounter, log *zap.Logger) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron:      c,
		tokens:    tokens,
		approvals: approvals,
		log:       log,
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	m.log.Info("starting cron jobs")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	// the gauge is meaningful right away instead of after the first tick
	go m.RefreshPendingApprovals()

	m.log.Info("cron jobs started", zap.Int("jobs", len(m.cron.Entries())))
	return nil
}

// Stop stops all cron jobs and waits for running ones to finish
func (m *CronManager) Stop() {
	m.log.Info("stopping cron jobs")
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.log.Info("cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// 1. Every hour: drop expired revoked tokens
	_, err := m.cron.AddFunc("0 0 * * * *", m.CleanupTokenBlacklist)
	if err != nil {
		return err
	}

	// 2. Every 5 minutes: refresh the pending approval backlog gauge
	_, err = m.cron.AddFunc("0 */5 * * * *", m.RefreshPendingApprovals)
	if err != nil {
		return err
	}

	return nil
}

func (m *CronManager) logJobStart(jobName string) time.Time {
	metrics.JobRuns.WithLabelValues(jobName).Inc()
	m.log.Debug("cron job started", zap.String("job", jobName))
	return time.Now()
}

func (m *CronManager) logJobComplete(jobName string, started time.Time, fields ...zap.Field) {
	fields = append(fields, zap.String("job", jobName), zap.Duration("took", time.Since(started)))
	m.log.Info("cron job completed", fields...)
}

func (m *CronManager) logJobError(jobName string, err error) {
	metrics.JobErrors.WithLabelValues(jobName).Inc()
	m.log.Error("cron job failed", zap.String("job", jobName), zap.Error(err))
}
