package cron

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/robfig/cron/v3"
	"github.com/wiproedx/synergeticsopenedx/model"
	"gorm.io/gorm"
)

// OutboxRelay publishes pending outbox events.
type OutboxRelay interface {
	DispatchOnce(ctx context.Context) (int, error)
	PurgeSent(ctx context.Context, cutoff time.Time) (int64, error)
}

// CouponSweeper drops redemptions of expired or disabled coupons from
// pending orders.
type CouponSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron    *cron.Cron
	db      *gorm.DB
	relay   OutboxRelay
	coupons CouponSweeper
}

// NewCronManager creates a new cron manager. relay may be nil when no broker
// is configured; events then stay in the outbox until one is.
func NewCronManager(db *gorm.DB, relay OutboxRelay, coupons CouponSweeper) *CronManager {
	// Seconds precision; a job that is still running skips its next tick.
	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)

	return &CronManager{
		cron:    c,
		db:      db,
		relay:   relay,
		coupons: coupons,
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	log.Info("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Info("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs and waits for running ones to finish
func (m *CronManager) Stop() {
	log.Info("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Info("Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// Every 10 seconds: relay outbox events to the broker
	if m.relay != nil {
		if _, err := m.cron.AddFunc("*/10 * * * * *", m.RelayOutbox); err != nil {
			return err
		}
	} else {
		log.Warn("No message broker configured, outbox relay disabled")
	}

	// Every 30 minutes: release expired coupons from pending orders
	if _, err := m.cron.AddFunc("0 */30 * * * *", m.SweepExpiredCoupons); err != nil {
		return err
	}

	// Daily at 2 AM: cleanup old data
	if _, err := m.cron.AddFunc("0 0 2 * * *", m.CleanupOldData); err != nil {
		return err
	}

	log.Info("All cron jobs registered successfully")
	return nil
}

// jobRun tracks one logged execution.
type jobRun struct {
	id      uint
	name    string
	started time.Time
}

// logJobStart records the start of a cron job
func (m *CronManager) logJobStart(jobName string) *jobRun {
	run := &jobRun{name: jobName, started: time.Now()}
	log.Infof("[CRON] Starting job: %s", jobName)

	entry := model.CronJobLog{
		JobName:   jobName,
		Status:    model.CronRunning,
		StartedAt: run.started,
	}
	if err := m.db.Create(&entry).Error; err != nil {
		log.Errorf("[CRON] Failed to log start of %s: %v", jobName, err)
	}
	run.id = entry.ID
	return run
}

// logJobComplete records successful completion of a cron job
func (m *CronManager) logJobComplete(run *jobRun, affected int64, message string) {
	log.Infof("[CRON] Completed job: %s - %s", run.name, message)
	m.finishRun(run, map[string]interface{}{
		"status":   model.CronCompleted,
		"affected": affected,
		"message":  message,
	})
}

// logJobError records a cron job error
func (m *CronManager) logJobError(run *jobRun, err error) {
	log.Errorf("[CRON] Error in job: %s - %v", run.name, err)
	m.finishRun(run, map[string]interface{}{
		"status":    model.CronFailed,
		"error_msg": err.Error(),
	})
}

func (m *CronManager) finishRun(run *jobRun, fields map[string]interface{}) {
	if run.id == 0 {
		return
	}
	now := time.Now()
	fields["completed_at"] = now
	fields["duration"] = now.Sub(run.started).Milliseconds()
	if err := m.db.Model(&model.CronJobLog{}).Where("id = ?", run.id).Updates(fields).Error; err != nil {
		log.Errorf("[CRON] Failed to log end of %s: %v", run.name, err)
	}
}
