package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/wiproedx/synergeticsopenedx/model"
)

// Retention windows for CleanupOldData.
const (
	cronLogRetention     = 90 * 24 * time.Hour
	sentEventRetention   = 7 * 24 * time.Hour
	callbackLogRetention = 3 * 365 * 24 * time.Hour
)

// RelayOutbox publishes pending outbox events.
// Runs every 10 seconds. Idle runs are not written to cron_job_logs.
func (m *CronManager) RelayOutbox() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	started := time.Now()
	sent, err := m.relay.DispatchOnce(ctx)
	if err == nil && sent == 0 {
		return
	}

	run := m.logJobStart("relay_outbox")
	run.started = started
	if err != nil {
		m.logJobError(run, fmt.Errorf("failed to dispatch outbox: %w", err))
		return
	}
	m.logJobComplete(run, int64(sent), fmt.Sprintf("Published %d events", sent))
}

// SweepExpiredCoupons releases coupons that expired or were disabled while
// still applied to a pending order, restoring the list price.
// Runs every 30 minutes.
func (m *CronManager) SweepExpiredCoupons() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	run := m.logJobStart("sweep_expired_coupons")
	released, err := m.coupons.SweepExpired(ctx)
	if err != nil {
		m.logJobError(run, fmt.Errorf("failed to sweep coupons: %w", err))
		return
	}
	m.logJobComplete(run, released, fmt.Sprintf("Released %d expired redemptions", released))
}

// CleanupOldData removes rows past their retention window.
// Runs daily at 2 AM.
func (m *CronManager) CleanupOldData() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	run := m.logJobStart("cleanup_old_data")
	now := time.Now()
	var total int64

	// 1. Cron job logs
	result := m.db.WithContext(ctx).Where("created_at < ?", now.Add(-cronLogRetention)).Delete(&model.CronJobLog{})
	if result.Error != nil {
		log.Errorf("[CRON] Failed to clean cron logs: %v", result.Error)
	} else {
		log.Infof("[CRON] Cleaned %d old cron logs", result.RowsAffected)
		total += result.RowsAffected
	}

	// 2. Published outbox events
	if m.relay != nil {
		purged, err := m.relay.PurgeSent(ctx, now.Add(-sentEventRetention))
		if err != nil {
			log.Errorf("[CRON] Failed to clean sent events: %v", err)
		} else {
			log.Infof("[CRON] Cleaned %d sent events", purged)
			total += purged
		}
	}

	// 3. Processor callbacks past the audit window
	result = m.db.WithContext(ctx).Where("created_at < ?", now.Add(-callbackLogRetention)).Delete(&model.PaymentCallbackLog{})
	if result.Error != nil {
		log.Errorf("[CRON] Failed to clean callback logs: %v", result.Error)
	} else {
		log.Infof("[CRON] Cleaned %d old callback logs", result.RowsAffected)
		total += result.RowsAffected
	}

	m.logJobComplete(run, total, fmt.Sprintf("Cleaned up %d total records", total))
}
