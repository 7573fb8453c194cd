package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rentwheels/car-rental-backend/internal/config"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// reconciliationJobTimeout bounds a single scheduled run
const reconciliationJobTimeout = 2 * time.Minute

// CronService manages scheduled background jobs
type CronService struct {
	cron       *cron.Cron
	reconciler *ReconciliationService
	schedule   string
	logger     *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(reconciler *ReconciliationService, cfg *config.ReconciliationConfig, logger *logrus.Logger) *CronService {
	// Seconds precision: "0 */5 * * * *" = every 5 minutes
	c := cron.New(cron.WithSeconds())

	return &CronService{
		cron:       c,
		reconciler: reconciler,
		schedule:   cfg.Schedule,
		logger:     logger,
	}
}

// Start schedules all jobs and starts the scheduler
func (s *CronService) Start() error {
	s.logger.Info("Starting cron service...")

	_, err := s.cron.AddFunc(s.schedule, s.reconcileFailedPaymentsJob)
	if err != nil {
		return fmt.Errorf("failed to schedule reconciliation job: %w", err)
	}
	s.logger.WithField("schedule", s.schedule).Info("✓ Scheduled: Reconcile failed booking writes")

	s.cron.Start()
	s.logger.Info("✓ Cron service started successfully")

	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	s.logger.Info("Stopping cron service...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("✓ Cron service stopped")
}

func (s *CronService) reconcileFailedPaymentsJob() {
	ctx, cancel := context.WithTimeout(context.Background(), reconciliationJobTimeout)
	defer cancel()

	s.logger.Debug("[CRON] Starting payment reconciliation job...")

	if _, err := s.reconciler.ReconcileFailed(ctx); err != nil {
		if errors.Is(err, ErrReconciliationInProgress) {
			s.logger.Info("[CRON] Reconciliation skipped, previous run still active")
			return
		}
		s.logger.WithError(err).Error("[CRON ERROR] Payment reconciliation failed")
	}
}

// RunReconciliationNow runs the reconciliation job immediately
func (s *CronService) RunReconciliationNow(ctx context.Context) (*ReconciliationReport, error) {
	s.logger.Info("[MANUAL] Running payment reconciliation now...")
	return s.reconciler.ReconcileFailed(ctx)
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"schedule":  s.schedule,
		"jobs":      jobs,
		"last_run":  s.reconciler.LastReport(),
	}
}
