package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rentwheels/car-rental-backend/internal/config"
	"github.com/rentwheels/car-rental-backend/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v80"
)

// ErrReconciliationInProgress is returned when a run is requested while one is active
var ErrReconciliationInProgress = errors.New("reconciliation already in progress")

// FailedEventStore lists events whose booking write failed
type FailedEventStore interface {
	ListFailed(ctx context.Context, maxAttempts, limit int) ([]*models.PaymentEvent, error)
	MarkMalformed(ctx context.Context, eventID string, reason string) error
}

// EventProcessor replays a verified event
type EventProcessor interface {
	ProcessEvent(ctx context.Context, event *stripe.Event) (*WebhookResult, error)
}

// ReconciliationReport summarizes one reconciliation run
type ReconciliationReport struct {
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Scanned      int       `json:"scanned"`
	Recovered    int       `json:"recovered"`
	Duplicates   int       `json:"duplicates"`
	StillFailing int       `json:"still_failing"`
	Unreadable   int       `json:"unreadable"`
}

// ReconciliationService re-drives payment events whose booking could not be written.
// Stored bodies were verified on arrival, so they are replayed without a signature check.
type ReconciliationService struct {
	events      FailedEventStore
	processor   EventProcessor
	maxAttempts int
	batchSize   int
	logger      *logrus.Logger

	running sync.Mutex
	mu      sync.RWMutex
	last    *ReconciliationReport
}

// NewReconciliationService creates a reconciliation service
func NewReconciliationService(events FailedEventStore, processor EventProcessor, cfg *config.ReconciliationConfig, logger *logrus.Logger) *ReconciliationService {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	return &ReconciliationService{
		events:      events,
		processor:   processor,
		maxAttempts: cfg.MaxAttempts,
		batchSize:   batchSize,
		logger:      logger,
	}
}

// ReconcileFailed replays one batch of failed events. Events that reached the
// attempt limit are left alone for manual follow-up.
func (s *ReconciliationService) ReconcileFailed(ctx context.Context) (*ReconciliationReport, error) {
	if !s.running.TryLock() {
		return nil, ErrReconciliationInProgress
	}
	defer s.running.Unlock()

	report := &ReconciliationReport{StartedAt: time.Now()}

	failed, err := s.events.ListFailed(ctx, s.maxAttempts, s.batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list failed payment events: %w", err)
	}
	report.Scanned = len(failed)

	for _, pe := range failed {
		if ctx.Err() != nil {
			break
		}
		s.replay(ctx, pe, report)
	}

	report.FinishedAt = time.Now()
	s.mu.Lock()
	s.last = report
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"scanned":       report.Scanned,
		"recovered":     report.Recovered,
		"duplicates":    report.Duplicates,
		"still_failing": report.StillFailing,
		"unreadable":    report.Unreadable,
		"duration":      report.FinishedAt.Sub(report.StartedAt).String(),
	}).Info("Payment reconciliation run finished")

	return report, ctx.Err()
}

func (s *ReconciliationService) replay(ctx context.Context, pe *models.PaymentEvent, report *ReconciliationReport) {
	logger := s.logger.WithFields(logrus.Fields{
		"event_id": pe.EventID,
		"attempts": pe.Attempts,
	})

	var event stripe.Event
	if err := json.Unmarshal([]byte(pe.RawBody), &event); err != nil {
		report.Unreadable++
		logger.WithError(err).Error("Stored payment event body is unreadable")
		if markErr := s.events.MarkMalformed(ctx, pe.EventID, "stored body unreadable: "+err.Error()); markErr != nil {
			logger.WithError(markErr).Warn("Failed to mark payment event as malformed")
		}
		return
	}

	result, err := s.processor.ProcessEvent(ctx, &event)
	var persistErr *BookingPersistenceError
	switch {
	case errors.As(err, &persistErr):
		report.StillFailing++
	case err != nil:
		// Malformed events are marked by the processor and drop out of the queue
		report.Unreadable++
	case result.Status == models.PaymentEventDuplicate:
		report.Duplicates++
	default:
		report.Recovered++
	}
}

// LastReport returns the most recent run, or nil before the first one
func (s *ReconciliationService) LastReport() *ReconciliationReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}
