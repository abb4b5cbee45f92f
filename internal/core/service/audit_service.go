package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/boxtrail/transfer-system/internal/api/metrics"
	"github.com/boxtrail/transfer-system/internal/core/domain"
	"github.com/boxtrail/transfer-system/internal/core/ports"
)

// DedupChecker abstracts the idempotency store (Redis).
type DedupChecker interface {
	IsDuplicate(ctx context.Context, shipmentLabel, action string, ts time.Time) (bool, error)
	Mark(ctx context.Context, shipmentLabel, action string, ts time.Time) error
}

type auditService struct {
	repo  ports.AuditRepository
	dedup DedupChecker
	log   zerolog.Logger
}

// NewAuditService returns an AuditService implementation.
func NewAuditService(repo ports.AuditRepository, dedup DedupChecker, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, dedup: dedup, log: log}
}

// Process deduplicates and persists a single transition event.
func (s *auditService) Process(ctx context.Context, event domain.TransitionEvent) error {
	isDup, err := s.dedup.IsDuplicate(ctx, event.ShipmentLabel, event.Action, event.Timestamp)
	if err != nil {
		s.log.Warn().Err(err).Str("label", event.ShipmentLabel).Msg("dedup check failed, processing anyway")
	} else if isDup {
		metrics.AuditDedupTotal.WithLabelValues("hit").Inc()
		s.log.Debug().Str("label", event.ShipmentLabel).Str("action", event.Action).Msg("duplicate event skipped")
		return nil
	}
	metrics.AuditDedupTotal.WithLabelValues("miss").Inc()

	// Mark before writing so a crash-retry does not double-insert.
	if markErr := s.dedup.Mark(ctx, event.ShipmentLabel, event.Action, event.Timestamp); markErr != nil {
		s.log.Warn().Err(markErr).Str("label", event.ShipmentLabel).Msg("failed to set dedup key")
	}

	if err := s.repo.InsertTransitionEvent(ctx, &event); err != nil {
		metrics.AuditErrorsTotal.WithLabelValues("insert_failed").Inc()
		return fmt.Errorf("audit event: %w", err)
	}

	metrics.AuditEventsProcessedTotal.WithLabelValues(event.Action).Inc()
	s.log.Info().
		Str("label", event.ShipmentLabel).
		Str("action", event.Action).
		Int("boxes", event.BoxCount).
		Msg("transition event recorded")

	return nil
}
