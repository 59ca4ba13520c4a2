package dunning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mahnwerk/backend/internal/domain/dunning"
	"github.com/mahnwerk/backend/internal/domain/shared"
	"github.com/mahnwerk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// sweepDedupTTL keeps the daily sweep marker long enough that late replicas
// of the same day never rerun the sweep.
const sweepDedupTTL = 48 * time.Hour

// SweepError records one invoice the sweep could not escalate
type SweepError struct {
	InvoiceID uuid.UUID `json:"invoice_id"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
}

// SweepResult summarizes one sweep run. A sweep has partial-failure
// semantics: individual invoice errors are collected and the run continues.
type SweepResult struct {
	AsOf         time.Time    `json:"as_of"`
	Candidates   int          `json:"candidates"`
	Escalated    int          `json:"escalated"`
	Skipped      int          `json:"skipped"`
	Failed       int          `json:"failed"`
	Deduplicated bool         `json:"deduplicated"`
	Errors       []SweepError `json:"errors,omitempty"`
}

// SweepService runs the batch escalation over all overdue invoices. The
// scheduler triggers it daily; the HTTP interface exposes a manual trigger.
type SweepService struct {
	overdue     *OverdueService
	escalations *EscalationService
	dedup       shared.IdempotencyStore
	clock       shared.Clock
	metrics     *telemetry.DunningMetrics
	logger      *zap.Logger
}

// NewSweepService creates a new SweepService
func NewSweepService(
	overdue *OverdueService,
	escalations *EscalationService,
	dedup shared.IdempotencyStore,
	clock shared.Clock,
	metrics *telemetry.DunningMetrics,
	logger *zap.Logger,
) *SweepService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SweepService{
		overdue:     overdue,
		escalations: escalations,
		dedup:       dedup,
		clock:       clock,
		metrics:     metrics,
		logger:      logger,
	}
}

// Run escalates every overdue invoice that can still advance, as of the
// given date. Invoices already at the top of the ladder are skipped, as are
// invoices another writer escalated concurrently. A zero asOf means today.
func (s *SweepService) Run(ctx context.Context, asOf time.Time) (*SweepResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dunning", "sweep")
	defer span.End()

	if asOf.IsZero() {
		asOf = s.clock.Today()
	}
	asOf = shared.TruncateToDate(asOf)
	telemetry.SetAttribute(span, telemetry.SpanAttrAsOf, asOf.Format("2006-01-02"))

	views, err := s.overdue.FindOverdue(ctx, asOf)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("sweep aborted, overdue detection failed: %w", err)
	}

	result := &SweepResult{AsOf: asOf, Candidates: len(views)}
	for _, view := range views {
		if view.AtMaxLevel {
			result.Skipped++
			continue
		}

		notice, err := s.escalations.Escalate(ctx, view.InvoiceID)
		if err != nil {
			s.classifyFailure(result, view.InvoiceID, err)
			continue
		}

		result.Escalated++
		s.logger.Info("sweep escalated invoice",
			zap.String("invoice_id", view.InvoiceID.String()),
			zap.String("invoice_number", view.InvoiceNumber),
			zap.Int("level", notice.Level.Int()),
			zap.String("total_due", notice.TotalDue.String()),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordSweepRun(ctx, int64(result.Escalated), int64(result.Skipped), int64(result.Failed))
	}
	s.logger.Info("sweep finished",
		zap.Time("as_of", asOf),
		zap.Int("candidates", result.Candidates),
		zap.Int("escalated", result.Escalated),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)

	return result, nil
}

// RunDaily runs the sweep for today unless another replica already ran it
// for the same calendar date.
func (s *SweepService) RunDaily(ctx context.Context) (*SweepResult, error) {
	today := s.clock.Today()

	if s.dedup != nil {
		key := fmt.Sprintf("dunning:sweep:%s", today.Format("2006-01-02"))
		first, err := s.dedup.MarkProcessed(ctx, key, sweepDedupTTL)
		if err != nil {
			return nil, fmt.Errorf("sweep dedup check failed: %w", err)
		}
		if !first {
			s.logger.Info("sweep already ran today, skipping", zap.Time("as_of", today))
			return &SweepResult{AsOf: today, Deduplicated: true}, nil
		}
	}

	return s.Run(ctx, today)
}

// classifyFailure sorts a per-invoice escalation error into skipped (state
// made the escalation unnecessary) or failed (needs attention).
func (s *SweepService) classifyFailure(result *SweepResult, invoiceID uuid.UUID, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		switch domainErr.Code {
		case dunning.CodeMaxLevelReached, dunning.CodeInvoiceAlreadySettled, dunning.CodeConcurrentEscalation:
			result.Skipped++
			return
		default:
			result.Failed++
			result.Errors = append(result.Errors, SweepError{
				InvoiceID: invoiceID,
				Code:      domainErr.Code,
				Message:   domainErr.Message,
			})
			return
		}
	}

	result.Failed++
	result.Errors = append(result.Errors, SweepError{
		InvoiceID: invoiceID,
		Code:      "INTERNAL",
		Message:   err.Error(),
	})
	s.logger.Warn("sweep failed to escalate invoice",
		zap.String("invoice_id", invoiceID.String()),
		zap.Error(err),
	)
}
