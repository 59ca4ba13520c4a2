package dunning

import (
	"context"
	"errors"
	"fmt"

	"github.com/mahnwerk/backend/internal/domain/dunning"
	"github.com/mahnwerk/backend/internal/domain/invoicing"
	"github.com/mahnwerk/backend/internal/domain/shared"
	"github.com/mahnwerk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// EscalationService advances dunning cases one level at a time. It is the
// only writer of escalations; the sweep and the HTTP interface both funnel
// through Escalate.
type EscalationService struct {
	invoices invoicing.InvoiceQueryPort
	caseRepo dunning.DunningCaseRepository
	policy   dunning.EscalationPolicy
	clock    shared.Clock
	metrics  *telemetry.DunningMetrics
}

// NewEscalationService creates a new EscalationService
func NewEscalationService(
	invoices invoicing.InvoiceQueryPort,
	caseRepo dunning.DunningCaseRepository,
	policy dunning.EscalationPolicy,
	clock shared.Clock,
	metrics *telemetry.DunningMetrics,
) *EscalationService {
	return &EscalationService{
		invoices: invoices,
		caseRepo: caseRepo,
		policy:   policy,
		clock:    clock,
		metrics:  metrics,
	}
}

// Escalate advances the invoice's dunning case by exactly one level and
// returns the issued notice. The commit is guarded by the case version and
// the unique (invoice_id, level) constraint; when a concurrent escalation
// wins the race, the loser re-reads once and returns the winner's notice if
// it is visible at the contested level, or CONCURRENT_ESCALATION otherwise.
// The notice is created, not sent; delivery is the caller's concern.
func (s *EscalationService) Escalate(ctx context.Context, invoiceID uuid.UUID) (*dunning.DunningNotice, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dunning", "escalate")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrInvoiceID, invoiceID.String())

	snapshot, err := s.invoices.Get(ctx, invoiceID)
	if err != nil {
		telemetry.RecordError(span, err)
		if errors.Is(err, invoicing.ErrInvoiceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load invoice %s: %w", invoiceID, err)
	}

	if snapshot.PaymentStatus.IsSettled() {
		s.recordRejection(ctx, span, dunning.ErrInvoiceAlreadySettled)
		return nil, dunning.ErrInvoiceAlreadySettled
	}

	dunningCase, created, err := s.loadOrOpenCase(ctx, invoiceID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	notice, err := dunningCase.Escalate(snapshot.GrossAmount, s.policy, s.clock.Now())
	if err != nil {
		s.recordRejection(ctx, span, err)
		return nil, err
	}
	contestedLevel := notice.Level

	if created {
		err = s.caseRepo.Save(ctx, dunningCase)
	} else {
		err = s.caseRepo.SaveWithLock(ctx, dunningCase)
	}
	if err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			return s.resolveConflict(ctx, span, invoiceID, contestedLevel)
		}
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save dunning case for invoice %s: %w", invoiceID, err)
	}

	if s.metrics != nil {
		s.metrics.RecordNoticeIssued(ctx, notice.Level.Int())
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrNoticeID, notice.ID.String(),
		telemetry.SpanAttrLevel, notice.Level.Int(),
		telemetry.SpanAttrTotalDue, notice.TotalDue.String(),
	)

	return notice, nil
}

// loadOrOpenCase returns the existing case for the invoice or opens a fresh
// one at level 0. The fresh case is only persisted by the escalation commit.
func (s *EscalationService) loadOrOpenCase(ctx context.Context, invoiceID uuid.UUID) (*dunning.DunningCase, bool, error) {
	dunningCase, err := s.caseRepo.FindByInvoiceID(ctx, invoiceID)
	if err == nil {
		return dunningCase, false, nil
	}
	if errors.Is(err, shared.ErrNotFound) {
		return dunning.NewDunningCase(invoiceID), true, nil
	}
	return nil, false, fmt.Errorf("failed to load dunning case for invoice %s: %w", invoiceID, err)
}

// resolveConflict handles a lost escalation race. The losing call re-reads
// the case once; if the winner's notice is visible at the contested level it
// is returned as the authoritative result, otherwise the caller gets
// CONCURRENT_ESCALATION and may retry.
func (s *EscalationService) resolveConflict(ctx context.Context, span trace.Span, invoiceID uuid.UUID, contestedLevel dunning.DunningLevel) (*dunning.DunningNotice, error) {
	if s.metrics != nil {
		s.metrics.RecordEscalationConflict(ctx)
	}
	telemetry.AddEvent(span, "escalation_conflict",
		telemetry.SpanAttrLevel, contestedLevel.Int(),
	)

	reloaded, err := s.caseRepo.FindByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, dunning.ErrConcurrentEscalation
	}
	if winner := reloaded.NoticeAtLevel(contestedLevel); winner != nil {
		return winner, nil
	}
	return nil, dunning.ErrConcurrentEscalation
}

func (s *EscalationService) recordRejection(ctx context.Context, span trace.Span, err error) {
	telemetry.RecordError(span, err)
	if s.metrics == nil {
		return
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		s.metrics.RecordEscalationRejected(ctx, domainErr.Code)
	}
}
