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
)

// NoticeService drives the lifecycle of issued notices. Transitions are
// enforced by the domain entity; the service loads the owning case, applies
// the transition, and commits under the case's optimistic lock. Level
// bookkeeping is never touched here.
type NoticeService struct {
	invoices invoicing.InvoiceQueryPort
	caseRepo dunning.DunningCaseRepository
	clock    shared.Clock
}

// NewNoticeService creates a new NoticeService
func NewNoticeService(
	invoices invoicing.InvoiceQueryPort,
	caseRepo dunning.DunningCaseRepository,
	clock shared.Clock,
) *NoticeService {
	return &NoticeService{
		invoices: invoices,
		caseRepo: caseRepo,
		clock:    clock,
	}
}

// MarkSent transitions a notice from CREATED to SENT
func (s *NoticeService) MarkSent(ctx context.Context, noticeID uuid.UUID) (*dunning.DunningNotice, error) {
	return s.transition(ctx, "mark_sent", noticeID, func(c *dunning.DunningCase) (*dunning.DunningNotice, error) {
		return c.MarkNoticeSent(noticeID, s.clock.Now())
	})
}

// MarkPaid closes a notice as paid. Calling it again on a paid notice
// succeeds without a write.
func (s *NoticeService) MarkPaid(ctx context.Context, noticeID uuid.UUID) (*dunning.DunningNotice, error) {
	return s.transition(ctx, "mark_paid", noticeID, func(c *dunning.DunningCase) (*dunning.DunningNotice, error) {
		return c.MarkNoticePaid(noticeID, s.clock.Now())
	})
}

// MarkCancelled closes a notice as cancelled. Calling it again on a
// cancelled notice succeeds without a write.
func (s *NoticeService) MarkCancelled(ctx context.Context, noticeID uuid.UUID) (*dunning.DunningNotice, error) {
	return s.transition(ctx, "mark_cancelled", noticeID, func(c *dunning.DunningCase) (*dunning.DunningNotice, error) {
		return c.MarkNoticeCancelled(noticeID, s.clock.Now())
	})
}

// GetNotice returns a single notice by ID
func (s *NoticeService) GetNotice(ctx context.Context, noticeID uuid.UUID) (*dunning.DunningNotice, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dunning", "get_notice")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrNoticeID, noticeID.String())

	dunningCase, err := s.caseRepo.FindByNoticeID(ctx, noticeID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, dunning.ErrNoticeNotFound
		}
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load dunning case for notice %s: %w", noticeID, err)
	}

	for i := range dunningCase.Notices {
		if dunningCase.Notices[i].ID == noticeID {
			return &dunningCase.Notices[i], nil
		}
	}
	return nil, dunning.ErrNoticeNotFound
}

// ListNotices returns the escalation history of an invoice ordered by level.
// An invoice without a dunning case has an empty history.
func (s *NoticeService) ListNotices(ctx context.Context, invoiceID uuid.UUID) ([]dunning.DunningNotice, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dunning", "list_notices")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrInvoiceID, invoiceID.String())

	if _, err := s.invoices.Get(ctx, invoiceID); err != nil {
		telemetry.RecordError(span, err)
		if errors.Is(err, invoicing.ErrInvoiceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load invoice %s: %w", invoiceID, err)
	}

	dunningCase, err := s.caseRepo.FindByInvoiceID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return []dunning.DunningNotice{}, nil
		}
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load dunning case for invoice %s: %w", invoiceID, err)
	}

	notices := make([]dunning.DunningNotice, len(dunningCase.Notices))
	copy(notices, dunningCase.Notices)
	return notices, nil
}

func (s *NoticeService) transition(
	ctx context.Context,
	method string,
	noticeID uuid.UUID,
	apply func(*dunning.DunningCase) (*dunning.DunningNotice, error),
) (*dunning.DunningNotice, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dunning", method)
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrNoticeID, noticeID.String())

	dunningCase, err := s.caseRepo.FindByNoticeID(ctx, noticeID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, dunning.ErrNoticeNotFound
		}
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load dunning case for notice %s: %w", noticeID, err)
	}

	versionBefore := dunningCase.GetVersion()
	notice, err := apply(dunningCase)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	// Idempotent repeats leave the aggregate untouched; skip the write.
	if dunningCase.GetVersion() != versionBefore {
		if err := s.caseRepo.SaveWithLock(ctx, dunningCase); err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to save notice %s: %w", noticeID, err)
		}
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrNoticeStatus, notice.Status.String())
	return notice, nil
}
