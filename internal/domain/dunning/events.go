package dunning

import (
	"github.com/mahnwerk/backend/internal/domain/shared"
	"github.com/mahnwerk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Event types emitted by the dunning case aggregate
const (
	EventTypeCaseOpened      = "dunning.case.opened"
	EventTypeNoticeIssued    = "dunning.notice.issued"
	EventTypeNoticeSent      = "dunning.notice.sent"
	EventTypeNoticePaid      = "dunning.notice.paid"
	EventTypeNoticeCancelled = "dunning.notice.cancelled"
)

const aggregateTypeDunningCase = "DunningCase"

// CaseOpenedEvent is emitted when a dunning case is opened for an invoice
type CaseOpenedEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID `json:"invoice_id"`
}

// NewCaseOpenedEvent creates a CaseOpenedEvent
func NewCaseOpenedEvent(caseID, invoiceID uuid.UUID) *CaseOpenedEvent {
	return &CaseOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCaseOpened, aggregateTypeDunningCase, caseID),
		InvoiceID:       invoiceID,
	}
}

// NoticeIssuedEvent is emitted when an escalation issues a new notice
type NoticeIssuedEvent struct {
	shared.BaseDomainEvent
	NoticeID  uuid.UUID         `json:"notice_id"`
	InvoiceID uuid.UUID         `json:"invoice_id"`
	Level     DunningLevel      `json:"level"`
	TotalDue  valueobject.Money `json:"total_due"`
}

// NewNoticeIssuedEvent creates a NoticeIssuedEvent
func NewNoticeIssuedEvent(caseID uuid.UUID, notice *DunningNotice) *NoticeIssuedEvent {
	return &NoticeIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeNoticeIssued, aggregateTypeDunningCase, caseID),
		NoticeID:        notice.ID,
		InvoiceID:       notice.InvoiceID,
		Level:           notice.Level,
		TotalDue:        notice.TotalDue,
	}
}

// NoticeStatusChangedEvent is emitted when a notice transitions state
type NoticeStatusChangedEvent struct {
	shared.BaseDomainEvent
	NoticeID  uuid.UUID    `json:"notice_id"`
	InvoiceID uuid.UUID    `json:"invoice_id"`
	Level     DunningLevel `json:"level"`
	Status    NoticeStatus `json:"status"`
}

// NewNoticeStatusChangedEvent creates a status change event of the given type
func NewNoticeStatusChangedEvent(eventType string, caseID uuid.UUID, notice *DunningNotice) *NoticeStatusChangedEvent {
	return &NoticeStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, aggregateTypeDunningCase, caseID),
		NoticeID:        notice.ID,
		InvoiceID:       notice.InvoiceID,
		Level:           notice.Level,
		Status:          notice.Status,
	}
}
