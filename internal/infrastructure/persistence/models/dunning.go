// Package models holds the persistence models. They mirror the domain types
// field for field but flatten value objects into database-native columns.
package models

import (
	"time"

	"github.com/mahnwerk/backend/internal/domain/dunning"
	"github.com/mahnwerk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DunningCaseModel is the persistence model for the DunningCase aggregate root.
type DunningCaseModel struct {
	AggregateModel
	InvoiceID    uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_case_invoice"`
	CurrentLevel int                  `gorm:"not null;default:0;index"`
	Notices      []DunningNoticeModel `gorm:"foreignKey:CaseID;references:ID"`
}

// TableName returns the table name for GORM
func (DunningCaseModel) TableName() string {
	return "dunning_cases"
}

// ToDomain converts the persistence model to a domain DunningCase aggregate.
func (m *DunningCaseModel) ToDomain() *dunning.DunningCase {
	notices := make([]dunning.DunningNotice, len(m.Notices))
	for i := range m.Notices {
		notices[i] = *m.Notices[i].ToDomain()
	}
	return &dunning.DunningCase{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		InvoiceID:         m.InvoiceID,
		CurrentLevel:      dunning.DunningLevel(m.CurrentLevel),
		Notices:           notices,
	}
}

// FromDomain populates the persistence model from a domain DunningCase.
func (m *DunningCaseModel) FromDomain(c *dunning.DunningCase) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.InvoiceID = c.InvoiceID
	m.CurrentLevel = c.CurrentLevel.Int()
	m.Notices = make([]DunningNoticeModel, len(c.Notices))
	for i := range c.Notices {
		m.Notices[i].FromDomain(&c.Notices[i])
	}
}

// DunningCaseModelFromDomain creates a new persistence model from a domain DunningCase.
func DunningCaseModelFromDomain(c *dunning.DunningCase) *DunningCaseModel {
	m := &DunningCaseModel{}
	m.FromDomain(c)
	return m
}

// DunningNoticeModel is the persistence model for a DunningNotice entity.
// The unique index over (invoice_id, level) is the database-level fence
// against two writers issuing the same escalation step.
type DunningNoticeModel struct {
	BaseModel
	CaseID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_notice_invoice_level,priority:1"`
	Level        int             `gorm:"not null;uniqueIndex:idx_notice_invoice_level,priority:2"`
	Label        string          `gorm:"type:varchar(100);not null"`
	Status       string          `gorm:"type:varchar(20);not null;default:'CREATED';index"`
	GrossAmount  decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Fee          decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	InterestRate decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	Interest     decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	TotalDue     decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	IssuedAt     time.Time       `gorm:"not null"`
	SentAt       *time.Time
	ClosedAt     *time.Time
}

// TableName returns the table name for GORM
func (DunningNoticeModel) TableName() string {
	return "dunning_notices"
}

// ToDomain converts the persistence model to a domain DunningNotice entity.
func (m *DunningNoticeModel) ToDomain() *dunning.DunningNotice {
	return &dunning.DunningNotice{
		BaseEntity:   m.BaseModel.ToDomain(),
		CaseID:       m.CaseID,
		InvoiceID:    m.InvoiceID,
		Level:        dunning.DunningLevel(m.Level),
		Label:        m.Label,
		Status:       dunning.NoticeStatus(m.Status),
		GrossAmount:  valueobject.NewMoneyEUR(m.GrossAmount),
		Fee:          valueobject.NewMoneyEUR(m.Fee),
		InterestRate: m.InterestRate,
		Interest:     valueobject.NewMoneyEUR(m.Interest),
		TotalDue:     valueobject.NewMoneyEUR(m.TotalDue),
		IssuedAt:     m.IssuedAt,
		SentAt:       m.SentAt,
		ClosedAt:     m.ClosedAt,
	}
}

// FromDomain populates the persistence model from a domain DunningNotice.
func (m *DunningNoticeModel) FromDomain(n *dunning.DunningNotice) {
	m.FromDomainBaseEntity(n.BaseEntity)
	m.CaseID = n.CaseID
	m.InvoiceID = n.InvoiceID
	m.Level = n.Level.Int()
	m.Label = n.Label
	m.Status = n.Status.String()
	m.GrossAmount = n.GrossAmount.Amount()
	m.Fee = n.Fee.Amount()
	m.InterestRate = n.InterestRate
	m.Interest = n.Interest.Amount()
	m.TotalDue = n.TotalDue.Amount()
	m.IssuedAt = n.IssuedAt
	m.SentAt = n.SentAt
	m.ClosedAt = n.ClosedAt
}
