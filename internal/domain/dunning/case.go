package dunning

import (
	"time"

	"github.com/mahnwerk/backend/internal/domain/shared"
	"github.com/mahnwerk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// DunningCase is the aggregate root tracking the escalation history of one
// invoice. At most one case exists per invoice, and the case level only ever
// moves up, one step at a time. The case carries an optimistic locking
// version; concurrent escalations race on it and on the unique
// (invoice_id, level) constraint over the notices.
type DunningCase struct {
	shared.BaseAggregateRoot
	InvoiceID    uuid.UUID       `json:"invoice_id" gorm:"type:uuid;not null;uniqueIndex"`
	CurrentLevel DunningLevel    `json:"current_level" gorm:"not null;default:0"`
	Notices      []DunningNotice `json:"notices" gorm:"foreignKey:CaseID"`
}

// NewDunningCase opens a dunning case for an invoice at level 0
func NewDunningCase(invoiceID uuid.UUID) *DunningCase {
	c := &DunningCase{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceID:         invoiceID,
		CurrentLevel:      LevelNone,
		Notices:           make([]DunningNotice, 0),
	}
	c.AddDomainEvent(NewCaseOpenedEvent(c.ID, invoiceID))
	return c
}

// Escalate advances the case one level and issues the notice for the new
// level using the given policy terms and invoice gross amount. Returns
// MAX_LEVEL_REACHED if the case already sits at the top of the ladder.
func (c *DunningCase) Escalate(gross valueobject.Money, policy EscalationPolicy, now time.Time) (*DunningNotice, error) {
	if c.CurrentLevel >= MaxLevel {
		return nil, ErrMaxLevelReached
	}

	next := c.CurrentLevel.Next()
	terms, err := policy.TermsFor(next)
	if err != nil {
		return nil, err
	}
	if c.NoticeAtLevel(next) != nil {
		// The in-memory state already holds a notice for the target level,
		// so another writer won this escalation.
		return nil, ErrConcurrentEscalation
	}

	notice, err := NewDunningNotice(c.ID, c.InvoiceID, gross, terms, now)
	if err != nil {
		return nil, err
	}

	c.Notices = append(c.Notices, *notice)
	c.CurrentLevel = next
	c.UpdatedAt = now
	c.IncrementVersion()
	c.AddDomainEvent(NewNoticeIssuedEvent(c.ID, notice))

	return &c.Notices[len(c.Notices)-1], nil
}

// MarkNoticeSent transitions the identified notice from CREATED to SENT
func (c *DunningCase) MarkNoticeSent(noticeID uuid.UUID, now time.Time) (*DunningNotice, error) {
	notice := c.noticeByID(noticeID)
	if notice == nil {
		return nil, ErrNoticeNotFound
	}
	if err := notice.MarkSent(now); err != nil {
		return nil, err
	}
	c.UpdatedAt = now
	c.IncrementVersion()
	c.AddDomainEvent(NewNoticeStatusChangedEvent(EventTypeNoticeSent, c.ID, notice))
	return notice, nil
}

// MarkNoticePaid closes the identified notice as paid. Repeating the call on
// an already paid notice succeeds without touching the aggregate.
func (c *DunningCase) MarkNoticePaid(noticeID uuid.UUID, now time.Time) (*DunningNotice, error) {
	notice := c.noticeByID(noticeID)
	if notice == nil {
		return nil, ErrNoticeNotFound
	}
	changed, err := notice.MarkPaid(now)
	if err != nil {
		return nil, err
	}
	if changed {
		c.UpdatedAt = now
		c.IncrementVersion()
		c.AddDomainEvent(NewNoticeStatusChangedEvent(EventTypeNoticePaid, c.ID, notice))
	}
	return notice, nil
}

// MarkNoticeCancelled closes the identified notice as cancelled. Repeating
// the call on an already cancelled notice succeeds without touching the
// aggregate.
func (c *DunningCase) MarkNoticeCancelled(noticeID uuid.UUID, now time.Time) (*DunningNotice, error) {
	notice := c.noticeByID(noticeID)
	if notice == nil {
		return nil, ErrNoticeNotFound
	}
	changed, err := notice.MarkCancelled(now)
	if err != nil {
		return nil, err
	}
	if changed {
		c.UpdatedAt = now
		c.IncrementVersion()
		c.AddDomainEvent(NewNoticeStatusChangedEvent(EventTypeNoticeCancelled, c.ID, notice))
	}
	return notice, nil
}

// NoticeAtLevel returns the notice issued for the given level, or nil
func (c *DunningCase) NoticeAtLevel(level DunningLevel) *DunningNotice {
	for i := range c.Notices {
		if c.Notices[i].Level == level {
			return &c.Notices[i]
		}
	}
	return nil
}

// LatestNotice returns the notice with the highest level, or nil for a fresh case
func (c *DunningCase) LatestNotice() *DunningNotice {
	return c.NoticeAtLevel(c.CurrentLevel)
}

// AtMaxLevel returns true if no further escalation is possible
func (c *DunningCase) AtMaxLevel() bool {
	return c.CurrentLevel >= MaxLevel
}

// RebuildCurrentLevel reconciles the cached level from the notice history.
// The notices are the source of truth; the cached column exists for cheap
// filtering and the optimistic lock.
func (c *DunningCase) RebuildCurrentLevel() {
	level := LevelNone
	for i := range c.Notices {
		if c.Notices[i].Level > level {
			level = c.Notices[i].Level
		}
	}
	c.CurrentLevel = level
}

func (c *DunningCase) noticeByID(noticeID uuid.UUID) *DunningNotice {
	for i := range c.Notices {
		if c.Notices[i].ID == noticeID {
			return &c.Notices[i]
		}
	}
	return nil
}
