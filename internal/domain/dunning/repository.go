package dunning

import (
	"context"

	"github.com/mahnwerk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CaseFilter defines filtering options for dunning case queries
type CaseFilter struct {
	shared.Filter
	MinLevel     *DunningLevel // Filter by minimum current level
	MaxLevelCap  *DunningLevel // Filter by maximum current level
	NoticeStatus *NoticeStatus // Filter cases having a notice in this status
}

// DunningCaseRepository defines the interface for dunning case persistence.
// Saving a case persists its notices as part of the same transaction.
type DunningCaseRepository interface {
	// FindByID finds a dunning case with its notices by case ID
	FindByID(ctx context.Context, id uuid.UUID) (*DunningCase, error)

	// FindByInvoiceID finds the dunning case for an invoice, with notices.
	// Returns shared.ErrNotFound if no case has been opened for the invoice.
	FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*DunningCase, error)

	// FindByNoticeID finds the dunning case owning the given notice
	FindByNoticeID(ctx context.Context, noticeID uuid.UUID) (*DunningCase, error)

	// FindAll finds dunning cases with filtering
	FindAll(ctx context.Context, filter CaseFilter) ([]DunningCase, error)

	// Save creates or updates a dunning case together with its notices
	Save(ctx context.Context, c *DunningCase) error

	// SaveWithLock saves with optimistic locking. Returns
	// shared.ErrConcurrencyConflict when the version check fails or a
	// concurrent writer already inserted a notice at the same level.
	SaveWithLock(ctx context.Context, c *DunningCase) error

	// Count counts dunning cases matching the filter
	Count(ctx context.Context, filter CaseFilter) (int64, error)
}
