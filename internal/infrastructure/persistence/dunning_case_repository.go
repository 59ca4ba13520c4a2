package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/mahnwerk/backend/internal/domain/dunning"
	"github.com/mahnwerk/backend/internal/domain/shared"
	"github.com/mahnwerk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDunningCaseRepository implements DunningCaseRepository using GORM
type GormDunningCaseRepository struct {
	db *gorm.DB
}

// NewGormDunningCaseRepository creates a new GormDunningCaseRepository
func NewGormDunningCaseRepository(db *gorm.DB) *GormDunningCaseRepository {
	return &GormDunningCaseRepository{db: db}
}

// FindByID finds a dunning case with its notices by case ID
func (r *GormDunningCaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*dunning.DunningCase, error) {
	var model models.DunningCaseModel
	if err := r.db.WithContext(ctx).
		Preload("Notices", noticesByLevel).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByInvoiceID finds the dunning case for an invoice, with notices
func (r *GormDunningCaseRepository) FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*dunning.DunningCase, error) {
	var model models.DunningCaseModel
	if err := r.db.WithContext(ctx).
		Preload("Notices", noticesByLevel).
		Where("invoice_id = ?", invoiceID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNoticeID finds the dunning case owning the given notice
func (r *GormDunningCaseRepository) FindByNoticeID(ctx context.Context, noticeID uuid.UUID) (*dunning.DunningCase, error) {
	var notice models.DunningNoticeModel
	if err := r.db.WithContext(ctx).
		Select("case_id").
		First(&notice, "id = ?", noticeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return r.FindByID(ctx, notice.CaseID)
}

// FindAll finds dunning cases with filtering
func (r *GormDunningCaseRepository) FindAll(ctx context.Context, filter dunning.CaseFilter) ([]dunning.DunningCase, error) {
	var caseModels []models.DunningCaseModel
	query := r.db.WithContext(ctx).Model(&models.DunningCaseModel{}).
		Preload("Notices", noticesByLevel)
	query = r.applyCaseFilter(query, filter)

	if err := query.Find(&caseModels).Error; err != nil {
		return nil, err
	}
	cases := make([]dunning.DunningCase, len(caseModels))
	for i := range caseModels {
		cases[i] = *caseModels[i].ToDomain()
	}
	return cases, nil
}

// Save creates a dunning case together with its notices. A concurrent writer
// opening a case for the same invoice trips the unique invoice index and is
// reported as a concurrency conflict.
func (r *GormDunningCaseRepository) Save(ctx context.Context, c *dunning.DunningCase) error {
	model := models.DunningCaseModelFromDomain(c)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrConcurrencyConflict
		}
		return err
	}
	return nil
}

// SaveWithLock saves with optimistic locking. The case row is updated only if
// its stored version matches the version the aggregate was loaded with, and
// the notices are upserted under the (invoice_id, level) unique index. Either
// fence failing surfaces as shared.ErrConcurrencyConflict.
func (r *GormDunningCaseRepository) SaveWithLock(ctx context.Context, c *dunning.DunningCase) error {
	model := models.DunningCaseModelFromDomain(c)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.DunningCaseModel{}).
			Where("id = ? AND version = ?", c.ID, c.Version-1).
			Updates(map[string]any{
				"current_level": model.CurrentLevel,
				"version":       model.Version,
				"updated_at":    model.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		if len(model.Notices) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).Create(&model.Notices).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) || isUniqueViolation(err) {
			return shared.ErrConcurrencyConflict
		}
		return err
	}
	return nil
}

// Count counts dunning cases matching the filter
func (r *GormDunningCaseRepository) Count(ctx context.Context, filter dunning.CaseFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.DunningCaseModel{})
	query = r.applyCaseFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// noticesByLevel orders preloaded notices by escalation level
func noticesByLevel(db *gorm.DB) *gorm.DB {
	return db.Order("level ASC")
}

// caseSortColumns is the allowlist of sortable columns for case queries
var caseSortColumns = map[string]bool{
	"created_at":    true,
	"updated_at":    true,
	"current_level": true,
	"invoice_id":    true,
}

// applyCaseFilter applies filter options to the query
func (r *GormDunningCaseRepository) applyCaseFilter(query *gorm.DB, filter dunning.CaseFilter) *gorm.DB {
	query = r.applyCaseFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" && caseSortColumns[filter.OrderBy] {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applyCaseFilterWithoutPagination applies filter options without pagination
func (r *GormDunningCaseRepository) applyCaseFilterWithoutPagination(query *gorm.DB, filter dunning.CaseFilter) *gorm.DB {
	if filter.MinLevel != nil {
		query = query.Where("current_level >= ?", filter.MinLevel.Int())
	}
	if filter.MaxLevelCap != nil {
		query = query.Where("current_level <= ?", filter.MaxLevelCap.Int())
	}
	if filter.NoticeStatus != nil {
		query = query.Where("id IN (?)",
			r.db.Model(&models.DunningNoticeModel{}).
				Select("case_id").
				Where("status = ?", filter.NoticeStatus.String()))
	}
	return query
}

// isUniqueViolation reports whether the error is a unique index violation.
// Matched across the postgres and sqlite drivers.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// Ensure GormDunningCaseRepository implements DunningCaseRepository
var _ dunning.DunningCaseRepository = (*GormDunningCaseRepository)(nil)
