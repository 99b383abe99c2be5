package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/propman/backend/internal/domain/inspection"
	"github.com/propman/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormInspectionRepository implements InspectionRepository using GORM
type GormInspectionRepository struct {
	db *gorm.DB
}

// NewGormInspectionRepository creates a new GormInspectionRepository
func NewGormInspectionRepository(db *gorm.DB) *GormInspectionRepository {
	return &GormInspectionRepository{db: db}
}

// FindByID finds an inspection by its ID, items included
func (r *GormInspectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*inspection.Inspection, error) {
	var insp inspection.Inspection
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&insp, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &insp, nil
}

// FindByContract finds all inspections for a contract
func (r *GormInspectionRepository) FindByContract(ctx context.Context, contractID uuid.UUID) ([]inspection.Inspection, error) {
	var inspections []inspection.Inspection
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("contract_id = ?", contractID).
		Order("created_at DESC").
		Find(&inspections).Error; err != nil {
		return nil, err
	}
	return inspections, nil
}

// FindByUnit finds inspections for a rental unit with filtering
func (r *GormInspectionRepository) FindByUnit(ctx context.Context, unitID uuid.UUID, filter shared.Filter) ([]inspection.Inspection, error) {
	var inspections []inspection.Inspection
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&inspection.Inspection{}).Where("unit_id = ?", unitID),
		filter,
	)

	if err := query.Preload("Items").Find(&inspections).Error; err != nil {
		return nil, err
	}
	return inspections, nil
}

// FindByStatus finds inspections by status with filtering
func (r *GormInspectionRepository) FindByStatus(ctx context.Context, status inspection.InspectionStatus, filter shared.Filter) ([]inspection.Inspection, error) {
	var inspections []inspection.Inspection
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&inspection.Inspection{}).Where("status = ?", status),
		filter,
	)

	if err := query.Preload("Items").Find(&inspections).Error; err != nil {
		return nil, err
	}
	return inspections, nil
}

// FindAll finds inspections with filtering
func (r *GormInspectionRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inspection.Inspection, error) {
	var inspections []inspection.Inspection
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&inspection.Inspection{}),
		filter,
	)

	if err := query.Preload("Items").Find(&inspections).Error; err != nil {
		return nil, err
	}
	return inspections, nil
}

// Save creates or updates an inspection and its items
func (r *GormInspectionRepository) Save(ctx context.Context, insp *inspection.Inspection) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(insp).Error; err != nil {
			return err
		}
		return r.saveItems(tx, insp)
	})
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormInspectionRepository) SaveWithLock(ctx context.Context, insp *inspection.Inspection) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		if err := tx.Model(&inspection.Inspection{}).
			Where("id = ?", insp.ID).
			Select("version").
			Scan(&currentVersion).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if currentVersion != insp.Version {
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The inspection has been modified by another user")
		}

		insp.Version++
		insp.UpdatedAt = time.Now()

		result := tx.Model(&inspection.Inspection{}).
			Where("id = ? AND version = ?", insp.ID, currentVersion).
			Updates(map[string]interface{}{
				"contract_id":       insp.ContractID,
				"unit_id":           insp.UnitID,
				"inspection_date":   insp.InspectionDate,
				"inspector_id":      insp.InspectorID,
				"inspector_name":    insp.InspectorName,
				"total_damage_cost": insp.TotalDamageCost,
				"status":            insp.Status,
				"notes":             insp.Notes,
				"invoice_id":        insp.InvoiceID,
				"started_at":        insp.StartedAt,
				"completed_at":      insp.CompletedAt,
				"cancelled_at":      insp.CancelledAt,
				"cancel_reason":     insp.CancelReason,
				"version":           insp.Version,
				"updated_at":        insp.UpdatedAt,
			})

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The inspection has been modified by another user")
		}

		return r.saveItems(tx, insp)
	})
}

// saveItems reconciles the item rows with the aggregate's current item list
func (r *GormInspectionRepository) saveItems(tx *gorm.DB, insp *inspection.Inspection) error {
	currentItemIDs := make([]uuid.UUID, len(insp.Items))
	for i, item := range insp.Items {
		currentItemIDs[i] = item.ID
	}

	if len(currentItemIDs) > 0 {
		if err := tx.Where("inspection_id = ? AND id NOT IN ?", insp.ID, currentItemIDs).
			Delete(&inspection.InspectionItem{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("inspection_id = ?", insp.ID).
			Delete(&inspection.InspectionItem{}).Error; err != nil {
			return err
		}
	}

	for i := range insp.Items {
		insp.Items[i].InspectionID = insp.ID
		if err := tx.Save(&insp.Items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// Delete deletes an inspection and its items
func (r *GormInspectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("inspection_id = ?", id).Delete(&inspection.InspectionItem{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&inspection.Inspection{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Count counts inspections with optional filters
func (r *GormInspectionRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&inspection.Inspection{}),
		filter,
	)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus counts inspections by status
func (r *GormInspectionRepository) CountByStatus(ctx context.Context, status inspection.InspectionStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&inspection.Inspection{}).
		Where("status = ?", status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormInspectionRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
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

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormInspectionRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("inspector_name ILIKE ? OR notes ILIKE ?",
			searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "contract_id":
			query = query.Where("contract_id = ?", value)
		case "unit_id":
			query = query.Where("unit_id = ?", value)
		case "inspector_id":
			query = query.Where("inspector_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "statuses":
			if statuses, ok := value.([]string); ok && len(statuses) > 0 {
				query = query.Where("status IN ?", statuses)
			}
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("inspection_date >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("inspection_date <= ?", t)
			}
		}
	}

	return query
}

// Ensure GormInspectionRepository implements InspectionRepository
var _ inspection.InspectionRepository = (*GormInspectionRepository)(nil)
