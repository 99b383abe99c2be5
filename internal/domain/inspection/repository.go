package inspection

import (
	"context"

	"github.com/google/uuid"
	"github.com/propman/backend/internal/domain/shared"
)

// InspectionRepository defines the interface for inspection persistence
type InspectionRepository interface {
	// FindByID finds an inspection by ID, items included
	FindByID(ctx context.Context, id uuid.UUID) (*Inspection, error)

	// FindByContract finds inspections for a contract
	FindByContract(ctx context.Context, contractID uuid.UUID) ([]Inspection, error)

	// FindByUnit finds inspections for a rental unit
	FindByUnit(ctx context.Context, unitID uuid.UUID, filter shared.Filter) ([]Inspection, error)

	// FindByStatus finds inspections by status
	FindByStatus(ctx context.Context, status InspectionStatus, filter shared.Filter) ([]Inspection, error)

	// FindAll finds inspections with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]Inspection, error)

	// Save creates or updates an inspection and its items
	Save(ctx context.Context, insp *Inspection) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, insp *Inspection) error

	// Delete deletes an inspection (soft delete)
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts inspections with optional filters
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// CountByStatus counts inspections by status
	CountByStatus(ctx context.Context, status InspectionStatus) (int64, error)
}
