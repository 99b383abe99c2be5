package persistence

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/propman/backend/internal/domain/inspection"
	"github.com/propman/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockInspectionRepository creates a GormInspectionRepository with a mocked SQL connection
func newMockInspectionRepository(t *testing.T) (*GormInspectionRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormInspectionRepository(gormDB), mock, mockDB
}

func TestNewGormInspectionRepository(t *testing.T) {
	t.Run("creates repository with valid DB", func(t *testing.T) {
		repo, _, mockDB := newMockInspectionRepository(t)
		defer mockDB.Close()

		assert.NotNil(t, repo)
		assert.NotNil(t, repo.db)
	})
}

func TestGormInspectionRepository_FindByID(t *testing.T) {
	t.Run("finds existing inspection with items", func(t *testing.T) {
		repo, mock, mockDB := newMockInspectionRepository(t)
		defer mockDB.Close()

		inspectionID := uuid.New()
		contractID := uuid.New()
		unitID := uuid.New()
		itemID := uuid.New()

		inspectionRows := sqlmock.NewRows([]string{"id", "contract_id", "unit_id", "inspection_date", "total_damage_cost", "status", "version"}).
			AddRow(inspectionID, contractID, unitID, time.Now(), decimal.Zero, "PENDING", 1)

		mock.ExpectQuery(`SELECT \* FROM "inspections" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(inspectionID, 1).
			WillReturnRows(inspectionRows)

		itemRows := sqlmock.NewRows([]string{"id", "inspection_id", "asset_id", "asset_name", "condition", "cost_overridden", "checked"}).
			AddRow(itemID, inspectionID, uuid.New(), "Refrigerator", "", false, false)

		mock.ExpectQuery(`SELECT \* FROM "inspection_items" WHERE "inspection_items"\."inspection_id" = \$1`).
			WithArgs(inspectionID).
			WillReturnRows(itemRows)

		insp, err := repo.FindByID(context.Background(), inspectionID)

		assert.NoError(t, err)
		require.NotNil(t, insp)
		assert.Equal(t, inspectionID, insp.ID)
		assert.Equal(t, contractID, insp.ContractID)
		assert.Equal(t, inspection.StatusPending, insp.Status)
		require.Len(t, insp.Items, 1)
		assert.Equal(t, "Refrigerator", insp.Items[0].AssetName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing inspection", func(t *testing.T) {
		repo, mock, mockDB := newMockInspectionRepository(t)
		defer mockDB.Close()

		inspectionID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "inspections" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(inspectionID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		insp, err := repo.FindByID(context.Background(), inspectionID)

		assert.Error(t, err)
		assert.Nil(t, insp)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInspectionRepository_CountByStatus(t *testing.T) {
	t.Run("counts inspections in a status", func(t *testing.T) {
		repo, mock, mockDB := newMockInspectionRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "inspections" WHERE status = \$1`).
			WithArgs("COMPLETED").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

		count, err := repo.CountByStatus(context.Background(), inspection.StatusCompleted)

		assert.NoError(t, err)
		assert.Equal(t, int64(7), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInspectionRepository_SaveWithLock(t *testing.T) {
	t.Run("rejects save when version is stale", func(t *testing.T) {
		repo, mock, mockDB := newMockInspectionRepository(t)
		defer mockDB.Close()

		insp, err := inspection.NewInspection(uuid.New(), uuid.New(), time.Now())
		require.NoError(t, err)
		insp.Version = 3

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT "version" FROM "inspections" WHERE id = \$1`).
			WithArgs(insp.ID).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(5))
		mock.ExpectRollback()

		err = repo.SaveWithLock(context.Background(), insp)

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "CONCURRENT_MODIFICATION", domainErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("update writes the cancellation timestamp", func(t *testing.T) {
		repo, mock, mockDB := newMockInspectionRepository(t)
		defer mockDB.Close()

		insp, err := inspection.NewInspection(uuid.New(), uuid.New(), time.Now())
		require.NoError(t, err)
		require.NoError(t, insp.Cancel("tenant rescheduled"))

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT "version" FROM "inspections" WHERE id = \$1`).
			WithArgs(insp.ID).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(insp.Version))
		mock.ExpectExec(`UPDATE "inspections" SET .*"cancelled_at".*WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM "inspection_items" WHERE inspection_id = \$1`).
			WithArgs(insp.ID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		require.NoError(t, repo.SaveWithLock(context.Background(), insp))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// Every column the optimistic-lock update writes must exist in the table the
// migration creates, or every mutating operation fails at runtime with an
// undefined-column error.
func TestInspectionsMigrationCoversLockedColumns(t *testing.T) {
	ddl, err := os.ReadFile(filepath.Join("..", "..", "..", "migrations", "000001_create_inspections.up.sql"))
	require.NoError(t, err)

	lockedColumns := []string{
		"contract_id",
		"unit_id",
		"inspection_date",
		"inspector_id",
		"inspector_name",
		"total_damage_cost",
		"status",
		"notes",
		"invoice_id",
		"started_at",
		"completed_at",
		"cancelled_at",
		"cancel_reason",
		"version",
		"updated_at",
	}
	for _, column := range lockedColumns {
		assert.Contains(t, string(ddl), column, "inspections table is missing column %s", column)
	}
}
