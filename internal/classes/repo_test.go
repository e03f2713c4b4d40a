package classes

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/veltaedu/velta-backend/pkg/db/models"
	"github.com/veltaedu/velta-backend/pkg/enums"
	"github.com/veltaedu/velta-backend/pkg/types"
)

const classesSchema = `
CREATE TABLE classes (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	teacher_id TEXT NOT NULL,
	branch_id TEXT NOT NULL,
	center_id TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'draft',
	payment_strategy TEXT NOT NULL,
	unit_price NUMERIC NOT NULL,
	start_date DATETIME NOT NULL,
	end_date DATETIME,
	created_at DATETIME,
	updated_at DATETIME
);
`

func setupRepo(t *testing.T) (Repository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.Exec(classesSchema).Error)
	t.Cleanup(func() {
		sqlDB, err := conn.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewRepository(conn), conn
}

func storedClass(status enums.ClassStatus, strategy enums.ClassPaymentStrategy) *models.Class {
	return &models.Class{
		ID:              uuid.New(),
		Name:            "Algebra II",
		TeacherID:       uuid.New(),
		BranchID:        uuid.New(),
		CenterID:        uuid.New(),
		Status:          status,
		PaymentStrategy: strategy,
		UnitPrice:       types.MoneyFromInt(3000),
		StartDate:       time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestFindByID(t *testing.T) {
	repo, conn := setupRepo(t)
	ctx := context.Background()

	class := storedClass(enums.ClassStatusActive, enums.ClassPaymentStrategyMonth)
	require.NoError(t, conn.Create(class).Error)

	found, err := repo.FindByID(ctx, class.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, class.TeacherID, found.TeacherID)
	require.True(t, found.UnitPrice.Equal(types.MoneyFromInt(3000)))

	missing, err := repo.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestListActiveByStrategy(t *testing.T) {
	repo, conn := setupRepo(t)
	ctx := context.Background()

	active := storedClass(enums.ClassStatusActive, enums.ClassPaymentStrategyMonth)
	require.NoError(t, conn.Create(active).Error)
	require.NoError(t, conn.Create(storedClass(enums.ClassStatusFinished, enums.ClassPaymentStrategyMonth)).Error)
	require.NoError(t, conn.Create(storedClass(enums.ClassStatusActive, enums.ClassPaymentStrategySession)).Error)

	rows, err := repo.ListActiveByStrategy(ctx, enums.ClassPaymentStrategyMonth)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, active.ID, rows[0].ID)
}
