package integration

import (
	"context"
	"sync"
	"testing"

	"github.com/erp/workstation/internal/domain/grid"
	"github.com/erp/workstation/internal/domain/shared"
	"github.com/erp/workstation/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSettings(t *testing.T, userID, table string, width float64) *grid.TableSettings {
	t.Helper()
	height := 36
	s, err := grid.NewTableSettings(userID, table, []grid.ColumnSetting{
		{FieldKey: "label", Width: width, IsVisible: true},
		{FieldKey: "amount", Width: 120, IsVisible: false, Pinned: grid.PinRight},
	}, &height, map[string]int{"row-7": 48})
	require.NoError(t, err)
	return s
}

func TestTableSettingsRepository_Postgres(t *testing.T) {
	tdb := NewTestDB(t)
	repo := persistence.NewGormTableSettingsRepository(tdb.DB)
	ctx := context.Background()

	t.Run("upsert and load", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, newSettings(t, "user-1", "budget-lines", 240)))

		got, err := repo.FindByUserAndTable(ctx, "user-1", "budget-lines")
		require.NoError(t, err)
		require.Len(t, got.Columns, 2)
		assert.Equal(t, 240.0, got.Columns[0].Width)
		assert.Equal(t, grid.PinRight, got.Columns[1].Pinned)
		assert.False(t, got.Columns[1].IsVisible)
		require.NotNil(t, got.DefaultRowHeight)
		assert.Equal(t, 36, *got.DefaultRowHeight)
		assert.Equal(t, map[string]int{"row-7": 48}, got.CustomRowHeights)
	})

	t.Run("second upsert replaces the record", func(t *testing.T) {
		first := newSettings(t, "user-2", "funds", 100)
		require.NoError(t, repo.Upsert(ctx, first))
		require.NoError(t, repo.Upsert(ctx, newSettings(t, "user-2", "funds", 300)))

		got, err := repo.FindByUserAndTable(ctx, "user-2", "funds")
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.ID)
		assert.Equal(t, 300.0, got.Columns[0].Width)
		assert.Equal(t, 2, got.Version)

		var count int64
		require.NoError(t, tdb.DB.Table("table_settings").Where("user_id = ?", "user-2").Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("concurrent upserts keep one row", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make(chan error, 8)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(width float64) {
				defer wg.Done()
				errs <- repo.Upsert(ctx, newSettings(t, "user-3", "access-requests", width))
			}(float64(100 + i*10))
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		var count int64
		require.NoError(t, tdb.DB.Table("table_settings").
			Where("user_id = ? AND table_identifier = ?", "user-3", "access-requests").
			Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("rows are owned by their user", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, newSettings(t, "user-4", "activity-log", 150)))

		_, err := repo.FindByUserAndTable(ctx, "user-5", "activity-log")
		assert.ErrorIs(t, err, shared.ErrNotFound)

		require.NoError(t, repo.DeleteByUserAndTable(ctx, "user-5", "activity-log"))
		_, err = repo.FindByUserAndTable(ctx, "user-4", "activity-log")
		assert.NoError(t, err)
	})

	t.Run("schema rejects non-positive row heights", func(t *testing.T) {
		err := tdb.DB.Exec(`INSERT INTO table_settings (id, created_at, updated_at, user_id, table_identifier, columns, default_row_height)
			VALUES (gen_random_uuid(), NOW(), NOW(), 'user-6', 'budget-lines', '[]', -5)`).Error
		assert.Error(t, err)
	})
}
