package grid

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/workstation/internal/domain/grid"
	"github.com/erp/workstation/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockTableSettingsRepository is a mock implementation of TableSettingsRepository
type MockTableSettingsRepository struct {
	mock.Mock
}

func (m *MockTableSettingsRepository) FindByUserAndTable(ctx context.Context, userID, tableIdentifier string) (*grid.TableSettings, error) {
	args := m.Called(ctx, userID, tableIdentifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*grid.TableSettings), args.Error(1)
}

func (m *MockTableSettingsRepository) FindAllByUser(ctx context.Context, userID string, filter shared.Filter) ([]grid.TableSettings, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]grid.TableSettings), args.Error(1)
}

func (m *MockTableSettingsRepository) Upsert(ctx context.Context, settings *grid.TableSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

func (m *MockTableSettingsRepository) DeleteByUserAndTable(ctx context.Context, userID, tableIdentifier string) error {
	args := m.Called(ctx, userID, tableIdentifier)
	return args.Error(0)
}

func setupSettingsService() (*SettingsService, *MockTableSettingsRepository) {
	repo := new(MockTableSettingsRepository)
	return NewSettingsService(repo, zap.NewNop()), repo
}

func storedSettings(t *testing.T) *grid.TableSettings {
	t.Helper()
	s, err := grid.NewTableSettings("user-1", "budget-lines", []grid.ColumnSetting{
		{FieldKey: "code", Width: 120, IsVisible: true},
		{FieldKey: "description", Width: 300, IsVisible: true},
		{FieldKey: "amount", Width: 90, IsVisible: false},
	}, nil, nil)
	require.NoError(t, err)
	return s
}

func TestSettingsService_FailsClosedWithoutCaller(t *testing.T) {
	svc, repo := setupSettingsService()
	ctx := context.Background()

	_, err := svc.GetSettings(ctx, "", "budget-lines")
	assert.ErrorIs(t, err, grid.ErrSettingsNotOwned)

	_, err = svc.SaveSettings(ctx, "  ", "budget-lines", SaveSettingsRequest{})
	assert.ErrorIs(t, err, grid.ErrSettingsNotOwned)

	assert.ErrorIs(t, svc.DeleteSettings(ctx, "", "budget-lines"), grid.ErrSettingsNotOwned)

	_, err = svc.ListSettings(ctx, "", ListSettingsRequest{})
	assert.ErrorIs(t, err, grid.ErrSettingsNotOwned)

	_, err = svc.Mount(ctx, MountRequest{Table: "budget-lines"})
	assert.ErrorIs(t, err, grid.ErrSettingsNotOwned)

	repo.AssertNotCalled(t, "FindByUserAndTable", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestSettingsService_GetSettings(t *testing.T) {
	t.Run("returns stored settings", func(t *testing.T) {
		svc, repo := setupSettingsService()
		stored := storedSettings(t)
		repo.On("FindByUserAndTable", mock.Anything, "user-1", "budget-lines").Return(stored, nil)

		got, err := svc.GetSettings(context.Background(), "user-1", "budget-lines")
		require.NoError(t, err)
		assert.Same(t, stored, got)
	})

	t.Run("nil when never customized", func(t *testing.T) {
		svc, repo := setupSettingsService()
		repo.On("FindByUserAndTable", mock.Anything, "user-1", "budget-lines").Return(nil, shared.ErrNotFound)

		got, err := svc.GetSettings(context.Background(), "user-1", "budget-lines")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("repository failure is transient", func(t *testing.T) {
		svc, repo := setupSettingsService()
		repo.On("FindByUserAndTable", mock.Anything, "user-1", "budget-lines").Return(nil, errors.New("connection reset"))

		_, err := svc.GetSettings(context.Background(), "user-1", "budget-lines")
		require.Error(t, err)
		assert.True(t, shared.IsTransient(err))
	})

	t.Run("rejects empty table identifier", func(t *testing.T) {
		svc, _ := setupSettingsService()
		_, err := svc.GetSettings(context.Background(), "user-1", "")
		assert.ErrorIs(t, err, grid.ErrInvalidTableID)
	})
}

func TestSettingsService_SaveSettings(t *testing.T) {
	height := 32
	req := SaveSettingsRequest{
		Columns: []ColumnSettingDTO{
			{FieldKey: "code", Width: 140, IsVisible: true, Pinned: "left"},
			{FieldKey: "description", Width: 280, IsVisible: true},
		},
		DefaultRowHeight: &height,
	}

	t.Run("creates a record on first save", func(t *testing.T) {
		svc, repo := setupSettingsService()
		repo.On("FindByUserAndTable", mock.Anything, "user-1", "budget-lines").Return(nil, shared.ErrNotFound)
		repo.On("Upsert", mock.Anything, mock.MatchedBy(func(s *grid.TableSettings) bool {
			return s.UserID == "user-1" && s.TableIdentifier == "budget-lines" && len(s.Columns) == 2
		})).Return(nil)

		saved, err := svc.SaveSettings(context.Background(), "user-1", "budget-lines", req)
		require.NoError(t, err)
		assert.Equal(t, grid.PinLeft, saved.Columns[0].Pinned)
		assert.Equal(t, grid.PinNone, saved.Columns[1].Pinned)
		assert.Equal(t, 32, *saved.DefaultRowHeight)
		repo.AssertExpectations(t)
	})

	t.Run("updates the existing record", func(t *testing.T) {
		svc, repo := setupSettingsService()
		stored := storedSettings(t)
		id := stored.ID
		repo.On("FindByUserAndTable", mock.Anything, "user-1", "budget-lines").Return(stored, nil)
		repo.On("Upsert", mock.Anything, stored).Return(nil)

		saved, err := svc.SaveSettings(context.Background(), "user-1", "budget-lines", req)
		require.NoError(t, err)
		assert.Equal(t, id, saved.ID)
		assert.Equal(t, 2, saved.Version)
		assert.Len(t, saved.Columns, 2)
	})

	t.Run("invalid layout is rejected before writing", func(t *testing.T) {
		svc, repo := setupSettingsService()
		repo.On("FindByUserAndTable", mock.Anything, "user-1", "budget-lines").Return(nil, shared.ErrNotFound)

		bad := SaveSettingsRequest{Columns: []ColumnSettingDTO{{FieldKey: "code"}, {FieldKey: "code"}}}
		_, err := svc.SaveSettings(context.Background(), "user-1", "budget-lines", bad)
		assert.ErrorIs(t, err, grid.ErrDuplicateColumnKey)
		repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("write failure is transient", func(t *testing.T) {
		svc, repo := setupSettingsService()
		repo.On("FindByUserAndTable", mock.Anything, "user-1", "budget-lines").Return(nil, shared.ErrNotFound)
		repo.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("deadlock"))

		_, err := svc.SaveSettings(context.Background(), "user-1", "budget-lines", req)
		require.Error(t, err)
		assert.True(t, shared.IsTransient(err))
	})
}

func TestSettingsService_SaveWidths(t *testing.T) {
	defs := []grid.ColumnDefinition{
		{Key: "code", Label: "Code"},
		{Key: "description", Label: "Description", MaxWidth: grid.Width(400)},
	}

	t.Run("builds a layout from definitions", func(t *testing.T) {
		svc, repo := setupSettingsService()
		repo.On("FindByUserAndTable", mock.Anything, "user-1", "budget-lines").Return(nil, shared.ErrNotFound)
		repo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

		saved, err := svc.SaveWidths(context.Background(), "user-1", "budget-lines", defs, grid.ColumnWidths{"description": 900})
		require.NoError(t, err)
		assert.Equal(t, grid.ColumnWidths{"code": grid.DefaultColumnWidth, "description": 400}, saved.Widths())
	})

	t.Run("keeps visibility and row heights of stored layout", func(t *testing.T) {
		svc, repo := setupSettingsService()
		stored := storedSettings(t)
		height := 28
		stored.DefaultRowHeight = &height
		repo.On("FindByUserAndTable", mock.Anything, "user-1", "budget-lines").Return(stored, nil)
		repo.On("Upsert", mock.Anything, stored).Return(nil)

		saved, err := svc.SaveWidths(context.Background(), "user-1", "budget-lines", defs, grid.ColumnWidths{"code": 200})
		require.NoError(t, err)
		assert.Equal(t, 200.0, saved.Widths()["code"])
		assert.Equal(t, []string{"code", "description"}, saved.VisibleKeys())
		assert.Equal(t, 28, *saved.DefaultRowHeight)
	})
}

func TestSettingsService_DeleteSettings(t *testing.T) {
	svc, repo := setupSettingsService()
	repo.On("DeleteByUserAndTable", mock.Anything, "user-1", "budget-lines").Return(nil).Once()
	repo.On("DeleteByUserAndTable", mock.Anything, "user-1", "funds").Return(errors.New("timeout")).Once()

	require.NoError(t, svc.DeleteSettings(context.Background(), "user-1", "budget-lines"))

	err := svc.DeleteSettings(context.Background(), "user-1", "funds")
	assert.True(t, shared.IsTransient(err))
	repo.AssertExpectations(t)
}

func TestSettingsService_ListSettings(t *testing.T) {
	svc, repo := setupSettingsService()
	stored := storedSettings(t)
	repo.On("FindAllByUser", mock.Anything, "user-1", shared.Filter{
		Page: 2, PageSize: 100, OrderBy: "updated_at", OrderDir: "desc",
	}).Return([]grid.TableSettings{*stored}, nil)

	list, err := svc.ListSettings(context.Background(), "user-1", ListSettingsRequest{Page: 2, PageSize: 500})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "budget-lines", list[0].TableIdentifier)
}

func TestToSettingsResponse(t *testing.T) {
	assert.Nil(t, ToSettingsResponse(nil))

	stored := storedSettings(t)
	resp := ToSettingsResponse(stored)
	assert.Equal(t, stored.ID.String(), resp.ID)
	assert.Equal(t, "budget-lines", resp.TableIdentifier)
	require.Len(t, resp.Columns, 3)
	assert.Equal(t, "none", resp.Columns[0].Pinned)
	assert.False(t, resp.Columns[2].IsVisible)
}
