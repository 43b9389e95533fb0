package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	gridapp "github.com/erp/workstation/internal/application/grid"
	"github.com/erp/workstation/internal/domain/grid"
	"github.com/erp/workstation/internal/domain/shared"
	"github.com/erp/workstation/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockTableSettingsRepository implements grid.TableSettingsRepository for testing
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

func setupGridRouter(userID string) (*gin.Engine, *MockTableSettingsRepository) {
	repo := new(MockTableSettingsRepository)
	h := NewGridSettingsHandler(gridapp.NewSettingsService(repo, zap.NewNop()))

	engine := gin.New()
	api := engine.Group("/api/v1")
	auth := func(c *gin.Context) { c.Next() }
	if userID != "" {
		auth = withUser(userID)
	}
	GridRoutes(h, auth).RegisterRoutes(api)
	return engine, repo
}

func budgetLineSettings(t *testing.T) *grid.TableSettings {
	t.Helper()
	s, err := grid.NewTableSettings("user-1", "budget-lines", []grid.ColumnSetting{
		{FieldKey: "code", Width: 120, IsVisible: true},
		{FieldKey: "description", Width: 320, IsVisible: true, Pinned: grid.PinLeft},
	}, nil, nil)
	require.NoError(t, err)
	return s
}

func TestGridSettingsHandler_GetSettings(t *testing.T) {
	t.Run("returns the stored layout", func(t *testing.T) {
		engine, repo := setupGridRouter("user-1")
		repo.On("FindByUserAndTable", mock.Anything, "user-1", "budget-lines").Return(budgetLineSettings(t), nil)

		w := performRequest(engine, http.MethodGet, "/api/v1/grid/settings/budget-lines", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse[gridapp.SettingsResponse](t, w)
		assert.True(t, resp.Success)
		assert.Equal(t, "budget-lines", resp.Data.TableIdentifier)
		require.Len(t, resp.Data.Columns, 2)
		assert.Equal(t, 320.0, resp.Data.Columns[1].Width)
		assert.Equal(t, "left", resp.Data.Columns[1].Pinned)
	})

	t.Run("null data for a table never customized", func(t *testing.T) {
		engine, repo := setupGridRouter("user-1")
		repo.On("FindByUserAndTable", mock.Anything, "user-1", "funds").Return(nil, shared.ErrNotFound)

		w := performRequest(engine, http.MethodGet, "/api/v1/grid/settings/funds", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse[*gridapp.SettingsResponse](t, w)
		assert.True(t, resp.Success)
		assert.Nil(t, resp.Data)
	})

	t.Run("anonymous callers are rejected", func(t *testing.T) {
		engine, repo := setupGridRouter("")

		w := performRequest(engine, http.MethodGet, "/api/v1/grid/settings/budget-lines", nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		repo.AssertNotCalled(t, "FindByUserAndTable", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store failure is a retryable 503", func(t *testing.T) {
		engine, repo := setupGridRouter("user-1")
		repo.On("FindByUserAndTable", mock.Anything, "user-1", "budget-lines").Return(nil, errors.New("connection refused"))

		w := performRequest(engine, http.MethodGet, "/api/v1/grid/settings/budget-lines", nil)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		resp := decodeResponse[any](t, w)
		assert.True(t, resp.Error.Retryable)
	})
}

func TestGridSettingsHandler_SaveSettings(t *testing.T) {
	t.Run("creates a layout", func(t *testing.T) {
		engine, repo := setupGridRouter("user-1")
		repo.On("FindByUserAndTable", mock.Anything, "user-1", "budget-lines").Return(nil, shared.ErrNotFound)
		repo.On("Upsert", mock.Anything, mock.MatchedBy(func(s *grid.TableSettings) bool {
			return s.UserID == "user-1" && len(s.Columns) == 2 && s.Columns[0].Width == 140
		})).Return(nil)

		body := map[string]any{
			"columns": []map[string]any{
				{"field_key": "code", "width": 140, "is_visible": true},
				{"field_key": "amount", "width": 90, "is_visible": true, "pinned": "right"},
			},
			"default_row_height": 32,
		}
		w := performRequest(engine, http.MethodPut, "/api/v1/grid/settings/budget-lines", body)

		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decodeResponse[gridapp.SettingsResponse](t, w)
		require.NotNil(t, resp.Data.DefaultRowHeight)
		assert.Equal(t, 32, *resp.Data.DefaultRowHeight)
		repo.AssertExpectations(t)
	})

	t.Run("duplicate field keys", func(t *testing.T) {
		engine, repo := setupGridRouter("user-1")
		repo.On("FindByUserAndTable", mock.Anything, "user-1", "budget-lines").Return(nil, shared.ErrNotFound)

		body := map[string]any{
			"columns": []map[string]any{
				{"field_key": "code", "width": 140},
				{"field_key": "code", "width": 90},
			},
		}
		w := performRequest(engine, http.MethodPut, "/api/v1/grid/settings/budget-lines", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse[any](t, w)
		assert.Equal(t, dto.ErrCodeGridDuplicateKey, resp.Error.Code)
		repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("binding failure", func(t *testing.T) {
		engine, _ := setupGridRouter("user-1")

		body := map[string]any{
			"columns": []map[string]any{{"width": 140}},
		}
		w := performRequest(engine, http.MethodPut, "/api/v1/grid/settings/budget-lines", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse[any](t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		engine, _ := setupGridRouter("user-1")

		w := performRequest(engine, http.MethodPut, "/api/v1/grid/settings/budget-lines", `{"columns": [`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse[any](t, w)
		assert.Equal(t, dto.ErrCodeInvalidJSON, resp.Error.Code)
	})
}

func TestGridSettingsHandler_DeleteSettings(t *testing.T) {
	engine, repo := setupGridRouter("user-1")
	repo.On("DeleteByUserAndTable", mock.Anything, "user-1", "budget-lines").Return(nil)

	w := performRequest(engine, http.MethodDelete, "/api/v1/grid/settings/budget-lines", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	repo.AssertExpectations(t)
}

func TestGridSettingsHandler_ListSettings(t *testing.T) {
	t.Run("lists the caller's tables", func(t *testing.T) {
		engine, repo := setupGridRouter("user-1")
		want := shared.Filter{Page: 2, PageSize: 5, OrderBy: "table_identifier", OrderDir: "asc"}
		repo.On("FindAllByUser", mock.Anything, "user-1", want).Return([]grid.TableSettings{*budgetLineSettings(t)}, nil)

		w := performRequest(engine, http.MethodGet, "/api/v1/grid/settings?page=2&page_size=5&order_by=table_identifier&order_dir=asc", nil)

		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decodeResponse[[]gridapp.SettingsResponse](t, w)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "budget-lines", resp.Data[0].TableIdentifier)
		repo.AssertExpectations(t)
	})

	t.Run("rejects an unknown order column", func(t *testing.T) {
		engine, _ := setupGridRouter("user-1")

		w := performRequest(engine, http.MethodGet, "/api/v1/grid/settings?order_by=password", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
