package grid

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/workstation/internal/domain/grid"
	"github.com/erp/workstation/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sessionColumns() []grid.ColumnDefinition {
	return []grid.ColumnDefinition{
		{Key: "code", Label: "Code"},
		{Key: "description", Label: "Description", MaxWidth: grid.Width(500)},
		{Key: "amount", Label: "Amount", Type: grid.ColumnTypeCurrency},
		{Key: "notes", Label: "Notes"},
	}
}

func TestSettingsService_Mount_RestoresLayout(t *testing.T) {
	svc, repo := setupSettingsService()
	repo.On("FindByUserAndTable", mock.Anything, "user-1", "budget-lines").Return(storedSettings(t), nil)

	session, err := svc.Mount(context.Background(), MountRequest{
		Caller:         "user-1",
		Table:          "budget-lines",
		Columns:        sessionColumns(),
		RowIDs:         []string{"r1", "r2", "r3"},
		ResizeDebounce: time.Hour,
	})
	require.NoError(t, err)
	defer session.Unmount()

	keys := make([]string, 0)
	for _, c := range session.Columns() {
		keys = append(keys, c.Key)
	}
	// amount is hidden, notes is new and appended
	assert.Equal(t, []string{"code", "description", "notes"}, keys)
	assert.Equal(t, grid.ColumnWidths{"code": 120, "description": 300, "notes": grid.DefaultColumnWidth}, session.Widths().Widths())
	assert.Equal(t, []string{"r1", "r2", "r3"}, session.Selection().Visible())
}

func TestSettingsService_Mount_DefaultsOnTransientFailure(t *testing.T) {
	svc, repo := setupSettingsService()
	repo.On("FindByUserAndTable", mock.Anything, "user-1", "budget-lines").Return(nil, errors.New("connection refused"))

	var warned error
	session, err := svc.Mount(context.Background(), MountRequest{
		Caller:    "user-1",
		Table:     "budget-lines",
		Columns:   sessionColumns(),
		OnWarning: func(err error) { warned = err },
	})
	require.NoError(t, err)
	defer session.Unmount()

	assert.True(t, shared.IsTransient(warned))
	assert.Len(t, session.Columns(), 4)
	assert.Equal(t, grid.DefaultWidths(sessionColumns()), session.Widths().Widths())
}

func TestSettingsService_Mount_RejectsInvalidColumns(t *testing.T) {
	svc, _ := setupSettingsService()
	_, err := svc.Mount(context.Background(), MountRequest{
		Caller:  "user-1",
		Table:   "budget-lines",
		Columns: []grid.ColumnDefinition{{Key: "a"}, {Key: "a"}},
	})
	assert.ErrorIs(t, err, grid.ErrDuplicateColumnKey)
}

func TestSession_ResizePersistsThroughSettings(t *testing.T) {
	svc, repo := setupSettingsService()
	repo.On("FindByUserAndTable", mock.Anything, "user-1", "budget-lines").Return(nil, shared.ErrNotFound)

	var saved *grid.TableSettings
	repo.On("Upsert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*grid.TableSettings)
	}).Return(nil).Once()

	session, err := svc.Mount(context.Background(), MountRequest{
		Caller:         "user-1",
		Table:          "budget-lines",
		Columns:        sessionColumns(),
		ResizeDebounce: time.Hour,
	})
	require.NoError(t, err)
	defer session.Unmount()

	w := session.Widths()
	require.NoError(t, w.BeginResize("description", 400))
	width, err := w.UpdateResize(460)
	require.NoError(t, err)
	assert.Equal(t, 210.0, width)
	require.NoError(t, w.EndResize())

	require.NoError(t, session.Flush())
	require.NotNil(t, saved)
	assert.Equal(t, "user-1", saved.UserID)
	assert.Equal(t, 210.0, saved.Widths()["description"])
	assert.Len(t, saved.Columns, 4)
	repo.AssertExpectations(t)
}

func TestSession_UnmountDiscardsPendingSave(t *testing.T) {
	svc, repo := setupSettingsService()
	repo.On("FindByUserAndTable", mock.Anything, "user-1", "budget-lines").Return(nil, shared.ErrNotFound)

	session, err := svc.Mount(context.Background(), MountRequest{
		Caller:         "user-1",
		Table:          "budget-lines",
		Columns:        sessionColumns(),
		ResizeDebounce: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	_, err = session.Widths().SetWidth("code", 200)
	require.NoError(t, err)
	session.Unmount()

	time.Sleep(60 * time.Millisecond)
	repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	assert.Equal(t, grid.ResizeStateIdle, session.Widths().State())
}

func TestSession_SetRowsPrunesSelection(t *testing.T) {
	svc, repo := setupSettingsService()
	repo.On("FindByUserAndTable", mock.Anything, "user-1", "budget-lines").Return(nil, shared.ErrNotFound)

	session, err := svc.Mount(context.Background(), MountRequest{
		Caller:  "user-1",
		Table:   "budget-lines",
		Columns: sessionColumns(),
		RowIDs:  []string{"r1", "r2", "r3"},
	})
	require.NoError(t, err)
	defer session.Unmount()

	session.Selection().SelectAll(true)
	assert.Equal(t, 1, session.SetRows([]string{"r1", "r2", "r4"}))
	assert.Equal(t, []string{"r1", "r2"}, session.Selection().Selected())
	assert.True(t, session.Selection().IsIndeterminate())
}

func TestNewSettingsService_SessionDefaults(t *testing.T) {
	svc := NewSettingsService(new(MockTableSettingsRepository), nil, WithSessionDefaults(250*time.Millisecond, 3*time.Second))
	assert.Equal(t, 250*time.Millisecond, svc.resizeDebounce)
	assert.Equal(t, 3*time.Second, svc.saveTimeout)
}
