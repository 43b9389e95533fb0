package grid

import (
	"context"
	"time"

	"github.com/erp/workstation/internal/domain/grid"
	"github.com/erp/workstation/internal/domain/shared"
	"go.uber.org/zap"
)

// MountRequest describes a table being shown to a user
type MountRequest struct {
	Caller  string
	Table   string
	Columns []grid.ColumnDefinition
	RowIDs  []string

	ResizeDebounce time.Duration
	SaveTimeout    time.Duration
	OnWarning      func(error)
}

// Session is one mounted table: the live widths, the row selection and the
// column order restored from the caller's settings. It lives until Unmount.
type Session struct {
	caller    string
	table     string
	columns   []grid.ColumnDefinition
	widths    *grid.ColumnWidthController
	selection *grid.RowSelectionController
	logger    *zap.Logger
}

// Mount restores the caller's layout and starts the width controller. A
// failure to load settings is not fatal: the table mounts with defaults and
// the warning handler is told.
func (s *SettingsService) Mount(ctx context.Context, req MountRequest) (*Session, error) {
	if err := requireCaller(req.Caller); err != nil {
		return nil, err
	}
	if err := grid.ValidateColumns(req.Columns); err != nil {
		return nil, err
	}

	logger := s.logger.With(zap.String("user_id", req.Caller), zap.String("table", req.Table))

	columns := req.Columns
	var saved grid.ColumnWidths
	settings, err := s.GetSettings(ctx, req.Caller, req.Table)
	switch {
	case shared.IsTransient(err):
		logger.Warn("Mounting table with default layout", zap.Error(err))
		if req.OnWarning != nil {
			req.OnWarning(err)
		}
	case err != nil:
		return nil, err
	case settings != nil:
		columns = grid.ArrangeColumns(req.Columns, settings.Columns)
		saved = settings.Widths()
	}

	all := make([]grid.ColumnDefinition, len(req.Columns))
	copy(all, req.Columns)
	persister := grid.WidthPersisterFunc(func(ctx context.Context, widths grid.ColumnWidths) error {
		_, err := s.SaveWidths(ctx, req.Caller, req.Table, all, widths)
		return err
	})

	debounce, timeout := req.ResizeDebounce, req.SaveTimeout
	if debounce == 0 {
		debounce = s.resizeDebounce
	}
	if timeout == 0 {
		timeout = s.saveTimeout
	}

	controller, err := grid.NewColumnWidthController(columns, persister,
		grid.WithResizeDebounce(debounce),
		grid.WithSaveTimeout(timeout),
		grid.WithInitialWidths(saved),
		grid.WithWarningHandler(req.OnWarning),
		grid.WithWidthLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	logger.Debug("Table mounted", zap.Int("columns", len(columns)), zap.Bool("restored", settings != nil))

	return &Session{
		caller:    req.Caller,
		table:     req.Table,
		columns:   columns,
		widths:    controller,
		selection: grid.NewRowSelectionController(req.RowIDs),
		logger:    logger,
	}, nil
}

// Columns returns the visible columns in display order
func (s *Session) Columns() []grid.ColumnDefinition {
	out := make([]grid.ColumnDefinition, len(s.columns))
	copy(out, s.columns)
	return out
}

// Widths is the column width controller of the table
func (s *Session) Widths() *grid.ColumnWidthController {
	return s.widths
}

// Selection is the row selection of the table
func (s *Session) Selection() *grid.RowSelectionController {
	return s.selection
}

// SetRows replaces the visible rows after a filter, sort or page change.
// Selected rows that are no longer visible are dropped.
func (s *Session) SetRows(ids []string) int {
	pruned := s.selection.SetVisible(ids)
	if pruned > 0 {
		s.logger.Debug("Pruned stale row selection", zap.Int("pruned", pruned))
	}
	return pruned
}

// Flush writes pending width changes now
func (s *Session) Flush() error {
	return s.widths.Flush()
}

// Unmount tears the session down. Pending width saves are discarded.
func (s *Session) Unmount() {
	s.widths.Close()
	s.selection.Clear()
}
