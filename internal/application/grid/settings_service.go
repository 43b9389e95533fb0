package grid

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/erp/workstation/internal/domain/grid"
	"github.com/erp/workstation/internal/domain/shared"
	"go.uber.org/zap"
)

// SettingsService persists per-user table layouts. Every operation is scoped
// to the calling user and fails closed when the caller is unknown.
type SettingsService struct {
	repo           grid.TableSettingsRepository
	logger         *zap.Logger
	resizeDebounce time.Duration
	saveTimeout    time.Duration
}

// SettingsOption configures a SettingsService
type SettingsOption func(*SettingsService)

// WithSessionDefaults sets the width save debounce and save timeout of
// mounted sessions whose MountRequest leaves them zero
func WithSessionDefaults(resizeDebounce, saveTimeout time.Duration) SettingsOption {
	return func(s *SettingsService) {
		s.resizeDebounce = resizeDebounce
		s.saveTimeout = saveTimeout
	}
}

// NewSettingsService creates a new settings service
func NewSettingsService(repo grid.TableSettingsRepository, logger *zap.Logger, opts ...SettingsOption) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SettingsService{
		repo:   repo,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func requireCaller(caller string) error {
	if strings.TrimSpace(caller) == "" {
		return grid.ErrSettingsNotOwned
	}
	return nil
}

// GetSettings returns the caller's layout of a table, or nil when the table
// has never been customized.
func (s *SettingsService) GetSettings(ctx context.Context, caller, table string) (*grid.TableSettings, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if err := grid.ValidateTableIdentifier(table); err != nil {
		return nil, err
	}

	settings, err := s.repo.FindByUserAndTable(ctx, caller, table)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.Warn("Failed to load table settings",
			zap.String("user_id", caller),
			zap.String("table", table),
			zap.Error(err))
		return nil, shared.NewTransientError("load table settings", err)
	}
	return settings, nil
}

// SaveSettings replaces the caller's layout of a table. Writes are last
// write wins per (user, table).
func (s *SettingsService) SaveSettings(ctx context.Context, caller, table string, req SaveSettingsRequest) (*grid.TableSettings, error) {
	return s.save(ctx, caller, table, func(existing *grid.TableSettings) (*grid.TableSettings, error) {
		cols := req.ToDomain()
		if existing == nil {
			return grid.NewTableSettings(caller, table, cols, req.DefaultRowHeight, req.CustomRowHeights)
		}
		if err := existing.Update(cols, req.DefaultRowHeight, req.CustomRowHeights); err != nil {
			return nil, err
		}
		return existing, nil
	})
}

// SaveWidths merges a width snapshot into the caller's layout. Columns
// without a stored setting are created from defs. Row heights are kept.
func (s *SettingsService) SaveWidths(ctx context.Context, caller, table string, defs []grid.ColumnDefinition, widths grid.ColumnWidths) (*grid.TableSettings, error) {
	return s.save(ctx, caller, table, func(existing *grid.TableSettings) (*grid.TableSettings, error) {
		if existing == nil {
			return grid.NewTableSettings(caller, table, grid.ColumnSettingsFromDefinitions(defs, widths), nil, nil)
		}
		if err := existing.Update(existing.ApplyWidths(widths), nil, nil); err != nil {
			return nil, err
		}
		return existing, nil
	})
}

func (s *SettingsService) save(ctx context.Context, caller, table string, build func(*grid.TableSettings) (*grid.TableSettings, error)) (*grid.TableSettings, error) {
	existing, err := s.GetSettings(ctx, caller, table)
	if err != nil {
		return nil, err
	}

	settings, err := build(existing)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Upsert(ctx, settings); err != nil {
		s.logger.Warn("Failed to save table settings",
			zap.String("user_id", caller),
			zap.String("table", table),
			zap.Error(err))
		return nil, shared.NewTransientError("save table settings", err)
	}

	s.logger.Debug("Table settings saved",
		zap.String("user_id", caller),
		zap.String("table", table),
		zap.Int("columns", len(settings.Columns)))
	return settings, nil
}

// DeleteSettings resets a table to its column defaults
func (s *SettingsService) DeleteSettings(ctx context.Context, caller, table string) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if err := grid.ValidateTableIdentifier(table); err != nil {
		return err
	}
	if err := s.repo.DeleteByUserAndTable(ctx, caller, table); err != nil {
		s.logger.Warn("Failed to delete table settings",
			zap.String("user_id", caller),
			zap.String("table", table),
			zap.Error(err))
		return shared.NewTransientError("delete table settings", err)
	}
	s.logger.Info("Table settings reset", zap.String("user_id", caller), zap.String("table", table))
	return nil
}

// ListSettings returns every table the caller has customized
func (s *SettingsService) ListSettings(ctx context.Context, caller string, req ListSettingsRequest) ([]grid.TableSettings, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
	}.Normalize()

	list, err := s.repo.FindAllByUser(ctx, caller, filter)
	if err != nil {
		s.logger.Warn("Failed to list table settings", zap.String("user_id", caller), zap.Error(err))
		return nil, shared.NewTransientError("list table settings", err)
	}
	return list, nil
}
