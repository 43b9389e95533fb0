package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/workstation/internal/domain/grid"
	"github.com/erp/workstation/internal/domain/shared"
	"github.com/erp/workstation/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTableSettingsRepository implements grid.TableSettingsRepository using GORM
type GormTableSettingsRepository struct {
	db *gorm.DB
}

// NewGormTableSettingsRepository creates a new GormTableSettingsRepository
func NewGormTableSettingsRepository(db *gorm.DB) *GormTableSettingsRepository {
	return &GormTableSettingsRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormTableSettingsRepository) WithTx(tx *gorm.DB) *GormTableSettingsRepository {
	return &GormTableSettingsRepository{db: tx}
}

// FindByUserAndTable returns the settings for one table owned by userID
func (r *GormTableSettingsRepository) FindByUserAndTable(ctx context.Context, userID, tableIdentifier string) (*grid.TableSettings, error) {
	var model models.TableSettingsModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND table_identifier = ?", userID, tableIdentifier).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllByUser lists every table layout saved by userID
func (r *GormTableSettingsRepository) FindAllByUser(ctx context.Context, userID string, filter shared.Filter) ([]grid.TableSettings, error) {
	filter = filter.Normalize()
	orderBy := ValidateSortField(filter.OrderBy, TableSettingsSortFields, "updated_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var rows []models.TableSettingsModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order(fmt.Sprintf("%s %s", orderBy, orderDir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]grid.TableSettings, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

// Upsert inserts settings or replaces the stored layout for the same
// (user_id, table_identifier). The row id and created_at of an existing
// record are kept; the stored version is bumped.
func (r *GormTableSettingsRepository) Upsert(ctx context.Context, settings *grid.TableSettings) error {
	if settings == nil {
		return shared.NewDomainError("INVALID_INPUT", "settings cannot be nil")
	}
	model := models.TableSettingsModelFromDomain(settings)

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "table_identifier"}},
			DoUpdates: clause.Assignments(map[string]any{
				"columns":            model.Columns,
				"default_row_height": model.DefaultRowHeight,
				"custom_row_heights": model.CustomRowHeights,
				"updated_at":         model.UpdatedAt,
				"version":            gorm.Expr("table_settings.version + 1"),
			}),
		}).
		Create(model)
	if result.Error != nil {
		return fmt.Errorf("upsert table settings: %w", result.Error)
	}
	return nil
}

// DeleteByUserAndTable removes a stored layout. Deleting a missing layout is
// not an error.
func (r *GormTableSettingsRepository) DeleteByUserAndTable(ctx context.Context, userID, tableIdentifier string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND table_identifier = ?", userID, tableIdentifier).
		Delete(&models.TableSettingsModel{}).Error
}

var _ grid.TableSettingsRepository = (*GormTableSettingsRepository)(nil)
