package models

import (
	"maps"

	"github.com/erp/workstation/internal/domain/grid"
	"gorm.io/datatypes"
)

// TableSettingsModel is the GORM model for the table_settings table
type TableSettingsModel struct {
	AggregateModel
	UserID           string                                  `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex:idx_table_settings_owner,priority:1"`
	TableIdentifier  string                                  `gorm:"column:table_identifier;type:varchar(100);not null;uniqueIndex:idx_table_settings_owner,priority:2"`
	Columns          datatypes.JSONSlice[grid.ColumnSetting] `gorm:"column:columns;not null"`
	DefaultRowHeight *int                                    `gorm:"column:default_row_height"`
	CustomRowHeights datatypes.JSONType[map[string]int]      `gorm:"column:custom_row_heights"`
}

// TableName returns the table name for TableSettingsModel
func (TableSettingsModel) TableName() string {
	return "table_settings"
}

// ToDomain converts TableSettingsModel to domain TableSettings
func (m *TableSettingsModel) ToDomain() *grid.TableSettings {
	columns := make([]grid.ColumnSetting, len(m.Columns))
	copy(columns, m.Columns)

	var custom map[string]int
	if data := m.CustomRowHeights.Data(); len(data) > 0 {
		custom = maps.Clone(data)
	}

	return &grid.TableSettings{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		UserID:            m.UserID,
		TableIdentifier:   m.TableIdentifier,
		Columns:           columns,
		DefaultRowHeight:  m.DefaultRowHeight,
		CustomRowHeights:  custom,
	}
}

// TableSettingsModelFromDomain creates a TableSettingsModel from domain TableSettings
func TableSettingsModelFromDomain(s *grid.TableSettings) *TableSettingsModel {
	m := &TableSettingsModel{
		UserID:           s.UserID,
		TableIdentifier:  s.TableIdentifier,
		Columns:          datatypes.NewJSONSlice(s.Columns),
		DefaultRowHeight: s.DefaultRowHeight,
		CustomRowHeights: datatypes.NewJSONType(s.CustomRowHeights),
	}
	if m.Columns == nil {
		m.Columns = datatypes.NewJSONSlice([]grid.ColumnSetting{})
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	return m
}
