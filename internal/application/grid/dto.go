package grid

import (
	"time"

	"github.com/erp/workstation/internal/domain/grid"
)

// =============================================================================
// Table Settings DTOs
// =============================================================================

// ColumnSettingDTO is the layout of one column
type ColumnSettingDTO struct {
	FieldKey  string   `json:"field_key" binding:"required,max=100"`
	Width     float64  `json:"width" binding:"gte=0"`
	IsVisible bool     `json:"is_visible"`
	Pinned    string   `json:"pinned" binding:"omitempty,oneof=none left right"`
	Flex      *float64 `json:"flex,omitempty" binding:"omitempty,gt=0"`
}

// SaveSettingsRequest replaces a user's layout of one table. Nil row
// heights keep the stored values.
type SaveSettingsRequest struct {
	Columns          []ColumnSettingDTO `json:"columns" binding:"dive"`
	DefaultRowHeight *int               `json:"default_row_height,omitempty" binding:"omitempty,gt=0"`
	CustomRowHeights map[string]int     `json:"custom_row_heights,omitempty"`
}

// ListSettingsRequest pages through the tables a user has customized
type ListSettingsRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=table_identifier updated_at created_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// SettingsResponse is a stored table layout
type SettingsResponse struct {
	ID               string             `json:"id"`
	TableIdentifier  string             `json:"table_identifier"`
	Columns          []ColumnSettingDTO `json:"columns"`
	DefaultRowHeight *int               `json:"default_row_height,omitempty"`
	CustomRowHeights map[string]int     `json:"custom_row_heights,omitempty"`
	Version          int                `json:"version"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// ToDomain converts the request columns
func (r SaveSettingsRequest) ToDomain() []grid.ColumnSetting {
	cols := make([]grid.ColumnSetting, len(r.Columns))
	for i, c := range r.Columns {
		cols[i] = grid.ColumnSetting{
			FieldKey:  c.FieldKey,
			Width:     c.Width,
			IsVisible: c.IsVisible,
			Pinned:    grid.PinSide(c.Pinned),
			Flex:      c.Flex,
		}
	}
	return cols
}

// ToSettingsResponse converts a domain record
func ToSettingsResponse(s *grid.TableSettings) *SettingsResponse {
	if s == nil {
		return nil
	}
	cols := make([]ColumnSettingDTO, len(s.Columns))
	for i, c := range s.Columns {
		cols[i] = ColumnSettingDTO{
			FieldKey:  c.FieldKey,
			Width:     c.Width,
			IsVisible: c.IsVisible,
			Pinned:    string(c.Pinned),
			Flex:      c.Flex,
		}
	}
	return &SettingsResponse{
		ID:               s.ID.String(),
		TableIdentifier:  s.TableIdentifier,
		Columns:          cols,
		DefaultRowHeight: s.DefaultRowHeight,
		CustomRowHeights: s.CustomRowHeights,
		Version:          s.Version,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}
