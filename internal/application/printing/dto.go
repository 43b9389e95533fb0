package printing

import (
	"encoding/json"
	"time"

	"github.com/erp/workstation/internal/domain/grid"
	"github.com/erp/workstation/internal/domain/printing"
	"github.com/shopspring/decimal"
)

// DraftDecision answers the resume-or-discard question of an existing draft
type DraftDecision string

const (
	DraftResume  DraftDecision = "resume"
	DraftDiscard DraftDecision = "discard"
)

// =============================================================================
// Pagination and Export DTOs
// =============================================================================

// PrintRequest selects a dataset and the configuration to lay it out with.
// Entities are decoded by the kind's adapter; when absent they are read from
// the configured entity source.
type PrintRequest struct {
	Year     int                        `json:"year" binding:"required,min=1900,max=9999"`
	SubScope string                     `json:"sub_scope" binding:"max=64"`
	Title    string                     `json:"title" binding:"max=200"`
	Subtitle string                     `json:"subtitle" binding:"max=200"`
	Columns  []grid.ColumnDefinition    `json:"columns"`
	Entities json.RawMessage            `json:"entities,omitempty"`
	Totals   map[string]decimal.Decimal `json:"totals,omitempty"`
	Draft    DraftDecision              `json:"draft" binding:"omitempty,oneof=resume discard"`
	Config   *printing.DraftConfig      `json:"config,omitempty"`
}

// ExportRequest lays a dataset out and renders it to a document
type ExportRequest struct {
	PrintRequest
	Format   string            `json:"format" binding:"omitempty,oneof=pdf xlsx txt"`
	Filename string            `json:"filename" binding:"max=200"`
	Options  *ExportOptionsDTO `json:"options,omitempty"`
}

// ExportOptionsDTO is passed through to the rendering service
type ExportOptionsDTO struct {
	Scale            float64     `json:"scale" binding:"omitempty,gt=0,lte=2"`
	Margin           *MarginsDTO `json:"margin,omitempty"`
	PrintBackground  *bool       `json:"print_background,omitempty"`
	WaitForSelector  string      `json:"wait_for_selector" binding:"max=200"`
	WaitForTimeoutMS int         `json:"wait_for_timeout_ms" binding:"omitempty,min=0,max=60000"`
}

// MarginsDTO represents page margins in millimeters
type MarginsDTO struct {
	Top    int `json:"top" binding:"min=0,max=100"`
	Right  int `json:"right" binding:"min=0,max=100"`
	Bottom int `json:"bottom" binding:"min=0,max=100"`
	Left   int `json:"left" binding:"min=0,max=100"`
}

// PaginateResponse is the laid out page sequence
type PaginateResponse struct {
	DatasetID string               `json:"dataset_id"`
	Capacity  int                  `json:"capacity"`
	PageCount int                  `json:"page_count"`
	Config    printing.DraftConfig `json:"config"`
	Pages     []printing.Page      `json:"pages"`
	Warnings  []string             `json:"warnings,omitempty"`
}

// ExportResponse describes a rendered document
type ExportResponse struct {
	DatasetID   string   `json:"dataset_id"`
	Filename    string   `json:"filename"`
	Format      string   `json:"format"`
	ContentType string   `json:"content_type"`
	Size        int64    `json:"size"`
	PageCount   int      `json:"page_count"`
	Location    string   `json:"location,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`

	// Data is the document itself when it was not stored
	Data []byte `json:"-"`
}

// =============================================================================
// Draft DTOs
// =============================================================================

// SaveDraftRequest stores a print configuration for a dataset
type SaveDraftRequest struct {
	Config printing.DraftConfig `json:"config" binding:"required"`
}

// DraftResponse reports the saved draft of a dataset
type DraftResponse struct {
	DatasetID string               `json:"dataset_id"`
	HasDraft  bool                 `json:"has_draft"`
	Draft     *printing.PrintDraft `json:"draft,omitempty"`
}

// =============================================================================
// Reference Data DTOs
// =============================================================================

// KindResponse is a printable entity kind and its default columns
type KindResponse struct {
	Kind    string                  `json:"kind"`
	Columns []grid.ColumnDefinition `json:"columns"`
}

// PaperSizeResponse represents a paper size
type PaperSizeResponse struct {
	Code   string `json:"code"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Paged  bool   `json:"paged"`
}

func (o *ExportOptionsDTO) toDomain(defaults printing.ExportOptions) printing.ExportOptions {
	if o == nil {
		return defaults
	}
	opts := defaults
	if o.Scale > 0 {
		opts.Scale = o.Scale
	}
	if o.Margin != nil {
		m := printing.Margins{Top: o.Margin.Top, Right: o.Margin.Right, Bottom: o.Margin.Bottom, Left: o.Margin.Left}
		opts.Margin = &m
	}
	if o.PrintBackground != nil {
		opts.PrintBackground = *o.PrintBackground
	}
	if o.WaitForSelector != "" {
		opts.WaitForSelector = o.WaitForSelector
	}
	if o.WaitForTimeoutMS > 0 {
		opts.WaitForTimeout = time.Duration(o.WaitForTimeoutMS) * time.Millisecond
	}
	return opts
}
