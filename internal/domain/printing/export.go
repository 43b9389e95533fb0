package printing

import (
	"context"
	"time"
)

// ExportOptions is passed through to the rendering service
type ExportOptions struct {
	Scale           float64       `json:"scale,omitempty"`
	Margin          *Margins      `json:"margin,omitempty"`
	PrintBackground bool          `json:"printBackground"`
	WaitForSelector string        `json:"waitForSelector,omitempty"`
	WaitForTimeout  time.Duration `json:"waitForTimeout,omitempty"`
}

// ExportRequest is a fully laid out document handed to an ExportInvoker
type ExportRequest struct {
	DatasetID   string
	Filename    string
	Format      ExportFormat
	Metadata    *PrintMetadata
	Columns     []PrintColumnDefinition
	Pages       []Page
	PaperSize   PaperSize
	Orientation Orientation
	Margins     Margins
	RowHeightMM float64
	Options     ExportOptions
}

// ExportResult is the rendered document
type ExportResult struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	PageCount   int    `json:"pageCount"`
	Location    string `json:"location,omitempty"`
	Data        []byte `json:"-"`
}

// ExportInvoker turns a page sequence into a fixed-format document
type ExportInvoker interface {
	Export(ctx context.Context, req ExportRequest) (*ExportResult, error)
}

// ExportFilename is the download name of a dataset's export
func ExportFilename(datasetID string, format ExportFormat) string {
	return datasetID + "." + string(format)
}
