package printing

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/erp/workstation/internal/domain/printing"
	"github.com/erp/workstation/internal/infrastructure/config"
	"github.com/erp/workstation/internal/infrastructure/storage"
	"github.com/zeebo/blake3"
	"go.uber.org/zap"
)

// ErrUnsupportedFormat is returned for formats without an encoder
var ErrUnsupportedFormat = errors.New("unsupported export format")

// EncodedDocument is the output of a DocumentEncoder
type EncodedDocument struct {
	Data      []byte
	PageCount int
}

// DocumentEncoder turns laid out pages into one document format
type DocumentEncoder interface {
	Format() printing.ExportFormat
	Encode(ctx context.Context, req printing.ExportRequest) (*EncodedDocument, error)
}

// Exporter implements printing.ExportInvoker. It dispatches on the requested
// format and keeps a copy of every document in storage when one is set.
type Exporter struct {
	encoders map[printing.ExportFormat]DocumentEncoder
	storage  storage.DocumentStorage
	logger   *zap.Logger
}

// ExporterOption configures an Exporter
type ExporterOption func(*Exporter)

// WithStorage keeps exported documents in s
func WithStorage(s storage.DocumentStorage) ExporterOption {
	return func(e *Exporter) {
		e.storage = s
	}
}

// WithExporterLogger sets the logger
func WithExporterLogger(logger *zap.Logger) ExporterOption {
	return func(e *Exporter) {
		e.logger = logger
	}
}

// NewExporter creates an Exporter. A later encoder for the same format
// replaces an earlier one.
func NewExporter(encoders []DocumentEncoder, opts ...ExporterOption) *Exporter {
	e := &Exporter{
		encoders: make(map[printing.ExportFormat]DocumentEncoder, len(encoders)),
		logger:   zap.NewNop(),
	}
	for _, enc := range encoders {
		e.encoders[enc.Format()] = enc
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewExporterFromConfig wires the PDF, XLSX and text encoders from the print
// configuration. store may be nil.
func NewExporterFromConfig(cfg config.PrintConfig, store storage.DocumentStorage, logger *zap.Logger) (*Exporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("export")

	formatter := NewCellFormatter(cfg.Locale)
	html, err := NewHTMLRenderer(formatter)
	if err != nil {
		return nil, err
	}

	var renderer PDFRenderer
	switch cfg.Renderer {
	case "", "chromedp":
		renderer = NewChromedpRenderer(ChromedpConfigFrom(cfg, logger))
	case "none":
		logger.Warn("PDF rendering disabled, PDF exports will fail")
		renderer = UnavailableRenderer{}
	default:
		return nil, fmt.Errorf("unsupported print renderer %q", cfg.Renderer)
	}

	encoders := []DocumentEncoder{
		NewPDFEncoder(html, renderer, PDFDefaults{
			PrintBackground: cfg.PrintBackground,
			WaitForTimeout:  cfg.WaitForTimeout,
			Timeout:         cfg.RenderTimeout,
		}),
		NewXLSXEncoder(formatter),
		NewTextEncoder(formatter),
	}
	opts := []ExporterOption{WithExporterLogger(logger)}
	if store != nil {
		opts = append(opts, WithStorage(store))
	}
	return NewExporter(encoders, opts...), nil
}

// Formats lists the formats this exporter can produce
func (e *Exporter) Formats() []printing.ExportFormat {
	out := make([]printing.ExportFormat, 0, len(e.encoders))
	for f := range e.encoders {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// Export encodes req and stores the result
func (e *Exporter) Export(ctx context.Context, req printing.ExportRequest) (*printing.ExportResult, error) {
	filename := req.Filename
	if filename == "" {
		filename = printing.ExportFilename(req.DatasetID, req.Format)
	}

	if err := printing.ValidateDatasetID(req.DatasetID); err != nil {
		return nil, permanentExportError(filename, err)
	}
	enc, ok := e.encoders[req.Format]
	if !ok {
		return nil, permanentExportError(filename, fmt.Errorf("%w: %q", ErrUnsupportedFormat, req.Format))
	}
	if len(req.Pages) == 0 {
		return nil, permanentExportError(filename, errors.New("no pages to export"))
	}

	start := time.Now()
	doc, err := enc.Encode(ctx, req)
	if err != nil {
		e.logger.Error("export encoding failed",
			zap.String("dataset_id", req.DatasetID),
			zap.String("format", string(req.Format)),
			zap.Error(err))
		ee := printing.NewExportError(filename, err)
		ee.Retryable = IsRetryable(err)
		return nil, ee
	}

	result := &printing.ExportResult{
		Filename:    filename,
		ContentType: req.Format.ContentType(),
		Size:        int64(len(doc.Data)),
		PageCount:   doc.PageCount,
		Data:        doc.Data,
	}

	if e.storage != nil {
		stored, err := e.storage.Store(ctx, &storage.StoreRequest{
			Key:         StorageKey(req.DatasetID, req.Format, doc.Data),
			ContentType: result.ContentType,
			Data:        doc.Data,
		})
		if err != nil {
			e.logger.Error("failed to store export",
				zap.String("dataset_id", req.DatasetID),
				zap.Error(err))
			return nil, printing.NewExportError(filename, NewRenderError(ErrCodeStorageFailed, "failed to store document", err))
		}
		result.Location = stored.URL
	}

	e.logger.Info("export completed",
		zap.String("dataset_id", req.DatasetID),
		zap.String("format", string(req.Format)),
		zap.Int("pages", result.PageCount),
		zap.Int64("bytes", result.Size),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}

// Close releases encoder resources such as the browser
func (e *Exporter) Close() error {
	var errs []error
	for _, enc := range e.encoders {
		if c, ok := enc.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

// StorageKey is where an export is kept: one directory per dataset and a
// content hash in the name, so repeating an identical export overwrites
// the same object.
func StorageKey(datasetID string, format printing.ExportFormat, data []byte) string {
	sum := blake3.Sum256(data)
	return fmt.Sprintf("%s/%s.%s", datasetID, hex.EncodeToString(sum[:]), format)
}

func permanentExportError(filename string, err error) *printing.ExportError {
	return &printing.ExportError{Filename: filename, Retryable: false, Err: err}
}

var _ printing.ExportInvoker = (*Exporter)(nil)
