package printing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/workstation/internal/domain/printing"
	"github.com/erp/workstation/internal/domain/shared"
	"github.com/erp/workstation/internal/infrastructure/printing/adapters"
	"go.uber.org/zap"
)

// ErrNoEntitySource is returned when a request carries no entities and no
// source is configured to read them from
var ErrNoEntitySource = shared.NewDomainError("NO_ENTITY_SOURCE", "Request has no entities and no entity source is configured")

// ErrNoColumnsSelected is returned when a configuration selects none of the
// dataset's columns
var ErrNoColumnsSelected = shared.NewDomainError("NO_COLUMNS_SELECTED", "Print configuration selects no columns")

// PrintService lays datasets out into pages and exports them. Every call runs
// the draft resume-or-discard flow of its dataset first.
type PrintService struct {
	registry    *adapters.Registry
	source      adapters.EntitySource
	drafts      printing.DraftStore
	exporter    printing.ExportInvoker
	rowHeightMM float64
	now         func() time.Time
	logger      *zap.Logger
}

// ServiceOption configures a PrintService
type ServiceOption func(*PrintService)

// WithEntitySource sets where entities are read from when a request carries
// none
func WithEntitySource(src adapters.EntitySource) ServiceOption {
	return func(s *PrintService) {
		s.source = src
	}
}

// WithDefaultRowHeight sets the row height of a fresh configuration
func WithDefaultRowHeight(mm float64) ServiceOption {
	return func(s *PrintService) {
		if mm > 0 {
			s.rowHeightMM = mm
		}
	}
}

// WithClock sets the clock stamped into document metadata
func WithClock(now func() time.Time) ServiceOption {
	return func(s *PrintService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewPrintService creates a new PrintService
func NewPrintService(
	registry *adapters.Registry,
	drafts printing.DraftStore,
	exporter printing.ExportInvoker,
	logger *zap.Logger,
	opts ...ServiceOption,
) *PrintService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &PrintService{
		registry:    registry,
		drafts:      drafts,
		exporter:    exporter,
		rowHeightMM: printing.DefaultRowHeightMM,
		now:         time.Now,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// layout is a dataset laid out with its resolved configuration
type layout struct {
	datasetID string
	data      printing.PrintableData
	columns   []printing.PrintColumnDefinition
	config    printing.DraftConfig
	capacity  int
	pages     []printing.Page
	warnings  []string
}

// Paginate lays a dataset out into pages
func (s *PrintService) Paginate(ctx context.Context, kind string, req PrintRequest) (*PaginateResponse, error) {
	l, err := s.layout(ctx, kind, req)
	if err != nil {
		return nil, err
	}
	return &PaginateResponse{
		DatasetID: l.datasetID,
		Capacity:  l.capacity,
		PageCount: len(l.pages),
		Config:    l.config,
		Pages:     l.pages,
		Warnings:  l.warnings,
	}, nil
}

// Export lays a dataset out and renders it. A failed export leaves the
// dataset's draft untouched so the same configuration can be retried.
func (s *PrintService) Export(ctx context.Context, kind string, req ExportRequest) (*ExportResponse, error) {
	format := printing.ExportFormat(req.Format)
	if format == "" {
		format = printing.ExportFormatPDF
	}
	if !format.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unsupported export format %q", req.Format))
	}

	l, err := s.layout(ctx, kind, req.PrintRequest)
	if err != nil {
		return nil, err
	}

	filename := req.Filename
	if filename == "" {
		filename = printing.ExportFilename(l.datasetID, format)
	}

	result, err := s.exporter.Export(ctx, printing.ExportRequest{
		DatasetID:   l.datasetID,
		Filename:    filename,
		Format:      format,
		Metadata:    l.data.Metadata,
		Columns:     l.columns,
		Pages:       l.pages,
		PaperSize:   l.config.PaperSize,
		Orientation: l.config.Orientation,
		Margins:     l.config.Margins,
		RowHeightMM: l.config.RowHeightMM,
		Options:     req.Options.toDomain(printing.ExportOptions{}),
	})
	if err != nil {
		var exportErr *printing.ExportError
		if !errors.As(err, &exportErr) {
			exportErr = printing.NewExportError(filename, err)
		}
		s.logger.Error("Export failed",
			zap.String("dataset_id", l.datasetID),
			zap.String("format", string(format)),
			zap.Bool("retryable", exportErr.Retryable),
			zap.Error(err))
		return nil, exportErr
	}

	s.logger.Info("Dataset exported",
		zap.String("dataset_id", l.datasetID),
		zap.String("format", string(format)),
		zap.Int("pages", result.PageCount),
		zap.Int64("size", result.Size),
		zap.String("location", result.Location))

	return &ExportResponse{
		DatasetID:   l.datasetID,
		Filename:    result.Filename,
		Format:      string(format),
		ContentType: result.ContentType,
		Size:        result.Size,
		PageCount:   result.PageCount,
		Location:    result.Location,
		Warnings:    l.warnings,
		Data:        result.Data,
	}, nil
}

func (s *PrintService) layout(ctx context.Context, kind string, req PrintRequest) (*layout, error) {
	adapter, err := s.adapter(ctx, kind, req)
	if err != nil {
		return nil, err
	}

	datasetID := adapter.GetDataIdentifier()
	all := adapter.GetColumnDefinitions()
	l := &layout{datasetID: datasetID, data: adapter.ToPrintableData()}

	cfg, warnings, err := s.resolveConfig(ctx, datasetID, all, req)
	if err != nil {
		return nil, err
	}
	l.config = cfg
	l.warnings = warnings

	l.columns = cfg.SelectColumns(all)
	if len(l.columns) == 0 {
		return nil, ErrNoColumnsSelected
	}

	l.capacity, err = printing.PageCapacity(cfg.PaperSize, cfg.Orientation, cfg.Margins, cfg.RowHeightMM)
	if err != nil {
		return nil, err
	}
	engine, err := printing.NewPaginationEngine(l.capacity,
		printing.WithTotalsPlacement(cfg.Totals),
		printing.WithPageBreaks(cfg.PageBreaks),
	)
	if err != nil {
		return nil, err
	}
	l.pages, err = engine.Paginate(l.data, l.columns, adapter.GetRowMarkers())
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Dataset paginated",
		zap.String("dataset_id", datasetID),
		zap.Int("items", len(l.data.Items)),
		zap.Int("capacity", l.capacity),
		zap.Int("pages", len(l.pages)))
	return l, nil
}

func (s *PrintService) adapter(ctx context.Context, kind string, req PrintRequest) (printing.PrintDataAdapter, error) {
	p := adapters.Params{
		Year:     req.Year,
		SubScope: req.SubScope,
		Title:    req.Title,
		Subtitle: req.Subtitle,
		Columns:  req.Columns,
		Totals:   req.Totals,
		Now:      s.now,
	}
	if len(req.Entities) > 0 {
		return s.registry.Build(kind, p, req.Entities)
	}
	if s.source == nil {
		if !s.registry.HasKind(kind) {
			return nil, fmt.Errorf("%w: %q", printing.ErrUnknownKind, kind)
		}
		return nil, ErrNoEntitySource
	}
	a, err := s.registry.Load(ctx, s.source, kind, p)
	if errors.Is(err, adapters.ErrNoEntities) {
		return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("No %s records for %d", kind, req.Year))
	}
	return a, err
}

// resolveConfig runs the draft flow and returns the configuration to lay out
// with. Transient draft store failures do not stop the layout; they are
// returned as warnings.
func (s *PrintService) resolveConfig(ctx context.Context, datasetID string, columns []printing.PrintColumnDefinition, req PrintRequest) (printing.DraftConfig, []string, error) {
	var warnings []string
	warn := func(err error) error {
		if shared.IsTransient(err) {
			warnings = append(warnings, err.Error())
			return nil
		}
		return err
	}

	flow, err := NewPrintFlow(s.drafts, datasetID, s.defaultConfig(columns), s.logger)
	if err != nil {
		return printing.DraftConfig{}, nil, err
	}

	hasDraft, err := flow.Open(ctx)
	if err := warn(err); err != nil {
		return printing.DraftConfig{}, nil, err
	}
	if hasDraft {
		switch req.Draft {
		case DraftResume:
			if _, err := flow.Resume(ctx); err != nil {
				return printing.DraftConfig{}, nil, err
			}
		case DraftDiscard:
			if err := warn(flow.Discard(ctx)); err != nil {
				return printing.DraftConfig{}, nil, err
			}
		default:
			return printing.DraftConfig{}, nil, ErrDraftDecisionPending
		}
	}

	if req.Config != nil {
		if err := warn(flow.Update(ctx, *req.Config)); err != nil {
			return printing.DraftConfig{}, nil, err
		}
	}

	cfg, err := flow.Config()
	return cfg, warnings, err
}

func (s *PrintService) defaultConfig(columns []printing.PrintColumnDefinition) printing.DraftConfig {
	cfg := printing.DefaultDraftConfig(columns)
	cfg.RowHeightMM = s.rowHeightMM
	return cfg
}

// =============================================================================
// Draft Operations
// =============================================================================

// GetDraft reports the saved draft of a dataset. An unreadable draft is
// reported as absent.
func (s *PrintService) GetDraft(ctx context.Context, datasetID string) (*DraftResponse, error) {
	if err := printing.ValidateDatasetID(datasetID); err != nil {
		return nil, err
	}
	draft, err := s.drafts.Load(ctx, datasetID)
	if errors.Is(err, printing.ErrInvalidDraft) {
		s.logger.Warn("Ignoring unreadable print draft", zap.String("dataset_id", datasetID), zap.Error(err))
		draft, err = nil, nil
	}
	if err != nil {
		s.logger.Warn("Failed to load print draft", zap.String("dataset_id", datasetID), zap.Error(err))
		return nil, shared.NewTransientError("load print draft", err)
	}
	return &DraftResponse{DatasetID: datasetID, HasDraft: draft != nil, Draft: draft}, nil
}

// SaveDraft stores a configuration as the dataset's draft. Last writer wins.
func (s *PrintService) SaveDraft(ctx context.Context, datasetID string, req SaveDraftRequest) (*printing.PrintDraft, error) {
	cfg := req.Config
	if cfg.Totals == "" {
		cfg.Totals = printing.TotalsEveryPage
	}
	draft, err := printing.NewPrintDraft(datasetID, cfg)
	if err != nil {
		return nil, err
	}
	if err := s.drafts.Save(ctx, datasetID, draft); err != nil {
		s.logger.Warn("Failed to save print draft", zap.String("dataset_id", datasetID), zap.Error(err))
		return nil, shared.NewTransientError("save print draft", err)
	}
	return draft, nil
}

// DeleteDraft discards the dataset's draft
func (s *PrintService) DeleteDraft(ctx context.Context, datasetID string) error {
	if err := printing.ValidateDatasetID(datasetID); err != nil {
		return err
	}
	if err := s.drafts.Delete(ctx, datasetID); err != nil {
		s.logger.Warn("Failed to delete print draft", zap.String("dataset_id", datasetID), zap.Error(err))
		return shared.NewTransientError("delete print draft", err)
	}
	s.logger.Info("Print draft discarded", zap.String("dataset_id", datasetID))
	return nil
}

// WatchDraft streams changes to the dataset's draft made in other contexts
// until ctx is done
func (s *PrintService) WatchDraft(ctx context.Context, datasetID string) (<-chan printing.DraftChange, error) {
	if err := printing.ValidateDatasetID(datasetID); err != nil {
		return nil, err
	}
	return s.drafts.Watch(ctx, datasetID)
}

// =============================================================================
// Reference Data
// =============================================================================

// Kinds returns the printable entity kinds
func (s *PrintService) Kinds() []KindResponse {
	kinds := s.registry.Kinds()
	out := make([]KindResponse, 0, len(kinds))
	for _, k := range kinds {
		cols, _ := s.registry.DefaultColumns(k)
		out = append(out, KindResponse{Kind: k, Columns: cols})
	}
	return out
}

// GetPaperSizes returns all paper sizes
func (s *PrintService) GetPaperSizes() []PaperSizeResponse {
	sizes := printing.AllPaperSizes()
	out := make([]PaperSizeResponse, len(sizes))
	for i, p := range sizes {
		w, h := p.Dimensions()
		out[i] = PaperSizeResponse{Code: string(p), Width: w, Height: h, Paged: p.IsPaged()}
	}
	return out
}
