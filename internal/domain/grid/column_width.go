package grid

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultResizeDebounce = 500 * time.Millisecond
	defaultSaveTimeout    = 10 * time.Second
)

// ResizeState is the named state of a ColumnWidthController
type ResizeState string

const (
	ResizeStateIdle       ResizeState = "IDLE"
	ResizeStateDragging   ResizeState = "DRAGGING"
	ResizeStateSaving     ResizeState = "SAVING"
	ResizeStateSaveFailed ResizeState = "SAVE_FAILED"
)

// WidthPersister writes a snapshot of column widths to durable storage
type WidthPersister interface {
	PersistWidths(ctx context.Context, widths ColumnWidths) error
}

// WidthPersisterFunc adapts a function to WidthPersister
type WidthPersisterFunc func(ctx context.Context, widths ColumnWidths) error

// PersistWidths implements WidthPersister
func (f WidthPersisterFunc) PersistWidths(ctx context.Context, widths ColumnWidths) error {
	return f(ctx, widths)
}

// ActiveResizeHighlight is the projection of an in-progress drag used to
// draw the resize guide. Left is the offset of the column's left edge.
type ActiveResizeHighlight struct {
	ColumnKey string  `json:"columnKey"`
	Left      float64 `json:"left"`
	Width     float64 `json:"width"`
	MinWidth  float64 `json:"minWidth"`
	MaxWidth  float64 `json:"maxWidth"`
}

type dragState struct {
	key        string
	anchorX    float64
	startWidth float64
}

// ColumnWidthController owns the live widths of a mounted table and the
// Idle -> Dragging -> Idle resize state machine. Pointer updates are applied
// synchronously; persistence is debounced and runs off the caller's path.
type ColumnWidthController struct {
	mu      sync.Mutex
	columns []ColumnDefinition
	widths  ColumnWidths
	drag    *dragState
	closed  bool

	persister   WidthPersister
	debounce    time.Duration
	saveTimeout time.Duration
	timer       *time.Timer
	pending     bool
	inFlight    int
	scheduled   uint64
	lastErr     error

	// saveMu serializes writes; persisted is the newest generation written
	saveMu    sync.Mutex
	persisted uint64

	onWarning func(error)
	logger    *zap.Logger
}

// ColumnWidthOption configures a ColumnWidthController
type ColumnWidthOption func(*ColumnWidthController)

// WithResizeDebounce sets the quiet window before widths are persisted
func WithResizeDebounce(d time.Duration) ColumnWidthOption {
	return func(c *ColumnWidthController) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithSaveTimeout bounds a single persistence round trip
func WithSaveTimeout(d time.Duration) ColumnWidthOption {
	return func(c *ColumnWidthController) {
		if d > 0 {
			c.saveTimeout = d
		}
	}
}

// WithInitialWidths restores previously saved widths
func WithInitialWidths(widths ColumnWidths) ColumnWidthOption {
	return func(c *ColumnWidthController) {
		c.widths = MergeWidths(c.columns, widths)
	}
}

// WithWarningHandler receives non-fatal persistence failures
func WithWarningHandler(fn func(error)) ColumnWidthOption {
	return func(c *ColumnWidthController) {
		c.onWarning = fn
	}
}

// WithWidthLogger sets the logger
func WithWidthLogger(logger *zap.Logger) ColumnWidthOption {
	return func(c *ColumnWidthController) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewColumnWidthController creates a controller for the visible columns of a
// table. A nil persister keeps widths in memory only.
func NewColumnWidthController(columns []ColumnDefinition, persister WidthPersister, opts ...ColumnWidthOption) (*ColumnWidthController, error) {
	if err := ValidateColumns(columns); err != nil {
		return nil, err
	}

	cols := make([]ColumnDefinition, len(columns))
	copy(cols, columns)

	c := &ColumnWidthController{
		columns:     cols,
		widths:      DefaultWidths(cols),
		persister:   persister,
		debounce:    defaultResizeDebounce,
		saveTimeout: defaultSaveTimeout,
		logger:      zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// =============================================================================
// Drag Resize
// =============================================================================

// BeginResize starts dragging the right edge of a column. It fails without
// side effects if another resize is active or the column is unknown.
func (c *ColumnWidthController) BeginResize(columnKey string, pointerX float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrControllerClosed
	}
	if c.drag != nil {
		return ErrResizeInProgress
	}
	if _, ok := FindColumn(c.columns, columnKey); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, columnKey)
	}

	c.drag = &dragState{
		key:        columnKey,
		anchorX:    pointerX,
		startWidth: c.widths[columnKey],
	}
	return nil
}

// UpdateResize applies a pointer move and returns the clamped width now
// shown for the dragged column.
func (c *ColumnWidthController) UpdateResize(pointerX float64) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.drag == nil {
		return 0, ErrNoActiveResize
	}

	col, _ := FindColumn(c.columns, c.drag.key)
	width := col.Clamp(c.drag.startWidth + (pointerX - c.drag.anchorX))
	c.widths[c.drag.key] = width
	return width, nil
}

// EndResize finishes the drag and schedules a debounced save when the width
// actually changed.
func (c *ColumnWidthController) EndResize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.drag == nil {
		return ErrNoActiveResize
	}

	drag := c.drag
	c.drag = nil
	if c.widths[drag.key] != drag.startWidth {
		c.scheduleLocked()
	}
	return nil
}

// CancelResize abandons the drag and restores the width it started from
func (c *ColumnWidthController) CancelResize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revertDragLocked()
}

func (c *ColumnWidthController) revertDragLocked() {
	if c.drag == nil {
		return
	}
	c.widths[c.drag.key] = c.drag.startWidth
	c.drag = nil
}

// =============================================================================
// Direct Updates
// =============================================================================

// SetWidth assigns a width outside of a drag, e.g. from a keyboard shortcut
// or an auto-fit action. Returns the clamped value.
func (c *ColumnWidthController) SetWidth(columnKey string, width float64) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, ErrControllerClosed
	}
	if width <= 0 {
		return 0, ErrInvalidWidth
	}
	col, ok := FindColumn(c.columns, columnKey)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownColumn, columnKey)
	}
	if c.drag != nil && c.drag.key == columnKey {
		return 0, ErrResizeInProgress
	}

	clamped := col.Clamp(width)
	if c.widths[columnKey] != clamped {
		c.widths[columnKey] = clamped
		c.scheduleLocked()
	}
	return clamped, nil
}

// ResetToDefaults restores every column to its initial width. An active
// drag is abandoned.
func (c *ColumnWidthController) ResetToDefaults() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.drag = nil
	c.widths = DefaultWidths(c.columns)
	c.scheduleLocked()
}

// =============================================================================
// Projections
// =============================================================================

// Widths returns a snapshot of the live widths
func (c *ColumnWidthController) Widths() ColumnWidths {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.widths.Clone()
}

// Width returns the live width of one column
func (c *ColumnWidthController) Width(columnKey string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.widths[columnKey]
	return w, ok
}

// Columns returns the column definitions in display order
func (c *ColumnWidthController) Columns() []ColumnDefinition {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ColumnDefinition, len(c.columns))
	copy(out, c.columns)
	return out
}

// State derives the named state from the drag and save bookkeeping
func (c *ColumnWidthController) State() ResizeState {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.drag != nil:
		return ResizeStateDragging
	case c.pending || c.inFlight > 0:
		return ResizeStateSaving
	case c.lastErr != nil:
		return ResizeStateSaveFailed
	default:
		return ResizeStateIdle
	}
}

// LastError returns the most recent persistence failure, cleared on the next
// successful save.
func (c *ColumnWidthController) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// ActiveHighlight returns the bounds of the column being dragged
func (c *ColumnWidthController) ActiveHighlight() (ActiveResizeHighlight, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.drag == nil {
		return ActiveResizeHighlight{}, false
	}

	var left float64
	for _, col := range c.columns {
		if col.Key == c.drag.key {
			lo, hi := col.Bounds()
			return ActiveResizeHighlight{
				ColumnKey: col.Key,
				Left:      left,
				Width:     c.widths[col.Key],
				MinWidth:  lo,
				MaxWidth:  hi,
			}, true
		}
		left += c.widths[col.Key]
	}
	return ActiveResizeHighlight{}, false
}

// =============================================================================
// Debounced Persistence
// =============================================================================

// scheduleLocked (re)arms the debounce timer. A newer schedule supersedes a
// pending one; the snapshot is taken when the timer fires.
func (c *ColumnWidthController) scheduleLocked() {
	if c.persister == nil {
		return
	}
	c.scheduled++
	gen := c.scheduled
	if c.timer != nil {
		c.timer.Stop()
	}
	c.pending = true
	c.timer = time.AfterFunc(c.debounce, func() {
		c.fire(gen)
	})
}

func (c *ColumnWidthController) fire(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.scheduled || !c.pending {
		c.mu.Unlock()
		return
	}
	c.pending = false
	c.inFlight++
	snapshot := c.widths.Clone()
	c.mu.Unlock()

	_ = c.persist(gen, snapshot)
}

// persist writes one snapshot. Writes are serialized and a generation older
// than the last written one is dropped.
func (c *ColumnWidthController) persist(gen uint64, snapshot ColumnWidths) error {
	c.saveMu.Lock()
	var err error
	if gen > c.persisted {
		ctx, cancel := context.WithTimeout(context.Background(), c.saveTimeout)
		err = c.persister.PersistWidths(ctx, snapshot)
		cancel()
		c.persisted = gen
	} else {
		c.logger.Debug("Skipping stale column width write",
			zap.Uint64("generation", gen),
			zap.Uint64("persisted", c.persisted))
	}
	c.saveMu.Unlock()

	c.mu.Lock()
	c.inFlight--
	if err != nil {
		c.lastErr = err
	} else if gen == c.scheduled {
		c.lastErr = nil
	}
	onWarning := c.onWarning
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("Failed to persist column widths, keeping local widths",
			zap.Uint64("generation", gen),
			zap.Error(err))
		if onWarning != nil {
			onWarning(err)
		}
	}
	return err
}

// Flush writes a pending debounced save immediately and waits for any write
// already in flight. It returns the error of the write it performed.
func (c *ColumnWidthController) Flush() error {
	c.mu.Lock()
	if c.closed || !c.pending {
		c.mu.Unlock()
		// wait for an in-flight write to finish
		c.saveMu.Lock()
		defer c.saveMu.Unlock()
		return nil
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.pending = false
	c.inFlight++
	gen := c.scheduled
	snapshot := c.widths.Clone()
	c.mu.Unlock()

	return c.persist(gen, snapshot)
}

// Close is called when the grid unmounts. It cancels a pending save, reverts
// a drag in progress and rejects further updates. Nothing is persisted.
func (c *ColumnWidthController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.revertDragLocked()
	if c.timer != nil {
		c.timer.Stop()
	}
	if c.pending {
		c.logger.Debug("Discarding pending column width save on close")
	}
	c.pending = false
}
