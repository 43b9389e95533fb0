// Package grid contains the interactive table bounded context.
// It owns column definitions and their width bounds, the drag-resize
// state machine, row selection scoped to the visible rows, and the
// per-user TableSettings aggregate that persists column layout.
package grid
