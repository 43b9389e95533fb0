package adapters

import (
	"time"

	"github.com/erp/workstation/internal/domain/grid"
	"github.com/erp/workstation/internal/domain/printing"
)

// KindActivityLog is the entity kind of activity log entries
const KindActivityLog = "activity-log"

// ActivityEntry is one audited action
type ActivityEntry struct {
	ID      string    `json:"id"`
	At      time.Time `json:"at"`
	Actor   string    `json:"actor"`
	Action  string    `json:"action"`
	Target  string    `json:"target"`
	Details string    `json:"details,omitempty"`
}

// ActivityLogColumns is the default column set for activity logs
func ActivityLogColumns() []grid.ColumnDefinition {
	return []grid.ColumnDefinition{
		{Key: "at", Label: "Date", Type: grid.ColumnTypeDate, Sortable: true},
		{Key: "actor", Label: "User", Type: grid.ColumnTypeText, Filterable: true},
		{Key: "action", Label: "Action", Type: grid.ColumnTypeText, Filterable: true},
		{Key: "target", Label: "Target", Type: grid.ColumnTypeText},
		{Key: "details", Label: "Details", Type: grid.ColumnTypeText, DefaultWidth: grid.Width(300)},
	}
}

// NewActivityLogAdapter prints log entries as a flat table
func NewActivityLogAdapter(p Params, entries []ActivityEntry) (*Adapter[ActivityEntry], error) {
	return NewAdapter(AdapterConfig[ActivityEntry]{
		Kind:     KindActivityLog,
		Year:     p.Year,
		SubScope: p.SubScope,
		Title:    p.titleOr("Activity log"),
		Subtitle: p.Subtitle,
		Columns:  p.columnsOr(ActivityLogColumns),
		Entities: entries,
		Totals:   p.Totals,
		Now:      p.Now,
		Project: func(e ActivityEntry) printing.PrintItem {
			return printing.PrintItem{ID: e.ID, Fields: map[string]any{
				"at":      e.At,
				"actor":   e.Actor,
				"action":  e.Action,
				"target":  e.Target,
				"details": e.Details,
			}}
		},
	})
}
