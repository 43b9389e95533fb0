package adapters

import (
	"time"

	"github.com/erp/workstation/internal/domain/grid"
	"github.com/erp/workstation/internal/domain/printing"
)

// KindAccessRequest is the entity kind of access requests
const KindAccessRequest = "access-request"

// AccessRequest asks for a role on a resource
type AccessRequest struct {
	ID          string     `json:"id"`
	Requester   string     `json:"requester"`
	Resource    string     `json:"resource"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	RequestedAt time.Time  `json:"requestedAt"`
	ReviewedBy  string     `json:"reviewedBy,omitempty"`
	ReviewedAt  *time.Time `json:"reviewedAt,omitempty"`
}

// AccessRequestColumns is the default column set for access requests
func AccessRequestColumns() []grid.ColumnDefinition {
	return []grid.ColumnDefinition{
		{Key: "requestedAt", Label: "Requested", Type: grid.ColumnTypeDate, Sortable: true},
		{Key: "requester", Label: "Requester", Type: grid.ColumnTypeText, Filterable: true},
		{Key: "resource", Label: "Resource", Type: grid.ColumnTypeText, Filterable: true},
		{Key: "role", Label: "Role", Type: grid.ColumnTypeText},
		{Key: "status", Label: "Status", Type: grid.ColumnTypeText, Align: grid.AlignCenter, Filterable: true},
		{Key: "reviewedBy", Label: "Reviewed by", Type: grid.ColumnTypeText},
	}
}

// NewAccessRequestAdapter prints access requests as a flat table
func NewAccessRequestAdapter(p Params, requests []AccessRequest) (*Adapter[AccessRequest], error) {
	return NewAdapter(AdapterConfig[AccessRequest]{
		Kind:     KindAccessRequest,
		Year:     p.Year,
		SubScope: p.SubScope,
		Title:    p.titleOr("Access requests"),
		Subtitle: p.Subtitle,
		Columns:  p.columnsOr(AccessRequestColumns),
		Entities: requests,
		Totals:   p.Totals,
		Now:      p.Now,
		Project: func(r AccessRequest) printing.PrintItem {
			fields := map[string]any{
				"requester":   r.Requester,
				"resource":    r.Resource,
				"role":        r.Role,
				"status":      r.Status,
				"requestedAt": r.RequestedAt,
				"reviewedBy":  r.ReviewedBy,
			}
			if r.ReviewedAt != nil {
				fields["reviewedAt"] = *r.ReviewedAt
			}
			return printing.PrintItem{ID: r.ID, Fields: fields}
		},
	})
}
