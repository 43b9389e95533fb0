package adapters

import (
	"time"

	"github.com/erp/workstation/internal/domain/grid"
	"github.com/erp/workstation/internal/domain/printing"
	"github.com/shopspring/decimal"
)

// KindFunds is the entity kind of fund allocations
const KindFunds = "funds"

// FundAllocation is money allocated from a fund to a purpose
type FundAllocation struct {
	ID        string          `json:"id"`
	FundID    string          `json:"fundId"`
	FundName  string          `json:"fundName"`
	Source    string          `json:"source"`
	Purpose   string          `json:"purpose"`
	Allocated decimal.Decimal `json:"allocated"`
	Disbursed decimal.Decimal `json:"disbursed"`
	Date      time.Time       `json:"date"`
}

// Remaining is the part of the allocation not yet disbursed
func (a FundAllocation) Remaining() decimal.Decimal {
	return a.Allocated.Sub(a.Disbursed)
}

// FundsColumns is the default column set for fund allocations
func FundsColumns() []grid.ColumnDefinition {
	return []grid.ColumnDefinition{
		{Key: "date", Label: "Date", Type: grid.ColumnTypeDate, DefaultWidth: grid.Width(110)},
		{Key: "source", Label: "Source", Type: grid.ColumnTypeText},
		{Key: "purpose", Label: "Purpose", Type: grid.ColumnTypeText, DefaultWidth: grid.Width(240)},
		{Key: "allocated", Label: "Allocated", Type: grid.ColumnTypeCurrency},
		{Key: "disbursed", Label: "Disbursed", Type: grid.ColumnTypeCurrency},
		{Key: "remaining", Label: "Remaining", Type: grid.ColumnTypeCurrency},
	}
}

// NewFundsAdapter prints allocations grouped by fund, with a subtotal row
// closing each fund. Allocations must be ordered by fund.
func NewFundsAdapter(p Params, allocations []FundAllocation) (*Adapter[FundAllocation], error) {
	return NewAdapter(AdapterConfig[FundAllocation]{
		Kind:           KindFunds,
		Year:           p.Year,
		SubScope:       p.SubScope,
		Title:          p.titleOr("Funds"),
		Subtitle:       p.Subtitle,
		Columns:        p.columnsOr(FundsColumns),
		Entities:       allocations,
		Totals:         p.Totals,
		Now:            p.Now,
		MarkerType:     printing.MarkerTypeGroup,
		GroupSubtotals: true,
		Group: func(a FundAllocation) (string, string) {
			return a.FundID, a.FundName
		},
		Project: func(a FundAllocation) printing.PrintItem {
			return printing.PrintItem{ID: a.ID, Fields: map[string]any{
				"date":      a.Date,
				"fund":      a.FundName,
				"source":    a.Source,
				"purpose":   a.Purpose,
				"allocated": a.Allocated,
				"disbursed": a.Disbursed,
				"remaining": a.Remaining(),
			}}
		},
	})
}
