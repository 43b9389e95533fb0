package adapters

import (
	"github.com/erp/workstation/internal/domain/grid"
	"github.com/erp/workstation/internal/domain/printing"
	"github.com/shopspring/decimal"
)

// KindBudget is the entity kind of budget lines
const KindBudget = "budget"

// BudgetLine is one planned expense of a budget
type BudgetLine struct {
	ID          string          `json:"id"`
	CategoryID  string          `json:"categoryId"`
	Category    string          `json:"category"`
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Planned     decimal.Decimal `json:"planned"`
	Actual      decimal.Decimal `json:"actual"`
}

// Variance is planned minus actual
func (l BudgetLine) Variance() decimal.Decimal {
	return l.Planned.Sub(l.Actual)
}

// Utilization is actual spend in percent of plan, zero without a plan
func (l BudgetLine) Utilization() decimal.Decimal {
	if l.Planned.IsZero() {
		return decimal.Zero
	}
	return l.Actual.Div(l.Planned).Mul(decimal.NewFromInt(100)).Round(1)
}

// BudgetColumns is the default column set for budgets
func BudgetColumns() []grid.ColumnDefinition {
	return []grid.ColumnDefinition{
		{Key: "code", Label: "Code", Type: grid.ColumnTypeText, DefaultWidth: grid.Width(90)},
		{Key: "description", Label: "Description", Type: grid.ColumnTypeText, DefaultWidth: grid.Width(260)},
		{Key: "planned", Label: "Planned", Type: grid.ColumnTypeCurrency, Sortable: true},
		{Key: "actual", Label: "Actual", Type: grid.ColumnTypeCurrency, Sortable: true},
		{Key: "variance", Label: "Variance", Type: grid.ColumnTypeCurrency},
		{Key: "utilization", Label: "Utilization", Type: grid.ColumnTypePercentage, MaxWidth: grid.Width(140)},
	}
}

// NewBudgetAdapter prints budget lines under one category banner per
// budget category. Lines must be ordered by category.
func NewBudgetAdapter(p Params, lines []BudgetLine) (*Adapter[BudgetLine], error) {
	return NewAdapter(AdapterConfig[BudgetLine]{
		Kind:       KindBudget,
		Year:       p.Year,
		SubScope:   p.SubScope,
		Title:      p.titleOr("Budget"),
		Subtitle:   p.Subtitle,
		Columns:    p.columnsOr(BudgetColumns),
		Entities:   lines,
		Totals:     p.Totals,
		Now:        p.Now,
		MarkerType: printing.MarkerTypeCategory,
		Group: func(l BudgetLine) (string, string) {
			return l.CategoryID, l.Category
		},
		Project: func(l BudgetLine) printing.PrintItem {
			return printing.PrintItem{ID: l.ID, Fields: map[string]any{
				"code":        l.Code,
				"category":    l.Category,
				"description": l.Description,
				"planned":     l.Planned,
				"actual":      l.Actual,
				"variance":    l.Variance(),
				"utilization": l.Utilization(),
			}}
		},
	})
}
