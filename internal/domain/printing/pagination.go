package printing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// PageTitleBlockMM is the height reserved at the top of every page for the
// document title and metadata line.
const PageTitleBlockMM = 18.0

// DefaultEmptyStateLabel is shown on the single page of an empty document
const DefaultEmptyStateLabel = "No records"

// RowKind is the kind of a laid out row
type RowKind string

const (
	RowKindData     RowKind = "data"
	RowKindMarker   RowKind = "marker"
	RowKindSubtotal RowKind = "subtotal"
	RowKindEmpty    RowKind = "empty"
)

// Row is one laid out body row. Header and totals rows are not rows: they
// are carried on the Page and do not consume capacity.
type Row struct {
	Kind      RowKind                    `json:"kind"`
	ItemIndex int                        `json:"itemIndex"`
	Item      *PrintItem                 `json:"item,omitempty"`
	Marker    *PrintRowMarker            `json:"marker,omitempty"`
	Label     string                     `json:"label,omitempty"`
	Subtotals map[string]decimal.Decimal `json:"subtotals,omitempty"`
}

// Page is one printable page
type Page struct {
	Number int                        `json:"number"`
	Header []PrintColumnDefinition    `json:"header"`
	Rows   []Row                      `json:"rows"`
	Totals map[string]decimal.Decimal `json:"totals,omitempty"`
	IsLast bool                       `json:"isLast"`
}

// HasTotals reports whether the page shows a totals row
func (p Page) HasTotals() bool {
	return p.Totals != nil
}

// DataRows returns the data items on the page in order
func (p Page) DataRows() []PrintItem {
	items := make([]PrintItem, 0, len(p.Rows))
	for _, r := range p.Rows {
		if r.Kind == RowKindData && r.Item != nil {
			items = append(items, *r.Item)
		}
	}
	return items
}

// DataRowCount counts data rows on the page
func (p Page) DataRowCount() int {
	n := 0
	for _, r := range p.Rows {
		if r.Kind == RowKindData {
			n++
		}
	}
	return n
}

// TotalsPlacement controls which pages carry the grand totals row
type TotalsPlacement string

const (
	// TotalsEveryPage repeats the grand totals on every page
	TotalsEveryPage TotalsPlacement = "every_page"
	// TotalsSectionEnd shows totals on pages holding the last row of a section, and on the final page
	TotalsSectionEnd TotalsPlacement = "section_end"
	// TotalsFinalPage shows totals on the final page only
	TotalsFinalPage TotalsPlacement = "final_page"
)

// IsValid checks if the TotalsPlacement is a valid value
func (t TotalsPlacement) IsValid() bool {
	switch t {
	case TotalsEveryPage, TotalsSectionEnd, TotalsFinalPage:
		return true
	}
	return false
}

// PaginationEngine lays a printable document out into fixed-capacity pages
type PaginationEngine struct {
	capacity   int
	placement  TotalsPlacement
	emptyLabel string
	breaks     map[int]struct{}
}

// PaginationOption configures a PaginationEngine
type PaginationOption func(*PaginationEngine)

// WithTotalsPlacement sets which pages carry the totals row
func WithTotalsPlacement(p TotalsPlacement) PaginationOption {
	return func(e *PaginationEngine) {
		if p.IsValid() {
			e.placement = p
		}
	}
}

// WithEmptyStateLabel sets the text of the empty-state row
func WithEmptyStateLabel(label string) PaginationOption {
	return func(e *PaginationEngine) {
		if label != "" {
			e.emptyLabel = label
		}
	}
}

// WithPageBreaks forces a new page before each listed item index
func WithPageBreaks(indices []int) PaginationOption {
	return func(e *PaginationEngine) {
		for _, i := range indices {
			if i > 0 {
				e.breaks[i] = struct{}{}
			}
		}
	}
}

// NewPaginationEngine creates an engine for the given rows-per-page capacity
func NewPaginationEngine(capacity int, opts ...PaginationOption) (*PaginationEngine, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	e := &PaginationEngine{
		capacity:   capacity,
		placement:  TotalsEveryPage,
		emptyLabel: DefaultEmptyStateLabel,
		breaks:     make(map[int]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Capacity returns the rows-per-page budget
func (e *PaginationEngine) Capacity() int {
	return e.capacity
}

// PageCapacity derives the rows-per-page budget from the physical page.
// The header and totals rows are subtracted since they repeat on every page.
func PageCapacity(paper PaperSize, orientation Orientation, margins Margins, rowHeightMM float64) (int, error) {
	if !paper.IsValid() || !paper.IsPaged() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidPaper, paper)
	}
	if err := margins.Validate(); err != nil {
		return 0, err
	}
	if rowHeightMM <= 0 || math.IsNaN(rowHeightMM) {
		return 0, fmt.Errorf("%w: row height %.2fmm", ErrInvalidCapacity, rowHeightMM)
	}

	_, height := PageDimensions(paper, orientation)
	usable := float64(height-margins.Vertical()) - PageTitleBlockMM
	rows := int(math.Floor(usable/rowHeightMM)) - 2
	if rows < 1 {
		return 0, fmt.Errorf("%w: %s page fits no data rows at %.2fmm", ErrInvalidCapacity, paper, rowHeightMM)
	}
	return rows, nil
}

// =============================================================================
// Layout
// =============================================================================

type unit struct {
	row  Row
	item int // item index for data units, -1 otherwise
}

// Paginate splits the document into pages. Concatenating the data rows of
// all pages reproduces data.Items exactly.
func (e *PaginationEngine) Paginate(data PrintableData, columns []PrintColumnDefinition, markers []PrintRowMarker) ([]Page, error) {
	if err := ValidatePrintColumns(columns); err != nil {
		return nil, err
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	n := len(data.Items)
	if err := ValidateMarkers(markers, n); err != nil {
		return nil, err
	}

	header := make([]PrintColumnDefinition, len(columns))
	copy(header, columns)
	grand := grandTotals(columns, data.Totals)

	if n == 0 {
		return []Page{{
			Number: 1,
			Header: header,
			Rows:   []Row{{Kind: RowKindEmpty, ItemIndex: -1, Label: e.emptyLabel}},
			Totals: grand,
			IsLast: true,
		}}, nil
	}

	sorted := SortMarkers(markers)
	units := buildUnits(data.Items, sorted)
	sectionEnds := sectionEndIndices(n, sorted)

	var pages []Page
	current := Page{Number: 1, Header: header}
	remaining := e.capacity
	endsSection := false

	closePage := func() {
		if e.placement == TotalsEveryPage || (e.placement == TotalsSectionEnd && endsSection) {
			current.Totals = grand
		}
		pages = append(pages, current)
		current = Page{Number: current.Number + 1, Header: header}
		remaining = e.capacity
		endsSection = false
	}

	for p := 0; p < len(units); {
		end, dataIdx := chunkEnd(units, p)

		if len(current.Rows) > 0 {
			_, forced := e.breaks[dataIdx]
			if forced || end-p > remaining {
				closePage()
			}
		}

		// an oversized chunk on a fresh page breaks wherever it fills up
		for _, u := range units[p:end] {
			if remaining == 0 {
				closePage()
			}
			current.Rows = append(current.Rows, u.row)
			remaining--
			if _, ok := sectionEnds[u.item]; ok {
				endsSection = true
			}
		}
		p = end
	}

	current.IsLast = true
	current.Totals = grand
	pages = append(pages, current)
	return pages, nil
}

// buildUnits flattens items and markers into the row stream. A group marker
// with subtotals opens a section that closes at the next group marker or at
// the end of the items, where its subtotal row is emitted.
func buildUnits(items []PrintItem, markers []PrintRowMarker) []unit {
	units := make([]unit, 0, len(items)+2*len(markers))
	var open *PrintRowMarker
	closeOpen := func() {
		if open != nil {
			units = append(units, unit{item: -1, row: Row{
				Kind:      RowKindSubtotal,
				ItemIndex: -1,
				Marker:    open,
				Label:     open.Label,
				Subtotals: open.Subtotals,
			}})
			open = nil
		}
	}

	mi := 0
	for i := 0; i <= len(items); i++ {
		start := mi
		for mi < len(markers) && markers[mi].Index == i {
			mi++
		}
		stack := markers[start:mi]
		if hasGroup(stack) {
			closeOpen()
		}
		for k := range stack {
			m := &stack[k]
			if m.Type == MarkerTypeGroup {
				closeOpen()
			}
			units = append(units, unit{item: -1, row: Row{
				Kind:      RowKindMarker,
				ItemIndex: -1,
				Marker:    m,
				Label:     m.Label,
			}})
			if m.Type == MarkerTypeGroup && m.Subtotals != nil {
				open = m
			}
		}
		if i < len(items) {
			item := items[i]
			units = append(units, unit{item: i, row: Row{
				Kind:      RowKindData,
				ItemIndex: i,
				Item:      &item,
			}})
		}
	}
	closeOpen()
	return units
}

func hasGroup(stack []PrintRowMarker) bool {
	for _, m := range stack {
		if m.Type == MarkerTypeGroup {
			return true
		}
	}
	return false
}

// chunkEnd returns the end of the keep-together chunk starting at p: any
// leading marker or subtotal rows, the data row they lead into, and the
// subtotal rows that directly follow it. dataIdx is that row's item index,
// or -1 for a trailing chunk without data.
func chunkEnd(units []unit, p int) (end, dataIdx int) {
	j := p
	for j < len(units) && units[j].row.Kind != RowKindData {
		j++
	}
	dataIdx = -1
	if j < len(units) {
		dataIdx = units[j].item
		j++
		for j < len(units) && units[j].row.Kind == RowKindSubtotal {
			j++
		}
	}
	return j, dataIdx
}

// sectionEndIndices returns the item indices that close a section: the row
// right before a marker, and the final row.
func sectionEndIndices(n int, markers []PrintRowMarker) map[int]struct{} {
	ends := map[int]struct{}{n - 1: {}}
	for _, m := range markers {
		if m.Index > 0 {
			ends[m.Index-1] = struct{}{}
		}
	}
	return ends
}

func grandTotals(columns []PrintColumnDefinition, totals map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := ZeroTotals(columns)
	for k, v := range totals {
		out[k] = v
	}
	return out
}
