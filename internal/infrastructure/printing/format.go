package printing

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/erp/workstation/internal/domain/grid"
	"github.com/erp/workstation/internal/domain/printing"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DateLayout is how date columns are printed
const DateLayout = "2006-01-02"

// CellFormatter renders cell values as text for a locale
type CellFormatter struct {
	printer *message.Printer
	tag     language.Tag
}

// NewCellFormatter creates a formatter for a BCP 47 locale. Unknown locales
// fall back to English.
func NewCellFormatter(locale string) *CellFormatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &CellFormatter{printer: message.NewPrinter(tag), tag: tag}
}

// Locale returns the formatter's language tag
func (f *CellFormatter) Locale() string {
	return f.tag.String()
}

// Format renders v for col. Missing values render empty.
func (f *CellFormatter) Format(col printing.PrintColumnDefinition, v any) string {
	if v == nil {
		return ""
	}
	switch col.Type {
	case grid.ColumnTypeNumber, grid.ColumnTypeCurrency, grid.ColumnTypePercentage:
		d, ok := toDecimal(v)
		if !ok {
			return fmt.Sprint(v)
		}
		return f.Number(col.Type, d)
	case grid.ColumnTypeDate:
		if t, ok := toTime(v); ok {
			return t.Format(DateLayout)
		}
	}
	return fmt.Sprint(v)
}

// Number renders d with the precision of a numeric column type.
// Percentages are in percent points.
func (f *CellFormatter) Number(t grid.ColumnType, d decimal.Decimal) string {
	x, _ := d.Float64()
	switch t {
	case grid.ColumnTypeCurrency:
		return f.printer.Sprint(number.Decimal(x, number.Scale(2)))
	case grid.ColumnTypePercentage:
		return f.printer.Sprint(number.Decimal(x, number.MaxFractionDigits(1))) + "%"
	default:
		return f.printer.Sprint(number.Decimal(x, number.MaxFractionDigits(2)))
	}
}

// toDecimal converts the numeric shapes that arrive from adapters and JSON
func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case *decimal.Decimal:
		if n == nil {
			return decimal.Zero, false
		}
		return *n, true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(n), true
	case float32:
		return decimal.NewFromFloat32(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt32(n), true
	case int64:
		return decimal.NewFromInt(n), true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		return d, err == nil
	}
	return decimal.Zero, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		for _, layout := range []string{time.RFC3339Nano, DateLayout} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	case int64:
		return time.Unix(t, 0).UTC(), true
	}
	return time.Time{}, false
}

// pageLabel is the "Page n of N" line
func pageLabel(n, total int) string {
	return "Page " + strconv.Itoa(n) + " of " + strconv.Itoa(total)
}
