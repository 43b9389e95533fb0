package printing

import (
	"fmt"

	"github.com/erp/workstation/internal/domain/shared"
)

// Configuration errors. These are programmer errors and are returned before
// any page is laid out.
var (
	ErrInvalidCapacity    = shared.NewDomainError("INVALID_PAGE_CAPACITY", "Page capacity must be at least one row")
	ErrInvalidMargins     = shared.NewDomainError("INVALID_MARGINS", "Margins are invalid")
	ErrInvalidPaper       = shared.NewDomainError("INVALID_PAPER", "Paper size cannot be paginated")
	ErrDuplicateColumnKey = shared.NewDomainError("DUPLICATE_COLUMN_KEY", "Print column key must be unique")
	ErrEmptyColumnKey     = shared.NewDomainError("INVALID_COLUMN_KEY", "Print column key cannot be empty")
)

// Data errors
var (
	ErrDuplicateItemID  = shared.NewDomainError("DUPLICATE_ITEM_ID", "Printable item ids must be unique")
	ErrEmptyItemID      = shared.NewDomainError("INVALID_ITEM_ID", "Printable item id cannot be empty")
	ErrInvalidMarker    = shared.NewDomainError("INVALID_ROW_MARKER", "Row marker is invalid")
	ErrInvalidDraft     = shared.NewDomainError("INVALID_DRAFT", "Print draft is invalid")
	ErrInvalidDatasetID = shared.NewDomainError("INVALID_DATASET_ID", "Dataset identifier is invalid")
	ErrUnknownKind      = shared.NewDomainError("UNKNOWN_PRINT_KIND", "No print adapter is registered for this entity kind")
)

// ExportError is raised at the export invocation boundary. A retryable
// export can be attempted again with the same configuration.
type ExportError struct {
	Filename  string
	Retryable bool
	Err       error
}

// NewExportError creates a retryable export error
func NewExportError(filename string, err error) *ExportError {
	return &ExportError{Filename: filename, Retryable: true, Err: err}
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s failed: %v", e.Filename, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
