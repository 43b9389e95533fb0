package grid

import "github.com/erp/workstation/internal/domain/shared"

// Configuration errors, returned from constructors before any interaction
var (
	ErrEmptyColumnKey     = shared.NewDomainError("INVALID_COLUMN_KEY", "Column key cannot be empty")
	ErrDuplicateColumnKey = shared.NewDomainError("DUPLICATE_COLUMN_KEY", "Column key must be unique within a table")
	ErrInvalidWidthBounds = shared.NewDomainError("INVALID_WIDTH_BOUNDS", "Column width bounds are invalid")
	ErrInvalidColumnType  = shared.NewDomainError("INVALID_COLUMN_TYPE", "Column type or alignment is invalid")
)

// Interaction errors
var (
	ErrUnknownColumn     = shared.NewDomainError("UNKNOWN_COLUMN", "Column does not exist in this table")
	ErrResizeInProgress  = shared.NewDomainError("RESIZE_IN_PROGRESS", "Another column resize is already active")
	ErrNoActiveResize    = shared.NewDomainError("NO_ACTIVE_RESIZE", "No column resize is active")
	ErrControllerClosed  = shared.NewDomainError("CONTROLLER_CLOSED", "Column width controller has been closed")
	ErrInvalidWidth      = shared.NewDomainError("INVALID_WIDTH", "Column width must be a positive number")
	ErrInvalidTableID    = shared.NewDomainError("INVALID_TABLE_IDENTIFIER", "Table identifier cannot be empty")
	ErrInvalidSetting    = shared.NewDomainError("INVALID_COLUMN_SETTING", "Column setting is invalid")
	ErrSettingsNotOwned  = shared.NewDomainError("UNAUTHORIZED", "Table settings require an authenticated user")
	ErrInvalidRowHeights = shared.NewDomainError("INVALID_ROW_HEIGHT", "Row heights must be positive")
)
