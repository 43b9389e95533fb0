package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeConfiguration is used when the server is misconfigured
	ErrCodeConfiguration = "ERR_CONFIGURATION"
	// ErrCodeServiceUnavailable is used when a backing store could not be reached.
	// The request can be retried unchanged.
	ErrCodeServiceUnavailable = "ERR_SERVICE_UNAVAILABLE"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
)

// Grid error codes
const (
	ErrCodeGridColumnKey     = "ERR_GRID_COLUMN_KEY"
	ErrCodeGridDuplicateKey  = "ERR_GRID_DUPLICATE_COLUMN"
	ErrCodeGridWidthBounds   = "ERR_GRID_WIDTH_BOUNDS"
	ErrCodeGridColumnType    = "ERR_GRID_COLUMN_TYPE"
	ErrCodeGridUnknownColumn = "ERR_GRID_UNKNOWN_COLUMN"
	ErrCodeGridWidth         = "ERR_GRID_WIDTH"
	ErrCodeGridTable         = "ERR_GRID_TABLE"
	ErrCodeGridSetting       = "ERR_GRID_SETTING"
	ErrCodeGridRowHeight     = "ERR_GRID_ROW_HEIGHT"
)

// Print error codes
const (
	// ErrCodePrintDraftPending is returned while a saved draft waits for a
	// resume or discard decision
	ErrCodePrintDraftPending   = "ERR_PRINT_DRAFT_PENDING"
	ErrCodePrintNoDraft        = "ERR_PRINT_NO_DRAFT"
	ErrCodePrintInvalidDraft   = "ERR_PRINT_INVALID_DRAFT"
	ErrCodePrintDataset        = "ERR_PRINT_DATASET"
	ErrCodePrintUnknownKind    = "ERR_PRINT_UNKNOWN_KIND"
	ErrCodePrintNoColumns      = "ERR_PRINT_NO_COLUMNS"
	ErrCodePrintNoEntitySource = "ERR_PRINT_NO_ENTITY_SOURCE"
	ErrCodePrintPaper          = "ERR_PRINT_PAPER"
	ErrCodePrintMargins        = "ERR_PRINT_MARGINS"
	ErrCodePrintCapacity       = "ERR_PRINT_CAPACITY"
	ErrCodePrintItem           = "ERR_PRINT_ITEM"
	ErrCodePrintMarker         = "ERR_PRINT_MARKER"
	// ErrCodeExportFailed is returned when the rendering service failed.
	// ErrorInfo.Retryable tells whether the same request may succeed later.
	ErrCodeExportFailed = "ERR_EXPORT_FAILED"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:            http.StatusInternalServerError,
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeConfiguration:      http.StatusInternalServerError,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound: http.StatusNotFound,
	ErrCodeConflict: http.StatusConflict,

	// Input errors
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeInvalidState:    http.StatusUnprocessableEntity,

	// Grid errors -> 400 Bad Request
	ErrCodeGridColumnKey:     http.StatusBadRequest,
	ErrCodeGridDuplicateKey:  http.StatusBadRequest,
	ErrCodeGridWidthBounds:   http.StatusBadRequest,
	ErrCodeGridColumnType:    http.StatusBadRequest,
	ErrCodeGridUnknownColumn: http.StatusBadRequest,
	ErrCodeGridWidth:         http.StatusBadRequest,
	ErrCodeGridTable:         http.StatusBadRequest,
	ErrCodeGridSetting:       http.StatusBadRequest,
	ErrCodeGridRowHeight:     http.StatusBadRequest,

	// Print errors
	ErrCodePrintDraftPending:   http.StatusConflict,
	ErrCodePrintNoDraft:        http.StatusConflict,
	ErrCodePrintInvalidDraft:   http.StatusBadRequest,
	ErrCodePrintDataset:        http.StatusBadRequest,
	ErrCodePrintUnknownKind:    http.StatusNotFound,
	ErrCodePrintNoColumns:      http.StatusUnprocessableEntity,
	ErrCodePrintNoEntitySource: http.StatusUnprocessableEntity,
	ErrCodePrintPaper:          http.StatusBadRequest,
	ErrCodePrintMargins:        http.StatusBadRequest,
	ErrCodePrintCapacity:       http.StatusUnprocessableEntity,
	ErrCodePrintItem:           http.StatusUnprocessableEntity,
	ErrCodePrintMarker:         http.StatusUnprocessableEntity,
	ErrCodeExportFailed:        http.StatusBadGateway,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain error codes to the standardized API codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":           ErrCodeNotFound,
	"INVALID_INPUT":       ErrCodeInvalidInput,
	"INVALID_STATE":       ErrCodeInvalidState,
	"UNAUTHORIZED":        ErrCodeUnauthorized,
	"FORBIDDEN":           ErrCodeForbidden,
	"VALIDATION_ERROR":    ErrCodeValidation,
	"BAD_REQUEST":         ErrCodeBadRequest,
	"INTERNAL_ERROR":      ErrCodeInternal,
	"CONFIGURATION_ERROR": ErrCodeConfiguration,
	"REQUEST_TOO_LARGE":   ErrCodeRequestTooLarge,

	// grid
	"INVALID_COLUMN_KEY":       ErrCodeGridColumnKey,
	"DUPLICATE_COLUMN_KEY":     ErrCodeGridDuplicateKey,
	"INVALID_WIDTH_BOUNDS":     ErrCodeGridWidthBounds,
	"INVALID_COLUMN_TYPE":      ErrCodeGridColumnType,
	"UNKNOWN_COLUMN":           ErrCodeGridUnknownColumn,
	"INVALID_WIDTH":            ErrCodeGridWidth,
	"INVALID_TABLE_IDENTIFIER": ErrCodeGridTable,
	"INVALID_COLUMN_SETTING":   ErrCodeGridSetting,
	"INVALID_ROW_HEIGHT":       ErrCodeGridRowHeight,

	// printing
	"DRAFT_DECISION_PENDING": ErrCodePrintDraftPending,
	"PRINT_FLOW_NOT_OPEN":    ErrCodePrintDraftPending,
	"NO_DRAFT_TO_RESOLVE":    ErrCodePrintNoDraft,
	"INVALID_DRAFT":          ErrCodePrintInvalidDraft,
	"INVALID_DATASET_ID":     ErrCodePrintDataset,
	"UNKNOWN_PRINT_KIND":     ErrCodePrintUnknownKind,
	"NO_COLUMNS_SELECTED":    ErrCodePrintNoColumns,
	"NO_ENTITY_SOURCE":       ErrCodePrintNoEntitySource,
	"INVALID_PAPER":          ErrCodePrintPaper,
	"INVALID_MARGINS":        ErrCodePrintMargins,
	"INVALID_PAGE_CAPACITY":  ErrCodePrintCapacity,
	"DUPLICATE_ITEM_ID":      ErrCodePrintItem,
	"INVALID_ITEM_ID":        ErrCodePrintItem,
	"INVALID_ROW_MARKER":     ErrCodePrintMarker,
}

// NormalizeErrorCode converts a domain error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
