package grid

import (
	"context"

	"github.com/erp/workstation/internal/domain/shared"
)

// TableSettingsRepository defines the interface for table settings persistence
type TableSettingsRepository interface {
	// FindByUserAndTable finds the settings of one table for a user.
	// Returns shared.ErrNotFound when no record exists yet.
	FindByUserAndTable(ctx context.Context, userID, tableIdentifier string) (*TableSettings, error)

	// FindAllByUser lists every table a user has customized
	FindAllByUser(ctx context.Context, userID string, filter shared.Filter) ([]TableSettings, error)

	// Upsert inserts the record or overwrites the existing one for the same
	// (user, table) pair. Last write wins.
	Upsert(ctx context.Context, settings *TableSettings) error

	// DeleteByUserAndTable drops a stored layout so the table falls back to
	// its column defaults. A missing record is not an error.
	DeleteByUserAndTable(ctx context.Context, userID, tableIdentifier string) error
}
