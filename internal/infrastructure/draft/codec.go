package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/erp/workstation/internal/domain/printing"
)

// ErrStoreClosed is returned by operations on a closed store
var ErrStoreClosed = errors.New("draft store closed")

func encodeDraft(datasetID string, d *printing.PrintDraft) ([]byte, error) {
	if err := printing.ValidateDatasetID(datasetID); err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("%w: nil draft", printing.ErrInvalidDraft)
	}
	if d.DatasetID != datasetID {
		return nil, fmt.Errorf("%w: draft belongs to %q, not %q", printing.ErrInvalidDraft, d.DatasetID, datasetID)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(d)
}

// decodeDraft parses a stored draft. Unreadable or foreign payloads are
// reported as ErrInvalidDraft so callers can offer a fresh start.
func decodeDraft(datasetID string, data []byte) (*printing.PrintDraft, error) {
	var d printing.PrintDraft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", printing.ErrInvalidDraft, err)
	}
	if d.DatasetID != datasetID {
		return nil, fmt.Errorf("%w: stored draft belongs to %q", printing.ErrInvalidDraft, d.DatasetID)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

func newChange(ctx context.Context, datasetID string, kind printing.DraftChangeType) printing.DraftChange {
	return printing.DraftChange{
		DatasetID: datasetID,
		Type:      kind,
		Source:    printing.DraftSource(ctx),
		Timestamp: timeNow(),
	}
}

func timeNow() time.Time {
	return time.Now().UTC()
}
