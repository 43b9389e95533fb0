package printing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/erp/workstation/internal/domain/printing"
	"github.com/erp/workstation/internal/domain/shared"
	"go.uber.org/zap"
)

// FlowState is the named state of a PrintFlow
type FlowState string

const (
	FlowStateClosed     FlowState = "CLOSED"
	FlowStateNoDraft    FlowState = "NO_DRAFT"
	FlowStateDraftFound FlowState = "DRAFT_FOUND"
	FlowStateResuming   FlowState = "RESUMING"
	FlowStateDiscarding FlowState = "DISCARDING"
	FlowStateReady      FlowState = "READY"
)

// Flow errors
var (
	ErrDraftDecisionPending = shared.NewDomainError("DRAFT_DECISION_PENDING", "A saved print draft exists; resume or discard it first")
	ErrFlowNotOpen          = shared.NewDomainError("PRINT_FLOW_NOT_OPEN", "Print flow has not been opened")
	ErrNoDraftToResolve     = shared.NewDomainError("NO_DRAFT_TO_RESOLVE", "There is no saved print draft to resume or discard")
)

// PrintFlow is the print configuration session of one dataset. When a draft
// exists the caller must choose to resume or discard it before the
// configuration can be used; a draft is never resumed or overwritten
// silently.
type PrintFlow struct {
	mu        sync.Mutex
	datasetID string
	defaults  printing.DraftConfig
	drafts    printing.DraftStore
	state     FlowState
	found     *printing.PrintDraft
	config    printing.DraftConfig
	logger    *zap.Logger
}

// NewPrintFlow creates a flow for a dataset. defaults is the configuration
// used when there is no draft or the draft is discarded.
func NewPrintFlow(drafts printing.DraftStore, datasetID string, defaults printing.DraftConfig, logger *zap.Logger) (*PrintFlow, error) {
	if err := printing.ValidateDatasetID(datasetID); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrintFlow{
		datasetID: datasetID,
		defaults:  defaults,
		drafts:    drafts,
		state:     FlowStateClosed,
		config:    defaults,
		logger:    logger.With(zap.String("dataset_id", datasetID)),
	}, nil
}

// DatasetID returns the dataset the flow configures
func (f *PrintFlow) DatasetID() string {
	return f.datasetID
}

// State returns the current state
func (f *PrintFlow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Open looks for a saved draft and reports whether one exists. An unreadable
// draft is treated as absent. A store failure leaves the flow usable with the
// default configuration and is returned as a TransientError.
func (f *PrintFlow) Open(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	draft, err := f.drafts.Load(ctx, f.datasetID)
	switch {
	case errors.Is(err, printing.ErrInvalidDraft):
		f.logger.Warn("Ignoring unreadable print draft", zap.Error(err))
		draft = nil
	case err != nil:
		f.state = FlowStateNoDraft
		f.logger.Warn("Failed to look up print draft", zap.Error(err))
		return false, shared.NewTransientError("load print draft", err)
	}

	if draft == nil {
		f.state = FlowStateNoDraft
		f.found = nil
		return false, nil
	}
	f.state = FlowStateDraftFound
	f.found = draft
	return true, nil
}

// Resume continues from the saved draft. The draft is read again so a newer
// save from another context wins; if it has since been deleted the defaults
// are used.
func (f *PrintFlow) Resume(ctx context.Context) (printing.DraftConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != FlowStateDraftFound {
		return printing.DraftConfig{}, f.decisionErrLocked()
	}
	f.state = FlowStateResuming

	draft, err := f.drafts.Load(ctx, f.datasetID)
	if err != nil {
		// keep the copy read by Open
		f.logger.Warn("Failed to reload print draft, resuming from the copy found on open", zap.Error(err))
		draft = f.found
	}
	if draft != nil {
		f.config = draft.Config
	} else {
		f.config = f.defaults
	}
	f.found = nil
	f.state = FlowStateReady
	f.logger.Info("Print draft resumed")
	return f.config, nil
}

// Discard deletes the saved draft and starts from the default configuration.
// A failed delete still leaves the flow ready; the error is a TransientError.
func (f *PrintFlow) Discard(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != FlowStateDraftFound {
		return f.decisionErrLocked()
	}
	f.state = FlowStateDiscarding

	err := f.drafts.Delete(ctx, f.datasetID)
	f.config = f.defaults
	f.found = nil
	f.state = FlowStateReady
	if err != nil {
		f.logger.Warn("Failed to delete print draft", zap.Error(err))
		return shared.NewTransientError("delete print draft", err)
	}
	f.logger.Info("Print draft discarded")
	return nil
}

func (f *PrintFlow) decisionErrLocked() error {
	switch f.state {
	case FlowStateClosed:
		return ErrFlowNotOpen
	case FlowStateResuming, FlowStateDiscarding:
		return ErrDraftDecisionPending
	default:
		return ErrNoDraftToResolve
	}
}

func (f *PrintFlow) usableLocked() error {
	switch f.state {
	case FlowStateNoDraft, FlowStateReady:
		return nil
	case FlowStateClosed:
		return ErrFlowNotOpen
	default:
		return ErrDraftDecisionPending
	}
}

// Config returns the configuration to paginate with
func (f *PrintFlow) Config() (printing.DraftConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.usableLocked(); err != nil {
		return printing.DraftConfig{}, err
	}
	return f.config, nil
}

// Update replaces the configuration and saves it as the dataset's draft. An
// invalid configuration is rejected. A failed save keeps the new
// configuration in memory and returns a TransientError.
func (f *PrintFlow) Update(ctx context.Context, config printing.DraftConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.usableLocked(); err != nil {
		return err
	}
	if config.Totals == "" {
		config.Totals = printing.TotalsEveryPage
	}
	if err := config.Validate(); err != nil {
		return err
	}
	f.config = config
	f.state = FlowStateReady
	return f.saveLocked(ctx)
}

// SaveDraft writes the current configuration as the dataset's draft
func (f *PrintFlow) SaveDraft(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.usableLocked(); err != nil {
		return err
	}
	return f.saveLocked(ctx)
}

func (f *PrintFlow) saveLocked(ctx context.Context) error {
	draft, err := printing.NewPrintDraft(f.datasetID, f.config)
	if err != nil {
		return err
	}
	if err := f.drafts.Save(ctx, f.datasetID, draft); err != nil {
		f.logger.Warn("Failed to save print draft, keeping configuration in memory", zap.Error(err))
		return shared.NewTransientError(fmt.Sprintf("save print draft %s", f.datasetID), err)
	}
	f.logger.Debug("Print draft saved")
	return nil
}
