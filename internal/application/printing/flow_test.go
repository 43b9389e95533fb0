package printing

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/workstation/internal/domain/printing"
	"github.com/erp/workstation/internal/domain/shared"
	"github.com/erp/workstation/internal/infrastructure/draft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockDraftStore is a mock implementation of DraftStore
type MockDraftStore struct {
	mock.Mock
}

func (m *MockDraftStore) Load(ctx context.Context, datasetID string) (*printing.PrintDraft, error) {
	args := m.Called(ctx, datasetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*printing.PrintDraft), args.Error(1)
}

func (m *MockDraftStore) Save(ctx context.Context, datasetID string, d *printing.PrintDraft) error {
	args := m.Called(ctx, datasetID, d)
	return args.Error(0)
}

func (m *MockDraftStore) Delete(ctx context.Context, datasetID string) error {
	args := m.Called(ctx, datasetID)
	return args.Error(0)
}

func (m *MockDraftStore) HasDraft(ctx context.Context, datasetID string) (bool, error) {
	args := m.Called(ctx, datasetID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDraftStore) Watch(ctx context.Context, datasetID string) (<-chan printing.DraftChange, error) {
	args := m.Called(ctx, datasetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan printing.DraftChange), args.Error(1)
}

func flowDefaults() printing.DraftConfig {
	return printing.DefaultDraftConfig([]printing.PrintColumnDefinition{
		{Key: "code", Label: "Code"},
		{Key: "amount", Label: "Amount", Type: "currency"},
	})
}

func landscapeConfig() printing.DraftConfig {
	cfg := flowDefaults()
	cfg.Orientation = printing.OrientationLandscape
	cfg.Columns = []string{"amount"}
	cfg.PageBreaks = []int{4}
	return cfg
}

func saveDraft(t *testing.T, store printing.DraftStore, datasetID string, cfg printing.DraftConfig) {
	t.Helper()
	d, err := printing.NewPrintDraft(datasetID, cfg)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), datasetID, d))
}

func newFlow(t *testing.T, store printing.DraftStore) *PrintFlow {
	t.Helper()
	f, err := NewPrintFlow(store, "budget-2026", flowDefaults(), zap.NewNop())
	require.NoError(t, err)
	return f
}

func TestNewPrintFlow_RejectsInvalidDatasetID(t *testing.T) {
	_, err := NewPrintFlow(draft.NewMemoryStore(), "Budget 2026", flowDefaults(), nil)
	assert.ErrorIs(t, err, printing.ErrInvalidDatasetID)
}

func TestPrintFlow_MustBeOpened(t *testing.T) {
	f := newFlow(t, draft.NewMemoryStore())
	assert.Equal(t, FlowStateClosed, f.State())

	_, err := f.Config()
	assert.ErrorIs(t, err, ErrFlowNotOpen)
	_, err = f.Resume(context.Background())
	assert.ErrorIs(t, err, ErrFlowNotOpen)
	assert.ErrorIs(t, f.Discard(context.Background()), ErrFlowNotOpen)
}

func TestPrintFlow_NoDraft(t *testing.T) {
	f := newFlow(t, draft.NewMemoryStore())

	hasDraft, err := f.Open(context.Background())
	require.NoError(t, err)
	assert.False(t, hasDraft)
	assert.Equal(t, FlowStateNoDraft, f.State())

	cfg, err := f.Config()
	require.NoError(t, err)
	assert.Equal(t, flowDefaults(), cfg)

	_, err = f.Resume(context.Background())
	assert.ErrorIs(t, err, ErrNoDraftToResolve)
}

func TestPrintFlow_DraftRequiresDecision(t *testing.T) {
	store := draft.NewMemoryStore()
	saveDraft(t, store, "budget-2026", landscapeConfig())
	f := newFlow(t, store)

	hasDraft, err := f.Open(context.Background())
	require.NoError(t, err)
	assert.True(t, hasDraft)
	assert.Equal(t, FlowStateDraftFound, f.State())

	_, err = f.Config()
	assert.ErrorIs(t, err, ErrDraftDecisionPending)
	assert.ErrorIs(t, f.Update(context.Background(), flowDefaults()), ErrDraftDecisionPending)
	assert.ErrorIs(t, f.SaveDraft(context.Background()), ErrDraftDecisionPending)

	// the pending decision never touches the stored draft
	stored, err := store.Load(context.Background(), "budget-2026")
	require.NoError(t, err)
	assert.Equal(t, landscapeConfig(), stored.Config)
}

func TestPrintFlow_Resume(t *testing.T) {
	store := draft.NewMemoryStore()
	saveDraft(t, store, "budget-2026", landscapeConfig())
	f := newFlow(t, store)
	_, err := f.Open(context.Background())
	require.NoError(t, err)

	cfg, err := f.Resume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, landscapeConfig(), cfg)
	assert.Equal(t, FlowStateReady, f.State())

	got, err := f.Config()
	require.NoError(t, err)
	assert.Equal(t, landscapeConfig(), got)
}

func TestPrintFlow_ResumeSeesNewerSave(t *testing.T) {
	store := draft.NewMemoryStore()
	saveDraft(t, store, "budget-2026", landscapeConfig())
	f := newFlow(t, store)
	_, err := f.Open(context.Background())
	require.NoError(t, err)

	newer := landscapeConfig()
	newer.PaperSize = printing.PaperSizeA3
	saveDraft(t, store, "budget-2026", newer)

	cfg, err := f.Resume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, printing.PaperSizeA3, cfg.PaperSize)
}

func TestPrintFlow_ResumeFallsBackToCopyFromOpen(t *testing.T) {
	d, err := printing.NewPrintDraft("budget-2026", landscapeConfig())
	require.NoError(t, err)

	store := new(MockDraftStore)
	store.On("Load", mock.Anything, "budget-2026").Return(d, nil).Once()
	store.On("Load", mock.Anything, "budget-2026").Return(nil, errors.New("redis: connection pool timeout")).Once()

	f := newFlow(t, store)
	_, err = f.Open(context.Background())
	require.NoError(t, err)

	cfg, err := f.Resume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, landscapeConfig(), cfg)
	store.AssertExpectations(t)
}

func TestPrintFlow_Discard(t *testing.T) {
	store := draft.NewMemoryStore()
	saveDraft(t, store, "budget-2026", landscapeConfig())
	f := newFlow(t, store)

	hasDraft, err := f.Open(context.Background())
	require.NoError(t, err)
	require.True(t, hasDraft)

	require.NoError(t, f.Discard(context.Background()))
	assert.Equal(t, FlowStateReady, f.State())
	cfg, err := f.Config()
	require.NoError(t, err)
	assert.Equal(t, flowDefaults(), cfg)

	// a subsequent open finds nothing
	again := newFlow(t, store)
	hasDraft, err = again.Open(context.Background())
	require.NoError(t, err)
	assert.False(t, hasDraft)
}

func TestPrintFlow_DiscardFailureIsTransient(t *testing.T) {
	d, err := printing.NewPrintDraft("budget-2026", landscapeConfig())
	require.NoError(t, err)

	store := new(MockDraftStore)
	store.On("Load", mock.Anything, "budget-2026").Return(d, nil)
	store.On("Delete", mock.Anything, "budget-2026").Return(errors.New("disk full"))

	f := newFlow(t, store)
	_, err = f.Open(context.Background())
	require.NoError(t, err)

	err = f.Discard(context.Background())
	assert.True(t, shared.IsTransient(err))
	assert.Equal(t, FlowStateReady, f.State())
}

func TestPrintFlow_OpenTreatsUnreadableDraftAsAbsent(t *testing.T) {
	store := new(MockDraftStore)
	store.On("Load", mock.Anything, "budget-2026").Return(nil, printing.ErrInvalidDraft)

	f := newFlow(t, store)
	hasDraft, err := f.Open(context.Background())
	require.NoError(t, err)
	assert.False(t, hasDraft)
	assert.Equal(t, FlowStateNoDraft, f.State())
}

func TestPrintFlow_OpenStoreFailure(t *testing.T) {
	store := new(MockDraftStore)
	store.On("Load", mock.Anything, "budget-2026").Return(nil, errors.New("permission denied"))

	f := newFlow(t, store)
	hasDraft, err := f.Open(context.Background())
	assert.False(t, hasDraft)
	assert.True(t, shared.IsTransient(err))

	// still usable with defaults
	cfg, err := f.Config()
	require.NoError(t, err)
	assert.Equal(t, flowDefaults(), cfg)
}

func TestPrintFlow_Update(t *testing.T) {
	t.Run("saves the configuration as a draft", func(t *testing.T) {
		store := draft.NewMemoryStore()
		f := newFlow(t, store)
		_, err := f.Open(context.Background())
		require.NoError(t, err)

		require.NoError(t, f.Update(context.Background(), landscapeConfig()))
		assert.Equal(t, FlowStateReady, f.State())

		stored, err := store.Load(context.Background(), "budget-2026")
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, landscapeConfig(), stored.Config)
		assert.Equal(t, printing.CurrentDraftSchemaVersion, stored.SchemaVersion)
	})

	t.Run("rejects an invalid configuration", func(t *testing.T) {
		f := newFlow(t, draft.NewMemoryStore())
		_, err := f.Open(context.Background())
		require.NoError(t, err)

		bad := flowDefaults()
		bad.RowHeightMM = 0
		assert.ErrorIs(t, f.Update(context.Background(), bad), printing.ErrInvalidDraft)

		cfg, err := f.Config()
		require.NoError(t, err)
		assert.Equal(t, flowDefaults(), cfg)
	})

	t.Run("save failure keeps the configuration in memory", func(t *testing.T) {
		store := new(MockDraftStore)
		store.On("Load", mock.Anything, "budget-2026").Return(nil, nil)
		store.On("Save", mock.Anything, "budget-2026", mock.Anything).Return(errors.New("quota exceeded"))

		f := newFlow(t, store)
		_, err := f.Open(context.Background())
		require.NoError(t, err)

		err = f.Update(context.Background(), landscapeConfig())
		require.Error(t, err)
		assert.True(t, shared.IsTransient(err))

		cfg, err := f.Config()
		require.NoError(t, err)
		assert.Equal(t, landscapeConfig(), cfg)
	})
}
