package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	gridapp "github.com/erp/workstation/internal/application/grid"
	printingapp "github.com/erp/workstation/internal/application/printing"
	"github.com/erp/workstation/internal/infrastructure/auth"
	"github.com/erp/workstation/internal/infrastructure/config"
	"github.com/erp/workstation/internal/infrastructure/draft"
	"github.com/erp/workstation/internal/infrastructure/persistence"
	printinginfra "github.com/erp/workstation/internal/infrastructure/printing"
	"github.com/erp/workstation/internal/infrastructure/printing/adapters"
	"github.com/erp/workstation/internal/infrastructure/storage"
	"github.com/erp/workstation/internal/interfaces/http/dto"
	"github.com/erp/workstation/internal/interfaces/http/handler"
	"github.com/erp/workstation/internal/interfaces/http/middleware"
	"github.com/erp/workstation/internal/interfaces/http/router"
	"github.com/erp/workstation/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const budgetLines = `[
	{"id":"l1","categoryId":"ops","category":"Operations","code":"OP-1","description":"Rent","planned":"1000","actual":"900"},
	{"id":"l2","categoryId":"it","category":"IT","code":"IT-1","description":"Laptops","planned":"2000","actual":"2100"}
]`

// newAPI assembles the HTTP stack the server runs, backed by SQLite, an
// in-memory draft store and exports on a temporary directory
func newAPI(t *testing.T) *gin.Engine {
	t.Helper()

	db := testutil.NewSQLiteDatabase(t)
	settings := gridapp.NewSettingsService(persistence.NewGormTableSettingsRepository(db.DB), zap.NewNop())

	drafts := draft.NewMemoryStore()
	t.Cleanup(func() { _ = drafts.Close() })

	documents, err := storage.New(context.Background(), &config.StorageConfig{
		Type:     "filesystem",
		BasePath: t.TempDir(),
	}, zap.NewNop())
	require.NoError(t, err)

	exporter, err := printinginfra.NewExporterFromConfig(config.PrintConfig{
		Renderer:    "none",
		RowHeightMM: 8,
		Locale:      "en-US",
	}, documents, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = exporter.Close() })

	prints := printingapp.NewPrintService(adapters.NewDefaultRegistry(), drafts, exporter, zap.NewNop())

	middleware.SetupValidator()
	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.DraftSource())

	authMiddleware := middleware.JWTAuthMiddlewareWithConfig(middleware.DefaultJWTConfig(auth.NewJWTService(testutil.TestJWTConfig())))

	r := router.NewRouter(engine)
	r.Register(handler.GridRoutes(handler.NewGridSettingsHandler(settings), authMiddleware)).
		Register(handler.PrintRoutes(handler.NewPrintHandler(prints, documents, zap.NewNop()), nil, authMiddleware, nil))
	r.Setup()
	return engine
}

func TestAPI_RequiresBearerToken(t *testing.T) {
	engine := newAPI(t)

	w := testutil.Perform(t, engine, http.MethodGet, "/api/v1/grid/settings/budget-lines", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutil.Perform(t, engine, http.MethodGet, "/api/v1/print/kinds", nil, testutil.BearerHeader("not-a-token"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPI_GridSettingsPerUser(t *testing.T) {
	engine := newAPI(t)
	alice := testutil.BearerHeader(testutil.IssueToken(t, "alice"))
	bob := testutil.BearerHeader(testutil.IssueToken(t, "bob"))

	w := testutil.Perform(t, engine, http.MethodPut, "/api/v1/grid/settings/budget-lines", map[string]any{
		"columns": []map[string]any{
			{"field_key": "label", "width": 240, "is_visible": true, "pinned": "left"},
			{"field_key": "amount", "width": 120, "is_visible": true},
		},
	}, alice)
	testutil.AssertSuccess(t, w, http.StatusOK)

	w = testutil.Perform(t, engine, http.MethodGet, "/api/v1/grid/settings/budget-lines", nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	got := testutil.DecodeEnvelope[*gridapp.SettingsResponse](t, w)
	require.NotNil(t, got.Data)
	require.Len(t, got.Data.Columns, 2)
	assert.Equal(t, 240.0, got.Data.Columns[0].Width)

	// another user sees no layout for the same table
	w = testutil.Perform(t, engine, http.MethodGet, "/api/v1/grid/settings/budget-lines", nil, bob)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, testutil.DecodeEnvelope[*gridapp.SettingsResponse](t, w).Data)

	w = testutil.Perform(t, engine, http.MethodDelete, "/api/v1/grid/settings/budget-lines", nil, alice)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = testutil.Perform(t, engine, http.MethodGet, "/api/v1/grid/settings/budget-lines", nil, alice)
	assert.Nil(t, testutil.DecodeEnvelope[*gridapp.SettingsResponse](t, w).Data)
}

func TestAPI_PrintDraftAndTextExport(t *testing.T) {
	engine := newAPI(t)
	headers := testutil.BearerHeader(testutil.IssueToken(t, "alice"))

	body := map[string]any{
		"year":     2026,
		"entities": json.RawMessage(budgetLines),
		"format":   "txt",
	}

	// without a draft the default configuration is used
	w := testutil.Perform(t, engine, http.MethodPost, "/api/v1/print/budget/paginate", body, headers)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	laidOut := testutil.DecodeEnvelope[printingapp.PaginateResponse](t, w)
	assert.Equal(t, "budget-2026", laidOut.Data.DatasetID)
	assert.Equal(t, 1, laidOut.Data.PageCount)

	cfg := laidOut.Data.Config
	cfg.PageBreaks = []int{1}
	w = testutil.Perform(t, engine, http.MethodPut, "/api/v1/print/drafts/budget-2026", map[string]any{"config": cfg}, headers)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// with a draft saved, exporting without a decision is refused
	w = testutil.Perform(t, engine, http.MethodPost, "/api/v1/print/budget/export", body, headers)
	testutil.AssertErrorCode(t, w, http.StatusConflict, dto.ErrCodePrintDraftPending)

	body["draft"] = "resume"
	w = testutil.Perform(t, engine, http.MethodPost, "/api/v1/print/budget/export", body, headers)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	exported := testutil.DecodeEnvelope[printingapp.ExportResponse](t, w)
	assert.Equal(t, "txt", exported.Data.Format)
	assert.Equal(t, 2, exported.Data.PageCount)
	require.NotEmpty(t, exported.Data.Location)

	key := strings.TrimPrefix(exported.Data.Location, "/api/v1/print/exports/")
	w = testutil.Perform(t, engine, http.MethodGet, "/api/v1/print/exports/"+key, nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "OP-1")
	assert.Contains(t, w.Body.String(), "Laptops")

	// exporting keeps the draft
	w = testutil.Perform(t, engine, http.MethodGet, "/api/v1/print/drafts/budget-2026", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, testutil.DecodeEnvelope[printingapp.DraftResponse](t, w).Data.HasDraft)

	body["draft"] = "discard"
	w = testutil.Perform(t, engine, http.MethodPost, "/api/v1/print/budget/paginate", body, headers)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, testutil.DecodeEnvelope[printingapp.PaginateResponse](t, w).Data.PageCount)

	w = testutil.Perform(t, engine, http.MethodGet, "/api/v1/print/drafts/budget-2026", nil, headers)
	assert.False(t, testutil.DecodeEnvelope[printingapp.DraftResponse](t, w).Data.HasDraft)
}

func TestAPI_PDFExportWithoutRenderer(t *testing.T) {
	engine := newAPI(t)
	headers := testutil.BearerHeader(testutil.IssueToken(t, "alice"))

	w := testutil.Perform(t, engine, http.MethodPost, "/api/v1/print/budget/export", map[string]any{
		"year":     2026,
		"entities": json.RawMessage(budgetLines),
		"format":   "pdf",
	}, headers)

	testutil.AssertErrorCode(t, w, http.StatusBadGateway, dto.ErrCodeExportFailed)
}
