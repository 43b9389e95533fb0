package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/workstation/internal/domain/grid"
	"github.com/erp/workstation/internal/domain/printing"
	"github.com/erp/workstation/internal/domain/shared"
	"github.com/erp/workstation/internal/interfaces/http/dto"
	"github.com/erp/workstation/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// withUser simulates the JWT middleware for an authenticated user
func withUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.JWTUserIDKey, userID)
		c.Next()
	}
}

func performRequest(engine *gin.Engine, method, target string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewBuffer(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeResponse[T any](t *testing.T, w *httptest.ResponseRecorder) APIResponse[T] {
	t.Helper()
	var resp APIResponse[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*gin.Context)
		expectedID string
	}{
		{
			name: "from context",
			setup: func(c *gin.Context) {
				c.Set(RequestIDKey, "ctx-request-id")
			},
			expectedID: "ctx-request-id",
		},
		{
			name: "from header when context empty",
			setup: func(c *gin.Context) {
				c.Request.Header.Set(RequestIDKey, "header-request-id")
			},
			expectedID: "header-request-id",
		},
		{
			name:       "empty when not set",
			setup:      func(c *gin.Context) {},
			expectedID: "",
		},
		{
			name: "context takes precedence over header",
			setup: func(c *gin.Context) {
				c.Set(RequestIDKey, "ctx-id")
				c.Request.Header.Set(RequestIDKey, "header-id")
			},
			expectedID: "ctx-id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(c)
			assert.Equal(t, tt.expectedID, getRequestID(c))
		})
	}
}

func TestGetUserID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("X-User-ID", "spoofed")
	assert.Empty(t, getUserID(c))

	c.Set(middleware.JWTUserIDKey, "user-1")
	assert.Equal(t, "user-1", getUserID(c))
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantStatus    int
		wantCode      string
		wantRetryable bool
	}{
		{
			name:       "grid domain error",
			err:        grid.ErrUnknownColumn,
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeGridUnknownColumn,
		},
		{
			name:       "wrapped domain error",
			err:        fmt.Errorf("paginate: %w", printing.ErrInvalidCapacity),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   dto.ErrCodePrintCapacity,
		},
		{
			name:       "unknown print kind",
			err:        fmt.Errorf("%w: %q", printing.ErrUnknownKind, "invoices"),
			wantStatus: http.StatusNotFound,
			wantCode:   dto.ErrCodePrintUnknownKind,
		},
		{
			name:       "settings without a user",
			err:        grid.ErrSettingsNotOwned,
			wantStatus: http.StatusUnauthorized,
			wantCode:   dto.ErrCodeUnauthorized,
		},
		{
			name:          "retryable export failure",
			err:           printing.NewExportError("budget-2026.pdf", errors.New("chrome crashed")),
			wantStatus:    http.StatusBadGateway,
			wantCode:      dto.ErrCodeExportFailed,
			wantRetryable: true,
		},
		{
			name:       "permanent export failure",
			err:        &printing.ExportError{Filename: "budget-2026.pdf", Err: errors.New("renderer disabled")},
			wantStatus: http.StatusBadGateway,
			wantCode:   dto.ErrCodeExportFailed,
		},
		{
			name:          "transient store failure",
			err:           shared.NewTransientError("save print draft", errors.New("disk full")),
			wantStatus:    http.StatusServiceUnavailable,
			wantCode:      dto.ErrCodeServiceUnavailable,
			wantRetryable: true,
		},
		{
			name:       "unknown error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   dto.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set(RequestIDKey, "req-42")

			h := &BaseHandler{}
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "req-42", resp.Error.RequestID)
			assert.Equal(t, tt.wantRetryable, resp.Error.Retryable)
			assert.NotContains(t, w.Body.String(), "disk full")
		})
	}
}

func TestBaseHandler_HandleErrorNil(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	h := &BaseHandler{}
	h.HandleError(c, nil)
	assert.False(t, c.Writer.Written())
}

func TestBaseHandler_ErrorWithCode(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h := &BaseHandler{}
	h.ErrorWithCode(c, "DRAFT_DECISION_PENDING", "decide first")

	assert.Equal(t, http.StatusConflict, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodePrintDraftPending, resp.Error.Code)
}
