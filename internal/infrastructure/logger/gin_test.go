package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newLoggedRouter(t *testing.T, skip ...string) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	core, recorded := observer.New(zapcore.DebugLevel)
	l := zap.New(core)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(RequestIDKey, "req-abc")
		c.Next()
	})
	r.Use(GinMiddleware(l, skip...))
	r.Use(Recovery(l))
	return r, recorded
}

func TestGinMiddleware_StatusLevels(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  zapcore.Level
	}{
		{"ok", http.StatusOK, zapcore.InfoLevel},
		{"client error", http.StatusNotFound, zapcore.WarnLevel},
		{"server error", http.StatusBadGateway, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, recorded := newLoggedRouter(t)
			r.GET("/x", func(c *gin.Context) { c.Status(tt.status) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x?page=2", nil))

			logs := recorded.FilterMessage("HTTP Request").All()
			require.Len(t, logs, 1)
			assert.Equal(t, tt.level, logs[0].Level)

			fields := logs[0].ContextMap()
			assert.Equal(t, "req-abc", fields["request_id"])
			assert.Equal(t, "GET", fields["method"])
			assert.Equal(t, "/x", fields["path"])
			assert.Equal(t, "page=2", fields["query"])
			assert.EqualValues(t, tt.status, fields["status"])
		})
	}
}

func TestGinMiddleware_HandlerLoggerIsScoped(t *testing.T) {
	r, recorded := newLoggedRouter(t)
	r.GET("/x", func(c *gin.Context) {
		GetGinLogger(c).Info("inside handler")
		c.Status(http.StatusNoContent)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	logs := recorded.FilterMessage("inside handler").All()
	require.Len(t, logs, 1)
	assert.Equal(t, "req-abc", logs[0].ContextMap()["request_id"])
}

func TestGinMiddleware_SkipPaths(t *testing.T) {
	r, recorded := newLoggedRouter(t, "/api/v1/drafts/events")
	r.GET("/api/v1/drafts/events", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/drafts/events", nil))

	assert.Zero(t, recorded.FilterMessage("HTTP Request").Len())
}

func TestRecovery(t *testing.T) {
	r, recorded := newLoggedRouter(t)
	r.GET("/panic", func(c *gin.Context) { panic("renderer exploded") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_INTERNAL")
	assert.Contains(t, w.Body.String(), "req-abc")
	assert.Equal(t, 1, recorded.FilterMessage("Panic recovered").Len())
}
