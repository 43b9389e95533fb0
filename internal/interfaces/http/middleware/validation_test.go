package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/workstation/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type exportBody struct {
	Year   int    `json:"year" binding:"required,min=1900,max=9999"`
	Format string `json:"format" binding:"omitempty,oneof=pdf xlsx txt"`
	Title  string `json:"title" binding:"max=5"`
}

func validationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req exportBody
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	assert.True(t, ok)
	assert.NotNil(t, v)
}

func TestHandleValidationError(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
		wantFields []string
	}{
		{"valid", `{"year":2026,"format":"xlsx"}`, http.StatusOK, "", nil},
		{"missing year", `{"format":"pdf"}`, http.StatusBadRequest, dto.ErrCodeValidation, []string{"year"}},
		{"bad format and long title", `{"year":2026,"format":"docx","title":"quarterly"}`, http.StatusBadRequest, dto.ErrCodeValidation, []string{"format", "title"}},
		{"wrong type", `{"year":"2026"}`, http.StatusBadRequest, dto.ErrCodeValidation, []string{"year"}},
		{"malformed json", `{"year":`, http.StatusBadRequest, dto.ErrCodeInvalidJSON, nil},
	}

	router := validationRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set(RequestIDKey, "req-1")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode == "" {
				return
			}
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)

			var fields []string
			for _, d := range resp.Error.Details {
				fields = append(fields, d.Field)
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
		})
	}
}

func TestGetValidationMessage(t *testing.T) {
	type messages struct {
		Required string `binding:"required"`
		Short    string `binding:"min=3"`
		Count    int    `binding:"max=2"`
		Format   string `binding:"oneof=pdf xlsx"`
	}

	err := binding.Validator.ValidateStruct(messages{Short: "ab", Count: 5, Format: "doc"})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	got := map[string]string{}
	for _, e := range verrs {
		got[e.StructField()] = getValidationMessage(e)
	}
	assert.Equal(t, "This field is required", got["Required"])
	assert.Equal(t, "Must be at least 3 characters", got["Short"])
	assert.Equal(t, "Must be at most 2", got["Count"])
	assert.Equal(t, "Must be one of: pdf xlsx", got["Format"])
}
