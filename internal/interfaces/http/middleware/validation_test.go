package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/merch/byom/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type placementRequest struct {
	MerchType string `json:"merch_type" binding:"required,merch_type"`
	Zone      string `json:"zone" binding:"required,zone"`
	Content   string `json:"content" binding:"max=5"`
}

func validationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req placementRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func TestSetupValidator_CustomTags(t *testing.T) {
	router := validationRouter()

	tests := []struct {
		name   string
		body   string
		status int
		fields []string
	}{
		{"valid", `{"merch_type":"hoodie","zone":"back","content":"hi"}`, http.StatusOK, nil},
		{"unknown merch type", `{"merch_type":"cape","zone":"front"}`, http.StatusBadRequest, []string{"merch_type"}},
		{"unknown zone", `{"merch_type":"hat","zone":"top"}`, http.StatusBadRequest, []string{"zone"}},
		{"several fields", `{"merch_type":"","zone":"","content":"too long"}`, http.StatusBadRequest, []string{"merch_type", "zone", "content"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code)
			if tt.fields == nil {
				return
			}
			var resp dto.Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
			var got []string
			for _, d := range resp.Error.Details {
				got = append(got, d.Field)
			}
			assert.ElementsMatch(t, tt.fields, got)
		})
	}
}

func TestFormatValidationErrors_MalformedJSON(t *testing.T) {
	router := validationRouter()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"merch_type":`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Malformed request body")
}
