package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const panelOrigin = "https://panel.reseller.test"

func TestCreateCORSMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name    string
		enabled bool
		origins string
		wantNil bool
	}{
		{name: "disabled", enabled: false, origins: panelOrigin, wantNil: true},
		{name: "enabled without origins", enabled: true, origins: "", wantNil: true},
		{name: "only blank origins", enabled: true, origins: " , ", wantNil: true},
		{name: "comma separated origins", enabled: true, origins: panelOrigin + ",https://admin.reseller.test"},
		{name: "blank entries skipped", enabled: true, origins: " " + panelOrigin + " , ,https://admin.reseller.test "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			middleware := createCORSMiddleware(tt.enabled, tt.origins, logger)
			assert.Equal(t, tt.wantNil, middleware == nil)
		})
	}
}

// panelRouter mimics the partner routes a browser panel calls.
func panelRouter(t *testing.T, enabled bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	if middleware := createCORSMiddleware(enabled, panelOrigin, slog.Default()); middleware != nil {
		router.Use(middleware)
	}
	router.GET("/v1/partners/:partner_id/domains/:domain_id", func(c *gin.Context) {
		c.Header("X-Request-Id", "req-1")
		c.JSON(http.StatusOK, gin.H{"name": "example.com", "status": "active"})
	})
	router.POST("/v1/partners/:partner_id/domains/:domain_id/renew", func(c *gin.Context) {
		c.JSON(http.StatusAccepted, gin.H{"job_id": "j-1"})
	})
	return router
}

func TestCORS_PartnerPanel(t *testing.T) {
	t.Run("allowed origin reads domain and request id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/partners/p-1/domains/d-1", nil)
		req.Header.Set("Origin", panelOrigin)
		panelRouter(t, true).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, panelOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "X-Request-Id")
	})

	t.Run("renewal preflight", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/v1/partners/p-1/domains/d-1/renew", nil)
		req.Header.Set("Origin", panelOrigin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Content-Type")
		panelRouter(t, true).ServeHTTP(w, req)

		require.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, panelOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("unknown origin is refused", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/partners/p-1/domains/d-1/renew", nil)
		req.Header.Set("Origin", "https://evil.test")
		panelRouter(t, true).ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("disabled adds no headers", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/partners/p-1/domains/d-1", nil)
		req.Header.Set("Origin", panelOrigin)
		panelRouter(t, false).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}
