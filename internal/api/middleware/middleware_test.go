package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-media-library/internal/api/middleware"
)

func newRouter(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.SetupCORS(origins))
	router.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/panic", func(c *gin.Context) { panic("boom") })
	return router
}

func TestSetupCORS(t *testing.T) {
	tests := []struct {
		name           string
		origins        []string
		origin         string
		expectedStatus int
		expectedAllow  string
	}{
		{name: "any origin when unrestricted", origin: "https://a.example", expectedStatus: http.StatusOK, expectedAllow: "*"},
		{name: "listed origin", origins: []string{"https://a.example"}, origin: "https://a.example", expectedStatus: http.StatusOK, expectedAllow: "https://a.example"},
		{name: "unlisted origin", origins: []string{"https://a.example"}, origin: "https://b.example", expectedStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ok", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()

			newRouter(tt.origins).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedAllow, w.Header().Get("Access-Control-Allow-Origin"))
			if tt.expectedStatus == http.StatusOK {
				assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Range")
			}
		})
	}
}

func TestSetupCORS_Preflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/ok", nil)
	req.Header.Set("Origin", "https://a.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Range")
	w := httptest.NewRecorder()

	newRouter(nil).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Range")
}

func TestRecovery(t *testing.T) {
	w := httptest.NewRecorder()

	newRouter(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
}
