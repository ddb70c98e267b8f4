package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSystemHandler_Ready(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		pingDB     func() error
		wantStatus int
	}{
		{
			name:       "ready when database responds",
			pingDB:     func() error { return nil },
			wantStatus: http.StatusOK,
		},
		{
			name:       "unavailable when database is down",
			pingDB:     func() error { return errors.New("connection refused") },
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "ready with no ping configured",
			pingDB:     nil,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := gin.New()
			NewSystemHandler("nestogy-billing", tt.pingDB).RegisterRoutes(engine.Group(""))

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestSystemHandler_Health(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	NewSystemHandler("nestogy-billing", nil).RegisterRoutes(engine.Group(""))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
