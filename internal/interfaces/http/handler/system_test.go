package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemHandler_Ping(t *testing.T) {
	h := NewSystemHandler("1.0.0", nil)
	r := gin.New()
	r.GET("/system/ping", h.Ping)
	r.GET("/system/info", h.GetSystemInfo)

	w := serve(t, r, http.MethodGet, "/system/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"message":"pong"`)

	w = serve(t, r, http.MethodGet, "/system/info", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":"1.0.0"`)
}

func TestSystemHandler_Health(t *testing.T) {
	up := PingerFunc(func(context.Context) error { return nil })
	down := PingerFunc(func(context.Context) error { return errors.New("refused") })

	tests := []struct {
		name   string
		checks map[string]Pinger
		status int
		want   map[string]string
	}{
		{"all up", map[string]Pinger{"database": up}, http.StatusOK, map[string]string{"database": "up"}},
		{"redis down", map[string]Pinger{"database": up, "redis": down}, http.StatusServiceUnavailable,
			map[string]string{"database": "up", "redis": "down"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", NewSystemHandler("dev", tt.checks).Health)

			w := serve(t, r, http.MethodGet, "/health", "")
			require.Equal(t, tt.status, w.Code)

			var resp struct {
				Data HealthResponse `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp.Data.Components)
		})
	}
}
