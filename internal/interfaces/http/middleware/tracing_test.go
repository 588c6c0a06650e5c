package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func tracedRouter(t *testing.T) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

	r := gin.New()
	r.Use(RequestID(), Tracing(TracingConfig{
		ServiceName:    "storefront-test",
		Enabled:        true,
		TracerProvider: tp,
		SkipPaths:      []string{"/health"},
	}), SpanErrorMarker())
	r.Use(func(c *gin.Context) {
		c.Set(JWTUserIDKey, "user-1")
		c.Next()
	}, TracingAttributeInjector())

	r.GET("/products/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/orders/:id", func(c *gin.Context) { c.Status(http.StatusForbidden) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r, sr
}

func attrMap(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestTracing(t *testing.T) {
	t.Run("records span with route name and request attributes", func(t *testing.T) {
		r, sr := tracedRouter(t)
		req := httptest.NewRequest(http.MethodGet, "/products/42", nil)
		req.Header.Set(RequestIDHeader, "req-7")
		r.ServeHTTP(httptest.NewRecorder(), req)

		spans := sr.Ended()
		require.Len(t, spans, 1)
		assert.Contains(t, spans[0].Name(), "/products/:id")
		attrs := attrMap(spans[0])
		assert.Equal(t, "req-7", attrs["request_id"].AsString())
		assert.Equal(t, "user-1", attrs["user_id"].AsString())
		assert.NotEqual(t, codes.Error, spans[0].Status().Code)
	})

	t.Run("marks error responses", func(t *testing.T) {
		r, sr := tracedRouter(t)
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/1", nil))

		spans := sr.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status().Code)
		assert.Equal(t, "Forbidden", spans[0].Status().Description)
	})

	t.Run("skips configured paths", func(t *testing.T) {
		r, sr := tracedRouter(t)
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Empty(t, sr.Ended())
	})

	t.Run("disabled is pass-through", func(t *testing.T) {
		r := gin.New()
		r.Use(Tracing(TracingConfig{}), SpanErrorMarker(), TracingAttributeInjector())
		r.GET("/x", func(c *gin.Context) { c.Status(http.StatusTeapot) })
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusTeapot, w.Code)
	})
}
