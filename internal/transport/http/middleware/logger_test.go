package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func newTestEngine(seen *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Logger(zap.NewNop()))
	r.GET("/ping", func(c *gin.Context) {
		*seen = RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})
	return r
}

func TestLoggerGeneratesRequestID(t *testing.T) {
	var seen string
	r := newTestEngine(&seen)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	header := rec.Header().Get("X-Request-ID")
	if header == "" {
		t.Fatal("expected a generated request id header")
	}
	if seen != header {
		t.Fatalf("context id %q does not match header %q", seen, header)
	}
}

func TestLoggerHonorsIncomingRequestID(t *testing.T) {
	var seen string
	r := newTestEngine(&seen)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Fatalf("expected the incoming id to be echoed, got %q", got)
	}
	if seen != "req-123" {
		t.Fatalf("expected the incoming id in the request context, got %q", seen)
	}
}
