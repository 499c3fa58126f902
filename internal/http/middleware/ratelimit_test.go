package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ashinemobile/booking-backend/internal/ratelimit"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newLimitedRouter(l *ratelimit.Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/booking", FixedWindow(l, nil), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return r
}

func post(r http.Handler, xff string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/booking", strings.NewReader("{}"))
	if xff != "" {
		req.Header.Set("X-Forwarded-For", xff)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBookingKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	if got := BookingKey(c); got != "booking:unknown" {
		t.Fatalf("BookingKey without headers = %q", got)
	}
	c.Request.Header.Set("X-Forwarded-For", " 203.0.113.9 , 10.0.0.1")
	if got := BookingKey(c); got != "booking:203.0.113.9" {
		t.Fatalf("BookingKey = %q", got)
	}
}

func TestFixedWindow_SixthRequestLimited(t *testing.T) {
	clk := &clock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	store := ratelimit.NewMemoryStore(ratelimit.WithClock(clk.now))
	r := newLimitedRouter(ratelimit.New(store, ratelimit.DefaultLimit))

	before := testutil.ToFloat64(rateLimited)
	for i := 1; i <= 5; i++ {
		if w := post(r, "198.51.100.7"); w.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, w.Code)
		}
	}
	w := post(r, "198.51.100.7")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("6th request: status %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if len(body) != 1 || body["error"] != RateLimitedMessage {
		t.Fatalf("unexpected 429 body: %v", body)
	}
	if got := testutil.ToFloat64(rateLimited) - before; got != 1 {
		t.Fatalf("rate limited counter delta = %v", got)
	}

	// Another client is unaffected.
	if w := post(r, "198.51.100.8"); w.Code != http.StatusOK {
		t.Fatalf("other ip: status %d", w.Code)
	}

	// The window ends 15 minutes after the first request.
	clk.t = clk.t.Add(15 * time.Minute)
	if w := post(r, "198.51.100.7"); w.Code != http.StatusOK {
		t.Fatalf("after window: status %d", w.Code)
	}
}

type failingStore struct{}

func (failingStore) Hit(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("redis: connection refused")
}

func TestFixedWindow_StoreErrorFailsOpen(t *testing.T) {
	buf := captureLogger(t)
	r := newLimitedRouter(ratelimit.New(failingStore{}, ratelimit.DefaultLimit))

	before := testutil.ToFloat64(rateLimitErrors)
	if w := post(r, ""); w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if got := testutil.ToFloat64(rateLimitErrors) - before; got != 1 {
		t.Fatalf("store error counter delta = %v", got)
	}
	if !strings.Contains(buf.String(), "rate limit store unavailable") {
		t.Fatalf("expected a warning, got %s", buf.String())
	}
}

func TestFixedWindow_CustomKey(t *testing.T) {
	store := ratelimit.NewMemoryStore()
	l := ratelimit.New(store, ratelimit.Limit{Max: 1, Window: time.Minute})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", FixedWindow(l, func(*gin.Context) string { return "global" }), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i, want := range []int{http.StatusNoContent, http.StatusTooManyRequests} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("X-Real-IP", []string{"192.0.2.1", "192.0.2.2"}[i])
		r.ServeHTTP(w, req)
		if w.Code != want {
			t.Fatalf("request %d: status %d; want %d", i, w.Code, want)
		}
	}
}
