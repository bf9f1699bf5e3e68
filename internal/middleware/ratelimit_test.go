package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func limitedRouter(t *testing.T, rps float64, burst int) (*gin.Engine, *RateLimiter) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	rl := NewRateLimiter(ctx, rps, burst)
	router := gin.New()
	router.Use(rl.Middleware())
	router.POST("/api/users/login", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	return router, rl
}

func hit(router *gin.Engine, remoteAddr string) int {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/users/login", nil)
	req.RemoteAddr = remoteAddr
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimit_AllowsNormalRequests(t *testing.T) {
	router, _ := limitedRouter(t, 10, 10)

	if code := hit(router, "192.168.1.1:12345"); code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, code)
	}
}

func TestRateLimit_BlocksExcessiveRequests(t *testing.T) {
	router, _ := limitedRouter(t, 1, 2)

	var lastCode int
	for i := 0; i < 5; i++ {
		lastCode = hit(router, "10.0.0.1:12345")
	}

	if lastCode != http.StatusTooManyRequests {
		t.Errorf("expected status %d after burst exceeded, got %d", http.StatusTooManyRequests, lastCode)
	}
}

func TestRateLimit_IndependentPerIP(t *testing.T) {
	router, _ := limitedRouter(t, 1, 1)

	if code := hit(router, "10.0.0.1:12345"); code != http.StatusOK {
		t.Errorf("IP1 first request: expected %d, got %d", http.StatusOK, code)
	}
	if code := hit(router, "10.0.0.2:12345"); code != http.StatusOK {
		t.Errorf("IP2 first request: expected %d, got %d", http.StatusOK, code)
	}
}

func TestRateLimit_SweepForgetsIdleIPs(t *testing.T) {
	router, rl := limitedRouter(t, 1, 1)
	hit(router, "10.0.0.1:12345")
	hit(router, "10.0.0.2:12345")

	if n := rl.size(); n != 2 {
		t.Fatalf("expected 2 tracked IPs, got %d", n)
	}

	rl.sweep(time.Now())
	if n := rl.size(); n != 2 {
		t.Errorf("recently seen IPs must be kept, got %d", n)
	}

	rl.sweep(time.Now().Add(limiterIdleTimeout + time.Second))
	if n := rl.size(); n != 0 {
		t.Errorf("idle IPs should be forgotten, got %d", n)
	}
}
